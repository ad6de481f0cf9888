// Package testing provides test utilities, builders, and fixtures for unit and integration tests.
//
// This package centralizes common testing patterns to avoid duplication across test files:
//   - ProcedureBuilder: Fluent builder for creating test procedures
//   - ScriptedExecutor: Executor answering commands from a script
//   - EngineFixture: Engine wired to a temporary run record store
//   - Mock*: testify mocks for the engine's collaborators
//
// Usage:
//
//	proc := testing.NewProcedureBuilder("deploy").
//	    WithStep(testing.Step("a", "echo a").Revert("echo undo-a")).
//	    Build()
//
//	exec := testing.NewScriptedExecutor().Fail("echo b", 1, "boom")
//	fixture := testing.NewEngineFixture(t, exec)
//	report, err := fixture.Engine.Run(ctx, proc, procedure.RunOptions{})
package testing
