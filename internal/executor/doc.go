// Package executor runs rendered commands on an execution target.
//
// A [Target] is one of [LocalTarget], [ContainerTarget] or [RemoteTarget].
// The [Dispatcher] routes each [Request] to the matching backend:
//
//   - [LocalBackend] spawns the host shell.
//   - [ContainerBackend] creates a transient container, runs the command in it
//     and always destroys the container afterwards.
//   - [RemoteBackend] runs the command over a pooled SSH connection.
//
// Backends report the exit code as part of the [Result]; a non-zero exit is
// not an error at this level. Callers turn it into an [ExitError] with
// [CheckExit]. Connection problems are reported as [ConnectionError].
package executor
