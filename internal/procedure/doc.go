// Package procedure sequences steps into procedures and runs them.
//
// A [Procedure] is an ordered list of [Step]s. The [Engine] runs the steps
// strictly in order. Each step moves through
//
//	pending -> rendering -> dispatching -> succeeded | failed
//
// Rendering resolves the step's inputs and fills its command template; a
// failure there never reaches the backend. When a step fails, every earlier
// step that succeeded and declares a revert command is compensated in
// reverse order. Compensation is exhaustive: a failed revert is recorded and
// the sweep continues.
//
// Every transition is appended to the run record before the next one
// starts. A run whose record has no terminal entry was interrupted and is
// resumed on the next invocation, skipping the steps that already succeeded.
//
// Steps publish outputs by printing marker lines on stdout:
//
//	[hoc]:out:<name>=<value>
//	[hoc]:secret:<name>=<value>
//
// The value is the rest of the line. The last occurrence of a name wins.
package procedure
