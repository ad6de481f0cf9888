package progress

import "github.com/go-logr/logr"

// LogSink writes transitions as structured log lines.
type LogSink struct {
	Log logr.Logger
}

// Emit implements Sink.
func (s LogSink) Emit(e Event) {
	kv := []any{"procedure", e.Procedure, "run", e.RunID, "status", string(e.Status)}
	if e.Step != "" {
		kv = append(kv, "step", e.Step, "phase", string(e.Phase), "index", e.Index+1, "total", e.Total)
	}
	if e.Skipped {
		kv = append(kv, "skipped", true)
	}
	if e.Outcome != "" {
		kv = append(kv, "outcome", string(e.Outcome))
	}
	if e.Elapsed > 0 {
		kv = append(kv, "elapsed", e.Elapsed.String())
	}
	if e.Message != "" {
		kv = append(kv, "message", e.Message)
	}
	s.Log.V(1).Info("transition", kv...)
}
