package record

import "time"

// StepState is the last recorded state of one step within a run.
type StepState struct {
	Name    string
	Status  Status
	Outputs map[string]string
}

// RunState is the state of the latest run reconstructed from a journal.
type RunState struct {
	RunID    string
	From     string
	Started  time.Time
	Finished bool
	Outcome  Outcome

	steps []StepState
	index map[string]int
}

// Replay rebuilds the latest run from entries. It returns nil when the
// journal holds no run.
func Replay(entries []Entry) *RunState {
	var st *RunState
	for _, e := range entries {
		switch e.Kind {
		case KindRun:
			switch e.Status {
			case RunStarted:
				st = &RunState{RunID: e.RunID, From: e.From, Started: e.Time, index: make(map[string]int)}
			case RunResumed:
				if st == nil || st.RunID != e.RunID {
					st = &RunState{RunID: e.RunID, Started: e.Time, index: make(map[string]int)}
				}
			case RunFinished:
				if st != nil && st.RunID == e.RunID {
					st.Finished = true
					st.Outcome = e.Outcome
				}
			}
		case KindStep:
			if st == nil || st.RunID != e.RunID {
				continue
			}
			st.record(e)
		}
	}
	return st
}

func (r *RunState) record(e Entry) {
	i, ok := r.index[e.Step]
	if !ok {
		i = len(r.steps)
		r.index[e.Step] = i
		r.steps = append(r.steps, StepState{Name: e.Step})
	}
	r.steps[i].Status = e.Status
	if e.Outputs != nil {
		r.steps[i].Outputs = e.Outputs
	}
}

// Interrupted reports whether the run never reached a terminal state.
func (r *RunState) Interrupted() bool {
	return r != nil && !r.Finished
}

// Steps returns the recorded steps in the order they first appeared.
func (r *RunState) Steps() []StepState {
	if r == nil {
		return nil
	}
	out := make([]StepState, len(r.steps))
	copy(out, r.steps)
	return out
}

// Step returns the recorded state of name.
func (r *RunState) Step(name string) (StepState, bool) {
	if r == nil {
		return StepState{}, false
	}
	i, ok := r.index[name]
	if !ok {
		return StepState{}, false
	}
	return r.steps[i], true
}

// Succeeded reports whether name's last recorded status is succeeded.
func (r *RunState) Succeeded(name string) bool {
	s, ok := r.Step(name)
	return ok && s.Status == StatusSucceeded
}

// RunSummary describes one run in a journal.
type RunSummary struct {
	RunID    string
	Started  time.Time
	Ended    time.Time
	Finished bool
	Resumed  int
	Outcome  Outcome
	Steps    int
}

// Summarize groups entries by run in journal order.
func Summarize(entries []Entry) []RunSummary {
	var out []RunSummary
	index := make(map[string]int)
	steps := make(map[string]map[string]bool)

	for _, e := range entries {
		i, ok := index[e.RunID]
		if !ok {
			i = len(out)
			index[e.RunID] = i
			out = append(out, RunSummary{RunID: e.RunID, Started: e.Time})
			steps[e.RunID] = make(map[string]bool)
		}
		s := &out[i]
		s.Ended = e.Time
		switch {
		case e.Kind == KindRun && e.Status == RunResumed:
			s.Resumed++
		case e.Kind == KindRun && e.Status == RunFinished:
			s.Finished = true
			s.Outcome = e.Outcome
		case e.Kind == KindStep:
			steps[e.RunID][e.Step] = true
			s.Steps = len(steps[e.RunID])
		}
	}
	return out
}
