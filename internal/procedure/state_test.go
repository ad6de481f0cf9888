package procedure

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/imamik/hoc/internal/record"
)

func TestIsAllowedTransition(t *testing.T) {
	t.Parallel()

	allowed := map[record.Status][]record.Status{
		record.StatusPending:     {record.StatusRendering, record.StatusFailed},
		record.StatusRendering:   {record.StatusDispatching, record.StatusFailed},
		record.StatusDispatching: {record.StatusSucceeded, record.StatusFailed},
		record.StatusSucceeded:   {record.StatusRolledBack, record.StatusRollbackFailed},
	}
	all := []record.Status{
		record.StatusPending, record.StatusRendering, record.StatusDispatching,
		record.StatusSucceeded, record.StatusFailed, record.StatusRolledBack, record.StatusRollbackFailed,
	}

	for _, from := range all {
		for _, to := range all {
			want := false
			for _, s := range allowed[from] {
				if s == to {
					want = true
				}
			}
			assert.Equal(t, want, isAllowedTransition(from, to), "%s -> %s", from, to)
		}
	}
}

func TestIsTerminal(t *testing.T) {
	t.Parallel()

	assert.False(t, IsTerminal(record.StatusPending))
	assert.False(t, IsTerminal(record.StatusDispatching))
	assert.True(t, IsTerminal(record.StatusSucceeded))
	assert.True(t, IsTerminal(record.StatusRollbackFailed))
}

func TestTransitionError(t *testing.T) {
	t.Parallel()

	err := &TransitionError{Step: "flash", From: record.StatusFailed, To: record.StatusSucceeded}
	assert.Equal(t, `disallowed transition for step "flash": failed -> succeeded`, err.Error())
}
