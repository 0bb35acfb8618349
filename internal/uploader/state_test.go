package uploader

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateTransition(t *testing.T) {
	tests := []struct {
		name    string
		from    State
		to      State
		allowed bool
	}{
		{"pending to target requested", StatePending, StateTargetRequested, true},
		{"target requested to transferring", StateTargetRequested, StateTransferring, true},
		{"target requested to failed", StateTargetRequested, StateFailed, true},
		{"transferring to transferred", StateTransferring, StateTransferred, true},
		{"transferring to canceled", StateTransferring, StateCanceled, true},
		{"transferring to failed", StateTransferring, StateFailed, true},
		{"transferred to finalized", StateTransferred, StateFinalized, true},
		{"pending cannot skip to transferring", StatePending, StateTransferring, false},
		{"canceled only from transferring", StatePending, StateCanceled, false},
		{"finalized is terminal", StateFinalized, StatePending, false},
		{"failed has no retry", StateFailed, StatePending, false},
		{"transferred cannot be canceled", StateTransferred, StateCanceled, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTransition(tt.from, tt.to)
			if tt.allowed {
				require.NoError(t, err)
			} else {
				require.Error(t, err)
			}
			assert.Equal(t, tt.allowed, CanTransitionTo(tt.from, tt.to))
		})
	}
}

func TestIsTerminal(t *testing.T) {
	assert.True(t, IsTerminal(StateFinalized))
	assert.True(t, IsTerminal(StateCanceled))
	assert.True(t, IsTerminal(StateFailed))
	assert.False(t, IsTerminal(StatePending))
	assert.False(t, IsTerminal(StateTransferring))
	assert.False(t, IsTerminal(StateTransferred))
}
