package worker

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestState_String(t *testing.T) {
	assert.Equal(t, "started", StateStarted.String())
	assert.Equal(t, "ready", StateReady.String())
	assert.Equal(t, "busy", StateBusy.String())
	assert.Equal(t, "done", StateDone.String())
	assert.Equal(t, "stopped", StateStopped.String())
	assert.Equal(t, "unknown", State(999).String())
}

func TestCanTransition(t *testing.T) {
	all := []State{StateStarted, StateReady, StateBusy, StateDone, StateStopped}
	allowed := map[[2]State]bool{
		{StateStopped, StateStarted}: true,
		{StateStarted, StateReady}:   true,
		{StateReady, StateBusy}:      true,
		{StateBusy, StateDone}:       true,
		{StateDone, StateReady}:      true,
		{StateStarted, StateStopped}: true,
		{StateReady, StateStopped}:   true,
		{StateBusy, StateStopped}:    true,
		{StateDone, StateStopped}:    true,
	}

	for _, from := range all {
		for _, to := range all {
			assert.Equal(t, allowed[[2]State{from, to}], canTransition(from, to),
				"transition %s -> %s", from, to)
		}
	}
}

func TestStateWriter_RejectsIllegalTransition(t *testing.T) {
	cell := &stateCell{current: StateReady}
	writer := stateWriter{cell: cell}

	writer.advance(StateBusy)
	assert.Equal(t, StateBusy, cell.get())

	assert.Panics(t, func() { writer.advance(StateReady) })
	assert.Equal(t, StateBusy, cell.get())
}
