package statemachine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConcurrent_AddRemove(t *testing.T) {
	c := NewConcurrent()
	c.AddMachine("door", newTurnstile())
	c.AddMachine("gate", NewFSM("stopped"))
	assert.Equal(t, 2, c.Count())

	c.RemoveMachine("door")
	assert.Equal(t, 1, c.Count())

	_, ok := c.GetMachine("door")
	assert.False(t, ok)

	m, ok := c.GetMachine("gate")
	require.True(t, ok)
	assert.Equal(t, State("stopped"), m.Current())
}

func TestConcurrent_Trigger(t *testing.T) {
	c := NewConcurrent()
	c.AddMachine("door", newTurnstile())

	require.NoError(t, c.Trigger(context.Background(), "door", "coin"))
	assert.Equal(t, map[string]State{"door": "unlocked"}, c.GetStates())

	assert.ErrorIs(t, c.Trigger(context.Background(), "missing", "coin"), ErrMachineNotFound)
}

func TestConcurrent_TriggerAll(t *testing.T) {
	c := NewConcurrent()
	c.AddMachine("a", newTurnstile())
	c.AddMachine("b", newTurnstile())

	player, _ := startPlayer(t)
	c.AddMachine("player", player)

	results := c.TriggerAll(context.Background(), "coin")
	require.Len(t, results, 3)
	assert.NoError(t, results["a"])
	assert.NoError(t, results["b"])
	assert.ErrorIs(t, results["player"], ErrInvalidTransition)

	assert.Equal(t, map[string]State{
		"a":      "unlocked",
		"b":      "unlocked",
		"player": "off",
	}, c.GetStates())
}

func TestConcurrent_TriggerAllCancelled(t *testing.T) {
	c := NewConcurrent()
	c.AddMachine("a", newTurnstile())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := c.TriggerAll(ctx, "coin")
	assert.ErrorIs(t, results["a"], context.Canceled)
	assert.Equal(t, State("locked"), c.GetStates()["a"])
}

func TestConcurrent_ResetAll(t *testing.T) {
	c := NewConcurrent()
	c.AddMachine("a", newTurnstile())
	player, _ := startPlayer(t)
	c.AddMachine("player", player)

	ctx := context.Background()
	require.NoError(t, c.Trigger(ctx, "a", "coin"))
	require.NoError(t, c.Trigger(ctx, "player", "power"))

	for name, err := range c.ResetAll() {
		assert.NoError(t, err, name)
	}
	assert.Equal(t, map[string]State{"a": "locked", "player": "off"}, c.GetStates())
}
