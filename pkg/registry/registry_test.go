package registry_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/switchyard-io/switchyard/pkg/domain"
	"github.com/switchyard-io/switchyard/pkg/registry"
)

func turnstileDef() domain.Definition {
	return domain.Definition{
		Initial: "locked",
		Transitions: map[domain.StateID]map[domain.EventID]domain.Transition{
			"locked":   {"COIN": domain.To("unlocked")},
			"unlocked": {"PUSH": domain.To("locked")},
		},
	}
}

func TestTurnstile_EndToEnd(t *testing.T) {
	reg := registry.New()
	m := reg.Register("turnstile", turnstileDef())
	require.NotNil(t, m)
	assert.Equal(t, domain.StateID("locked"), m.CurrentState)

	res, err := reg.Send("turnstile", "COIN", nil)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, domain.StateID("locked"), res.From)
	assert.Equal(t, domain.StateID("unlocked"), res.To)

	res, err = reg.Send("turnstile", "PUSH", nil)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, domain.StateID("unlocked"), res.From)
	assert.Equal(t, domain.StateID("locked"), res.To)

	// Already locked: no PUSH transition from "locked".
	res, err = reg.Send("turnstile", "PUSH", nil)
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, domain.StateID("locked"), res.From)
	assert.Equal(t, domain.StateID("locked"), res.To)
}

func TestSend_NoMatchLeavesMachineUntouched(t *testing.T) {
	reg := registry.New()
	reg.Register("m", domain.Definition{
		Initial: "a",
		Context: map[string]any{"k": "v"},
	})

	res, err := reg.Send("m", "NOPE", nil)
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, domain.StateID("a"), reg.State("m"))
	assert.Equal(t, map[string]any{"k": "v"}, reg.Context("m"))
	assert.Empty(t, reg.History("m", 0), "a miss must not produce history")
}

func TestSend_UnknownMachine(t *testing.T) {
	reg := registry.New()
	_, err := reg.Send("ghost", "GO", nil)
	assert.ErrorIs(t, err, domain.ErrNotRegistered)
}

func TestSend_HandlerStateOnly(t *testing.T) {
	reg := registry.New()
	reg.Register("m", domain.Definition{
		Initial: "a",
		Context: map[string]any{"keep": true},
	})
	err := reg.RegisterTransition("m", "a", "GO", domain.Handle(func(ctx map[string]any, payload any) domain.Outcome {
		return domain.Outcome{State: "b"}
	}))
	require.NoError(t, err)

	res, err := reg.Send("m", "GO", nil)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, domain.StateID("b"), res.To)
	assert.Equal(t, map[string]any{"keep": true}, reg.Context("m"), "context must be unchanged")
}

func TestSend_HandlerContextMerge(t *testing.T) {
	reg := registry.New()
	reg.Register("m", domain.Definition{
		Initial: "a",
		Context: map[string]any{"existing": "x", "a": 0},
	})
	require.NoError(t, reg.RegisterTransition("m", "a", "GO", domain.Handle(func(ctx map[string]any, payload any) domain.Outcome {
		return domain.Outcome{Context: map[string]any{"a": 1}}
	})))

	res, err := reg.Send("m", "GO", nil)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, domain.StateID("a"), res.To, "omitted target defaults to current state")
	assert.Equal(t, map[string]any{"existing": "x", "a": 1}, reg.Context("m"))
}

func TestSend_HandlerPayloadDrivesTarget(t *testing.T) {
	reg := registry.New()
	reg.Register("shop", domain.Definition{Initial: "cart"})
	require.NoError(t, reg.RegisterTransition("shop", "cart", "PAY", domain.Handle(func(ctx map[string]any, payload any) domain.Outcome {
		amount, _ := payload.(map[string]any)["amount"].(int)
		if amount > 0 {
			return domain.Outcome{State: "paid"}
		}
		return domain.Outcome{State: "cart"}
	})))
	require.NoError(t, reg.RegisterTransition("shop", "paid", "RESTART", domain.To("cart")))

	res, err := reg.Send("shop", "PAY", map[string]any{"amount": 10})
	require.NoError(t, err)
	assert.Equal(t, domain.StateID("paid"), res.To)

	_, err = reg.Send("shop", "RESTART", nil)
	require.NoError(t, err)

	res, err = reg.Send("shop", "PAY", map[string]any{"amount": 0})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, domain.StateID("cart"), res.To)

	// Both deliveries carry the original payload in history.
	hist := reg.History("shop", 0)
	require.Len(t, hist, 3)
	assert.Equal(t, map[string]any{"amount": 10}, hist[0].Payload)
	assert.Equal(t, map[string]any{"amount": 0}, hist[2].Payload)
}

func TestSend_HandlerData(t *testing.T) {
	reg := registry.New()
	reg.Register("m", domain.Definition{Initial: "a"})
	require.NoError(t, reg.RegisterTransition("m", "a", "GO", domain.Handle(func(ctx map[string]any, payload any) domain.Outcome {
		return domain.Outcome{State: "b", Data: "receipt-42"}
	})))

	var seen any
	reg.Subscribe("m", func(change domain.SendResult) {
		seen = change.Data
	})

	res, err := reg.Send("m", "GO", nil)
	require.NoError(t, err)
	assert.Equal(t, "receipt-42", res.Data)
	assert.Equal(t, "receipt-42", seen)
}

func TestHistory_CapIsFIFO(t *testing.T) {
	reg := registry.New()
	reg.Register("m", domain.Definition{
		Initial: "idle",
		Transitions: map[domain.StateID]map[domain.EventID]domain.Transition{
			"idle": {"TICK": domain.To("idle")},
		},
	})

	const total = 150
	for i := 0; i < total; i++ {
		res, err := reg.Send("m", "TICK", i)
		require.NoError(t, err)
		require.True(t, res.Success)
	}

	hist := reg.History("m", registry.MaxHistory+50)
	require.Len(t, hist, registry.MaxHistory, "history must never exceed the cap")

	// Oldest entries were evicted: the surviving window is exactly the
	// most recent 100, oldest-first.
	assert.Equal(t, total-registry.MaxHistory, hist[0].Payload)
	assert.Equal(t, total-1, hist[len(hist)-1].Payload)
}

func TestHistory_DefaultLimit(t *testing.T) {
	reg := registry.New()
	reg.Register("m", domain.Definition{
		Initial: "idle",
		Transitions: map[domain.StateID]map[domain.EventID]domain.Transition{
			"idle": {"TICK": domain.To("idle")},
		},
	})
	for i := 0; i < 25; i++ {
		_, err := reg.Send("m", "TICK", i)
		require.NoError(t, err)
	}

	hist := reg.History("m", 0)
	require.Len(t, hist, registry.DefaultHistoryLimit)
	assert.Equal(t, 15, hist[0].Payload, "slice must be the most recent records, oldest-first")
	assert.Equal(t, 24, hist[9].Payload)

	assert.Nil(t, reg.History("ghost", 0))
}

func TestUpdateContext_BypassesHistoryAndListeners(t *testing.T) {
	reg := registry.New()
	reg.Register("m", domain.Definition{
		Initial: "a",
		Context: map[string]any{"x": 1},
	})

	calls := 0
	reg.Subscribe("m", func(domain.SendResult) { calls++ })

	reg.UpdateContext("m", map[string]any{"y": 2})

	assert.Equal(t, map[string]any{"x": 1, "y": 2}, reg.Context("m"))
	assert.Empty(t, reg.History("m", 0))
	assert.Zero(t, calls, "listeners must not fire on direct context updates")

	// Unknown id is a silent no-op.
	reg.UpdateContext("ghost", map[string]any{"y": 2})
}

func TestReset_ClearHistoryMatrix(t *testing.T) {
	setup := func() *registry.Registry {
		reg := registry.New()
		reg.Register("m", turnstileDef())
		_, err := reg.Send("m", "COIN", nil)
		require.NoError(t, err)
		reg.UpdateContext("m", map[string]any{"coins": 1})
		return reg
	}

	t.Run("keep history", func(t *testing.T) {
		reg := setup()
		reg.Reset("m", false)
		// First registered transition source, in table-insertion order
		// (lexical flattening puts "locked" first).
		assert.Equal(t, domain.StateID("locked"), reg.State("m"))
		assert.Empty(t, reg.Context("m"), "context is always cleared")
		assert.Len(t, reg.History("m", 0), 1, "history survives clearHistory=false")
	})

	t.Run("clear history", func(t *testing.T) {
		reg := setup()
		reg.Reset("m", true)
		assert.Empty(t, reg.Context("m"))
		assert.Empty(t, reg.History("m", 0))
	})

	t.Run("empty table falls back to idle", func(t *testing.T) {
		reg := registry.New()
		reg.Register("bare", domain.Definition{Initial: "somewhere"})
		reg.Reset("bare", false)
		assert.Equal(t, domain.DefaultInitialState, reg.State("bare"))
	})
}

func TestRegister_ReplacementDiscardsListeners(t *testing.T) {
	reg := registry.New()
	reg.Register("m", turnstileDef())

	calls := 0
	reg.Subscribe("m", func(domain.SendResult) { calls++ })

	// Re-register wholesale. The old listener matched COIN transitions
	// and must NOT be invoked anymore.
	reg.Register("m", turnstileDef())
	res, err := reg.Send("m", "COIN", nil)
	require.NoError(t, err)
	require.True(t, res.Success)
	assert.Zero(t, calls, "listeners must not survive re-registration")
}

func TestRegisterTransition_RequiresMachine(t *testing.T) {
	reg := registry.New()
	err := reg.RegisterTransition("ghost", "a", "GO", domain.To("b"))
	assert.ErrorIs(t, err, domain.ErrNotRegistered)
}

func TestListeners_OrderAndPanicIsolation(t *testing.T) {
	reg := registry.New()
	reg.Register("m", turnstileDef())

	var order []string
	reg.Subscribe("m", func(domain.SendResult) { order = append(order, "first") })
	reg.Subscribe("m", func(domain.SendResult) { panic("boom") })
	reg.Subscribe("m", func(domain.SendResult) { order = append(order, "third") })

	res, err := reg.Send("m", "COIN", nil)
	require.NoError(t, err)
	assert.True(t, res.Success, "a panicking listener must not fail the send")
	assert.Equal(t, []string{"first", "third"}, order)
}

func TestUnsubscribe(t *testing.T) {
	reg := registry.New()
	reg.Register("m", turnstileDef())

	calls := 0
	token := reg.Subscribe("m", func(domain.SendResult) { calls++ })
	require.NotEmpty(t, token)

	reg.Unsubscribe("m", token)
	_, err := reg.Send("m", "COIN", nil)
	require.NoError(t, err)
	assert.Zero(t, calls)

	// No-ops: unknown token, unknown machine, unknown subscription target.
	reg.Unsubscribe("m", "nope")
	reg.Unsubscribe("ghost", token)
	assert.Empty(t, reg.Subscribe("ghost", func(domain.SendResult) {}))
}

func TestLookups_UnknownIDSoftFail(t *testing.T) {
	reg := registry.New()
	assert.Equal(t, domain.StateID(""), reg.State("ghost"))
	assert.Nil(t, reg.Context("ghost"))
	assert.False(t, reg.InState("ghost", "a"))
	assert.Nil(t, reg.Machine("ghost"))
	assert.Nil(t, reg.Events("ghost"))
}

func TestListAndUnregister(t *testing.T) {
	reg := registry.New()
	reg.Register("b", domain.Definition{})
	reg.Register("a", domain.Definition{})
	reg.Register("c", domain.Definition{})
	assert.Equal(t, []string{"a", "b", "c"}, reg.List())

	reg.Unregister("b")
	assert.Equal(t, []string{"a", "c"}, reg.List())

	// Idempotent.
	reg.Unregister("b")
	assert.Equal(t, []string{"a", "c"}, reg.List())
}

func TestRegister_EmptyID(t *testing.T) {
	reg := registry.New()
	assert.Nil(t, reg.Register("", domain.Definition{}))
	assert.Empty(t, reg.List())
}

func TestInState(t *testing.T) {
	reg := registry.New()
	reg.Register("m", turnstileDef())
	assert.True(t, reg.InState("m", "locked"))
	assert.False(t, reg.InState("m", "unlocked"))
}

func TestEvents_InsertionOrder(t *testing.T) {
	reg := registry.New()
	reg.Register("m", turnstileDef())
	require.NoError(t, reg.RegisterTransition("m", "unlocked", "ALARM", domain.Handle(func(map[string]any, any) domain.Outcome {
		return domain.Outcome{State: "locked"}
	})))

	entries := reg.Events("m")
	require.Len(t, entries, 3)
	assert.Equal(t, domain.StateID("locked"), entries[0].From)
	assert.Equal(t, domain.EventID("COIN"), entries[0].Event)
	assert.Equal(t, domain.StateID("unlocked"), entries[0].Target)
	assert.True(t, entries[2].Handler)
	assert.Empty(t, entries[2].Target, "handler rows have no static target")
}

func TestSnapshotRestore_RoundTrip(t *testing.T) {
	reg := registry.New()
	reg.Register("m", turnstileDef())
	_, err := reg.Send("m", "COIN", "q1")
	require.NoError(t, err)
	reg.UpdateContext("m", map[string]any{"coins": 1})

	snap := reg.Snapshot("m")
	require.NotNil(t, snap)
	assert.Equal(t, domain.StateID("unlocked"), snap.CurrentState)

	// Restore into a fresh registry, re-supplying the definition.
	other := registry.New()
	restored := other.Restore(snap, turnstileDef())
	require.NotNil(t, restored)
	assert.Equal(t, domain.StateID("unlocked"), other.State("m"))
	assert.Equal(t, map[string]any{"coins": 1}, other.Context("m"))
	require.Len(t, other.History("m", 0), 1)

	// The restored machine keeps working.
	res, err := other.Send("m", "PUSH", nil)
	require.NoError(t, err)
	assert.True(t, res.Success)

	assert.Nil(t, other.Snapshot("ghost"))
	assert.Nil(t, other.Restore(nil, domain.Definition{}))
}

func TestHooks(t *testing.T) {
	var transitions, misses, panics int
	var registered, unregistered []string
	reg := registry.New(registry.WithHooks(domain.LifecycleHooks{
		OnTransition:    func(*domain.TransitionEvent) { transitions++ },
		OnNoMatch:       func(*domain.TransitionEvent) { misses++ },
		OnListenerPanic: func(*domain.ListenerPanicEvent) { panics++ },
		OnRegister:      func(id string) { registered = append(registered, id) },
		OnUnregister:    func(id string) { unregistered = append(unregistered, id) },
	}))

	reg.Register("m", turnstileDef())
	reg.Subscribe("m", func(domain.SendResult) { panic("boom") })

	_, err := reg.Send("m", "COIN", nil)
	require.NoError(t, err)
	_, err = reg.Send("m", "COIN", nil)
	require.NoError(t, err)
	reg.Unregister("m")

	assert.Equal(t, 1, transitions)
	assert.Equal(t, 1, misses)
	assert.Equal(t, 1, panics)
	assert.Equal(t, []string{"m"}, registered)
	assert.Equal(t, []string{"m"}, unregistered)
}

func TestConcurrentSends(t *testing.T) {
	reg := registry.New()
	for i := 0; i < 4; i++ {
		reg.Register(fmt.Sprintf("m%d", i), domain.Definition{
			Initial: "idle",
			Transitions: map[domain.StateID]map[domain.EventID]domain.Transition{
				"idle": {"TICK": domain.To("idle")},
			},
		})
	}

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				if _, err := reg.Send(id, "TICK", j); err != nil {
					t.Errorf("send %s: %v", id, err)
					return
				}
			}
		}(fmt.Sprintf("m%d", i))
	}
	wg.Wait()

	for i := 0; i < 4; i++ {
		id := fmt.Sprintf("m%d", i)
		assert.Len(t, reg.History(id, registry.MaxHistory), registry.MaxHistory)
	}
}
