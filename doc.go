/*
Package switchyard is a registry for named finite state machines with
per-machine context, bounded transition history and change listeners.

Each machine has a current state, a free-form context map and a
transition table keyed by (state, event). A transition either names a
literal target state or carries a handler function that inspects the
context and the event payload to decide the outcome at runtime.

# Concept

Switchyard keeps many small machines alive in one process and lets the
host drive them by sending events. The registry is safe for concurrent
use; listeners observe state changes without being able to deadlock or
crash the dispatcher. Definitions can be declared in YAML files, built
fluently in code, or assembled transition by transition.

# Usage

	package main

	import (
		"fmt"
		"log"

		"github.com/switchyard-io/switchyard"
		"github.com/switchyard-io/switchyard/pkg/domain"
	)

	func main() {
		reg := switchyard.New()

		reg.Register("turnstile", domain.Definition{
			Initial: "locked",
			Transitions: map[domain.StateID]map[domain.EventID]domain.Transition{
				"locked":   {"COIN": domain.To("unlocked")},
				"unlocked": {"PUSH": domain.To("locked")},
			},
		})

		token := reg.Subscribe("turnstile", func(change domain.SendResult) {
			fmt.Printf("%s -> %s on %s\n", change.From, change.To, change.Event)
		})
		defer reg.Unsubscribe("turnstile", token)

		res, err := reg.Send("turnstile", "COIN", nil)
		if err != nil {
			log.Fatal(err)
		}
		if !res.Success {
			log.Println("no transition matched")
		}
	}

Handler transitions compute the target dynamically:

	reg.RegisterTransition("cart", "idle", "PAY", domain.Handle(
		func(ctx map[string]any, payload any) domain.Outcome {
			amount, _ := payload.(float64)
			if amount <= 0 {
				return domain.Outcome{State: "rejected"}
			}
			return domain.Outcome{
				State:   "paid",
				Context: map[string]any{"amount": amount},
			}
		}))
*/
package switchyard
