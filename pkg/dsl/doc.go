/*
Package dsl declares machine definitions, either from YAML files or
programmatically through a type-safe fluent builder.

Definition files hold the static shape of a machine: initial state,
state metadata, seed context and literal transitions. Handler
transitions carry function values and therefore only exist in code;
declare them with the Builder's OnFunc or register them afterwards with
RegisterTransition.

Example usage:

	package main

	import (
		"github.com/switchyard-io/switchyard"
		"github.com/switchyard-io/switchyard/pkg/dsl"
	)

	func main() {
		def, err := dsl.New().
			Initial("locked").
			State("locked").On("COIN", "unlocked").
			State("unlocked").On("PUSH", "locked").
			Build()
		if err != nil {
			panic(err)
		}

		reg := switchyard.New()
		reg.Register("turnstile", def)
	}
*/
package dsl
