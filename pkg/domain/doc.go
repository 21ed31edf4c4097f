/*
Package domain contains the core domain models for the Switchyard registry.

It defines the fundamental entities of a machine, such as States, Events,
Transitions and the bounded transition History. This package is kept pure and
free of external dependencies like I/O or persistence, following Hexagonal
Architecture principles.

# Key Entities

  - Transition: a rule for moving between states, either a literal target or a Handler.
  - Outcome: what a Handler computes (target state, context patch, listener data).
  - Record: an immutable log entry capturing one completed transition.
  - Machine: a point-in-time snapshot of one registered machine.
  - Snapshot: the serializable slice of a machine's runtime state.
*/
package domain
