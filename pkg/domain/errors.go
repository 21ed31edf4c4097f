package domain

import "errors"

// ErrNotRegistered is returned when an operation requires a machine that
// is not currently registered.
var ErrNotRegistered = errors.New("machine not registered")

// ErrMachineNotFound is returned by snapshot stores when no snapshot
// exists for the given machine ID.
var ErrMachineNotFound = errors.New("machine not found")
