package fuzzer

import (
	"errors"

	"alma.local/valobs/feedback"
)

var (
	ErrNilHarness   = errors.New("fuzzer: nil harness")
	ErrHarnessPanic = errors.New("fuzzer: harness panicked")
)

// Harness runs the target once on input. Returning an error marks the
// execution as observers.ExitError; panicking marks it as observers.ExitCrash.
type Harness func(input []byte) error

// Fuzzer defines the interface for a component that executes fuzzing inputs
// and reports what its observers saw.
type Fuzzer interface {
	// Execute runs the target once on input and returns the observers'
	// RuntimeSignature. An error means the observer lifecycle failed; harness
	// failures are reported through the signature's exit kind instead.
	Execute(input []byte) (feedback.RuntimeSignature, error)

	// Reset clears the fuzzer's own counters. Observed values are left as
	// they are.
	Reset()

	// Executions returns the number of executions since the last Reset.
	Executions() uint64
}
