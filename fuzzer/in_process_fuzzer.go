package fuzzer

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"alma.local/valobs/feedback"
	"alma.local/valobs/internal/logging"
	"alma.local/valobs/observers"
)

// Option configures an InProcessFuzzer.
type Option func(*InProcessFuzzer)

// WithLogger sets the logger used for per-execution debug records.
func WithLogger(logger *slog.Logger) Option {
	return func(f *InProcessFuzzer) {
		f.logger = logger
	}
}

// WithMetrics registers the fuzzer's execution metrics with reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(f *InProcessFuzzer) {
		f.registerer = reg
	}
}

// InProcessFuzzer runs a harness in the same process space and drives the
// lifecycle of the attached observers around every execution.
//
// It never resets observed values: whatever the harness leaves in observed
// memory is still there when the next execution starts.
type InProcessFuzzer struct {
	harness    Harness
	observers  *observers.Collection
	logger     *slog.Logger
	registerer prometheus.Registerer
	metrics    *metrics

	executions uint64
	runID      string
}

// NewInProcessFuzzer creates a new InProcessFuzzer. A nil collection is
// treated as an empty one.
func NewInProcessFuzzer(harness Harness, coll *observers.Collection, opts ...Option) (*InProcessFuzzer, error) {
	if harness == nil {
		return nil, ErrNilHarness
	}
	if coll == nil {
		coll, _ = observers.NewCollection()
	}

	f := &InProcessFuzzer{
		harness:   harness,
		observers: coll,
		logger:    logging.NewNop(),
		metrics:   newMetrics(),
	}
	for _, opt := range opts {
		opt(f)
	}

	if f.registerer != nil {
		if err := f.metrics.register(f.registerer); err != nil {
			return nil, fmt.Errorf("fuzzer: register metrics: %w", err)
		}
	}
	return f, nil
}

// Observers returns the collection attached to the fuzzer.
func (f *InProcessFuzzer) Observers() *observers.Collection {
	return f.observers
}

func (f *InProcessFuzzer) Executions() uint64 {
	return f.executions
}

// RunID identifies the execution in progress, or the last one.
func (f *InProcessFuzzer) RunID() string {
	return f.runID
}

// Reset clears the execution counter and run id.
func (f *InProcessFuzzer) Reset() {
	f.executions = 0
	f.runID = ""
}

// Execute performs one execution.
// 1. Runs every observer's PreExec.
// 2. Calls the harness, catching panics.
// 3. Runs every observer's PostExec.
// 4. Collects the observers' hashes into a RuntimeSignature.
func (f *InProcessFuzzer) Execute(input []byte) (feedback.RuntimeSignature, error) {
	f.executions++
	f.runID = uuid.NewString()

	if err := f.observers.PreExecAll(f, input); err != nil {
		f.logger.Error("pre exec failed", "run_id", f.runID, "error", err)
		return feedback.RuntimeSignature{}, fmt.Errorf("fuzzer: %w", err)
	}

	exit, harnessErr := f.run(input)

	if err := f.observers.PostExecAll(f, input, exit); err != nil {
		f.logger.Error("post exec failed", "run_id", f.runID, "error", err)
		return feedback.RuntimeSignature{}, fmt.Errorf("fuzzer: %w", err)
	}

	sig := feedback.Collect(f.runID, exit, f.observers)
	f.metrics.observe(sig)

	attrs := []any{
		"run_id", f.runID,
		"execution", f.executions,
		"input_len", len(input),
		"exit", exit.String(),
		"fingerprint", fmt.Sprintf("%016x", sig.Fingerprint()),
	}
	if harnessErr != nil {
		attrs = append(attrs, "error", harnessErr)
	}
	if len(sig.Unhashable) > 0 {
		attrs = append(attrs, "unhashable", sig.Unhashable)
	}
	f.logger.Debug("execution finished", attrs...)

	return sig, nil
}

func (f *InProcessFuzzer) run(input []byte) (exit observers.ExitKind, err error) {
	defer func() {
		if r := recover(); r != nil {
			exit = observers.ExitCrash
			err = fmt.Errorf("%w: %v", ErrHarnessPanic, r)
		}
	}()

	if err := f.harness(input); err != nil {
		return observers.ExitError, err
	}
	return observers.ExitOk, nil
}
