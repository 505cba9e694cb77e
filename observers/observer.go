// Package observers exposes single pieces of instrumented program state to
// the analysis side of a fuzzing pipeline.
//
// An executor calls PreExec on every observer before running the target and
// PostExec after it. The target writes into the observed memory as a side
// effect of running; the feedback side then reads the value or its hash by
// looking the observer up by name in a Collection.
package observers

// Named is implemented by anything with a stable identifier.
type Named interface {
	Name() string
}

// State is the executor-side view handed to observer hooks.
type State interface {
	// Executions is the number of executions started so far, the current
	// one included.
	Executions() uint64
	// RunID identifies the current execution.
	RunID() string
}

// ExitKind classifies how an execution of the target ended.
type ExitKind int

const (
	ExitOk ExitKind = iota
	// ExitError means the harness returned an error.
	ExitError
	// ExitCrash means the harness panicked.
	ExitCrash
)

func (k ExitKind) String() string {
	switch k {
	case ExitOk:
		return "ok"
	case ExitError:
		return "error"
	case ExitCrash:
		return "crash"
	default:
		return "unknown"
	}
}

// Observer is attached to executions of a target.
type Observer interface {
	Named
	// PreExec runs before each execution.
	PreExec(state State, input []byte) error
	// PostExec runs after each execution.
	PostExec(state State, input []byte, exit ExitKind) error
}

// HashField is implemented by observers that can fingerprint what they
// observed. ok is false when the observed value has no canonical encoding.
type HashField interface {
	Hash() (sum uint64, ok bool)
}
