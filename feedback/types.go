package feedback

import (
	"slices"

	"alma.local/valobs/fixedhash"
	"alma.local/valobs/observers"
)

// RuntimeSignature is a compact representation of one execution as seen
// through its observers. It carries no judgement about the execution;
// deciding whether it is interesting is up to the consumer.
type RuntimeSignature struct {
	RunID string
	Exit  observers.ExitKind
	// ObserverHashes maps observer names to the hash of what they observed.
	ObserverHashes map[string]uint64
	// Unhashable lists observers that implement observers.HashField but
	// could not hash their current value, in collection order.
	Unhashable []string
}

// NewRuntimeSignature initializes a RuntimeSignature with a non-nil ObserverHashes map.
func NewRuntimeSignature(runID string, exit observers.ExitKind) RuntimeSignature {
	return RuntimeSignature{
		RunID:          runID,
		Exit:           exit,
		ObserverHashes: make(map[string]uint64),
	}
}

// Collect reads the hash of every hashing observer in c.
func Collect(runID string, exit observers.ExitKind, c *observers.Collection) RuntimeSignature {
	sig := NewRuntimeSignature(runID, exit)
	c.Each(func(o observers.Observer) {
		hf, ok := o.(observers.HashField)
		if !ok {
			return
		}
		sum, ok := hf.Hash()
		if !ok {
			sig.Unhashable = append(sig.Unhashable, o.Name())
			return
		}
		sig.ObserverHashes[o.Name()] = sum
	})
	return sig
}

// Fingerprint combines the observer hashes, ordered by name, into one
// xxh64-fs/1 digest. Two signatures over content-equal observations have the
// same fingerprint regardless of run id or exit kind.
func (s RuntimeSignature) Fingerprint() uint64 {
	names := make([]string, 0, len(s.ObserverHashes))
	for name := range s.ObserverHashes {
		names = append(names, name)
	}
	slices.Sort(names)

	h := fixedhash.New()
	h.WriteUint64(uint64(len(names)))
	for _, name := range names {
		h.WriteString(name)
		h.WriteUint64(s.ObserverHashes[name])
	}
	return h.Sum64()
}
