package observers

import "fmt"

// Collection holds the observers attached to an executor, in insertion
// order, and indexes them by name. It is not safe for concurrent use; each
// worker owns its own Collection.
type Collection struct {
	list   []Observer
	byName map[string]int
}

// NewCollection returns a Collection holding obs, or the first Add error.
func NewCollection(obs ...Observer) (*Collection, error) {
	c := &Collection{byName: make(map[string]int, len(obs))}
	for _, o := range obs {
		if err := c.Add(o); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Add appends o. Names must be non-empty and unique within the collection.
func (c *Collection) Add(o Observer) error {
	name := o.Name()
	if name == "" {
		return ErrEmptyName
	}
	if _, exists := c.byName[name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateName, name)
	}
	c.byName[name] = len(c.list)
	c.list = append(c.list, o)
	return nil
}

func (c *Collection) Get(name string) (Observer, bool) {
	i, ok := c.byName[name]
	if !ok {
		return nil, false
	}
	return c.list[i], true
}

// Lookup returns the observer registered under name as an O.
func Lookup[O Observer](c *Collection, name string) (O, error) {
	var zero O
	o, ok := c.Get(name)
	if !ok {
		return zero, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	typed, ok := o.(O)
	if !ok {
		return zero, fmt.Errorf("%w: %s is %T", ErrTypeMismatch, name, o)
	}
	return typed, nil
}

func (c *Collection) Len() int {
	return len(c.list)
}

// Names returns observer names in insertion order.
func (c *Collection) Names() []string {
	names := make([]string, len(c.list))
	for i, o := range c.list {
		names[i] = o.Name()
	}
	return names
}

// Each calls fn for every observer in insertion order.
func (c *Collection) Each(fn func(o Observer)) {
	for _, o := range c.list {
		fn(o)
	}
}

// PreExecAll runs PreExec on every observer and stops at the first error.
func (c *Collection) PreExecAll(state State, input []byte) error {
	for _, o := range c.list {
		if err := o.PreExec(state, input); err != nil {
			return fmt.Errorf("pre exec %s: %w", o.Name(), err)
		}
	}
	return nil
}

// PostExecAll runs PostExec on every observer and stops at the first error.
func (c *Collection) PostExecAll(state State, input []byte, exit ExitKind) error {
	for _, o := range c.list {
		if err := o.PostExec(state, input, exit); err != nil {
			return fmt.Errorf("post exec %s: %w", o.Name(), err)
		}
	}
	return nil
}
