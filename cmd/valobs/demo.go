package main

import (
	"errors"

	"alma.local/valobs/cell"
	"alma.local/valobs/observers"
)

var errNulByte = errors.New("demo: nul byte in input")

// demoTarget is a toy byte classifier instrumented with two observers.
// highBytes is observed by reference and accumulates across executions.
// path lives in a cell and is cleared by the harness at the start of each
// run, since observers never reset what they watch.
type demoTarget struct {
	highBytes int
	path      *cell.RefCell[[]string]
}

func newDemoTarget() *demoTarget {
	return &demoTarget{path: cell.New([]string(nil))}
}

func (d *demoTarget) observers() (*observers.Collection, error) {
	return observers.NewCollection(
		observers.NewValueObserver("high_bytes", &d.highBytes),
		observers.NewRefCellValueObserver("path", d.path),
	)
}

// harness classifies each byte. A NUL byte stops the run with an error and
// an input framed by 0xff on both ends crashes it.
func (d *demoTarget) harness(input []byte) error {
	d.path.Set(nil)

	if len(input) > 1 && input[0] == 0xff && input[len(input)-1] == 0xff {
		panic("demo: sentinel frame")
	}

	for _, b := range input {
		class := "low"
		switch {
		case b == 0:
			return errNulByte
		case b >= 0x80:
			d.highBytes++
			class = "high"
		}
		d.path.Update(func(p *[]string) { *p = append(*p, class) })
	}
	return nil
}
