package observers

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"
	"gopkg.in/yaml.v3"

	"alma.local/valobs/cell"
	"alma.local/valobs/ownedref"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// snapshot is the transport form shared by both observer kinds. It carries
// content only; the borrowed/owned state does not travel.
type snapshot[T any] struct {
	Name  string `json:"name" yaml:"name"`
	Value T      `json:"value" yaml:"value"`
}

func (s *snapshot[T]) validate() error {
	if s.Name == "" {
		return ErrMissingName
	}
	return nil
}

func (o *ValueObserver[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal(snapshot[T]{Name: o.name, Value: *o.value.AsRef()})
}

// UnmarshalJSON replaces o with an owned observer.
func (o *ValueObserver[T]) UnmarshalJSON(data []byte) error {
	var s snapshot[T]
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("observers: decode json: %w", err)
	}
	if err := s.validate(); err != nil {
		return err
	}
	o.name = s.Name
	o.value = ownedref.Owned(s.Value)
	return nil
}

func (o *ValueObserver[T]) MarshalYAML() (any, error) {
	return snapshot[T]{Name: o.name, Value: *o.value.AsRef()}, nil
}

// UnmarshalYAML replaces o with an owned observer.
func (o *ValueObserver[T]) UnmarshalYAML(node *yaml.Node) error {
	var s snapshot[T]
	if err := node.Decode(&s); err != nil {
		return fmt.Errorf("observers: decode yaml: %w", err)
	}
	if err := s.validate(); err != nil {
		return err
	}
	o.name = s.Name
	o.value = ownedref.Owned(s.Value)
	return nil
}

func (o *RefCellValueObserver[T]) snapshot() snapshot[T] {
	s := snapshot[T]{Name: o.name}
	o.View(func(v *T) { s.Value = *v })
	return s
}

func (o *RefCellValueObserver[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.snapshot())
}

// UnmarshalJSON replaces o with an observer owning a fresh cell.
func (o *RefCellValueObserver[T]) UnmarshalJSON(data []byte) error {
	var s snapshot[T]
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("observers: decode json: %w", err)
	}
	if err := s.validate(); err != nil {
		return err
	}
	o.name = s.Name
	o.value = ownedref.Boxed(cell.New(s.Value))
	return nil
}

func (o *RefCellValueObserver[T]) MarshalYAML() (any, error) {
	return o.snapshot(), nil
}

// UnmarshalYAML replaces o with an observer owning a fresh cell.
func (o *RefCellValueObserver[T]) UnmarshalYAML(node *yaml.Node) error {
	var s snapshot[T]
	if err := node.Decode(&s); err != nil {
		return fmt.Errorf("observers: decode yaml: %w", err)
	}
	if err := s.validate(); err != nil {
		return err
	}
	o.name = s.Name
	o.value = ownedref.Boxed(cell.New(s.Value))
	return nil
}
