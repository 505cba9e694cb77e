package observers

import "errors"

var (
	ErrEmptyName     = errors.New("observers: empty observer name")
	ErrDuplicateName = errors.New("observers: duplicate observer name")
	ErrNotFound      = errors.New("observers: observer not found")
	ErrTypeMismatch  = errors.New("observers: observer has a different type")

	// ErrMissingName is returned when a transported observer carries no name.
	ErrMissingName = errors.New("observers: snapshot has no name")
	ErrShortFrame  = errors.New("observers: ssz frame too short")
	ErrNameTooLong = errors.New("observers: name too long for ssz frame")
)
