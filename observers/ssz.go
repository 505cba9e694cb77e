package observers

import (
	"fmt"
	"math"

	ssz "github.com/ferranbt/fastssz"

	"alma.local/valobs/cell"
	"alma.local/valobs/ownedref"
)

// SSZValue constrains values whose pointer type speaks SSZ, which is what
// fastssz generates for schema structs.
type SSZValue[T any] interface {
	*T
	ssz.Marshaler
	ssz.Unmarshaler
}

// An SSZ frame is the name length as a little-endian uint32, the name, then
// the SSZ encoding of the value.
const frameHeader = 4

func appendFrameName(dst []byte, name string) ([]byte, error) {
	if uint64(len(name)) > math.MaxUint32 {
		return nil, ErrNameTooLong
	}
	dst = ssz.MarshalUint32(dst, uint32(len(name)))
	return append(dst, name...), nil
}

func splitFrame(data []byte) (string, []byte, error) {
	if len(data) < frameHeader {
		return "", nil, ErrShortFrame
	}
	n := uint64(ssz.UnmarshallUint32(data[:frameHeader]))
	if uint64(len(data)-frameHeader) < n {
		return "", nil, ErrShortFrame
	}
	name := string(data[frameHeader : frameHeader+n])
	if name == "" {
		return "", nil, ErrMissingName
	}
	return name, data[frameHeader+n:], nil
}

func marshalFrame[T any, PT SSZValue[T]](name string, v *T) ([]byte, error) {
	pv := PT(v)
	buf := make([]byte, 0, frameHeader+len(name)+pv.SizeSSZ())
	buf, err := appendFrameName(buf, name)
	if err != nil {
		return nil, err
	}
	buf, err = pv.MarshalSSZTo(buf)
	if err != nil {
		return nil, fmt.Errorf("observers: encode ssz %q: %w", name, err)
	}
	return buf, nil
}

func unmarshalFrame[T any, PT SSZValue[T]](data []byte) (string, *T, error) {
	name, body, err := splitFrame(data)
	if err != nil {
		return "", nil, err
	}
	v := new(T)
	if err := PT(v).UnmarshalSSZ(body); err != nil {
		return "", nil, fmt.Errorf("observers: decode ssz %q: %w", name, err)
	}
	return name, v, nil
}

// MarshalSSZ encodes o as an SSZ frame.
func MarshalSSZ[T any, PT SSZValue[T]](o *ValueObserver[T]) ([]byte, error) {
	return marshalFrame[T, PT](o.name, o.Get())
}

// UnmarshalSSZ decodes an SSZ frame into an owned ValueObserver.
func UnmarshalSSZ[T any, PT SSZValue[T]](data []byte) (*ValueObserver[T], error) {
	name, v, err := unmarshalFrame[T, PT](data)
	if err != nil {
		return nil, err
	}
	return &ValueObserver[T]{name: name, value: ownedref.Boxed(v)}, nil
}

// MarshalRefCellSSZ encodes the content of o's cell as an SSZ frame.
func MarshalRefCellSSZ[T any, PT SSZValue[T]](o *RefCellValueObserver[T]) (out []byte, err error) {
	o.View(func(v *T) {
		out, err = marshalFrame[T, PT](o.name, v)
	})
	return out, err
}

// UnmarshalRefCellSSZ decodes an SSZ frame into a RefCellValueObserver that
// owns a fresh cell.
func UnmarshalRefCellSSZ[T any, PT SSZValue[T]](data []byte) (*RefCellValueObserver[T], error) {
	name, v, err := unmarshalFrame[T, PT](data)
	if err != nil {
		return nil, err
	}
	return &RefCellValueObserver[T]{name: name, value: ownedref.Boxed(cell.New(*v))}, nil
}
