package fixedhash_test

import (
	"reflect"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alma.local/valobs/fixedhash"
)

// Golden digests pin the xxh64-fs/1 contract. They must never change
// without bumping fixedhash.Version.
func TestGolden(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  uint64
	}{
		{name: "int 0", value: 0, want: 0x62335b18417c36b7},
		{name: "int 5", value: 5, want: 0x8524137bb2412c16},
		{name: "int 42", value: 42, want: 0x2bd294ff85e06cee},
		{name: "uint8 widened", value: uint8(42), want: 0x2bd294ff85e06cee},
		{name: "string", value: "hello", want: 0xbc4646e9dbf3148a},
		{name: "int slice", value: []int{1, 2, 3}, want: 0x741e8c2286e8ec34},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := fixedhash.Sum(tt.value)
			require.True(t, ok)
			assert.Equal(t, tt.want, got, "got %#x", got)
		})
	}
}

func TestOf_MatchesSumForConcreteTypes(t *testing.T) {
	a, ok := fixedhash.Of(5)
	require.True(t, ok)
	b, _ := fixedhash.Sum(5)
	assert.Equal(t, a, b)
}

func TestCombine(t *testing.T) {
	assert.Equal(t, uint64(0x62335b18417c36b7), fixedhash.Combine())
	assert.NotEqual(t, fixedhash.Combine(1, 2), fixedhash.Combine(2, 1))
}

type point struct {
	X, Y int
	tag  string
}

type wrapper struct {
	Inner *point
	Any   any
	Set   map[string]bool
}

func TestContentEquality(t *testing.T) {
	w1 := wrapper{Inner: &point{1, 2, "a"}, Any: "x", Set: map[string]bool{"a": true, "b": false, "c": true}}
	w2 := wrapper{Inner: &point{1, 2, "a"}, Any: "x", Set: map[string]bool{"c": true, "b": false, "a": true}}

	h1, ok1 := fixedhash.Of(w1)
	h2, ok2 := fixedhash.Of(w2)
	require.True(t, ok1)
	require.True(t, ok2)
	assert.Equal(t, h1, h2)

	for i := 0; i < 20; i++ {
		again, _ := fixedhash.Of(w1)
		assert.Equal(t, h1, again)
	}
}

func TestDistinguishes(t *testing.T) {
	tests := []struct {
		name string
		a, b any
	}{
		{name: "unexported field", a: point{1, 2, "a"}, b: point{1, 2, "b"}},
		{name: "nil vs zero pointer", a: wrapper{}, b: wrapper{Inner: &point{}}},
		{name: "interface dynamic type", a: wrapper{Any: int32(1)}, b: wrapper{Any: int64(1)}},
		{name: "string split", a: []string{"ab", "c"}, b: []string{"a", "bc"}},
		{name: "map values", a: map[string]int{"a": 1, "b": 2}, b: map[string]int{"a": 2, "b": 1}},
		{name: "bools", a: true, b: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ha, _ := fixedhash.Sum(tt.a)
			hb, _ := fixedhash.Sum(tt.b)
			assert.NotEqual(t, ha, hb)
		})
	}
}

func TestNegativeZero(t *testing.T) {
	negZero := 0.0
	negZero = -negZero

	a, _ := fixedhash.Sum(0.0)
	b, _ := fixedhash.Sum(negZero)
	assert.Equal(t, a, b)
}

type cyclic struct {
	Next *cyclic
}

func TestUnhashable(t *testing.T) {
	loop := &cyclic{}
	loop.Next = loop

	ch := make(chan int)
	var x int

	tests := []struct {
		name  string
		value any
	}{
		{name: "func", value: func() {}},
		{name: "chan", value: ch},
		{name: "unsafe pointer", value: unsafe.Pointer(&x)},
		{name: "cycle", value: loop},
		{name: "func in interface", value: []any{1, func() {}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := fixedhash.Sum(tt.value)
			assert.False(t, ok)
		})
	}
}

func TestSharedPointerIsNotACycle(t *testing.T) {
	p := &point{X: 1}
	_, ok := fixedhash.Sum([]*point{p, p})
	assert.True(t, ok)
}

type selfRef struct {
	F int
	G *int
}

func TestPointerToFirstFieldIsNotACycle(t *testing.T) {
	s := &selfRef{F: 3}
	s.G = &s.F

	got, ok := fixedhash.Of(s)
	require.True(t, ok)

	other := &selfRef{F: 3, G: new(int)}
	*other.G = 3
	want, _ := fixedhash.Of(other)
	assert.Equal(t, want, got)
}

type caseless string

func (c caseless) HashInto(h *fixedhash.Hasher) {
	h.WriteUint64(uint64(len(c)))
}

type byRef struct{ n int }

func (b *byRef) HashInto(h *fixedhash.Hasher) {
	h.WriteInt64(int64(b.n % 10))
}

func TestHashable(t *testing.T) {
	a, _ := fixedhash.Of(caseless("abc"))
	b, _ := fixedhash.Of(caseless("xyz"))
	assert.Equal(t, a, b)

	c, _ := fixedhash.Of(byRef{n: 3})
	d, _ := fixedhash.Of(byRef{n: 13})
	assert.Equal(t, c, d)
}

func TestCanHash(t *testing.T) {
	assert.True(t, fixedhash.CanHash(reflect.TypeOf(wrapper{})))
	assert.True(t, fixedhash.CanHash(reflect.TypeOf(cyclic{})))
	assert.True(t, fixedhash.CanHash(reflect.TypeOf(caseless(""))))
	assert.False(t, fixedhash.CanHash(reflect.TypeOf(struct{ F func() }{})))
	assert.False(t, fixedhash.CanHash(reflect.TypeOf(map[string]chan int{})))
}

// keyed carries a callback but hashes only its id.
type keyed struct {
	id int
	fn func()
}

func (k keyed) HashInto(h *fixedhash.Hasher) {
	h.WriteInt64(int64(k.id))
}

type exportedKey struct{ K keyed }

type unexportedKey struct{ k keyed }

func TestHashable_FieldVisibility(t *testing.T) {
	k := keyed{id: 7, fn: func() {}}

	a, ok := fixedhash.Sum(exportedKey{K: k})
	require.True(t, ok)
	b, ok := fixedhash.Sum(unexportedKey{k: k})
	require.True(t, ok)
	assert.Equal(t, a, b)

	c, ok := fixedhash.Of(map[string]unexportedKey{"x": {k: k}})
	require.True(t, ok)
	d, _ := fixedhash.Of(map[string]exportedKey{"x": {K: k}})
	assert.Equal(t, d, c)

	assert.True(t, fixedhash.CanHash(reflect.TypeOf(unexportedKey{})))
}

func TestHashable_PointerReceiverThroughSum(t *testing.T) {
	a, ok := fixedhash.Sum(byRef{n: 3})
	require.True(t, ok)
	b, _ := fixedhash.Of(byRef{n: 13})
	assert.Equal(t, b, a)
}
