package ownedref_test

import (
	"testing"

	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"alma.local/valobs/ownedref"
)

func TestRef_ReadsThroughBorrowedMemory(t *testing.T) {
	x := 1
	o := ownedref.Ref(&x)

	assert.False(t, o.IsOwned())
	assert.Same(t, &x, o.AsRef())

	x = 7
	assert.Equal(t, 7, *o.AsRef())
}

func TestRef_NilPanics(t *testing.T) {
	assert.PanicsWithValue(t, ownedref.ErrNilRef, func() {
		ownedref.Ref[int](nil)
	})
	assert.PanicsWithValue(t, ownedref.ErrNilRef, func() {
		ownedref.Boxed[int](nil)
	})
}

func TestSet_SeversBorrow(t *testing.T) {
	x := 1
	o := ownedref.Ref(&x)
	o.Set(2)

	require.True(t, o.IsOwned())
	x = 99
	assert.Equal(t, 2, *o.AsRef())
	assert.Equal(t, 99, x)
}

func TestTake(t *testing.T) {
	t.Run("borrowed is cloned", func(t *testing.T) {
		s := []int{1, 2, 3}
		o := ownedref.Ref(&s)

		got := o.Take()
		got[0] = 100

		assert.Equal(t, []int{1, 2, 3}, s)
		assert.True(t, o.IsEmpty())
	})

	t.Run("owned is moved", func(t *testing.T) {
		v := &[]string{"a"}
		o := ownedref.Boxed(v)

		got := o.Take()
		assert.Equal(t, []string{"a"}, got)
		assert.True(t, o.IsEmpty())
	})

	t.Run("empty panics", func(t *testing.T) {
		var o ownedref.OwnedRef[int]
		assert.PanicsWithValue(t, ownedref.ErrEmpty, func() { o.Take() })
		assert.PanicsWithValue(t, ownedref.ErrEmpty, func() { o.AsRef() })
	})
}

func TestString(t *testing.T) {
	x := 3
	r := ownedref.Ref(&x)
	o := ownedref.Owned(4)
	var e ownedref.OwnedRef[int]

	assert.Equal(t, "Ref(3)", r.String())
	assert.Equal(t, "Owned(4)", o.String())
	assert.Equal(t, "Empty", e.String())
}

func TestJSON_DecodesOwned(t *testing.T) {
	x := map[string]int{"a": 1}
	o := ownedref.Ref(&x)

	data, err := jsoniter.Marshal(o)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, string(data))

	var back ownedref.OwnedRef[map[string]int]
	require.NoError(t, jsoniter.Unmarshal(data, &back))
	assert.True(t, back.IsOwned())
	assert.Equal(t, x, *back.AsRef())
}

func TestYAML_DecodesOwned(t *testing.T) {
	x := []string{"x", "y"}
	o := ownedref.Ref(&x)

	data, err := yaml.Marshal(o)
	require.NoError(t, err)

	var back ownedref.OwnedRef[[]string]
	require.NoError(t, yaml.Unmarshal(data, &back))
	assert.True(t, back.IsOwned())
	assert.Equal(t, x, *back.AsRef())
}
