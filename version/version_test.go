package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTag_Equal(t *testing.T) {
	assert.True(t, New(1, 1, 1).Equal(New(1, 1, 1)))
	assert.False(t, New(1, 1, 1).Equal(New(1, 1, 2)))
	assert.False(t, New(1, 1, 1).Equal(New(1, 2, 1)))
	assert.False(t, New(1, 1, 1).Equal(New(2, 1, 1)))
	assert.False(t, New(1, 1, 1).Equal(New(1, 1, 1).WithID(7)))
}

func TestTag_SameTiers(t *testing.T) {
	a := New(3, 2, 1).WithID(10)
	b := New(3, 2, 1).WithID(20)

	assert.True(t, a.SameTiers(b))
	assert.False(t, a.Equal(b))
	assert.False(t, a.SameTiers(New(3, 2, 0)))
}

func TestTag_String(t *testing.T) {
	assert.Equal(t, "1.2.3#42", New(1, 2, 3).WithID(42).String())
	assert.True(t, Tag{}.IsZero())
	assert.False(t, New(0, 0, 1).IsZero())
}
