package persistence

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hupe1980/persist/identity"
)

func TestObjectName(t *testing.T) {
	assert.Equal(t, "objects/point/42.rec", ObjectName("point", 42))
	assert.Equal(t, "objects/point/-1.rec", ObjectName("point", -1))

	id, ok := parseObjectName("objects/point/", "objects/point/42.rec")
	assert.True(t, ok)
	assert.Equal(t, identity.ID(42), id)

	for _, name := range []string{
		"objects/point/42.gen",
		"objects/point/abc.rec",
		"objects/point/sub/1.rec",
		"objects/other/1.rec",
	} {
		_, ok := parseObjectName("objects/point/", name)
		assert.False(t, ok, name)
	}
}

func TestCheckpointName(t *testing.T) {
	name := CheckpointName(3)
	assert.Equal(t, "checkpoints/00000000000000000003.gen", name)
	assert.Less(t, CheckpointName(9), CheckpointName(10))

	seq, ok := ParseCheckpointName(name)
	assert.True(t, ok)
	assert.Equal(t, uint64(3), seq)

	_, ok = ParseCheckpointName("checkpoints/x.gen")
	assert.False(t, ok)
	_, ok = ParseCheckpointName("objects/3.gen")
	assert.False(t, ok)
}

func TestValidTypeName(t *testing.T) {
	assert.True(t, validTypeName("point"))
	for _, bad := range []string{"", ".", "..", "a/b", `a\b`} {
		assert.False(t, validTypeName(bad), bad)
	}
}
