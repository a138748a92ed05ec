package interp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnvChain(t *testing.T) {
	root := NewEnv()
	root.Set("a", 1.0)
	child := root.Child()
	child.Set("b", 2.0)

	assert.Same(t, root, child.Parent())
	assert.Nil(t, root.Parent())

	v, ok := child.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1.0, v)

	_, ok = root.Get("b")
	assert.False(t, ok, "child bindings stay in the child layer")

	child.Set("a", 5.0)
	v, _ = root.Get("a")
	assert.Equal(t, 1.0, v, "Set shadows instead of writing through")

	assert.Equal(t, []string{"a", "b"}, child.Names())
}
