package ast

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckChainRunsInOrder(t *testing.T) {
	var order []string
	mk := func(name string, err error) Check {
		return CheckFunc{N: name, F: func(Node) error {
			order = append(order, name)
			return err
		}}
	}
	boom := errors.New("boom")

	err := CheckChain{mk("a", nil), mk("b", boom), mk("c", nil)}.Run(NewBlock())
	require.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"a", "b"}, order)
}

func TestUniqueParamsAccepts(t *testing.T) {
	tree := NewBlock(NewAssignment("f", NewLambda([]string{"a", "b"}, NewVariable("a"))))
	assert.NoError(t, UniqueParams().Check(tree))
}

func TestUniqueParamsRejectsDuplicates(t *testing.T) {
	tree := NewBlock(
		NewAssignment("f", NewLambda([]string{"a"}, NewVariable("a"))),
		NewAssignment("g", NewLambda([]string{"x", "y", "x"}, NewVariable("x"))),
	)
	err := UniqueParams().Check(tree)
	require.Error(t, err)

	var dup *DuplicateParamError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "x", dup.Param)
	assert.Equal(t, "unique-params", UniqueParams().Name())
}

func TestUniqueParamsInsideCache(t *testing.T) {
	app := WithCache(NewApplication("f"), NewLambda([]string{"a", "a"}, NewNum(1)))
	assert.Error(t, UniqueParams().Check(NewBlock(app)))
}

func TestCheckChainAsTransform(t *testing.T) {
	tree := NewBlock(NewNum(1))
	tf := CheckChain{UniqueParams()}.AsTransform()
	out, err := tf.Transform(tree)
	require.NoError(t, err)
	assert.Same(t, tree, out)
	assert.Equal(t, "check", tf.Name())

	_, err = tf.Transform(NewLambda([]string{"a", "a"}, NewNum(1)))
	assert.Error(t, err)
}
