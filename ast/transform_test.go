package ast

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChainEmpty(t *testing.T) {
	tree := NewBlock(NewNum(1))
	result, err := Chain().Transform(tree)
	require.NoError(t, err)
	assert.Same(t, tree, result, "empty chain returns same tree")
}

func TestChainSingle(t *testing.T) {
	called := false
	transform := TransformFunc{
		N: "test",
		F: func(n Node) (Node, error) {
			called = true
			return NewStr("modified"), nil
		},
	}
	result, err := Chain(transform).Transform(NewStr("original"))
	require.NoError(t, err)
	assert.True(t, called, "transform was called")
	assert.Equal(t, NewStr("modified"), result)
}

func TestChainOrdering(t *testing.T) {
	var order []string
	record := func(name string) Transform {
		return TransformFunc{
			N: name,
			F: func(n Node) (Node, error) {
				order = append(order, name)
				return n, nil
			},
		}
	}
	_, err := Chain(record("first"), record("second"), record("third")).Transform(NewBlock())
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second", "third"}, order)
}

func TestChainPipeline(t *testing.T) {
	// Each transform appends to the string to verify chaining
	appendTransform := func(name, suffix string) Transform {
		return TransformFunc{
			N: name,
			F: func(n Node) (Node, error) {
				return NewStr(n.(*Str).Value + suffix), nil
			},
		}
	}
	inner := Chain(appendTransform("a", "+a"), appendTransform("b", "+b"))
	outer := Chain(inner, appendTransform("c", "+c"))
	result, err := outer.Transform(NewStr("start"))
	require.NoError(t, err)
	assert.Equal(t, "start+a+b+c", result.(*Str).Value)
}

func TestChainStopsAtFirstError(t *testing.T) {
	boom := errors.New("boom")
	ran := false
	failing := TransformFunc{N: "failing", F: func(Node) (Node, error) { return nil, boom }}
	after := TransformFunc{N: "after", F: func(n Node) (Node, error) {
		ran = true
		return n, nil
	}}

	_, err := Chain(failing, after).Transform(NewBlock())
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "failing")
	assert.False(t, ran)
}

func TestChainName(t *testing.T) {
	assert.Equal(t, "chain", Chain().Name())
}

func TestObserve(t *testing.T) {
	var seen []string
	tf := TransformFunc{N: "noop", F: func(n Node) (Node, error) { return n, nil }}
	obs := Observe(tf, func(name string) { seen = append(seen, name) })

	_, err := obs.Transform(NewBlock())
	require.NoError(t, err)
	assert.Equal(t, "noop", obs.Name())
	assert.Equal(t, []string{"noop"}, seen)
}
