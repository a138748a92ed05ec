package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/livecodelang/lcl/ast"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "cache", "trees.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// tick makes the store's clock advance one second per call.
func tick(s *Store) {
	base := time.Unix(1700000000, 0)
	n := 0
	s.now = func() time.Time {
		n++
		return base.Add(time.Duration(n) * time.Second)
	}
}

func sampleTree() ast.Node {
	app := ast.WithCache(ast.NewApplication("foo", ast.NewNum(1)),
		ast.NewLambda([]string{"a"}, ast.NewBinaryOp("*", ast.NewNum(255), ast.NewSlotVariable("a", 0))))
	return ast.NewBlock(ast.WithArgSlots(app, []int{0}))
}

func TestKey(t *testing.T) {
	k := Key([]byte(`{"ast":"BLOCK"}`), []string{"inline", "deadcode"})
	assert.Len(t, k, 32)
	assert.Equal(t, k, Key([]byte(`{"ast":"BLOCK"}`), []string{"inline", "deadcode"}))
	assert.NotEqual(t, k, Key([]byte(`{"ast":"BLOCK"}`), []string{"inline"}))
	assert.NotEqual(t, k, Key([]byte(`{"ast":"BLOCK"}`), []string{"deadcode", "inline"}))
	assert.NotEqual(t, Key([]byte("ab"), []string{"c"}), Key([]byte("a"), []string{"bc"}))
	assert.NotEqual(t, k, Key([]byte(`{"ast":"BLOCK"}`), []string{"inline", "deadcode", "version=v2"}))
}

func TestGetMiss(t *testing.T) {
	s := openTemp(t)
	n, ok, err := s.Get("nope")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, n)
}

func TestPutGet(t *testing.T) {
	s := openTemp(t)
	tree := sampleTree()
	require.NoError(t, s.Put("k", tree))

	got, ok, err := s.Get("k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, tree, got)
}

func TestPutReplaces(t *testing.T) {
	s := openTemp(t)
	require.NoError(t, s.Put("k", ast.NewBlock(ast.NewNum(1))))
	require.NoError(t, s.Put("k", ast.NewBlock(ast.NewNum(2))))

	got, ok, err := s.Get("k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, ast.NewBlock(ast.NewNum(2)), got)

	n, err := s.Len()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestEvictsLeastRecentlyUsed(t *testing.T) {
	s := openTemp(t)
	tick(s)
	s.MaxEntries = 2

	require.NoError(t, s.Put("a", ast.NewBlock(ast.NewNum(1))))
	require.NoError(t, s.Put("b", ast.NewBlock(ast.NewNum(2))))
	_, ok, err := s.Get("a")
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, s.Put("c", ast.NewBlock(ast.NewNum(3))))

	n, err := s.Len()
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, ok, err = s.Get("b")
	require.NoError(t, err)
	assert.False(t, ok, "b was least recently used")
	_, ok, err = s.Get("a")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestPersistsAcrossOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trees.db")
	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Put("k", sampleTree()))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	got, ok, err := s.Get("k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, sampleTree(), got)
}
