package optimize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/livecodelang/lcl/ast"
)

func TestParsePasses(t *testing.T) {
	assert.Equal(t, []string{"check", "inline", "slots"}, ParsePasses(" check, inline,,slots "))
	assert.Nil(t, ParsePasses(""))
	assert.Nil(t, ParsePasses(" , "))
}

func TestPipelineDefault(t *testing.T) {
	var ran []string
	p, err := Pipeline(Config{Trace: func(name string) { ran = append(ran, name) }})
	require.NoError(t, err)

	out, err := p.Transform(simpleProgram())
	require.NoError(t, err)
	assert.Equal(t, DefaultPasses, ran)

	expected := ast.NewBlock(
		cached("bar", ast.NewLambda([]string{"b"}, cached("foo", identity("a"), ast.NewVariable("b"))), ast.NewNum(1)),
	)
	assert.Equal(t, expected, out)
}

func TestPipelineUnknownPass(t *testing.T) {
	_, err := Pipeline(Config{Passes: []string{"inline", "constfold"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown pass "constfold"`)
}

func TestPipelineSlotPolicy(t *testing.T) {
	_, err := Pipeline(Config{Passes: []string{PassSlots, PassLocalSlots}})
	assert.ErrorIs(t, err, ErrSlotPolicy)

	_, err = Pipeline(Config{Passes: []string{PassSlots, PassDeadCode, PassSlots}})
	assert.NoError(t, err, "repeating one policy is allowed")
}

func TestPipelineGlobals(t *testing.T) {
	p, err := Pipeline(Config{Passes: []string{PassSlots}, Globals: []string{"time", "pi"}})
	require.NoError(t, err)

	out, err := p.Transform(ast.NewBlock(ast.NewAssignment("x", ast.NewVariable("pi"))))
	require.NoError(t, err)
	assert.Equal(t, ast.NewBlock(slotted("x", 2, ast.NewSlotVariable("pi", 1))), out)
}

func TestPipelineGlobalSlotsFreshPerRun(t *testing.T) {
	p, err := Pipeline(Config{Passes: []string{PassSlots}})
	require.NoError(t, err)

	tree := ast.NewBlock(ast.NewAssignment("y", ast.NewNum(1)))
	first, err := p.Transform(tree)
	require.NoError(t, err)
	second, err := p.Transform(ast.NewBlock(ast.NewAssignment("z", ast.NewNum(1))))
	require.NoError(t, err)

	assert.Equal(t, 0, first.(*ast.Block).Elements[0].(*ast.Assignment).Ref.Slot)
	assert.Equal(t, 0, second.(*ast.Block).Elements[0].(*ast.Assignment).Ref.Slot)
}

func TestPipelineCheckRejectsDuplicateParams(t *testing.T) {
	p, err := Pipeline(Config{})
	require.NoError(t, err)

	tree := ast.NewBlock(ast.NewAssignment("f", ast.NewLambda([]string{"a", "a"}, ast.NewVariable("a"))))
	_, err = p.Transform(tree)
	var dup *ast.DuplicateParamError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "a", dup.Param)
	assert.Contains(t, err.Error(), "check: ")
}

func TestPipelineClosuresThenInline(t *testing.T) {
	p, err := Pipeline(Config{Passes: []string{PassClosures, PassInline, PassDeadCode}})
	require.NoError(t, err)

	tree := ast.NewBlock(
		ast.NewAssignment("f", ast.NewLambda([]string{"a"}, ast.NewBinaryOp("*", ast.NewVariable("a"), ast.NewVariable("k")))),
		ast.NewApplication("f", ast.NewNum(2)),
	)
	out, err := p.Transform(tree)
	require.NoError(t, err)

	app := out.(*ast.Block).Elements[0].(*ast.Application)
	require.NotNil(t, app.Cache)
	assert.Equal(t, []string{"k"}, app.Cache.Free, "cached copies keep their analysis")
}
