package optimize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/livecodelang/lcl/ast"
)

func slotted(name string, slot int, expr ast.Node) *ast.Assignment {
	return &ast.Assignment{Name: name, Expr: expr, Ref: ast.Ref{Slot: slot, Resolved: true}}
}

func withSlots(app *ast.Application, slots ...int) *ast.Application {
	return ast.WithArgSlots(app, slots)
}

func TestSlotTable(t *testing.T) {
	table := NewSlotTable("time", "pi", "time")
	assert.Equal(t, 2, table.Len())
	assert.Equal(t, 2, table.Allocate("d"))
	assert.Equal(t, 0, table.Allocate("time"))

	slot, ok := table.Lookup("pi")
	assert.True(t, ok)
	assert.Equal(t, 1, slot)
	_, ok = table.Lookup("nope")
	assert.False(t, ok)
	assert.Equal(t, []string{"time", "pi", "d"}, table.Names())
}

func TestFlattenSlotsBasic(t *testing.T) {
	// foo = (a) -> 255 * a
	// foo 1
	tree := ast.NewBlock(
		ast.NewAssignment("foo", times255()),
		ast.NewApplication("foo", ast.NewNum(1)),
	)
	optimized, err := runPasses(t, tree, Inline(), DeadCode())
	require.NoError(t, err)

	out, err := FlattenSlots(optimized)
	require.NoError(t, err)

	expected := ast.NewBlock(
		withSlots(cached("foo",
			ast.NewLambda([]string{"a"}, ast.NewBinaryOp("*", ast.NewNum(255), ast.NewSlotVariable("a", 0))),
			ast.NewNum(1)), 0),
	)
	assert.Equal(t, expected, out)
}

// d = 7
// foo = (a, b) -> b * a
// bar = (x) -> foo x, 3
// bar d
func argProgram(dExpr ast.Node, secondArg ast.Node) ast.Node {
	return ast.NewBlock(
		ast.NewAssignment("d", dExpr),
		ast.NewAssignment("foo", ast.NewLambda([]string{"a", "b"},
			ast.NewBinaryOp("*", ast.NewVariable("b"), ast.NewVariable("a")))),
		ast.NewAssignment("bar", ast.NewLambda([]string{"x"},
			ast.NewApplication("foo", ast.NewVariable("x"), secondArg))),
		ast.NewApplication("bar", ast.NewVariable("d")),
	)
}

func TestFlattenSlotsSharedTable(t *testing.T) {
	optimized, err := runPasses(t, argProgram(ast.NewNum(7), ast.NewNum(3)), Inline(), DeadCode())
	require.NoError(t, err)

	table := NewSlotTable()
	out, err := AllocateGlobalSlots(optimized, table)
	require.NoError(t, err)

	// d: 0, x: 1, a: 2, b: 3
	expected := ast.NewBlock(
		slotted("d", 0, ast.NewNum(7)),
		withSlots(cached("bar",
			ast.NewLambda([]string{"x"}, withSlots(cached("foo",
				ast.NewLambda([]string{"a", "b"},
					ast.NewBinaryOp("*", ast.NewSlotVariable("b", 3), ast.NewSlotVariable("a", 2))),
				ast.NewSlotVariable("x", 1), ast.NewNum(3)), 2, 3)),
			ast.NewSlotVariable("d", 0)), 1),
	)
	assert.Equal(t, expected, out)
	assert.Equal(t, []string{"d", "x", "a", "b"}, table.Names())
}

func TestFlattenSlotsWithPriorValues(t *testing.T) {
	// foo = (a, b) -> b * a
	// d = pi
	// bar = (x) -> foo x, time
	// bar d
	tree := ast.NewBlock(
		ast.NewAssignment("foo", ast.NewLambda([]string{"a", "b"},
			ast.NewBinaryOp("*", ast.NewVariable("b"), ast.NewVariable("a")))),
		ast.NewAssignment("d", ast.NewVariable("pi")),
		ast.NewAssignment("bar", ast.NewLambda([]string{"x"},
			ast.NewApplication("foo", ast.NewVariable("x"), ast.NewVariable("time")))),
		ast.NewApplication("bar", ast.NewVariable("d")),
	)
	optimized, err := runPasses(t, tree, Inline(), DeadCode(), GlobalSlots("time", "pi"))
	require.NoError(t, err)

	// time: 0, pi: 1, d: 2, x: 3, a: 4, b: 5
	expected := ast.NewBlock(
		slotted("d", 2, ast.NewSlotVariable("pi", 1)),
		withSlots(cached("bar",
			ast.NewLambda([]string{"x"}, withSlots(cached("foo",
				ast.NewLambda([]string{"a", "b"},
					ast.NewBinaryOp("*", ast.NewSlotVariable("b", 5), ast.NewSlotVariable("a", 4))),
				ast.NewSlotVariable("x", 3), ast.NewSlotVariable("time", 0)), 4, 5)),
			ast.NewSlotVariable("d", 2)), 3),
	)
	assert.Equal(t, expected, optimized)
}

func TestFlattenSlotsReusesSlotZero(t *testing.T) {
	tree := ast.NewBlock(
		ast.NewAssignment("x", ast.NewNum(1)),
		ast.NewAssignment("x", ast.NewNum(2)),
		ast.NewAssignment("y", ast.NewVariable("x")),
	)
	out, err := FlattenSlots(tree)
	require.NoError(t, err)

	expected := ast.NewBlock(
		slotted("x", 0, ast.NewNum(1)),
		slotted("x", 0, ast.NewNum(2)),
		slotted("y", 1, ast.NewSlotVariable("x", 0)),
	)
	assert.Equal(t, expected, out)
}

func TestFlattenSlotsUncachedCall(t *testing.T) {
	out, err := FlattenSlots(ast.NewBlock(ast.NewApplication("print", ast.NewVariable("unknown"))))
	require.NoError(t, err)
	app := out.(*ast.Block).Elements[0].(*ast.Application)
	assert.Nil(t, app.ArgSlots)
	assert.Equal(t, ast.NewVariable("unknown"), app.Args[0])
}

func TestLocalizeSlots(t *testing.T) {
	// speed = 2
	// f = (a, b) -> { c = a * speed; c + b }
	tree := ast.NewBlock(
		ast.NewAssignment("speed", ast.NewNum(2)),
		ast.NewAssignment("f", ast.NewLambda([]string{"a", "b"}, ast.NewBlock(
			ast.NewAssignment("c", ast.NewBinaryOp("*", ast.NewVariable("a"), ast.NewVariable("speed"))),
			ast.NewBinaryOp("+", ast.NewVariable("c"), ast.NewVariable("b")),
		))),
	)
	out, err := LocalizeSlots(tree)
	require.NoError(t, err)

	local := func(name string, slot int, expr ast.Node) *ast.Assignment {
		return &ast.Assignment{Name: name, Expr: expr, Ref: ast.Ref{Slot: slot, Resolved: true, Local: true}}
	}
	expected := ast.NewBlock(
		local("speed", 0, ast.NewNum(2)),
		local("f", 1, ast.NewLambda([]string{"a", "b"}, ast.NewBlock(
			local("c", 2, ast.NewBinaryOp("*", ast.NewLocalVariable("a", 0), ast.NewVariable("speed"))),
			ast.NewBinaryOp("+", ast.NewLocalVariable("c", 2), ast.NewLocalVariable("b", 1)),
		))),
	)
	assert.Equal(t, expected, out)
}

func TestLocalizeSlotsKeepsOuterResolution(t *testing.T) {
	// A name resolved by the global pass keeps that slot inside closures
	// that do not bind it.
	tree := ast.NewBlock(
		slotted("speed", 7, ast.NewNum(2)),
		ast.NewLambda([]string{"a"}, ast.NewBinaryOp("*", ast.NewLocalVariable("a", 9), ast.NewSlotVariable("speed", 7))),
	)
	out, err := LocalizeSlots(tree)
	require.NoError(t, err)

	lambda := out.(*ast.Block).Elements[1].(*ast.Lambda)
	body := lambda.Body.(*ast.BinaryOp)
	assert.Equal(t, ast.NewLocalVariable("a", 0), body.X)
	assert.Equal(t, ast.NewSlotVariable("speed", 7), body.Y)
}

func TestLocalizeSlotsFreshFramePerCallSite(t *testing.T) {
	optimized, err := runPasses(t, argProgram(ast.NewNum(7), ast.NewNum(3)), Inline(), DeadCode(), LocalSlots())
	require.NoError(t, err)

	bar := optimized.(*ast.Block).Elements[1].(*ast.Application)
	assert.Equal(t, ast.NewLocalVariable("d", 0), bar.Args[0], "top level is its own frame")
	foo := bar.Cache.Body.(*ast.Application)
	assert.Equal(t, ast.NewLocalVariable("x", 0), foo.Args[0])
	mul := foo.Cache.Body.(*ast.BinaryOp)
	assert.Equal(t, ast.NewLocalVariable("b", 1), mul.X)
	assert.Equal(t, ast.NewLocalVariable("a", 0), mul.Y)
}
