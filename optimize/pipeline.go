package optimize

import (
	"errors"
	"fmt"
	"strings"

	"github.com/livecodelang/lcl/ast"
)

// Pass names accepted by Config.Passes.
const (
	PassCheck      = "check"
	PassClosures   = "closures"
	PassInline     = "inline"
	PassDeadCode   = "deadcode"
	PassSlots      = "slots"
	PassLocalSlots = "local-slots"
)

// DefaultPasses is the pipeline used when none is configured: validate,
// resolve functions to their call sites, then sweep up what that left.
var DefaultPasses = []string{PassCheck, PassInline, PassDeadCode}

// ErrSlotPolicy is returned when a pipeline asks for both slot policies.
var ErrSlotPolicy = errors.New("slots and local-slots are mutually exclusive")

// Config selects and parameterises the optimisation pipeline.
type Config struct {
	// Passes in the order they run. Empty means DefaultPasses.
	Passes []string
	// Globals are names that already own the first slots of the global
	// frame, e.g. host-provided variables.
	Globals []string
	// Trace, when set, is called with each pass name before it runs.
	Trace func(pass string)
}

// ParsePasses splits a comma-separated pass list, ignoring blanks.
func ParsePasses(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Check returns the validation pass.
func Check() ast.Transform {
	return ast.CheckChain{ast.UniqueParams()}.AsTransform()
}

// Closures returns closure analysis as a Transform.
func Closures() ast.Transform {
	return ast.TransformFunc{N: PassClosures, F: AnalyzeClosures}
}

// Inline returns function elimination as a Transform.
func Inline() ast.Transform {
	return ast.TransformFunc{N: PassInline, F: EliminateFunctions}
}

// DeadCode returns dead-code elimination as a Transform.
func DeadCode() ast.Transform {
	return ast.TransformFunc{N: PassDeadCode, F: EliminateDeadCode}
}

// GlobalSlots returns global slot allocation seeded with globals. Each
// run starts from a fresh table.
func GlobalSlots(globals ...string) ast.Transform {
	return ast.TransformFunc{N: PassSlots, F: func(n ast.Node) (ast.Node, error) {
		return AllocateGlobalSlots(n, NewSlotTable(globals...))
	}}
}

// LocalSlots returns per-closure slot allocation as a Transform.
func LocalSlots() ast.Transform {
	return ast.TransformFunc{N: PassLocalSlots, F: LocalizeSlots}
}

// Pipeline builds the configured chain of passes.
func Pipeline(cfg Config) (ast.Transform, error) {
	names := cfg.Passes
	if len(names) == 0 {
		names = DefaultPasses
	}
	var (
		passes []ast.Transform
		policy string
	)
	for _, name := range names {
		switch name {
		case PassCheck:
			passes = append(passes, Check())
		case PassClosures:
			passes = append(passes, Closures())
		case PassInline:
			passes = append(passes, Inline())
		case PassDeadCode:
			passes = append(passes, DeadCode())
		case PassSlots, PassLocalSlots:
			if policy != "" && policy != name {
				return nil, ErrSlotPolicy
			}
			policy = name
			if name == PassSlots {
				passes = append(passes, GlobalSlots(cfg.Globals...))
			} else {
				passes = append(passes, LocalSlots())
			}
		default:
			return nil, fmt.Errorf("unknown pass %q", name)
		}
	}
	if cfg.Trace != nil {
		for i, p := range passes {
			passes[i] = ast.Observe(p, cfg.Trace)
		}
	}
	return ast.Chain(passes...), nil
}
