package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/livecodelang/lcl/ast"
	"github.com/livecodelang/lcl/builtins"
	"github.com/livecodelang/lcl/interp"
	"github.com/livecodelang/lcl/optimize"
	"github.com/livecodelang/lcl/store"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"
)

// Execute runs the lcl CLI with the given version string.
func Execute(version string) {
	cmd := &cli.Command{
		Name:                   "lcl",
		Usage:                  "Optimise and run LiveCodeLang program trees",
		Version:                version,
		UseShortOptionHandling: true,
		Commands: []*cli.Command{
			{
				Name:      "run",
				Usage:     "Optimise and evaluate a tree",
				ArgsUsage: "<tree.json>",
				Flags:     pipelineFlags(),
				Action:    runAction,
			},
			{
				Name:      "optimize",
				Aliases:   []string{"opt"},
				Usage:     "Print the optimised tree as JSON",
				ArgsUsage: "<tree.json>",
				Flags: append(pipelineFlags(),
					&cli.BoolFlag{
						Name:  "compact",
						Usage: "Print the tree on a single line",
					},
				),
				Action: optimizeAction,
			},
			{
				Name:      "analyze",
				Usage:     "Print the free variables of every lambda",
				ArgsUsage: "<tree.json>",
				Flags:     []cli.Flag{noColorFlag()},
				Action:    analyzeAction,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		printError(os.Stderr, err, colorEnabled(slices.Contains(os.Args, "--no-color")))
		os.Exit(1)
	}
}

func noColorFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:    "no-color",
		Aliases: []string{"C"},
		Usage:   "Disable ANSI color output",
	}
}

func pipelineFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "passes",
			Aliases: []string{"p"},
			Usage:   "Comma-separated passes to run (check, closures, inline, deadcode, slots, local-slots)",
			Value:   strings.Join(optimize.DefaultPasses, ","),
		},
		&cli.StringFlag{
			Name:  "globals",
			Usage: "Comma-separated names that own the first global slots",
		},
		&cli.StringFlag{
			Name:    "cache",
			Usage:   "SQLite file caching optimised trees (\"default\" for ~/.cache/lcl/trees.db)",
			Sources: cli.EnvVars("LCL_CACHE"),
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "Print each pass as it runs",
		},
		noColorFlag(),
	}
}

// options is the command-line configuration shared by the pipeline
// commands.
type options struct {
	version string
	passes  []string
	globals []string
	cache   string
	verbose bool
	color   bool
}

func optionsFrom(cmd *cli.Command) (options, error) {
	passes := optimize.ParsePasses(cmd.String("passes"))
	if len(passes) == 0 {
		passes = optimize.DefaultPasses
	}
	cache, err := cachePath(cmd.String("cache"))
	if err != nil {
		return options{}, err
	}
	return options{
		version: cmd.Root().Version,
		passes:  passes,
		globals: optimize.ParsePasses(cmd.String("globals")),
		cache:   cache,
		verbose: cmd.Bool("verbose"),
		color:   colorEnabled(cmd.Bool("no-color")),
	}, nil
}

func cachePath(flag string) (string, error) {
	if flag != "default" {
		return flag, nil
	}
	path, err := store.DefaultPath()
	if err != nil {
		return "", fmt.Errorf("cache: %w", err)
	}
	return path, nil
}

// colorEnabled reports whether stderr output may use ANSI colours.
func colorEnabled(noColor bool) bool {
	if noColor || os.Getenv("NO_COLOR") != "" {
		return false
	}
	return term.IsTerminal(int(os.Stderr.Fd()))
}

func printError(w io.Writer, err error, color bool) {
	prefix := "error:"
	if color {
		prefix = "\033[31merror:\033[0m"
	}
	fmt.Fprintf(w, "%s %v\n", prefix, err)
}

func readTree(cmd *cli.Command, usage string) ([]byte, error) {
	if cmd.NArg() < 1 {
		return nil, fmt.Errorf("usage: lcl %s", usage)
	}
	path := cmd.Args().First()
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

func runAction(ctx context.Context, cmd *cli.Command) error {
	data, err := readTree(cmd, "run <tree.json>")
	if err != nil {
		return err
	}
	opts, err := optionsFrom(cmd)
	if err != nil {
		return err
	}
	state, err := runTree(opts, data, os.Stdout, os.Stderr)
	if err != nil {
		return err
	}
	if state.ExitCode != 0 {
		os.Exit(state.ExitCode)
	}
	return nil
}

func optimizeAction(ctx context.Context, cmd *cli.Command) error {
	data, err := readTree(cmd, "optimize <tree.json>")
	if err != nil {
		return err
	}
	opts, err := optionsFrom(cmd)
	if err != nil {
		return err
	}
	node, err := optimizeTree(opts, data, os.Stderr)
	if err != nil {
		return err
	}
	encode := ast.EncodeIndent
	if cmd.Bool("compact") {
		encode = ast.Encode
	}
	out, err := encode(node)
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func analyzeAction(ctx context.Context, cmd *cli.Command) error {
	data, err := readTree(cmd, "analyze <tree.json>")
	if err != nil {
		return err
	}
	return analyzeTree(data, os.Stdout)
}

// runTree optimises and evaluates a tree with the builtins installed.
func runTree(opts options, data []byte, stdout, stderr io.Writer) (interp.State, error) {
	node, err := optimizeTree(opts, data, stderr)
	if err != nil {
		return interp.State{}, err
	}
	env := interp.NewEnv()
	builtins.Install(env, stdout)
	state, err := interp.Run(node, env)
	if err != nil {
		return state, fmt.Errorf("run: %w", err)
	}
	if state.ExitCode != 0 {
		fmt.Fprintln(stderr, "top level is not a block, nothing evaluated")
	}
	return state, nil
}

// optimizeTree decodes data and runs the configured passes on it,
// consulting the cache first when one is configured.
func optimizeTree(opts options, data []byte, stderr io.Writer) (ast.Node, error) {
	var (
		cache *store.Store
		key   string
	)
	if opts.cache != "" {
		s, err := store.Open(opts.cache)
		if err != nil {
			return nil, err
		}
		defer s.Close()
		cache = s
		key = opts.cacheKey(data)
		node, ok, err := cache.Get(key)
		if err != nil {
			return nil, err
		}
		if ok {
			if opts.verbose {
				opts.trace(stderr, "cache hit "+key)
			}
			return node, nil
		}
	}

	node, err := ast.Decode(data)
	if err != nil {
		return nil, err
	}
	cfg := optimize.Config{Passes: opts.passes, Globals: opts.globals}
	if opts.verbose {
		cfg.Trace = func(pass string) { opts.trace(stderr, "pass "+pass) }
	}
	pipeline, err := optimize.Pipeline(cfg)
	if err != nil {
		return nil, err
	}
	out, err := pipeline.Transform(node)
	if err != nil {
		return nil, err
	}
	if cache != nil {
		if err := cache.Put(key, out); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// cacheKey hashes the input with everything that shapes the optimised
// tree: the passes, the globals and the lcl version.
func (o options) cacheKey(data []byte) string {
	parts := append(slices.Clone(o.passes),
		"globals="+strings.Join(o.globals, ","),
		"version="+o.version)
	return store.Key(data, parts)
}

func (o options) trace(w io.Writer, msg string) {
	if o.color {
		fmt.Fprintf(w, "\033[2m%s\033[0m\n", msg)
		return
	}
	fmt.Fprintln(w, msg)
}

// analyzeTree prints one line per Lambda: its name (the assignment or
// call it belongs to), its parameters and its free variables.
func analyzeTree(data []byte, w io.Writer) error {
	node, err := ast.Decode(data)
	if err != nil {
		return err
	}
	if node, err = optimize.AnalyzeClosures(node); err != nil {
		return err
	}
	names := map[*ast.Lambda]string{}
	ast.Inspect(node, func(n ast.Node) bool {
		switch n := n.(type) {
		case *ast.Assignment:
			if l, ok := n.Expr.(*ast.Lambda); ok {
				names[l] = n.Name
			}
		case *ast.Application:
			if n.Cache != nil {
				names[n.Cache] = n.Name + " (cached)"
			}
		case *ast.Lambda:
			name, ok := names[n]
			if !ok {
				name = "<anonymous>"
			}
			free := "-"
			if len(n.Free) > 0 {
				free = strings.Join(n.Free, ", ")
			}
			fmt.Fprintf(w, "%s(%s): %s\n", name, strings.Join(n.Params, ", "), free)
		}
		return true
	})
	return nil
}
