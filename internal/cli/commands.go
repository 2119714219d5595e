package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/callviz-dev/callviz/internal/analysis"
	"github.com/callviz-dev/callviz/internal/graph"
	"github.com/callviz-dev/callviz/internal/languages"
	"github.com/callviz-dev/callviz/internal/layout"
	"github.com/callviz-dev/callviz/internal/render"
	"github.com/callviz-dev/callviz/internal/runner"
	"github.com/callviz-dev/callviz/internal/scope"
)

// RunGraph builds the whole-scope call graph and writes it to stdout.
// An optional positional path overrides the --root flag.
func RunGraph(cmd *cobra.Command, args []string) error {
	req, err := requestFromFlags(cmd)
	if err != nil {
		return err
	}
	root := mustString(cmd, "root")
	if len(args) == 1 {
		root = args[0]
	}
	return buildAndRender(cmd, req, root)
}

// RunFocus builds the subgraph around one method.
func RunFocus(cmd *cobra.Command, args []string) error {
	req, err := requestFromFlags(cmd)
	if err != nil {
		return err
	}
	req.Focus = args[0]
	req.Direction, err = parseDirection(mustString(cmd, "direction"))
	if err != nil {
		return err
	}
	return buildAndRender(cmd, req, mustString(cmd, "root"))
}

// RunModules prints the detected modules.
func RunModules(cmd *cobra.Command, args []string) error {
	root := mustString(cmd, "root")
	scopes := scope.NewResolver(root)
	modules, err := scopes.Modules(cmd.Context())
	if err != nil {
		return fmt.Errorf("enumerate modules: %w", err)
	}
	if len(modules) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no modules found")
		return nil
	}
	for _, module := range modules {
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", module.Name, module.Dir)
	}
	return nil
}

func buildAndRender(cmd *cobra.Command, req runner.Request, root string) error {
	logger := newLogger(mustBool(cmd, "verbose"))

	engine := &layout.Dot{Binary: mustString(cmd, "dot")}
	normalizer := layout.NewNormalizer(engine, layout.DefaultGrid)
	r := runner.New(root, languages.NewDefaultRegistry(), normalizer, logger)

	g, err := r.Build(cmd.Context(), req)
	if err != nil {
		if errors.Is(err, runner.ErrFocusNotFound) || errors.Is(err, runner.ErrFocusAmbiguous) {
			return err
		}
		return fmt.Errorf("build graph: %w", err)
	}
	return writeGraph(cmd, g)
}

func writeGraph(cmd *cobra.Command, g *graph.Graph) error {
	switch format := mustString(cmd, "format"); format {
	case "text":
		return render.WriteText(cmd.OutOrStdout(), g)
	case "json":
		return render.WriteJSON(cmd.OutOrStdout(), g)
	default:
		return fmt.Errorf("unknown format %q (want text or json)", format)
	}
}

// requestFromFlags maps scope flags onto a selection. The module and dir
// flags are mutually exclusive; no-tests applies to the project scope only.
func requestFromFlags(cmd *cobra.Command) (runner.Request, error) {
	module := mustString(cmd, "module")
	dir := mustString(cmd, "dir")
	noTests := mustBool(cmd, "no-tests")

	if module != "" && dir != "" {
		return runner.Request{}, errors.New("--module and --dir are mutually exclusive")
	}

	sel := scope.Selection{Kind: scope.KindProjectWithTests}
	switch {
	case module != "":
		sel = scope.Selection{Kind: scope.KindModule, Module: module}
	case dir != "":
		sel = scope.Selection{Kind: scope.KindDirectory, Directory: dir}
	case noTests:
		sel = scope.Selection{Kind: scope.KindProjectWithoutTests}
	}

	return runner.Request{
		Selection: sel,
		Workers:   mustInt(cmd, "workers"),
	}, nil
}

func parseDirection(value string) (analysis.Direction, error) {
	switch value {
	case "up":
		return analysis.DirectionUp, nil
	case "down":
		return analysis.DirectionDown, nil
	case "both":
		return analysis.DirectionBoth, nil
	}
	return analysis.DirectionBoth, fmt.Errorf("unknown direction %q (want up, down or both)", value)
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func mustString(cmd *cobra.Command, name string) string {
	value, err := cmd.Flags().GetString(name)
	if err != nil {
		if value, err = cmd.Root().PersistentFlags().GetString(name); err != nil {
			return ""
		}
	}
	return value
}

func mustBool(cmd *cobra.Command, name string) bool {
	value, err := cmd.Flags().GetBool(name)
	if err != nil {
		if value, err = cmd.Root().PersistentFlags().GetBool(name); err != nil {
			return false
		}
	}
	return value
}

func mustInt(cmd *cobra.Command, name string) int {
	value, err := cmd.Flags().GetInt(name)
	if err != nil {
		return 0
	}
	return value
}
