package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func NewRootCommand(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "callviz",
		Short: "Build and lay out call graphs for multi-language codebases",
		Long: `Callviz parses a codebase, resolves call relationships between
functions, methods and constructors, and produces a call graph with
normalized layout coordinates ready for rendering.

Scope can be the whole project, a single module, or a directory.`,
	}
	rootCmd.PersistentFlags().StringP("root", "r", ".", "Project root to analyze")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")

	graphCmd := &cobra.Command{
		Use:   "graph [path]",
		Short: "Build the call graph for the selected scope",
		Args:  cobra.MaximumNArgs(1),
		RunE:  RunGraph,
	}
	addScopeFlags(graphCmd)
	addOutputFlags(graphCmd)

	focusCmd := &cobra.Command{
		Use:   "focus <method>",
		Short: "Build the call graph reachable from one method",
		Long: `Focus builds the subgraph around a single method. The argument is a
method name, or a stable method ID when the name is ambiguous.`,
		Args: cobra.ExactArgs(1),
		RunE: RunFocus,
	}
	addScopeFlags(focusCmd)
	addOutputFlags(focusCmd)
	focusCmd.Flags().StringP("direction", "d", "both", "Traversal direction: up|down|both")

	modulesCmd := &cobra.Command{
		Use:   "modules",
		Short: "List the modules detected in the project",
		Args:  cobra.NoArgs,
		RunE:  RunModules,
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "callviz %s\n", version)
		},
	}

	rootCmd.AddCommand(
		graphCmd,
		focusCmd,
		modulesCmd,
		versionCmd,
	)

	return rootCmd
}

func addScopeFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("module", "m", "", "Restrict scope to one module by name")
	cmd.Flags().String("dir", "", "Restrict scope to one directory")
	cmd.Flags().Bool("no-tests", false, "Exclude test files from the project scope")
}

func addOutputFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("format", "f", "text", "Output format: text|json")
	cmd.Flags().Int("workers", 0, "Parallel reference lookups per level (0 = default)")
	cmd.Flags().String("dot", "", "Path to the Graphviz dot binary (default: dot on PATH)")
}
