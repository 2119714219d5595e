// Package runner orchestrates one graph build: scope resolution, parsing,
// traversal, graph construction and layout.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/callviz-dev/callviz/internal/analysis"
	"github.com/callviz-dev/callviz/internal/graph"
	"github.com/callviz-dev/callviz/internal/ignore"
	"github.com/callviz-dev/callviz/internal/layout"
	"github.com/callviz-dev/callviz/internal/parser"
	"github.com/callviz-dev/callviz/internal/resolver"
	"github.com/callviz-dev/callviz/internal/scope"
)

// ErrRunCancelled marks a run that was superseded or cancelled before
// producing a graph.
var ErrRunCancelled = errors.New("run cancelled")

// ErrFocusNotFound is returned when the focus query matches no method.
var ErrFocusNotFound = errors.New("focus method not found")

// ErrFocusAmbiguous is returned when the focus query matches several
// methods; the error lists their IDs so the caller can retry with one.
var ErrFocusAmbiguous = errors.New("focus method ambiguous")

// Request describes one graph build.
type Request struct {
	Selection scope.Selection
	Focus     string // method name or ID; empty builds the whole scope
	Direction analysis.Direction
	Workers   int
}

// Result carries the single outcome of a run.
type Result struct {
	Graph *graph.Graph
	Err   error
}

// Run is a handle on one in-flight build. Exactly one Result is delivered
// on Done, even when the run is cancelled.
type Run struct {
	cancel context.CancelFunc
	done   chan Result
}

// Done returns the channel carrying the run's single result.
func (r *Run) Done() <-chan Result { return r.done }

// Cancel aborts the run. It returns without waiting for the pipeline to
// unwind; the result still arrives on Done.
func (r *Run) Cancel() { r.cancel() }

// Runner builds call graphs. At most one run is considered active: starting
// a new run cancels the previous one without waiting for it.
type Runner struct {
	root       string
	scopes     *scope.Resolver
	registry   *parser.Registry
	normalizer *layout.Normalizer
	logger     *slog.Logger

	mu     sync.Mutex
	active *Run
}

// New creates a runner anchored at the project root.
func New(root string, registry *parser.Registry, normalizer *layout.Normalizer, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		root:       root,
		scopes:     scope.NewResolver(root),
		registry:   registry,
		normalizer: normalizer,
		logger:     logger,
	}
}

// Scopes exposes the runner's scope resolver for module enumeration.
func (r *Runner) Scopes() *scope.Resolver { return r.scopes }

// Start launches a build in the background, cancelling any previous run.
func (r *Runner) Start(ctx context.Context, req Request) *Run {
	runCtx, cancel := context.WithCancel(ctx)
	run := &Run{cancel: cancel, done: make(chan Result, 1)}

	r.mu.Lock()
	if r.active != nil {
		r.active.cancel()
	}
	r.active = run
	r.mu.Unlock()

	go func() {
		defer cancel()
		g, err := r.Build(runCtx, req)
		if errors.Is(err, context.Canceled) {
			err = ErrRunCancelled
			g = nil
		}
		run.done <- Result{Graph: g, Err: err}
	}()
	return run
}

// Build runs the full pipeline synchronously.
func (r *Runner) Build(ctx context.Context, req Request) (*graph.Graph, error) {
	boundary, err := r.scopes.Resolve(ctx, req.Selection)
	if err != nil {
		return nil, fmt.Errorf("resolve scope: %w", err)
	}
	if boundary.Empty() {
		r.logger.Info("scope resolved to nothing", "scope", req.Selection.Label())
		return graph.New(), nil
	}

	matcher := ignore.NewMatcher(ignore.LoadRules(r.root))
	files, err := r.scopes.SourceFiles(ctx, boundary, r.registry.SupportedExtensions(), matcher)
	if err != nil {
		return nil, fmt.Errorf("enumerate sources: %w", err)
	}
	r.logger.Info("collected source files", "scope", req.Selection.Label(), "files", len(files))

	parsed := r.registry.ParseFiles(r.root, files)
	if len(parsed.Issues) > 0 {
		r.logger.Warn("some files failed to parse", "issues", len(parsed.Issues))
		for _, issue := range parsed.Issues {
			r.logger.Debug("parse issue", "file", issue.File, "message", issue.Message)
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	src := resolver.NewSource(parsed)
	known, err := src.FindAllMethods(ctx, boundary)
	if err != nil {
		return nil, err
	}
	r.logger.Info("indexed methods", "methods", len(known))

	expander := analysis.NewExpander(src, boundary, known, r.logger)
	if req.Workers > 0 {
		expander.SetWorkers(req.Workers)
	}

	relation, err := r.relate(ctx, src, expander, req)
	if err != nil {
		return nil, err
	}

	g := graph.BuildFromCallers(relation)
	r.logger.Info("built graph", "nodes", len(g.Nodes()), "edges", len(g.Edges()))

	if err := r.normalizer.Apply(ctx, g); err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	return g, nil
}

func (r *Runner) relate(ctx context.Context, src *resolver.Source, expander *analysis.Expander, req Request) (graph.CalleeCallers, error) {
	if req.Focus == "" {
		return expander.ProjectRelation(ctx)
	}

	matches := src.MethodsNamed(req.Focus)
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("%w: %s", ErrFocusNotFound, req.Focus)
	case 1:
		r.logger.Info("expanding from focus", "focus", matches[0].ID, "direction", req.Direction.String())
		return expander.Expand(ctx, matches[0], req.Direction)
	default:
		ids := make([]string, 0, len(matches))
		for _, m := range matches {
			ids = append(ids, m.ID)
		}
		return nil, fmt.Errorf("%w: %s matches %s", ErrFocusAmbiguous, req.Focus, strings.Join(ids, ", "))
	}
}
