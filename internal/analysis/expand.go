package analysis

import (
	"context"
	"log/slog"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/callviz-dev/callviz/internal/graph"
	"github.com/callviz-dev/callviz/internal/resolver"
	"github.com/callviz-dev/callviz/internal/scope"
)

// Direction selects which side of the focused method to traverse.
type Direction int

const (
	DirectionUp Direction = iota
	DirectionDown
	DirectionBoth
)

func (d Direction) String() string {
	switch d {
	case DirectionUp:
		return "up"
	case DirectionDown:
		return "down"
	default:
		return "both"
	}
}

const defaultWorkers = 8

// Expander performs breadth-first traversal over the call relation exposed
// by a resolver. The known set fixes the method universe for one run so that
// containment checks never see methods created after traversal started.
type Expander struct {
	res      resolver.Resolver
	boundary *scope.Boundary
	known    resolver.MethodSet
	workers  int
	logger   *slog.Logger
}

// NewExpander creates an expander over one run's method universe.
func NewExpander(res resolver.Resolver, boundary *scope.Boundary, known resolver.MethodSet, logger *slog.Logger) *Expander {
	if logger == nil {
		logger = slog.Default()
	}
	return &Expander{
		res:      res,
		boundary: boundary,
		known:    known,
		workers:  defaultWorkers,
		logger:   logger,
	}
}

// SetWorkers bounds per-level lookup parallelism. Values below one fall back
// to serial traversal.
func (e *Expander) SetWorkers(n int) {
	if n < 1 {
		n = 1
	}
	e.workers = n
}

// Expand traverses from the focused method in the requested direction and
// returns the callee->callers relation covering every discovered edge.
func (e *Expander) Expand(ctx context.Context, focus resolver.Method, dir Direction) (graph.CalleeCallers, error) {
	relation := make(graph.CalleeCallers)

	if dir == DirectionUp || dir == DirectionBoth {
		upstream, err := e.Upstream(ctx, focus)
		if err != nil {
			return nil, err
		}
		relation.Merge(upstream)
	}
	if dir == DirectionDown || dir == DirectionBoth {
		downstream, err := e.Downstream(ctx, focus)
		if err != nil {
			return nil, err
		}
		relation.Merge(Invert(downstream))
	}

	// A focus with no edges still appears as a single node.
	if _, ok := relation[focus]; !ok && len(relation) == 0 {
		relation[focus] = make(resolver.MethodSet)
	}
	return relation, nil
}

// Upstream walks the caller side level by level, starting from the focus.
// Each discovered caller is looked up exactly once; revisiting a method in a
// cycle contributes its edge but never re-enters the frontier.
func (e *Expander) Upstream(ctx context.Context, focus resolver.Method) (graph.CalleeCallers, error) {
	relation := make(graph.CalleeCallers)
	seen := resolver.MethodSet{focus: true}
	frontier := []resolver.Method{focus}

	for level := 0; len(frontier) > 0; level++ {
		results, err := e.collectLevel(ctx, frontier, func(ctx context.Context, m resolver.Method) (resolver.MethodSet, error) {
			return e.callersOf(ctx, m)
		})
		if err != nil {
			return nil, err
		}

		var next []resolver.Method
		for i, callee := range frontier {
			callers := results[i]
			if _, ok := relation[callee]; !ok {
				relation[callee] = make(resolver.MethodSet)
			}
			for _, caller := range sortedMethods(callers) {
				relation[callee].Add(caller)
				if !seen[caller] {
					seen[caller] = true
					next = append(next, caller)
				}
			}
		}
		e.logger.Debug("expanded upstream level", "level", level, "frontier", len(frontier), "discovered", len(next))
		frontier = next
	}
	return relation, nil
}

// Downstream walks the callee side level by level and returns the
// caller->callees relation. Callers invert it before graph construction.
func (e *Expander) Downstream(ctx context.Context, focus resolver.Method) (map[resolver.Method]resolver.MethodSet, error) {
	relation := make(map[resolver.Method]resolver.MethodSet)
	seen := resolver.MethodSet{focus: true}
	frontier := []resolver.Method{focus}

	for level := 0; len(frontier) > 0; level++ {
		results, err := e.collectLevel(ctx, frontier, e.res.CalleesOf)
		if err != nil {
			return nil, err
		}

		var next []resolver.Method
		for i, caller := range frontier {
			callees := results[i]
			if _, ok := relation[caller]; !ok {
				relation[caller] = make(resolver.MethodSet)
			}
			for _, callee := range sortedMethods(callees) {
				relation[caller].Add(callee)
				if !seen[callee] {
					seen[callee] = true
					next = append(next, callee)
				}
			}
		}
		e.logger.Debug("expanded downstream level", "level", level, "frontier", len(frontier), "discovered", len(next))
		frontier = next
	}
	return relation, nil
}

// ProjectRelation gathers the direct callers of every known method in one
// pass. No transitive expansion happens: whole-scope builds already contain
// every method, so one level covers every edge.
func (e *Expander) ProjectRelation(ctx context.Context) (graph.CalleeCallers, error) {
	methods := sortedMethods(e.known)

	results, err := e.collectLevel(ctx, methods, func(ctx context.Context, m resolver.Method) (resolver.MethodSet, error) {
		return e.callersOf(ctx, m)
	})
	if err != nil {
		return nil, err
	}

	relation := make(graph.CalleeCallers, len(methods))
	for i, callee := range methods {
		relation[callee] = results[i]
	}
	return relation, nil
}

// callersOf resolves the direct callers of one method: every reference site
// inside the boundary whose enclosing method is known.
func (e *Expander) callersOf(ctx context.Context, callee resolver.Method) (resolver.MethodSet, error) {
	sites, err := e.res.FindReferences(ctx, callee, e.boundary)
	if err != nil {
		return nil, err
	}
	callers := make(resolver.MethodSet)
	for _, site := range sites {
		caller, ok := e.res.ContainingMethod(site, e.known)
		if !ok {
			continue
		}
		callers.Add(caller)
	}
	return callers, nil
}

// collectLevel runs lookup for every frontier method with bounded
// parallelism. Results land in per-method slots so the caller can merge them
// in frontier order regardless of goroutine scheduling.
func (e *Expander) collectLevel(ctx context.Context, frontier []resolver.Method,
	lookup func(context.Context, resolver.Method) (resolver.MethodSet, error)) ([]resolver.MethodSet, error) {

	results := make([]resolver.MethodSet, len(frontier))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(e.workers)

	for i, m := range frontier {
		i, m := i, m
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}
			set, err := lookup(groupCtx, m)
			if err != nil {
				return err
			}
			results[i] = set
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Invert flips a caller->callees relation into callee->callers form.
func Invert(callerCallees map[resolver.Method]resolver.MethodSet) graph.CalleeCallers {
	inverted := make(graph.CalleeCallers)
	for caller, callees := range callerCallees {
		for callee := range callees {
			if _, ok := inverted[callee]; !ok {
				inverted[callee] = make(resolver.MethodSet)
			}
			inverted[callee].Add(caller)
		}
	}
	return inverted
}

func sortedMethods(set resolver.MethodSet) []resolver.Method {
	out := make([]resolver.Method, 0, len(set))
	for m := range set {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
