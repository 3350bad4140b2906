// Package audit analyzes a sealed resource ledger: per-handle ceilings,
// which contexts each critical section can delay, and the groups of
// contexts that interfere with each other through shared handles.
package audit

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"irqarb/core"
)

// HandleReport describes one registered handle
type HandleReport struct {
	Handle  core.HandleID
	Name    string
	Ceiling core.Priority
	Owners  []string
	Shared  bool
}

// ContextReport describes what one context's critical sections cost others
type ContextReport struct {
	Context core.Context

	// MaxCeiling is the highest level the context raises the mask to
	MaxCeiling core.Priority

	// Delays lists the higher-priority contexts that can be held back while
	// this context is inside a critical section
	Delays []string
}

// Report is the result of Analyze
type Report struct {
	Handles  []HandleReport
	Contexts []ContextReport
	Groups   [][]string
}

// Analyze builds a report from a ledger. names labels handles; unnamed
// handles are shown by number.
func Analyze(l *core.Ledger, names map[core.HandleID]string) Report {
	var rep Report
	contexts := map[string]core.Context{}
	ceilings := map[string]core.Priority{}

	g := simple.NewUndirectedGraph()
	ids := map[string]int64{}
	node := func(key string) graph.Node {
		if id, ok := ids[key]; ok {
			return g.Node(id)
		}
		n := g.NewNode()
		g.AddNode(n)
		ids[key] = n.ID()
		return n
	}

	for _, h := range l.Handles() {
		owners := l.Owners(h)
		hr := HandleReport{
			Handle:  h,
			Name:    handleName(h, names),
			Ceiling: l.CeilingOf(h),
			Shared:  l.Shared(h),
		}
		hn := node("handle:" + hr.Name)
		for _, ctx := range owners {
			hr.Owners = append(hr.Owners, ctx.Name)
			contexts[ctx.Name] = ctx
			if hr.Ceiling > ceilings[ctx.Name] {
				ceilings[ctx.Name] = hr.Ceiling
			}
			cn := node("ctx:" + ctx.Name)
			// every context writes the event ring; it would merge all groups
			if hr.Shared && h != core.HandleEventRing {
				g.SetEdge(g.NewEdge(hn, cn))
			}
		}
		slices.Sort(hr.Owners)
		rep.Handles = append(rep.Handles, hr)
	}

	ctxNames := maps.Keys(contexts)
	slices.Sort(ctxNames)
	for _, name := range ctxNames {
		ctx := contexts[name]
		cr := ContextReport{Context: ctx, MaxCeiling: ceilings[name]}
		for _, other := range ctxNames {
			p := contexts[other].Priority
			if p > ctx.Priority && p <= cr.MaxCeiling {
				cr.Delays = append(cr.Delays, other)
			}
		}
		rep.Contexts = append(rep.Contexts, cr)
	}
	sort.SliceStable(rep.Contexts, func(i, j int) bool {
		return rep.Contexts[i].Context.Priority < rep.Contexts[j].Context.Priority
	})

	keyOf := map[int64]string{}
	for k, id := range ids {
		keyOf[id] = k
	}
	for _, comp := range topo.ConnectedComponents(g) {
		var group []string
		for _, n := range comp {
			if name, ok := strings.CutPrefix(keyOf[n.ID()], "ctx:"); ok {
				group = append(group, name)
			}
		}
		if len(group) < 2 {
			continue
		}
		slices.Sort(group)
		rep.Groups = append(rep.Groups, group)
	}
	sort.Slice(rep.Groups, func(i, j int) bool {
		return rep.Groups[i][0] < rep.Groups[j][0]
	})
	return rep
}

func handleName(h core.HandleID, names map[core.HandleID]string) string {
	if name, ok := names[h]; ok && name != "" {
		return name
	}
	if h == core.HandleEventRing {
		return "event-ring"
	}
	return fmt.Sprintf("#%d", h)
}

// Interferes reports whether a and b are in the same interference group
func (r Report) Interferes(a, b string) bool {
	for _, g := range r.Groups {
		if slices.Contains(g, a) && slices.Contains(g, b) {
			return true
		}
	}
	return false
}

// Write renders the report as aligned text
func (r Report) Write(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "HANDLE\tNAME\tCEILING\tSHARED\tOWNERS")
	for _, h := range r.Handles {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%v\t%s\n", h.Handle, h.Name, h.Ceiling, h.Shared, strings.Join(h.Owners, ","))
	}
	fmt.Fprintln(tw)
	fmt.Fprintln(tw, "CONTEXT\tPRIORITY\tMAX CEILING\tDELAYS")
	for _, c := range r.Contexts {
		delays := strings.Join(c.Delays, ",")
		if delays == "" {
			delays = "-"
		}
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\n", c.Context.Name, c.Context.Priority, c.MaxCeiling, delays)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	for i, g := range r.Groups {
		if _, err := fmt.Fprintf(w, "group %d: %s\n", i+1, strings.Join(g, ", ")); err != nil {
			return err
		}
	}
	return nil
}
