package cfg

import (
	"fmt"
	"strings"

	"github.com/cs-au-dk/fixpoint/utils/dot"
	"github.com/cs-au-dk/fixpoint/utils/graph"
)

// ToDot creates a Dot Graph of the nodes reachable from the start of the
// view, including exceptional edges, which are drawn dashed. show renders
// instructions in node labels.
func ToDot[I any](v View[I], title string, show func(I) string) *dot.DotGraph {
	if show == nil {
		show = func(i I) string { return fmt.Sprint(i) }
	}

	g := AsGraph(v, true)
	nodes := g.Reachable(v.Start())

	dg := g.ToDotGraph(nodes, &graph.VisualizationConfig[Node]{
		NodeAttrs: func(n Node) (string, dot.DotAttrs) {
			lines := []string{fmt.Sprintf("%s [%s]", n, v.Kind(n))}
			for _, instr := range v.Instrs(n) {
				lines = append(lines, show(instr))
			}

			attrs := dot.DotAttrs{"label": strings.Join(lines, "\n")}
			switch {
			case n == v.Start() || n == v.Exit():
				attrs["fillcolor"] = "lightblue"
			case v.Kind(n) == ExnSink:
				attrs["fillcolor"] = "lightpink"
			}
			return n.String(), attrs
		},
		EdgeAttrs: func(from, to Node) dot.DotAttrs {
			for _, s := range v.Succs(from) {
				if s == to {
					return nil
				}
			}
			return dot.DotAttrs{"style": "dashed", "color": "red"}
		},
	})
	dg.Title = title
	return dg
}
