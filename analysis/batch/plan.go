package batch

import (
	uf "github.com/spakin/disjoint"

	"github.com/cs-au-dk/fixpoint/utils/graph"
)

// Plan partitions procedures into clusters connected by call edges and
// orders every cluster bottom-up, callees before callers. Clusters are
// independent: summaries are only shared inside a cluster, so clusters can
// be analyzed in parallel without redundant work.
//
// Callees outside procs are ignored. Clusters are listed in the order of
// their first procedure in procs.
func Plan[K comparable](procs []K, callees func(K) []K) [][]K {
	elements := make(map[K]*uf.Element, len(procs))
	for _, k := range procs {
		if _, found := elements[k]; !found {
			elements[k] = uf.NewElement()
		}
	}

	cg := graph.OfHashable(func(k K) (ret []K) {
		for _, callee := range callees(k) {
			if _, found := elements[callee]; found {
				ret = append(ret, callee)
			}
		}
		return
	})

	for k, el := range elements {
		for _, callee := range cg.Edges(k) {
			uf.Union(el, elements[callee])
		}
	}

	// Cluster indices in order of first appearance.
	index := make(map[*uf.Element]int)
	var roots [][]K
	for _, k := range procs {
		rep := elements[k].Find()
		if _, found := index[rep]; !found {
			index[rep] = len(roots)
			roots = append(roots, nil)
		}
		roots[index[rep]] = append(roots[index[rep]], k)
	}

	clusters := make([][]K, len(roots))
	for i, members := range roots {
		clusters[i] = cg.SCC(members).BottomUp()
	}
	return clusters
}
