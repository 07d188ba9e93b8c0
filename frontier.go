package monad

import (
	"github.com/paulmach/osm"
)

type frontierItem struct {
	id     osm.NodeID
	weight float64
}

// frontier is a min-heap of search candidates ordered by weight and then by node identifier.
// Implements container/heap.Interface
type frontier []frontierItem

func (f frontier) Len() int { return len(f) }

func (f frontier) Less(i, j int) bool {
	if f[i].weight != f[j].weight {
		return f[i].weight < f[j].weight
	}
	return f[i].id < f[j].id
}

func (f frontier) Swap(i, j int) {
	f[i], f[j] = f[j], f[i]
}

func (f *frontier) Push(x interface{}) {
	*f = append(*f, x.(frontierItem))
}

func (f *frontier) Pop() interface{} {
	old := *f
	n := len(old)
	item := old[n-1]
	*f = old[0 : n-1]
	return item
}
