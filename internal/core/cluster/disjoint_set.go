package cluster

import "sync"

// DisjointSet is an arena-indexed union-find with path halving and union by
// rank. Each root carries an anchor (verified handle) used to refuse merges
// between clusters claiming different handles. It is safe for concurrent use.
type DisjointSet struct {
	mu     sync.Mutex
	parent []int
	rank   []int
	anchor []string
}

func NewDisjointSet(n int) *DisjointSet {
	ds := &DisjointSet{
		parent: make([]int, n),
		rank:   make([]int, n),
		anchor: make([]string, n),
	}
	for i := range ds.parent {
		ds.parent[i] = i
	}
	return ds
}

func (ds *DisjointSet) Find(x int) int {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	return ds.find(x)
}

func (ds *DisjointSet) find(x int) int {
	for ds.parent[x] != x {
		ds.parent[x] = ds.parent[ds.parent[x]]
		x = ds.parent[x]
	}
	return x
}

// Anchor returns the verified handle the set containing x is anchored to.
func (ds *DisjointSet) Anchor(x int) string {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	return ds.anchor[ds.find(x)]
}

// SetAnchor anchors the set containing x to handle unless it already has one.
func (ds *DisjointSet) SetAnchor(x int, handle string) {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	root := ds.find(x)
	if ds.anchor[root] == "" {
		ds.anchor[root] = handle
	}
}

// Union merges the sets of a and b atomically. It reports false without
// merging when both sets are anchored to different handles.
func (ds *DisjointSet) Union(a, b int) (merged bool, leftAnchor, rightAnchor string) {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	ra, rb := ds.find(a), ds.find(b)
	if ra == rb {
		return true, ds.anchor[ra], ds.anchor[rb]
	}
	la, lb := ds.anchor[ra], ds.anchor[rb]
	if la != "" && lb != "" && la != lb {
		return false, la, lb
	}

	if ds.rank[ra] < ds.rank[rb] {
		ra, rb = rb, ra
	}
	ds.parent[rb] = ra
	if ds.rank[ra] == ds.rank[rb] {
		ds.rank[ra]++
	}
	if ds.anchor[ra] == "" {
		ds.anchor[ra] = ds.anchor[rb]
	}
	return true, la, lb
}

// Groups returns the members of each set with at least minSize elements.
// Members are listed in ascending index order and groups are ordered by their
// smallest member.
func (ds *DisjointSet) Groups(minSize int) [][]int {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	byRoot := make(map[int][]int)
	var order []int
	for i := range ds.parent {
		root := ds.find(i)
		if _, ok := byRoot[root]; !ok {
			order = append(order, root)
		}
		byRoot[root] = append(byRoot[root], i)
	}

	var groups [][]int
	for _, root := range order {
		if len(byRoot[root]) >= minSize {
			groups = append(groups, byRoot[root])
		}
	}
	return groups
}
