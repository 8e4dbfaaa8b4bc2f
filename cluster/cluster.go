// Package cluster groups seeds into connected components of the proximity
// graph: two seeds are linked when their great-circle distance is within a
// threshold, and a cluster is a maximal transitively-connected group. Two
// seeds farther apart than the threshold still share a cluster when an
// intermediate seed chains them together.
package cluster

import (
	"github.com/ShawCole/radius-zip/geo"
	"github.com/ShawCole/radius-zip/zipmodel"
)

// DefaultThresholdMiles is the proximity threshold used by the automatic
// layout decision. Exposed as a constant so tests can probe the boundary.
const DefaultThresholdMiles = 30.0

// Cluster is a non-empty group of seeds. Clusters partition the input:
// every seed belongs to exactly one.
type Cluster struct {
	Seeds []zipmodel.Seed `json:"seeds"`
}

// MaxInternalDistance returns the largest pairwise distance between the
// cluster's seeds, in miles. Zero for a single-seed cluster.
func (c Cluster) MaxInternalDistance() float64 {
	maxDist := 0.0
	for i := 0; i < len(c.Seeds); i++ {
		for j := i + 1; j < len(c.Seeds); j++ {
			if d := geo.Distance(c.Seeds[i].Point, c.Seeds[j].Point); d > maxDist {
				maxDist = d
			}
		}
	}
	return maxDist
}

// Group partitions seeds into proximity clusters using union-find over all
// pairs within thresholdMiles (inclusive). Output order is deterministic:
// clusters appear in order of their first seed, and seeds keep input order
// within a cluster. Zero seeds yield an empty slice.
func Group(seeds []zipmodel.Seed, thresholdMiles float64) []Cluster {
	if len(seeds) == 0 {
		return nil
	}

	parent := make([]int, len(seeds))
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(i int) int {
		if parent[i] != i {
			parent[i] = find(parent[i])
		}
		return parent[i]
	}
	union := func(a, b int) {
		ra, rb := find(a), find(b)
		if ra != rb {
			parent[rb] = ra
		}
	}

	for i := 0; i < len(seeds); i++ {
		for j := i + 1; j < len(seeds); j++ {
			if geo.Distance(seeds[i].Point, seeds[j].Point) <= thresholdMiles {
				union(i, j)
			}
		}
	}

	order := make([]int, 0, len(seeds))
	members := make(map[int][]zipmodel.Seed, len(seeds))
	for i, s := range seeds {
		root := find(i)
		if _, ok := members[root]; !ok {
			order = append(order, root)
		}
		members[root] = append(members[root], s)
	}

	clusters := make([]Cluster, 0, len(order))
	for _, root := range order {
		clusters = append(clusters, Cluster{Seeds: members[root]})
	}
	return clusters
}
