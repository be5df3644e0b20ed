package geocode

import (
	"fmt"
	"math"
	"sort"

	"github.com/brandonolsen/cleo-consolidator/app/models"
)

// gridCellDegrees is the ~50m grid cell size used to bucket points before
// union-find so the neighbor scan stays O(1) per point (§4.E).
const gridCellDegrees = 0.0005

// ClusterInput is one geocoded address variant with its back-references.
type ClusterInput struct {
	Address          string
	Lat              float64
	Lng              float64
	FormattedAddress string
	References       []models.ClusterReference
}

// unionFind is a flat-array disjoint-set with path compression and union by
// rank, built once over the input index (§9: "replace mutable shared
// dictionaries ... with union-find over integer indices").
type unionFind struct {
	parent []int
	rank   []int
}

func newUnionFind(n int) *unionFind {
	uf := &unionFind{parent: make([]int, n), rank: make([]int, n)}
	for i := range uf.parent {
		uf.parent[i] = i
	}
	return uf
}

func (uf *unionFind) find(x int) int {
	for uf.parent[x] != x {
		uf.parent[x] = uf.parent[uf.parent[x]]
		x = uf.parent[x]
	}
	return x
}

func (uf *unionFind) union(a, b int) {
	ra, rb := uf.find(a), uf.find(b)
	if ra == rb {
		return
	}
	if uf.rank[ra] < uf.rank[rb] {
		ra, rb = rb, ra
	}
	uf.parent[rb] = ra
	if uf.rank[ra] == uf.rank[rb] {
		uf.rank[ra]++
	}
}

// Cluster groups points within proximityMeters using the grid + 8-neighbor
// union-find algorithm in §4.E. Cluster IDs are assigned in enumeration
// order of roots, which the spec permits since no consumer depends on
// stable IDs across runs.
func Cluster(inputs []ClusterInput, proximityMeters float64) []models.LocationCluster {
	n := len(inputs)
	if n == 0 {
		return nil
	}

	type cell struct{ x, y int }
	cellOf := func(lat, lng float64) cell {
		return cell{int(math.Floor(lat / gridCellDegrees)), int(math.Floor(lng / gridCellDegrees))}
	}

	buckets := make(map[cell][]int, n)
	for i, in := range inputs {
		c := cellOf(in.Lat, in.Lng)
		buckets[c] = append(buckets[c], i)
	}

	uf := newUnionFind(n)
	for i, in := range inputs {
		c := cellOf(in.Lat, in.Lng)
		for dx := -1; dx <= 1; dx++ {
			for dy := -1; dy <= 1; dy++ {
				neighborCell := cell{c.x + dx, c.y + dy}
				for _, j := range buckets[neighborCell] {
					if j <= i {
						continue
					}
					d := HaversineMeters(in.Lat, in.Lng, inputs[j].Lat, inputs[j].Lng)
					if d <= proximityMeters {
						uf.union(i, j)
					}
				}
			}
		}
	}

	rootToMembers := make(map[int][]int)
	var rootOrder []int
	for i := 0; i < n; i++ {
		r := uf.find(i)
		if _, seen := rootToMembers[r]; !seen {
			rootOrder = append(rootOrder, r)
		}
		rootToMembers[r] = append(rootToMembers[r], i)
	}

	clusters := make([]models.LocationCluster, 0, len(rootOrder))
	for idx, root := range rootOrder {
		members := rootToMembers[root]
		var sumLat, sumLng float64
		memberAddrs := make([]string, 0, len(members))
		var refs []models.ClusterReference
		for _, m := range members {
			sumLat += inputs[m].Lat
			sumLng += inputs[m].Lng
			memberAddrs = append(memberAddrs, inputs[m].Address)
			refs = append(refs, inputs[m].References...)
		}
		sort.Strings(memberAddrs)
		centroidLat := round7(sumLat / float64(len(members)))
		centroidLng := round7(sumLng / float64(len(members)))

		clusters = append(clusters, models.LocationCluster{
			ID:               fmt.Sprintf("loc_%05d", idx+1),
			CentroidLat:      centroidLat,
			CentroidLng:      centroidLng,
			FormattedAddress: inputs[members[0]].FormattedAddress,
			Members:          memberAddrs,
			References:       refs,
		})
	}
	return clusters
}

func round7(v float64) float64 {
	const scale = 1e7
	return math.Round(v*scale) / scale
}
