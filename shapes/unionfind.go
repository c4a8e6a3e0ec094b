// Package shapes - groups edge pixels into connected components, collects the corner
// points each component touches, and reduces those point sets to filtered tag quads.
package shapes

// UnionFind is an arena of disjoint sets addressed by small integer labels. Label 0 is
// reserved for "unlabelled" and is never handed out by Add.
type UnionFind struct {
	parent []int32
	size   []int32
}

// Reset drops every label while keeping the arena's capacity.
func (u *UnionFind) Reset() {
	u.parent = append(u.parent[:0], 0)
	u.size = append(u.size[:0], 0)
}

// Add creates a new singleton set and returns its label.
func (u *UnionFind) Add() int32 {
	if len(u.parent) == 0 {
		u.Reset()
	}
	id := int32(len(u.parent))
	u.parent = append(u.parent, id)
	u.size = append(u.size, 1)
	return id
}

// Len returns the number of labels handed out since the last Reset.
func (u *UnionFind) Len() int {
	return max(len(u.parent)-1, 0)
}

// Find returns the root label of x, halving the path on the way.
func (u *UnionFind) Find(x int32) int32 {
	for u.parent[x] != x {
		u.parent[x] = u.parent[u.parent[x]]
		x = u.parent[x]
	}
	return x
}

// Union merges the sets holding a and b, hanging the smaller tree under the larger.
// On equal sizes the root of a wins.
func (u *UnionFind) Union(a, b int32) {
	ra, rb := u.Find(a), u.Find(b)
	if ra == rb {
		return
	}
	if u.size[rb] > u.size[ra] {
		ra, rb = rb, ra
	}
	u.parent[rb] = ra
	u.size[ra] += u.size[rb]
}
