// Package contour extracts iso-lines of a scalar field sampled on a
// rectilinear grid using marching squares. Segments are stitched into ordered
// polylines; closed loops repeat their first vertex at the end.
package contour

import (
	"gonum.org/v1/gonum/mat"
)

// Path is one connected piece of an iso-line
type Path struct {
	Index  int // Position of the path in extraction order
	X, Y   []float64
	Closed bool
}

// Len is the number of vertices
func (p Path) Len() int { return len(p.X) }

// edgeKey identifies a grid edge: horizontal edges join (i,j)-(i,j+1),
// vertical edges join (i,j)-(i+1,j)
type edgeKey struct {
	vertical bool
	i, j     int
}

type segment struct {
	a, b edgeKey
}

// Isolines returns the level set z = level. z is sampled with rows along y
// and columns along x: z.At(i, j) is the value at (x[j], y[i]). Cells whose
// corners all lie on one side of the level contribute nothing, so a level
// outside the range of z yields no paths.
func Isolines(x, y []float64, z mat.Matrix, level float64) []Path {
	ny, nx := z.Dims()
	if ny != len(y) || nx != len(x) {
		panic("contour: grid dimensions do not match coordinates")
	}
	if ny < 2 || nx < 2 {
		return nil
	}

	var (
		points = make(map[edgeKey][2]float64)
		segs   []segment
	)
	above := func(i, j int) bool { return z.At(i, j) >= level }
	cross := func(k edgeKey) {
		if _, ok := points[k]; ok {
			return
		}
		var (
			i0, j0 = k.i, k.j
			i1, j1 = k.i, k.j + 1
		)
		if k.vertical {
			i1, j1 = k.i+1, k.j
		}
		z0, z1 := z.At(i0, j0), z.At(i1, j1)
		t := (level - z0) / (z1 - z0)
		points[k] = [2]float64{
			x[j0] + t*(x[j1]-x[j0]),
			y[i0] + t*(y[i1]-y[i0]),
		}
	}

	for i := 0; i < ny-1; i++ {
		for j := 0; j < nx-1; j++ {
			var (
				b0 = above(i, j)     // bottom left
				b1 = above(i, j+1)   // bottom right
				b2 = above(i+1, j+1) // top right
				b3 = above(i+1, j)   // top left
			)
			var (
				bottom = edgeKey{false, i, j}
				top    = edgeKey{false, i + 1, j}
				left   = edgeKey{true, i, j}
				right  = edgeKey{true, i, j + 1}
				cut    []edgeKey
			)
			if b0 != b1 {
				cut = append(cut, bottom)
			}
			if b1 != b2 {
				cut = append(cut, right)
			}
			if b2 != b3 {
				cut = append(cut, top)
			}
			if b3 != b0 {
				cut = append(cut, left)
			}
			for _, k := range cut {
				cross(k)
			}
			switch len(cut) {
			case 2:
				segs = append(segs, segment{cut[0], cut[1]})
			case 4:
				// Saddle: the centre value decides which corners are cut off
				centre := 0.25 * (z.At(i, j) + z.At(i, j+1) + z.At(i+1, j+1) + z.At(i+1, j))
				if (centre >= level) == b0 {
					segs = append(segs, segment{bottom, right}, segment{top, left})
				} else {
					segs = append(segs, segment{left, bottom}, segment{right, top})
				}
			}
		}
	}
	return stitch(segs, points)
}

// stitch joins segments sharing an edge crossing into polylines. Open paths
// are traced from their free ends first, then the remaining closed loops.
func stitch(segs []segment, points map[edgeKey][2]float64) []Path {
	adj := make(map[edgeKey][]int, len(points))
	for s, seg := range segs {
		adj[seg.a] = append(adj[seg.a], s)
		adj[seg.b] = append(adj[seg.b], s)
	}
	var (
		used  = make([]bool, len(segs))
		paths []Path
	)
	trace := func(start edgeKey, s int) Path {
		var (
			p   Path
			cur = start
		)
		pt := points[cur]
		p.X, p.Y = append(p.X, pt[0]), append(p.Y, pt[1])
		for s >= 0 {
			used[s] = true
			next := segs[s].a
			if next == cur {
				next = segs[s].b
			}
			pt = points[next]
			p.X, p.Y = append(p.X, pt[0]), append(p.Y, pt[1])
			cur = next
			s = -1
			for _, cand := range adj[cur] {
				if !used[cand] {
					s = cand
					break
				}
			}
		}
		p.Closed = cur == start && len(p.X) > 2
		return p
	}

	for s, seg := range segs {
		if used[s] {
			continue
		}
		switch {
		case len(adj[seg.a]) == 1:
			paths = append(paths, trace(seg.a, s))
		case len(adj[seg.b]) == 1:
			paths = append(paths, trace(seg.b, s))
		}
	}
	for s, seg := range segs {
		if !used[s] {
			paths = append(paths, trace(seg.a, s))
		}
	}
	for i := range paths {
		paths[i].Index = i
	}
	return paths
}
