package vision

import (
	"image"
	"math"
)

// moore lists the 8 neighbour offsets in clockwise order starting east.
var moore = [8]image.Point{
	{X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}, {X: -1, Y: 1},
	{X: -1, Y: 0}, {X: -1, Y: -1}, {X: 0, Y: -1}, {X: 1, Y: -1},
}

// findContours returns the outer boundary of every 8-connected component
// in the mask, each as a closed pixel chain.
func findContours(m *mask) [][]image.Point {
	visited := make([]bool, m.w*m.h)
	var contours [][]image.Point
	for y := 0; y < m.h; y++ {
		for x := 0; x < m.w; x++ {
			if !m.pix[y*m.w+x] || visited[y*m.w+x] {
				continue
			}
			// row-major scan means this is the component's topmost-leftmost pixel
			start := image.Pt(x, y)
			fillComponent(m, visited, start)
			contours = append(contours, traceBoundary(m, start))
		}
	}
	return contours
}

// fillComponent marks every pixel 8-connected to start as visited.
func fillComponent(m *mask, visited []bool, start image.Point) {
	stack := []image.Point{start}
	visited[start.Y*m.w+start.X] = true
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, d := range moore {
			n := p.Add(d)
			if !m.at(n.X, n.Y) {
				continue
			}
			if visited[n.Y*m.w+n.X] {
				continue
			}
			visited[n.Y*m.w+n.X] = true
			stack = append(stack, n)
		}
	}
}

// traceBoundary walks the outer boundary of the component whose
// topmost-leftmost pixel is start, using a radial sweep of the Moore
// neighbourhood. Tracing never leaves the component because separate
// components are by definition not 8-adjacent.
func traceBoundary(m *mask, start image.Point) []image.Point {
	contour := []image.Point{start}
	cur := start
	back := 4 // entered the start pixel from the west
	limit := 4 * m.w * m.h
	for steps := 0; steps < limit; steps++ {
		moved := false
		for i := 1; i <= 8; i++ {
			d := (back + i) % 8
			n := cur.Add(moore[d])
			if m.at(n.X, n.Y) {
				cur = n
				back = (d + 4) % 8
				moved = true
				break
			}
		}
		if !moved { // isolated pixel
			break
		}
		if cur == start {
			break
		}
		contour = append(contour, cur)
	}
	return contour
}

// contourArea computes the enclosed area of a closed pixel chain
// (shoelace formula).
func contourArea(pts []image.Point) float64 {
	if len(pts) < 3 {
		return 0
	}
	sum := 0
	for i := range pts {
		j := (i + 1) % len(pts)
		sum += pts[i].X*pts[j].Y - pts[j].X*pts[i].Y
	}
	return math.Abs(float64(sum)) / 2
}

// contourPerimeter computes the closed-path length of a pixel chain.
func contourPerimeter(pts []image.Point) float64 {
	if len(pts) < 2 {
		return 0
	}
	total := 0.0
	for i := range pts {
		j := (i + 1) % len(pts)
		total += pointDist(pts[i], pts[j])
	}
	return total
}

func pointDist(a, b image.Point) float64 {
	dx := float64(a.X - b.X)
	dy := float64(a.Y - b.Y)
	return math.Sqrt(dx*dx + dy*dy)
}

// approxPolygon simplifies a closed contour with Douglas-Peucker. The
// contour is split at the point farthest from its first point so both
// arcs have fixed endpoints, then each arc is simplified independently.
func approxPolygon(pts []image.Point, epsilon float64) []image.Point {
	if len(pts) < 3 {
		return pts
	}
	far := 0
	maxD := -1.0
	for i := range pts {
		if d := pointDist(pts[0], pts[i]); d > maxD {
			maxD = d
			far = i
		}
	}
	if far == 0 {
		return pts[:1]
	}
	first := simplifyChain(pts[:far+1], epsilon)
	second := append(append([]image.Point{}, pts[far:]...), pts[0])
	second = simplifyChain(second, epsilon)
	// merge, dropping the duplicated split point and closing point
	out := append([]image.Point{}, first...)
	if len(second) > 2 {
		out = append(out, second[1:len(second)-1]...)
	}
	return out
}

// simplifyChain is recursive Douglas-Peucker over an open polyline.
func simplifyChain(pts []image.Point, epsilon float64) []image.Point {
	if len(pts) <= 2 {
		return pts
	}
	a := pts[0]
	b := pts[len(pts)-1]
	idx := 0
	maxD := 0.0
	for i := 1; i < len(pts)-1; i++ {
		if d := pointSegmentDist(pts[i], a, b); d > maxD {
			maxD = d
			idx = i
		}
	}
	if maxD <= epsilon {
		return []image.Point{a, b}
	}
	left := simplifyChain(pts[:idx+1], epsilon)
	right := simplifyChain(pts[idx:], epsilon)
	return append(left[:len(left)-1], right...)
}

// pointSegmentDist is the perpendicular distance from p to segment ab.
func pointSegmentDist(p, a, b image.Point) float64 {
	dx := float64(b.X - a.X)
	dy := float64(b.Y - a.Y)
	lenSq := dx*dx + dy*dy
	if lenSq == 0 {
		return pointDist(p, a)
	}
	t := (float64(p.X-a.X)*dx + float64(p.Y-a.Y)*dy) / lenSq
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	px := float64(a.X) + t*dx
	py := float64(a.Y) + t*dy
	ex := float64(p.X) - px
	ey := float64(p.Y) - py
	return math.Sqrt(ex*ex + ey*ey)
}
