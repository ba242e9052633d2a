package vision

import "image"

// mask is a binary pixel grid used for edge maps and morphology.
type mask struct {
	w, h int
	pix  []bool
}

func newMask(w, h int) *mask {
	return &mask{w: w, h: h, pix: make([]bool, w*h)}
}

func (m *mask) at(x, y int) bool {
	if x < 0 || y < 0 || x >= m.w || y >= m.h {
		return false
	}
	return m.pix[y*m.w+x]
}

func (m *mask) set(x, y int, v bool) {
	m.pix[y*m.w+x] = v
}

// sobelEdges computes a gradient-magnitude edge map from a grayscale image.
// Magnitude is normalized to 0-255; pixels at or above threshold are edges.
func sobelEdges(img *image.NRGBA, threshold int) *mask {
	b := img.Bounds()
	w := b.Dx()
	h := b.Dy()
	lum := make([]int, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			// grayscale input, any channel works
			lum[y*w+x] = int(img.Pix[y*img.Stride+x*4])
		}
	}
	at := func(x, y int) int {
		if x < 0 {
			x = 0
		}
		if y < 0 {
			y = 0
		}
		if x >= w {
			x = w - 1
		}
		if y >= h {
			y = h - 1
		}
		return lum[y*w+x]
	}
	out := newMask(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			gx := -at(x-1, y-1) - 2*at(x-1, y) - at(x-1, y+1) +
				at(x+1, y-1) + 2*at(x+1, y) + at(x+1, y+1)
			gy := -at(x-1, y-1) - 2*at(x, y-1) - at(x+1, y-1) +
				at(x-1, y+1) + 2*at(x, y+1) + at(x+1, y+1)
			if gx < 0 {
				gx = -gx
			}
			if gy < 0 {
				gy = -gy
			}
			if (gx+gy)/8 >= threshold {
				out.set(x, y, true)
			}
		}
	}
	return out
}

// dilateMask grows set regions by a 4-neighborhood, radius times.
func dilateMask(m *mask, radius int) *mask {
	cur := m
	for r := 0; r < radius; r++ {
		next := newMask(cur.w, cur.h)
		for y := 0; y < cur.h; y++ {
			for x := 0; x < cur.w; x++ {
				for _, d := range [][2]int{{0, 0}, {1, 0}, {-1, 0}, {0, 1}, {0, -1}} {
					if cur.at(x+d[0], y+d[1]) {
						next.set(x, y, true)
						break
					}
				}
			}
		}
		cur = next
	}
	return cur
}

// erodeMask shrinks set regions by a 4-neighborhood, radius times.
func erodeMask(m *mask, radius int) *mask {
	cur := m
	for r := 0; r < radius; r++ {
		next := newMask(cur.w, cur.h)
		for y := 0; y < cur.h; y++ {
			for x := 0; x < cur.w; x++ {
				keep := cur.at(x, y)
				if keep {
					for _, d := range [][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}} {
						if !cur.at(x+d[0], y+d[1]) {
							keep = false
							break
						}
					}
				}
				next.set(x, y, keep)
			}
		}
		cur = next
	}
	return cur
}
