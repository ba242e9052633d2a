package vision

import (
	"image"
	"math"
)

type point2f struct {
	x, y float64
}

// orderQuad orders four corners as top-left, top-right, bottom-right,
// bottom-left. The smallest coordinate sum is the top-left corner and the
// largest the bottom-right; the smallest y-x difference is the top-right
// and the largest the bottom-left. This assumes a roughly convex quad not
// rotated beyond about 45 degrees; beyond that the sum/diff rule can pick
// corners inconsistently (see DESIGN.md).
func orderQuad(pts []image.Point) [4]point2f {
	var out [4]point2f
	sumMin, sumMax := math.MaxFloat64, -math.MaxFloat64
	diffMin, diffMax := math.MaxFloat64, -math.MaxFloat64
	for _, p := range pts {
		sum := float64(p.X + p.Y)
		diff := float64(p.Y - p.X)
		if sum < sumMin {
			sumMin = sum
			out[0] = point2f{float64(p.X), float64(p.Y)}
		}
		if sum > sumMax {
			sumMax = sum
			out[2] = point2f{float64(p.X), float64(p.Y)}
		}
		if diff < diffMin {
			diffMin = diff
			out[1] = point2f{float64(p.X), float64(p.Y)}
		}
		if diff > diffMax {
			diffMax = diff
			out[3] = point2f{float64(p.X), float64(p.Y)}
		}
	}
	return out
}

func dist2f(a, b point2f) float64 {
	dx := a.x - b.x
	dy := a.y - b.y
	return math.Sqrt(dx*dx + dy*dy)
}

// homography solves the 8-parameter perspective transform mapping each
// src[i] to dst[i]. Returned as [a b c d e f g h] with
// u = (a*x+b*y+c)/(g*x+h*y+1), v = (d*x+e*y+f)/(g*x+h*y+1).
func homography(src, dst [4]point2f) ([8]float64, bool) {
	var m [8][9]float64
	for i := 0; i < 4; i++ {
		x, y := src[i].x, src[i].y
		u, v := dst[i].x, dst[i].y
		m[2*i] = [9]float64{x, y, 1, 0, 0, 0, -x * u, -y * u, u}
		m[2*i+1] = [9]float64{0, 0, 0, x, y, 1, -x * v, -y * v, v}
	}
	// Gaussian elimination with partial pivoting
	for col := 0; col < 8; col++ {
		pivot := col
		for r := col + 1; r < 8; r++ {
			if math.Abs(m[r][col]) > math.Abs(m[pivot][col]) {
				pivot = r
			}
		}
		if math.Abs(m[pivot][col]) < 1e-12 {
			return [8]float64{}, false
		}
		m[col], m[pivot] = m[pivot], m[col]
		for r := 0; r < 8; r++ {
			if r == col {
				continue
			}
			f := m[r][col] / m[col][col]
			for c := col; c < 9; c++ {
				m[r][c] -= f * m[col][c]
			}
		}
	}
	var h [8]float64
	for i := 0; i < 8; i++ {
		h[i] = m[i][8] / m[i][i]
	}
	return h, true
}

// warpPerspective resamples src through h (a destination-to-source
// transform) into a w by h output, sampling bilinearly.
func warpPerspective(src *image.NRGBA, hm [8]float64, w, h int) *image.NRGBA {
	out := image.NewNRGBA(image.Rect(0, 0, w, h))
	sb := src.Bounds()
	sw := sb.Dx()
	sh := sb.Dy()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			fx := float64(x)
			fy := float64(y)
			den := hm[6]*fx + hm[7]*fy + 1
			if den == 0 {
				continue
			}
			sx := (hm[0]*fx + hm[1]*fy + hm[2]) / den
			sy := (hm[3]*fx + hm[4]*fy + hm[5]) / den
			if sx < 0 || sy < 0 || sx > float64(sw-1) || sy > float64(sh-1) {
				continue
			}
			x0 := int(sx)
			y0 := int(sy)
			x1 := x0 + 1
			y1 := y0 + 1
			if x1 > sw-1 {
				x1 = sw - 1
			}
			if y1 > sh-1 {
				y1 = sh - 1
			}
			tx := sx - float64(x0)
			ty := sy - float64(y0)
			di := y*out.Stride + x*4
			for c := 0; c < 4; c++ {
				p00 := float64(src.Pix[y0*src.Stride+x0*4+c])
				p10 := float64(src.Pix[y0*src.Stride+x1*4+c])
				p01 := float64(src.Pix[y1*src.Stride+x0*4+c])
				p11 := float64(src.Pix[y1*src.Stride+x1*4+c])
				top := p00 + (p10-p00)*tx
				bot := p01 + (p11-p01)*tx
				out.Pix[di+c] = uint8(top + (bot-top)*ty + 0.5)
			}
		}
	}
	return out
}
