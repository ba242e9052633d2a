// Package vision locates a trading card's boundary in a photo and warps it
// to a flat, axis-aligned crop. Detection failure is never an error: the
// original image comes back with a low confidence so downstream stages can
// proceed degraded.
package vision

import (
	"image"
	"math"

	"github.com/disintegration/imaging"
)

// Tunable detection constants. These are empirical; keep changes here
// rather than in control flow.
const (
	// blurSigma approximates a 5x5 Gaussian kernel.
	blurSigma = 1.1
	// edgeThreshold is the minimum normalized Sobel magnitude (0-255)
	// counted as an edge pixel.
	edgeThreshold = 40
	// dilateIterations / erodeIterations close gaps in the card outline.
	dilateIterations = 2
	erodeIterations  = 1
	// minAreaRatio is the smallest contour-to-frame area accepted as a card.
	minAreaRatio = 0.10
	// approxEpsilonFrac is the Douglas-Peucker tolerance as a fraction of
	// the contour perimeter.
	approxEpsilonFrac = 0.02
	// Output size floors to avoid degenerate crops.
	minCardWidth  = 300
	minCardHeight = 420
	// Confidence shape: 0.2 when nothing is found, at most 0.45 for a
	// rejected candidate, and area_ratio*3.5 clamped to [0.55, 0.95] for
	// an accepted quad.
	noContourConfidence = 0.2
	rejectConfidenceCap = 0.45
	acceptConfidenceMin = 0.55
	acceptConfidenceMax = 0.95
	areaConfidenceGain  = 3.5
)

// Rectify finds the largest quadrilateral boundary in the photo and warps
// it to an axis-aligned crop of at least 300x420. It returns the crop and
// a confidence in [0,1]. When no acceptable quad is found the original
// image is returned unmodified with a low confidence.
func Rectify(src image.Image) (*image.NRGBA, float64) {
	orig := imaging.Clone(src)
	w := orig.Bounds().Dx()
	h := orig.Bounds().Dy()
	if w < 3 || h < 3 {
		return orig, noContourConfidence
	}

	gray := imaging.Grayscale(orig)
	gray = imaging.Blur(gray, blurSigma)
	edges := sobelEdges(gray, edgeThreshold)
	edges = dilateMask(edges, dilateIterations)
	edges = erodeMask(edges, erodeIterations)

	contours := findContours(edges)
	if len(contours) == 0 {
		return orig, noContourConfidence
	}

	best := contours[0]
	bestArea := contourArea(best)
	for _, c := range contours[1:] {
		if a := contourArea(c); a > bestArea {
			best = c
			bestArea = a
		}
	}
	areaRatio := bestArea / float64(w*h)

	peri := contourPerimeter(best)
	approx := approxPolygon(best, approxEpsilonFrac*peri)
	if len(approx) != 4 || areaRatio < minAreaRatio {
		return orig, clamp(areaRatio, noContourConfidence, rejectConfidenceCap)
	}

	quad := orderQuad(approx)
	tl, tr, br, bl := quad[0], quad[1], quad[2], quad[3]

	maxW := int(math.Max(dist2f(br, bl), dist2f(tr, tl)))
	maxH := int(math.Max(dist2f(tr, br), dist2f(tl, bl)))
	if maxW < minCardWidth {
		maxW = minCardWidth
	}
	if maxH < minCardHeight {
		maxH = minCardHeight
	}

	dst := [4]point2f{
		{0, 0},
		{float64(maxW - 1), 0},
		{float64(maxW - 1), float64(maxH - 1)},
		{0, float64(maxH - 1)},
	}
	// destination-to-source transform so every output pixel samples the photo
	hm, ok := homography(dst, quad)
	if !ok {
		return orig, clamp(areaRatio, noContourConfidence, rejectConfidenceCap)
	}
	warped := warpPerspective(orig, hm, maxW, maxH)

	return warped, clamp(areaRatio*areaConfidenceGain, acceptConfidenceMin, acceptConfidenceMax)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
