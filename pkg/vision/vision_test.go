package vision

import (
	"image"
	"image/color"
	"testing"

	"github.com/disintegration/imaging"
)

// cardPhoto builds a synthetic photo: a bright card-shaped rectangle on a
// dark background, pasted at (50,60) with size 300x380 in a 400x500 frame.
func cardPhoto() image.Image {
	bg := imaging.New(400, 500, color.NRGBA{30, 30, 30, 255})
	card := imaging.New(300, 380, color.NRGBA{220, 220, 220, 255})
	return imaging.Paste(bg, card, image.Pt(50, 60))
}

func TestRectifyNoEdges(t *testing.T) {
	// an all-black frame has no contours at all
	img := imaging.New(400, 500, color.NRGBA{0, 0, 0, 255})
	out, conf := Rectify(img)
	if conf != noContourConfidence {
		t.Fatalf("expected confidence %.2f got %.2f", noContourConfidence, conf)
	}
	if out.Bounds().Dx() != 400 || out.Bounds().Dy() != 500 {
		t.Fatalf("expected original image back, got %dx%d", out.Bounds().Dx(), out.Bounds().Dy())
	}
}

func TestRectifyDetectsCard(t *testing.T) {
	out, conf := Rectify(cardPhoto())
	if conf < acceptConfidenceMin || conf > acceptConfidenceMax {
		t.Fatalf("expected accepted-quad confidence in [%.2f,%.2f], got %.2f",
			acceptConfidenceMin, acceptConfidenceMax, conf)
	}
	w := out.Bounds().Dx()
	h := out.Bounds().Dy()
	if w < minCardWidth || h < minCardHeight {
		t.Fatalf("crop below size floor: %dx%d", w, h)
	}
	// the crop should be the card, not the whole frame
	if w == 400 && h == 500 {
		t.Fatalf("expected a cropped card, got the original frame back")
	}
	// center of the crop must be card-bright, not background-dark
	c := out.NRGBAAt(w/2, h/2)
	if c.R < 128 {
		t.Fatalf("crop center should sample the card, got %v", c)
	}
}

func TestRectifyConfidenceBounds(t *testing.T) {
	for _, img := range []image.Image{
		cardPhoto(),
		imaging.New(120, 90, color.NRGBA{0, 0, 0, 255}),
		imaging.New(50, 50, color.NRGBA{255, 255, 255, 255}),
	} {
		_, conf := Rectify(img)
		if conf < 0 || conf > 1 {
			t.Fatalf("confidence out of range: %f", conf)
		}
	}
}

func TestOrderQuad(t *testing.T) {
	// corners given in scrambled order
	pts := []image.Point{{90, 10}, {5, 95}, {8, 12}, {100, 100}}
	q := orderQuad(pts)
	if q[0] != (point2f{8, 12}) {
		t.Fatalf("top-left wrong: %+v", q[0])
	}
	if q[1] != (point2f{90, 10}) {
		t.Fatalf("top-right wrong: %+v", q[1])
	}
	if q[2] != (point2f{100, 100}) {
		t.Fatalf("bottom-right wrong: %+v", q[2])
	}
	if q[3] != (point2f{5, 95}) {
		t.Fatalf("bottom-left wrong: %+v", q[3])
	}
}

func TestApproxPolygonRectangle(t *testing.T) {
	// dense rectangle outline should simplify to its 4 corners
	var pts []image.Point
	for x := 0; x <= 100; x++ {
		pts = append(pts, image.Pt(x, 0))
	}
	for y := 1; y <= 60; y++ {
		pts = append(pts, image.Pt(100, y))
	}
	for x := 99; x >= 0; x-- {
		pts = append(pts, image.Pt(x, 60))
	}
	for y := 59; y >= 1; y-- {
		pts = append(pts, image.Pt(0, y))
	}
	peri := contourPerimeter(pts)
	approx := approxPolygon(pts, approxEpsilonFrac*peri)
	if len(approx) != 4 {
		t.Fatalf("expected 4 vertices, got %d: %v", len(approx), approx)
	}
}

func TestContourAreaRectangle(t *testing.T) {
	pts := []image.Point{{0, 0}, {100, 0}, {100, 60}, {0, 60}}
	if a := contourArea(pts); a != 6000 {
		t.Fatalf("expected area 6000 got %f", a)
	}
}

func TestHomographyMapsCorners(t *testing.T) {
	src := [4]point2f{{10, 20}, {200, 30}, {210, 300}, {5, 290}}
	dst := [4]point2f{{0, 0}, {99, 0}, {99, 139}, {0, 139}}
	hm, ok := homography(dst, src)
	if !ok {
		t.Fatalf("homography not solvable")
	}
	// every destination corner must map back onto its source corner
	for i := range dst {
		den := hm[6]*dst[i].x + hm[7]*dst[i].y + 1
		sx := (hm[0]*dst[i].x + hm[1]*dst[i].y + hm[2]) / den
		sy := (hm[3]*dst[i].x + hm[4]*dst[i].y + hm[5]) / den
		if diff := (sx-src[i].x)*(sx-src[i].x) + (sy-src[i].y)*(sy-src[i].y); diff > 1e-6 {
			t.Fatalf("corner %d maps to (%f,%f), want (%f,%f)", i, sx, sy, src[i].x, src[i].y)
		}
	}
}
