package scan

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/disintegration/imaging"

	"cardtrack/pkg/match"
)

// fakeRecognizer returns canned text so pipeline tests do not need a
// tesseract install.
type fakeRecognizer struct {
	text string
	conf float64
	err  error
}

func (f *fakeRecognizer) Recognize(img image.Image) (string, float64, error) {
	return f.text, f.conf, f.err
}

func flatPhoto() image.Image {
	// featureless frame: rectification finds nothing and reports the floor
	return imaging.New(320, 240, color.NRGBA{20, 20, 20, 255})
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := Decode([]byte("definitely not an image"))
	if !errors.Is(err, ErrInvalidImage) {
		t.Fatalf("want ErrInvalidImage, got %v", err)
	}
}

func TestDecodeAcceptsPNG(t *testing.T) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, imaging.New(10, 10, color.NRGBA{255, 0, 0, 255}), imaging.PNG); err != nil {
		t.Fatalf("encode: %v", err)
	}
	img, err := Decode(buf.Bytes())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if img.Bounds().Dx() != 10 {
		t.Fatalf("bounds: %v", img.Bounds())
	}
}

func TestScanBlendsConfidences(t *testing.T) {
	rec := &fakeRecognizer{text: "2021 TOPPS\nMIKE TROUT\n#27", conf: 1.0}
	res, err := Scan(flatPhoto(), rec, nil, 0)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if res.CropConfidence != 0.2 {
		t.Fatalf("crop confidence: got %f", res.CropConfidence)
	}
	if res.OCRConfidence != 1.0 {
		t.Fatalf("ocr confidence: got %f", res.OCRConfidence)
	}
	// 0.2*0.25 + 1.0*0.45 + 0.83*0.30
	want := 0.749
	if math.Abs(res.Confidence-want) > 1e-9 {
		t.Fatalf("blended confidence: got %f want %f", res.Confidence, want)
	}
	if res.Fields.Player != "MIKE TROUT" || res.Fields.CardNumber != "27" {
		t.Fatalf("fields: %+v", res.Fields)
	}
	if res.Rectified == nil {
		t.Fatalf("rectified image missing")
	}
}

func TestScanRanksCandidates(t *testing.T) {
	rec := &fakeRecognizer{text: "2021 TOPPS\nMIKE TROUT\n#27", conf: 0.55}
	entries := []match.Entry{
		{ID: 1, Year: 2021, Brand: "Topps", Player: "Mike Trout", CardNumber: "27"},
		{ID: 2, Year: 1990, Brand: "Fleer", Player: "Ken Griffey Jr.", CardNumber: "513"},
	}
	res, err := Scan(flatPhoto(), rec, entries, 0)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(res.Candidates) == 0 || res.Candidates[0].ChecklistID != 1 {
		t.Fatalf("candidates: %+v", res.Candidates)
	}
	if res.Candidates[0].Score != 100.0 {
		t.Fatalf("top score: got %f", res.Candidates[0].Score)
	}
}

func TestScanEmptyTextIsNotAnError(t *testing.T) {
	rec := &fakeRecognizer{text: "", conf: 0}
	res, err := Scan(flatPhoto(), rec, nil, 0)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if res.Fields.Player != "" || res.Fields.Year != nil {
		t.Fatalf("fields should be empty: %+v", res.Fields)
	}
	if len(res.Candidates) != 0 {
		t.Fatalf("candidates: %+v", res.Candidates)
	}
	// 0.2*0.25 + 0 + 0.35*0.30
	want := 0.155
	if math.Abs(res.Confidence-want) > 1e-9 {
		t.Fatalf("confidence: got %f want %f", res.Confidence, want)
	}
}

func TestScanRecognizerErrorPropagates(t *testing.T) {
	boom := errors.New("engine unavailable")
	rec := &fakeRecognizer{err: boom}
	_, err := Scan(flatPhoto(), rec, nil, 0)
	if !errors.Is(err, boom) {
		t.Fatalf("want wrapped recognizer error, got %v", err)
	}
}
