// Package scan composes the full card pipeline: rectify the photo, run
// recognition, extract structured fields, and rank checklist candidates.
// Each scan is an independent, synchronous computation with no shared
// state, so callers may run scans concurrently.
package scan

import (
	"bytes"
	"errors"
	"fmt"
	"image"

	"github.com/disintegration/imaging"

	"cardtrack/pkg/extract"
	"cardtrack/pkg/match"
	"cardtrack/pkg/ocr"
	"cardtrack/pkg/vision"
)

// ErrInvalidImage reports bytes that cannot be decoded into a pixel grid.
// It is the only hard failure the pipeline itself produces; every other
// "nothing found" condition is expressed through confidences and empty
// fields.
var ErrInvalidImage = errors.New("invalid image")

// Confidence blend weights for the overall scan confidence, capped so the
// pipeline never claims near-certainty.
const (
	cropConfidenceWeight    = 0.25
	ocrConfidenceWeight     = 0.45
	extractConfidenceWeight = 0.30
	overallConfidenceCap    = 0.95
)

// Result is everything one scan produces.
type Result struct {
	Fields     extract.Fields    `json:"extracted"`
	Confidence float64           `json:"confidence"`
	Candidates []match.Candidate `json:"candidates"`
	// Rectified is the cropped card image, or the original photo when
	// cropping failed. Kept so callers can store or display the crop.
	Rectified *image.NRGBA `json:"-"`
	// CropConfidence and OCRConfidence expose the per-stage confidences
	// that fed the blend.
	CropConfidence float64 `json:"crop_confidence"`
	OCRConfidence  float64 `json:"ocr_confidence"`
}

// Decode turns uploaded bytes into an image, wrapping any decode failure
// in ErrInvalidImage.
func Decode(data []byte) (image.Image, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	return img, nil
}

// Scan runs the pipeline over one photo against a checklist snapshot. The
// snapshot must be internally consistent for the duration of the call;
// reread it per request rather than caching. Recognizer failures
// propagate; degraded recognition (empty text, confidence 0) does not.
func Scan(img image.Image, rec ocr.Recognizer, entries []match.Entry, limit int) (Result, error) {
	cropped, cropConf := vision.Rectify(img)

	text, ocrConf, err := rec.Recognize(cropped)
	if err != nil {
		return Result{}, fmt.Errorf("recognize: %w", err)
	}

	fields, extractConf := extract.Extract(text)

	confidence := cropConf*cropConfidenceWeight +
		ocrConf*ocrConfidenceWeight +
		extractConf*extractConfidenceWeight
	if confidence > overallConfidenceCap {
		confidence = overallConfidenceCap
	}

	return Result{
		Fields:         fields,
		Confidence:     confidence,
		Candidates:     match.Rank(fields, entries, limit),
		Rectified:      cropped,
		CropConfidence: cropConf,
		OCRConfidence:  ocrConf,
	}, nil
}
