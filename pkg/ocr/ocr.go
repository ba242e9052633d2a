// Package ocr adapts the text-recognition engine behind a single-method
// interface so alternate backends can be substituted without touching the
// extraction or matching stages.
package ocr

import (
	"fmt"
	"image"
	"os"

	"github.com/disintegration/imaging"
	"github.com/otiai10/gosseract/v2"
)

// Recognizer converts a rectified card image into raw text plus a scalar
// confidence in [0,1]. Empty text with confidence 0 is a valid result.
type Recognizer interface {
	Recognize(img image.Image) (string, float64, error)
}

// Tesseract recognizes card text through the gosseract binding.
type Tesseract struct {
	// Lang is the trained-data language, "eng" when empty.
	Lang string
}

// tesseractConfidence is the fixed confidence reported for Tesseract
// output. The binding exposes no usable scalar confidence, so a
// conservative default is used.
const tesseractConfidence = 0.55

// upscaleMinHeight triggers an upscale pass for small crops; Tesseract
// degrades sharply below roughly this height.
const upscaleMinHeight = 900

func (t *Tesseract) Recognize(img image.Image) (string, float64, error) {
	prepped := preprocess(img)

	tmp, err := os.CreateTemp("", "cardscan-*.png")
	if err != nil {
		return "", 0, fmt.Errorf("temp file: %w", err)
	}
	path := tmp.Name()
	_ = tmp.Close()
	defer os.Remove(path)
	if err := imaging.Save(prepped, path); err != nil {
		return "", 0, fmt.Errorf("save for ocr: %w", err)
	}

	client := gosseract.NewClient()
	defer client.Close()
	lang := t.Lang
	if lang == "" {
		lang = "eng"
	}
	_ = client.SetLanguage(lang)
	if err := client.SetImage(path); err != nil {
		return "", 0, fmt.Errorf("set ocr image: %w", err)
	}
	text, err := client.Text()
	if err != nil {
		return "", 0, fmt.Errorf("ocr: %w", err)
	}
	return text, tesseractConfidence, nil
}

// preprocess applies the light cleanup pass that helps Tesseract on card
// photos: grayscale, a contrast and sharpen bump, and an upscale for
// small crops.
func preprocess(img image.Image) *image.NRGBA {
	gray := imaging.Grayscale(img)
	gray = imaging.AdjustContrast(gray, 15)
	gray = imaging.Sharpen(gray, 0.7)
	if gray.Bounds().Dy() < upscaleMinHeight {
		gray = imaging.Resize(gray, 0, upscaleMinHeight, imaging.Lanczos)
	}
	return gray
}
