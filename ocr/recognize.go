// Package ocr turns page images into raw page detections using the
// Tesseract OCR engine via gosseract.
//
// Tesseract support is compiled in with the "ocr" build tag:
//
//	go build -tags ocr
//
// This requires Tesseract to be installed. On macOS:
//
//	brew install tesseract
//
// On Ubuntu/Debian:
//
//	apt-get install tesseract-ocr
//
// Without the tag every recognition call returns ErrOCRNotEnabled.
package ocr

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/tsawler/docstruct/model"
)

// ErrOCRNotEnabled is returned when OCR functions are called but OCR support
// was not compiled in. Rebuild with -tags ocr to enable OCR support.
var ErrOCRNotEnabled = errors.New("OCR support not enabled; rebuild with -tags ocr")

// TextLine is one recognized line in pixel coordinates.
type TextLine struct {
	Text       string
	Box        image.Rectangle
	Confidence float64
}

// Options controls recognition.
type Options struct {
	// Languages is a "+" separated Tesseract language list. Empty uses the
	// engine default.
	Languages string

	// MinConfidence drops lines scored below it (0-100)
	MinConfidence float64
}

// Recognize runs OCR over one encoded image and returns a single raw page
// whose size is the image size. The decoded image is attached to the page
// for later model calls.
func Recognize(imageData []byte, opts Options) ([]model.RawPage, error) {
	img, _, err := image.Decode(bytes.NewReader(imageData))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	client, err := New()
	if err != nil {
		return nil, err
	}
	defer client.Close()

	if opts.Languages != "" {
		if err := client.SetLanguage(opts.Languages); err != nil {
			return nil, fmt.Errorf("set language: %w", err)
		}
	}

	lines, err := client.Lines(imageData)
	if err != nil {
		return nil, err
	}
	return []model.RawPage{BuildPage(img, lines, opts.MinConfidence)}, nil
}

// BuildPage lays out recognized lines as one Text block each, in the order
// Tesseract reported them.
func BuildPage(img image.Image, lines []TextLine, minConfidence float64) model.RawPage {
	bounds := img.Bounds()
	page := model.RawPage{
		Width:  float64(bounds.Dx()),
		Height: float64(bounds.Dy()),
		Image:  img,
	}
	for _, l := range lines {
		text := strings.TrimSpace(l.Text)
		if text == "" || l.Confidence < minConfidence {
			continue
		}
		box := l.Box.Sub(bounds.Min)
		page.Blocks = append(page.Blocks, model.RawBlock{
			Type: model.TypeText.String(),
			Polygon: model.PolygonFromBBox(model.BBox{
				X0: float64(box.Min.X), Y0: float64(box.Min.Y),
				X1: float64(box.Max.X), Y1: float64(box.Max.Y),
			}),
			Text: text,
		})
	}
	return page
}
