// Package format provides source format detection for docstruct inputs.
package format

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// Format represents a supported input format.
type Format int

const (
	// Unknown indicates an unrecognized format.
	Unknown Format = iota
	// Raw indicates a JSON file of raw page detections.
	Raw
	// HTML indicates an HTML document.
	HTML
	// Image indicates a page image for OCR.
	Image
	// EPUB indicates an EPUB book.
	EPUB
)

// String returns the string representation of the format.
func (f Format) String() string {
	switch f {
	case Raw:
		return "raw"
	case HTML:
		return "html"
	case Image:
		return "image"
	case EPUB:
		return "epub"
	default:
		return "unknown"
	}
}

// Extension returns the typical file extension for the format.
func (f Format) Extension() string {
	switch f {
	case Raw:
		return ".json"
	case HTML:
		return ".html"
	case Image:
		return ".png"
	case EPUB:
		return ".epub"
	default:
		return ""
	}
}

// Parse resolves a format name as accepted by the CLI.
func Parse(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "raw", "json":
		return Raw, nil
	case "html", "htm":
		return HTML, nil
	case "image", "img":
		return Image, nil
	case "epub":
		return EPUB, nil
	}
	return Unknown, fmt.Errorf("unknown format %q", name)
}

// Detect determines file format from filename extension.
func Detect(filename string) Format {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".json":
		return Raw
	case ".html", ".htm", ".xhtml":
		return HTML
	case ".png", ".jpg", ".jpeg", ".tif", ".tiff", ".bmp", ".webp", ".gif":
		return Image
	case ".epub":
		return EPUB
	default:
		return Unknown
	}
}

var imageMagic = [][]byte{
	[]byte("\x89PNG\r\n\x1a\n"),
	{0xFF, 0xD8, 0xFF},
	[]byte("II*\x00"),
	[]byte("MM\x00*"),
	[]byte("GIF87a"),
	[]byte("GIF89a"),
	[]byte("BM"),
}

// DetectFromMagic checks leading bytes to determine format.
// This provides more reliable detection than extension-based detection.
// Returns Unknown if the format cannot be determined from magic bytes alone.
func DetectFromMagic(data []byte) Format {
	if len(data) < 2 {
		return Unknown
	}

	for _, magic := range imageMagic {
		if bytes.HasPrefix(data, magic) {
			return Image
		}
	}
	// EPUB: a zip whose first entry is the stored mimetype file
	if bytes.HasPrefix(data, []byte("PK\x03\x04")) {
		if bytes.Contains(data[:min(len(data), 128)], []byte("application/epub+zip")) {
			return EPUB
		}
		return Unknown
	}
	// WebP: RIFF....WEBP
	if len(data) >= 12 && bytes.HasPrefix(data, []byte("RIFF")) && string(data[8:12]) == "WEBP" {
		return Image
	}

	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[') {
		return Raw
	}
	if detectHTMLMagic(trimmed) {
		return HTML
	}
	return Unknown
}

// detectHTMLMagic checks if the data looks like HTML content.
func detectHTMLMagic(data []byte) bool {
	upper := strings.ToUpper(string(data[:min(512, len(data))]))
	if strings.HasPrefix(upper, "<!DOCTYPE HTML") || strings.HasPrefix(upper, "<HTML") {
		return true
	}
	// XML declaration followed by html-like content could be XHTML
	return strings.HasPrefix(upper, "<?XML") && strings.Contains(upper, "<HTML")
}

// DetectFromReader inspects the first bytes of r, falling back to the
// filename extension when the content is not conclusive.
func DetectFromReader(r io.Reader, filename string) (Format, error) {
	magic := make([]byte, 512)
	n, err := io.ReadFull(r, magic)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return Unknown, err
	}
	if f := DetectFromMagic(magic[:n]); f != Unknown {
		return f, nil
	}
	return Detect(filename), nil
}
