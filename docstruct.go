// Package docstruct provides a fluent API for turning raw block detections
// into a structured document and its JSON rendering.
//
// Basic usage:
//
//	out, warnings, err := docstruct.Open("page.html").JSON(ctx)
//	if err != nil {
//	    // handle error
//	}
//	if len(warnings) > 0 {
//	    log.Println("Warnings:", docstruct.FormatWarnings(warnings))
//	}
//
// With options:
//
//	doc, _, err := docstruct.FromRaw(pages).
//	    WithConfig(cfg).
//	    WithLLM(service).
//	    ApplyMerges().
//	    Document(ctx)
//
// For finer control the model, processor and render packages can be used
// directly.
package docstruct

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"golang.org/x/text/language"

	"github.com/tsawler/docstruct/epubdoc"
	"github.com/tsawler/docstruct/format"
	"github.com/tsawler/docstruct/htmldoc"
	"github.com/tsawler/docstruct/model"
	"github.com/tsawler/docstruct/ocr"
)

// RawFile is the on-disk form of a raw detection stream. A file holding a
// bare JSON array is read as its Pages.
type RawFile struct {
	Languages []string        `json:"languages,omitempty"`
	Pages     []model.RawPage `json:"pages"`
}

// FromRaw creates a Converter over pages already in memory.
//
// Example:
//
//	doc, _, err := docstruct.FromRaw(pages, "en").Document(ctx)
func FromRaw(pages []model.RawPage, languages ...string) *Converter {
	pages = append([]model.RawPage(nil), pages...)
	languages = append([]string(nil), languages...)
	return newConverter("raw", func(*Converter) (*input, error) {
		return &input{pages: pages, languages: languages}, nil
	})
}

// FromRawFile creates a Converter reading a JSON raw detection file.
func FromRawFile(filename string) *Converter {
	return newConverter(filename, func(*Converter) (*input, error) {
		data, err := os.ReadFile(filename)
		if err != nil {
			return nil, fmt.Errorf("failed to read raw file: %w", err)
		}
		raw, err := decodeRaw(data)
		if err != nil {
			return nil, fmt.Errorf("failed to decode raw file %s: %w", filename, err)
		}
		return &input{pages: raw.Pages, languages: raw.Languages}, nil
	})
}

// FromHTML creates a Converter laying out an HTML file. The lang attribute
// becomes the document language when it is a valid tag.
func FromHTML(filename string) *Converter {
	return newConverter(filename, func(c *Converter) (*input, error) {
		f, err := os.Open(filename)
		if err != nil {
			return nil, fmt.Errorf("failed to open HTML: %w", err)
		}
		defer f.Close()

		r, err := htmldoc.OpenReaderWithOptions(f, c.config.HTMLOptions())
		if err != nil {
			return nil, fmt.Errorf("failed to open HTML: %w", err)
		}
		defer r.Close()

		in := &input{pages: r.RawPages()}
		in.addLanguage(r.Language())
		return in, nil
	})
}

// FromEPUB creates a Converter laying out the chapters of an EPUB book.
func FromEPUB(filename string) *Converter {
	return newConverter(filename, func(c *Converter) (*input, error) {
		r, err := epubdoc.Open(filename)
		if err != nil {
			return nil, fmt.Errorf("failed to open EPUB: %w", err)
		}
		defer r.Close()

		pages, err := r.RawPages(c.config.HTMLOptions())
		if err != nil {
			return nil, fmt.Errorf("failed to lay out EPUB: %w", err)
		}
		in := &input{pages: pages}
		in.addLanguage(r.Language())
		return in, nil
	})
}

// addLanguage records a declared language tag, or warns when it is not
// a valid BCP 47 tag.
func (in *input) addLanguage(tag string) {
	if tag == "" {
		return
	}
	if _, err := language.Parse(tag); err != nil {
		in.warnings = append(in.warnings, Warning{
			Stage:   "source",
			Message: fmt.Sprintf("ignoring invalid language %q", tag),
		})
		return
	}
	in.languages = append(in.languages, tag)
}

// FromImage creates a Converter that runs OCR over a page image. OCR is
// only available in builds with the ocr tag.
func FromImage(filename string) *Converter {
	return newConverter(filename, func(c *Converter) (*input, error) {
		data, err := os.ReadFile(filename)
		if err != nil {
			return nil, fmt.Errorf("failed to read image: %w", err)
		}
		pages, err := ocr.Recognize(data, c.ocr)
		if err != nil {
			return nil, fmt.Errorf("failed to recognize %s: %w", filename, err)
		}
		return &input{pages: pages}, nil
	})
}

// Open creates a Converter for a file, choosing the source from its
// content and falling back to its extension.
//
// Example:
//
//	out, warnings, err := docstruct.Open("scan.png").JSON(ctx)
func Open(filename string) *Converter {
	f, err := os.Open(filename)
	if err != nil {
		return failed(filename, fmt.Errorf("failed to open file: %w", err))
	}
	defer f.Close()

	detected, err := format.DetectFromReader(f, filename)
	if err != nil {
		return failed(filename, fmt.Errorf("failed to detect format: %w", err))
	}
	return OpenAs(filename, detected)
}

// OpenAs creates a Converter for a file of a known format.
func OpenAs(filename string, f format.Format) *Converter {
	switch f {
	case format.Raw:
		return FromRawFile(filename)
	case format.HTML:
		return FromHTML(filename)
	case format.Image:
		return FromImage(filename)
	case format.EPUB:
		return FromEPUB(filename)
	default:
		return failed(filename, fmt.Errorf("unsupported file format: %s", f))
	}
}

func decodeRaw(data []byte) (*RawFile, error) {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var pages []model.RawPage
		if err := json.Unmarshal(trimmed, &pages); err != nil {
			return nil, err
		}
		return &RawFile{Pages: pages}, nil
	}
	var raw RawFile
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return nil, err
	}
	return &raw, nil
}

// Must is a helper that wraps a call to a function returning (T, error)
// and panics if the error is non-nil. It is intended for use in scripts
// or tests where error handling would be cumbersome.
func Must[T any](val T, err error) T {
	if err != nil {
		panic(err)
	}
	return val
}

// MustResult wraps a call to Document() or JSON() and panics if the error
// is non-nil. It discards warnings and returns just the value.
//
// Example:
//
//	out := docstruct.MustResult(docstruct.Open("page.html").JSON(ctx))
func MustResult[T any](val T, _ []Warning, err error) T {
	if err != nil {
		panic(err)
	}
	return val
}
