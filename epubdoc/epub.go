// Package epubdoc provides raw block detections for EPUB books.
//
// Each content document in the spine is laid out by htmldoc; chapters
// always start on a new page. DRM-protected books are rejected.
package epubdoc

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/tsawler/docstruct/htmldoc"
	"github.com/tsawler/docstruct/model"
)

var (
	ErrInvalidArchive   = errors.New("epub: invalid or corrupted archive")
	ErrDRMProtected     = errors.New("epub: DRM-protected content cannot be processed")
	ErrNoContainer      = errors.New("epub: missing META-INF/container.xml")
	ErrInvalidContainer = errors.New("epub: invalid container.xml")
	ErrNoRootfile       = errors.New("epub: no rootfile found in container.xml")
	ErrNoOPF            = errors.New("epub: missing package document (OPF)")
	ErrInvalidOPF       = errors.New("epub: invalid package document")
	ErrEmptySpine       = errors.New("epub: no content in spine")
	ErrMissingContent   = errors.New("epub: referenced content file not found")
)

// Chapter is one content document in reading order.
type Chapter struct {
	ID      string
	Href    string
	Content []byte
}

// Reader holds the chapters of an opened book.
type Reader struct {
	closer   io.Closer
	version  string
	title    string
	language string
	chapters []Chapter
}

// Open opens an EPUB file from a path.
func Open(filename string) (*Reader, error) {
	zr, err := zip.OpenReader(filename)
	if err != nil {
		return nil, ErrInvalidArchive
	}
	r, err := newReader(&zr.Reader)
	if err != nil {
		zr.Close()
		return nil, err
	}
	r.closer = zr
	return r, nil
}

// OpenReader opens an EPUB from an io.ReaderAt.
func OpenReader(ra io.ReaderAt, size int64) (*Reader, error) {
	zr, err := zip.NewReader(ra, size)
	if err != nil {
		return nil, ErrInvalidArchive
	}
	return newReader(zr)
}

func newReader(zr *zip.Reader) (*Reader, error) {
	a := newArchive(zr)
	if err := a.checkDRM(); err != nil {
		return nil, err
	}
	opfPath, err := a.rootfile()
	if err != nil {
		return nil, err
	}
	pkg, err := a.packageDocument(opfPath)
	if err != nil {
		return nil, err
	}

	r := &Reader{version: pkg.Version}
	if len(pkg.Metadata.Title) > 0 {
		r.title = strings.TrimSpace(pkg.Metadata.Title[0])
	}
	if len(pkg.Metadata.Language) > 0 {
		r.language = strings.TrimSpace(pkg.Metadata.Language[0])
	}

	hrefs := make(map[string]string, len(pkg.Manifest))
	for _, item := range pkg.Manifest {
		hrefs[item.ID] = item.Href
	}
	baseDir := path.Dir(opfPath)
	for _, ref := range pkg.Spine {
		if ref.Linear == "no" {
			continue
		}
		href, ok := hrefs[ref.IDRef]
		if !ok {
			continue
		}
		name := resolve(baseDir, href)
		content, err := a.read(name)
		if err != nil {
			continue
		}
		r.chapters = append(r.chapters, Chapter{ID: ref.IDRef, Href: name, Content: content})
	}
	if len(r.chapters) == 0 {
		return nil, ErrEmptySpine
	}
	return r, nil
}

// Close releases the archive when the reader opened it.
func (r *Reader) Close() error {
	if r.closer != nil {
		return r.closer.Close()
	}
	return nil
}

// Title returns the dc:title of the book.
func (r *Reader) Title() string { return r.title }

// Language returns the dc:language of the book.
func (r *Reader) Language() string { return r.language }

// Version returns the package version, "2.0" or "3.0".
func (r *Reader) Version() string { return r.version }

// Chapters returns the linear spine documents in reading order.
func (r *Reader) Chapters() []Chapter { return r.chapters }

// RawPages lays out every chapter and concatenates the pages.
func (r *Reader) RawPages(opts htmldoc.Options) ([]model.RawPage, error) {
	var pages []model.RawPage
	for _, ch := range r.chapters {
		hr, err := htmldoc.OpenReaderWithOptions(bytes.NewReader(ch.Content), opts)
		if err != nil {
			return nil, fmt.Errorf("chapter %s: %w", ch.Href, err)
		}
		pages = append(pages, hr.RawPages()...)
		hr.Close()
	}
	return pages, nil
}
