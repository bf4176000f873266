package model

import (
	"fmt"
	"image"
)

// Page represents a single page of a document
type Page struct {
	Index   int     // 0-indexed position in the document
	Polygon Polygon // Page outline in image space

	// Structure lists the top-level blocks of the page in reading order.
	Structure []BlockID

	// Image is the optional page raster used for model calls.
	Image image.Image
}

// NewPage creates a new page with given dimensions
func NewPage(width, height float64) *Page {
	return &Page{
		Polygon:   PolygonFromBBox(BBox{X1: width, Y1: height}),
		Structure: make([]BlockID, 0),
	}
}

// ID returns the wire id of the page node.
func (p *Page) ID() string {
	return fmt.Sprintf("%d/Page/0", p.Index)
}

// BBox returns the page bounds
func (p *Page) BBox() BBox {
	return p.Polygon.BBox()
}

// Width returns the page width
func (p *Page) Width() float64 {
	return p.BBox().Width()
}

// Height returns the page height
func (p *Page) Height() float64 {
	return p.BBox().Height()
}

// Append adds a top-level block at the end of the reading order
func (p *Page) Append(id BlockID) {
	p.Structure = append(p.Structure, id)
}

// Remove drops a top-level block from the page structure. The block itself
// stays in the document.
func (p *Page) Remove(id BlockID) bool {
	var removed bool
	p.Structure, removed = removeID(p.Structure, id)
	return removed
}
