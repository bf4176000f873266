package model

import (
	"encoding/json"
	"fmt"
	"math"
)

// Point represents a 2D point in page image space
type Point struct {
	X, Y float64
}

// Distance calculates the Euclidean distance to another point
func (p Point) Distance(other Point) float64 {
	dx := p.X - other.X
	dy := p.Y - other.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// MarshalJSON encodes the point as a two element array [x, y].
func (p Point) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]float64{p.X, p.Y})
}

// UnmarshalJSON decodes a point from a two element array [x, y].
func (p *Point) UnmarshalJSON(data []byte) error {
	var xy []float64
	if err := json.Unmarshal(data, &xy); err != nil {
		return err
	}
	if len(xy) != 2 {
		return fmt.Errorf("point: want 2 coordinates, got %d", len(xy))
	}
	p.X, p.Y = xy[0], xy[1]
	return nil
}

// BBox represents an axis-aligned bounding box. Coordinates use the page
// image convention: the origin is the top-left corner and Y grows downward.
type BBox struct {
	X0 float64 // Left
	Y0 float64 // Top
	X1 float64 // Right
	Y1 float64 // Bottom
}

// NewBBox creates a bounding box from its edges, normalising reversed edges
func NewBBox(x0, y0, x1, y1 float64) BBox {
	return BBox{
		X0: math.Min(x0, x1),
		Y0: math.Min(y0, y1),
		X1: math.Max(x0, x1),
		Y1: math.Max(y0, y1),
	}
}

// Width returns the horizontal extent
func (b BBox) Width() float64 {
	return b.X1 - b.X0
}

// Height returns the vertical extent
func (b BBox) Height() float64 {
	return b.Y1 - b.Y0
}

// Area returns the area of the bounding box
func (b BBox) Area() float64 {
	if !b.IsValid() {
		return 0
	}
	return b.Width() * b.Height()
}

// Center returns the center point
func (b BBox) Center() Point {
	return Point{
		X: (b.X0 + b.X1) / 2,
		Y: (b.Y0 + b.Y1) / 2,
	}
}

// Contains checks if a point is inside the bounding box
func (b BBox) Contains(p Point) bool {
	return p.X >= b.X0 && p.X <= b.X1 && p.Y >= b.Y0 && p.Y <= b.Y1
}

// Intersects checks if two bounding boxes intersect (touching edges count)
func (b BBox) Intersects(other BBox) bool {
	return !(b.X1 < other.X0 ||
		b.X0 > other.X1 ||
		b.Y1 < other.Y0 ||
		b.Y0 > other.Y1)
}

// Intersection returns the intersection of two bounding boxes
func (b BBox) Intersection(other BBox) BBox {
	if !b.Intersects(other) {
		return BBox{}
	}
	return BBox{
		X0: math.Max(b.X0, other.X0),
		Y0: math.Max(b.Y0, other.Y0),
		X1: math.Min(b.X1, other.X1),
		Y1: math.Min(b.Y1, other.Y1),
	}
}

// Union returns the smallest box containing both boxes
func (b BBox) Union(other BBox) BBox {
	return BBox{
		X0: math.Min(b.X0, other.X0),
		Y0: math.Min(b.Y0, other.Y0),
		X1: math.Max(b.X1, other.X1),
		Y1: math.Max(b.Y1, other.Y1),
	}
}

// IOU returns the intersection-over-union ratio in [0, 1]
func (b BBox) IOU(other BBox) float64 {
	inter := b.Intersection(other).Area()
	union := b.Area() + other.Area() - inter
	if union <= 0 {
		return 0
	}
	return inter / union
}

// OverlapRatio calculates the intersection area relative to the smaller box.
// Returns value between 0 and 1
func (b BBox) OverlapRatio(other BBox) float64 {
	if !b.Intersects(other) {
		return 0
	}
	minArea := math.Min(b.Area(), other.Area())
	if minArea == 0 {
		return 0
	}
	return b.Intersection(other).Area() / minArea
}

// XOverlapRatio returns the shared horizontal extent relative to the
// narrower of the two boxes.
func (b BBox) XOverlapRatio(other BBox) float64 {
	return overlap1D(b.X0, b.X1, other.X0, other.X1)
}

// YOverlapRatio returns the shared vertical extent relative to the
// shorter of the two boxes.
func (b BBox) YOverlapRatio(other BBox) float64 {
	return overlap1D(b.Y0, b.Y1, other.Y0, other.Y1)
}

func overlap1D(a0, a1, b0, b1 float64) float64 {
	shared := math.Min(a1, b1) - math.Max(a0, b0)
	if shared <= 0 {
		return 0
	}
	span := math.Min(a1-a0, b1-b0)
	if span <= 0 {
		return 0
	}
	return math.Min(1, shared/span)
}

// VerticalGap returns the distance from the bottom of b to the top of
// other. Negative values mean the boxes overlap vertically.
func (b BBox) VerticalGap(other BBox) float64 {
	return other.Y0 - b.Y1
}

// HorizontalGap returns the distance from the right edge of b to the left
// edge of other. Negative values mean the boxes overlap horizontally.
func (b BBox) HorizontalGap(other BBox) float64 {
	return other.X0 - b.X1
}

// Expand expands the bounding box by a margin on all sides
func (b BBox) Expand(margin float64) BBox {
	return BBox{
		X0: b.X0 - margin,
		Y0: b.Y0 - margin,
		X1: b.X1 + margin,
		Y1: b.Y1 + margin,
	}
}

// IsValid returns true if the bounding box has positive dimensions
func (b BBox) IsValid() bool {
	return b.X1 > b.X0 && b.Y1 > b.Y0
}

// Slice returns the box as [minx, miny, maxx, maxy]
func (b BBox) Slice() [4]float64 {
	return [4]float64{b.X0, b.Y0, b.X1, b.Y1}
}

// Polygon is an ordered list of vertices describing a block footprint.
type Polygon []Point

// PolygonFromBBox returns the four corner polygon of a box, clockwise from
// the top-left corner.
func PolygonFromBBox(b BBox) Polygon {
	return Polygon{
		{X: b.X0, Y: b.Y0},
		{X: b.X1, Y: b.Y0},
		{X: b.X1, Y: b.Y1},
		{X: b.X0, Y: b.Y1},
	}
}

// BBox returns the axis-aligned bounding box of the polygon. An empty
// polygon yields the zero box.
func (p Polygon) BBox() BBox {
	if len(p) == 0 {
		return BBox{}
	}
	b := BBox{X0: p[0].X, Y0: p[0].Y, X1: p[0].X, Y1: p[0].Y}
	for _, pt := range p[1:] {
		b.X0 = math.Min(b.X0, pt.X)
		b.Y0 = math.Min(b.Y0, pt.Y)
		b.X1 = math.Max(b.X1, pt.X)
		b.Y1 = math.Max(b.Y1, pt.Y)
	}
	return b
}

// Union returns the rectangle polygon bounding both polygons
func (p Polygon) Union(other Polygon) Polygon {
	switch {
	case len(p) == 0:
		return PolygonFromBBox(other.BBox())
	case len(other) == 0:
		return PolygonFromBBox(p.BBox())
	}
	return PolygonFromBBox(p.BBox().Union(other.BBox()))
}

// Clone returns a copy of the polygon
func (p Polygon) Clone() Polygon {
	if p == nil {
		return nil
	}
	out := make(Polygon, len(p))
	copy(out, p)
	return out
}
