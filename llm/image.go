package llm

import (
	"image"
	"math"

	"golang.org/x/image/draw"

	"github.com/tsawler/docstruct/model"
)

// BlockImage crops the page image to the block's bounding box and
// downscales it so neither side exceeds maxSide (no limit when <= 0).
// Block coordinates are mapped onto the raster by the page size. It
// returns nil when the page has no image or the box misses it.
func BlockImage(doc *model.Document, blk model.Block, maxSide int) image.Image {
	page := doc.Page(blk.Base().ID.Page)
	if page == nil || page.Image == nil {
		return nil
	}
	src := page.Image
	bounds := src.Bounds()

	sx, sy := 1.0, 1.0
	if w := page.Width(); w > 0 {
		sx = float64(bounds.Dx()) / w
	}
	if h := page.Height(); h > 0 {
		sy = float64(bounds.Dy()) / h
	}

	box := blk.Base().BBox()
	rect := image.Rect(
		bounds.Min.X+int(math.Floor(box.X0*sx)),
		bounds.Min.Y+int(math.Floor(box.Y0*sy)),
		bounds.Min.X+int(math.Ceil(box.X1*sx)),
		bounds.Min.Y+int(math.Ceil(box.Y1*sy)),
	).Intersect(bounds)
	if rect.Empty() {
		return nil
	}

	w, h := rect.Dx(), rect.Dy()
	if maxSide > 0 && max(w, h) > maxSide {
		scale := float64(maxSide) / float64(max(w, h))
		w = max(1, int(float64(w)*scale))
		h = max(1, int(float64(h)*scale))
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	if w == rect.Dx() && h == rect.Dy() {
		draw.Draw(dst, dst.Bounds(), src, rect.Min, draw.Src)
		return dst
	}
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, rect, draw.Src, nil)
	return dst
}
