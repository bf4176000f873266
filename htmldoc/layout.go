package htmldoc

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/tsawler/docstruct/model"
)

const (
	indentStep  = 18.0 // Horizontal offset per list or quote level
	pictureSize = 144.0
)

// RawPages lays the parsed elements out top to bottom on synthetic pages
// and returns them as raw detections. Tables, lists and code blocks that
// do not fit are continued on the next page as separate fragments.
func (r *Reader) RawPages() []model.RawPage {
	l := newPageLayout(r.options)
	for _, elem := range r.elements {
		switch elem.Kind {
		case elementHeading:
			l.heading(elem)
		case elementParagraph:
			l.text("Text", elem.Text, 0)
		case elementBlockquote:
			l.text("Text", elem.Text, indentStep)
		case elementPageHeader:
			l.text("PageHeader", elem.Text, 0)
		case elementPageFooter:
			l.text("PageFooter", elem.Text, 0)
		case elementList:
			l.list(elem)
		case elementTable:
			l.table(elem)
		case elementCode:
			l.code(elem)
		case elementPicture:
			l.picture(elem)
		case elementEquation:
			l.equation(elem)
		}
	}
	return l.finish()
}

// PageCount returns the number of synthetic pages.
func (r *Reader) PageCount() int {
	return len(r.RawPages())
}

// pageLayout is a cursor over the content area of the current page.
type pageLayout struct {
	opts  Options
	pages []model.RawPage
	y     float64
}

func newPageLayout(opts Options) *pageLayout {
	l := &pageLayout{opts: opts}
	l.newPage()
	return l
}

func (l *pageLayout) newPage() {
	l.pages = append(l.pages, model.RawPage{
		Width:  l.opts.PageWidth,
		Height: l.opts.PageHeight,
		Blocks: make([]model.RawBlock, 0),
	})
	l.y = l.opts.Margin
}

func (l *pageLayout) page() *model.RawPage { return &l.pages[len(l.pages)-1] }

func (l *pageLayout) bottom() float64 { return l.opts.PageHeight - l.opts.Margin }

func (l *pageLayout) width() float64 { return l.opts.PageWidth - 2*l.opts.Margin }

// reserve starts a new page when h does not fit below the cursor. An
// empty page always accepts the block.
func (l *pageLayout) reserve(h float64) {
	if l.y+h > l.bottom() && len(l.page().Blocks) > 0 {
		l.newPage()
	}
}

// add appends a raw block to the current page and returns its index
func (l *pageLayout) add(raw model.RawBlock) int {
	p := l.page()
	p.Blocks = append(p.Blocks, raw)
	return len(p.Blocks) - 1
}

func (l *pageLayout) gap() { l.y += l.opts.LineHeight / 2 }

func (l *pageLayout) box(indent, w, h float64) model.Polygon {
	x0 := l.opts.Margin + indent
	return model.PolygonFromBBox(model.BBox{X0: x0, Y0: l.y, X1: x0 + w, Y1: l.y + h})
}

// textHeight estimates the wrapped height of text in a column of width w
func (l *pageLayout) textHeight(text string, w, lineHeight float64) float64 {
	perLine := math.Max(1, math.Floor(w/l.opts.CharWidth))
	lines := math.Max(1, math.Ceil(float64(utf8.RuneCountInString(text))/perLine))
	return lines * lineHeight
}

func (l *pageLayout) text(blockType, text string, indent float64) {
	w := l.width() - indent
	h := l.textHeight(text, w, l.opts.LineHeight)
	l.reserve(h)
	l.add(model.RawBlock{Type: blockType, Polygon: l.box(indent, w, h), Text: text})
	l.y += h
	l.gap()
}

func (l *pageLayout) heading(elem parsedElement) {
	size := l.opts.LineHeight * (1.8 - 0.15*float64(elem.Level-1))
	h := l.textHeight(elem.Text, l.width(), size*1.2)
	l.reserve(h + l.opts.LineHeight)
	l.add(model.RawBlock{
		Type:    "SectionHeader",
		Polygon: l.box(0, l.width(), h),
		Text:    elem.Text,
		Attrs:   model.RawAttrs{Level: elem.Level, FontSize: size, Bold: true},
	})
	l.y += h
	l.gap()
}

func (l *pageLayout) equation(elem parsedElement) {
	h := 2 * l.opts.LineHeight
	l.reserve(h)
	l.add(model.RawBlock{Type: "Equation", Polygon: l.box(0, l.width(), h), Text: elem.Text})
	l.y += h
	l.gap()
}

func (l *pageLayout) picture(elem parsedElement) {
	captionH := 0.0
	if elem.Caption != "" {
		captionH = l.textHeight(elem.Caption, l.width(), l.opts.LineHeight)
	}
	l.reserve(pictureSize + captionH)

	top := l.y
	picture := model.RawBlock{
		Type:     "Picture",
		Polygon:  l.box(0, l.width(), pictureSize),
		Text:     elem.Text,
		ImageRef: elem.Src,
	}
	if elem.Caption == "" {
		l.add(picture)
		l.y += pictureSize
		l.gap()
		return
	}

	group := l.add(model.RawBlock{Type: "PictureGroup"})
	picture.Parent = intPtr(group)
	l.add(picture)
	l.y += pictureSize
	l.add(model.RawBlock{
		Type:    "Caption",
		Polygon: l.box(0, l.width(), captionH),
		Text:    elem.Caption,
		Parent:  intPtr(group),
	})
	l.y += captionH
	l.closeGroup(group, top)
	l.gap()
}

// closeGroup sizes a group block to span from top to the cursor
func (l *pageLayout) closeGroup(index int, top float64) {
	l.page().Blocks[index].Polygon = model.PolygonFromBBox(model.BBox{
		X0: l.opts.Margin, Y0: top, X1: l.opts.Margin + l.width(), Y1: l.y,
	})
}

func (l *pageLayout) list(elem parsedElement) {
	group, top := -1, 0.0
	for _, item := range elem.Items {
		indent := float64(item.Level) * indentStep
		w := l.width() - indent
		h := l.textHeight(item.Text, w, l.opts.LineHeight)

		pageBefore := len(l.pages)
		l.reserve(h)
		if group < 0 || len(l.pages) != pageBefore {
			if group >= 0 && len(l.pages) != pageBefore {
				l.closeGroupOn(len(l.pages)-2, group, top)
			}
			top = l.y
			group = l.add(model.RawBlock{
				Type:  "ListGroup",
				Attrs: model.RawAttrs{Ordered: elem.Ordered},
			})
		}
		l.add(model.RawBlock{
			Type:    "ListItem",
			Polygon: l.box(indent, w, h),
			Text:    item.Text,
			Parent:  intPtr(group),
			Attrs:   model.RawAttrs{Indent: item.Level},
		})
		l.y += h
	}
	if group >= 0 {
		l.closeGroup(group, top)
		l.gap()
	}
}

// closeGroupOn sizes a group left behind on an earlier page down to the
// bottom of the content area.
func (l *pageLayout) closeGroupOn(page, index int, top float64) {
	blocks := l.pages[page].Blocks
	y1 := top
	for _, b := range blocks[index+1:] {
		y1 = math.Max(y1, b.Polygon.BBox().Y1)
	}
	blocks[index].Polygon = model.PolygonFromBBox(model.BBox{
		X0: l.opts.Margin, Y0: top, X1: l.opts.Margin + l.width(), Y1: y1,
	})
}

func (l *pageLayout) code(elem parsedElement) {
	lh := l.opts.LineHeight
	code, top := -1, 0.0
	var text []string
	flush := func(page int) {
		if code < 0 {
			return
		}
		blocks := l.pages[page].Blocks
		blocks[code].Text = strings.Join(text, "\n")
		y1 := top
		for _, b := range blocks[code+1:] {
			y1 = math.Max(y1, b.Polygon.BBox().Y1)
		}
		blocks[code].Polygon = model.PolygonFromBBox(model.BBox{
			X0: l.opts.Margin, Y0: top, X1: l.opts.Margin + l.width(), Y1: y1,
		})
	}

	for _, line := range elem.Lines {
		pageBefore := len(l.pages)
		l.reserve(lh)
		if code < 0 || len(l.pages) != pageBefore {
			if code >= 0 {
				flush(len(l.pages) - 2)
			}
			top, text = l.y, nil
			code = l.add(model.RawBlock{
				Type:  "Code",
				Attrs: model.RawAttrs{Language: elem.Language},
			})
		}

		trimmed := strings.TrimLeft(line, " ")
		indent := float64(len(line)-len(trimmed)) * l.opts.CharWidth
		w := math.Max(l.opts.CharWidth, float64(utf8.RuneCountInString(trimmed))*l.opts.CharWidth)
		l.add(model.RawBlock{
			Type:    "Line",
			Polygon: l.box(indent, math.Min(w, l.width()-indent), lh),
			Text:    trimmed,
			Parent:  intPtr(code),
		})
		text = append(text, line)
		l.y += lh
	}
	flush(len(l.pages) - 1)
	l.gap()
}

// table emits the table as one or more fragments, each starting its row
// indices at zero. Row spans are clipped at a fragment boundary.
func (l *pageLayout) table(elem parsedElement) {
	t := elem.Table
	rows, cols := t.RowCount(), t.ColCount()
	if rows == 0 || cols == 0 {
		return
	}
	cells := t.Positioned()
	rowH := l.opts.LineHeight * 1.5
	cw := l.width() / float64(cols)

	captionH := 0.0
	if elem.Caption != "" {
		captionH = l.textHeight(elem.Caption, l.width(), l.opts.LineHeight)
	}

	for start := 0; start < rows; {
		first := start == 0
		extra := 0.0
		if first {
			extra = captionH
		}
		l.reserve(extra + rowH)
		fit := int((l.bottom() - l.y - extra) / rowH)
		end := min(rows, start+max(1, fit))

		top := l.y
		group := -1
		if first && elem.Caption != "" {
			group = l.add(model.RawBlock{Type: "TableGroup"})
			l.add(model.RawBlock{
				Type:    "Caption",
				Polygon: l.box(0, l.width(), captionH),
				Text:    elem.Caption,
				Parent:  intPtr(group),
			})
			l.y += captionH
		}

		h := float64(end-start) * rowH
		tableRaw := model.RawBlock{
			Type:    "Table",
			Polygon: l.box(0, l.width(), h),
			Attrs:   model.RawAttrs{ExtractionMethod: "html"},
		}
		if group >= 0 {
			tableRaw.Parent = intPtr(group)
		}
		tableIndex := l.add(tableRaw)

		for _, pc := range cells {
			if pc.Row < start || pc.Row >= end {
				continue
			}
			row := pc.Row - start
			span := min(pc.RowSpan, end-pc.Row)
			x0 := l.opts.Margin + float64(pc.Col)*cw
			y0 := l.y + float64(row)*rowH
			l.add(model.RawBlock{
				Type: "TableCell",
				Polygon: model.PolygonFromBBox(model.BBox{
					X0: x0, Y0: y0,
					X1: x0 + float64(pc.ColSpan)*cw, Y1: y0 + float64(span)*rowH,
				}),
				Text:   pc.Text,
				Parent: intPtr(tableIndex),
				Attrs: model.RawAttrs{
					Row: row, Col: pc.Col,
					RowSpan: span, ColSpan: pc.ColSpan,
					Header: pc.IsHeader,
				},
			})
		}
		l.y += h
		if group >= 0 {
			l.closeGroup(group, top)
		}
		l.gap()
		start = end
	}
}

// finish drops a trailing empty page.
func (l *pageLayout) finish() []model.RawPage {
	if n := len(l.pages); n > 1 && len(l.pages[n-1].Blocks) == 0 {
		l.pages = l.pages[:n-1]
	}
	return l.pages
}

func intPtr(i int) *int { return &i }
