package tables

import (
	"sort"

	"github.com/tidwall/rtree"
	"github.com/tsawler/docstruct/model"
)

// tableInfo caches what the engine needs about one table. For a table
// that has absorbed fragments from later pages, tailPage and tail locate
// its last fragment; otherwise they equal page and box.
type tableInfo struct {
	table    *model.Table
	grid     *Grid
	page     int
	box      model.BBox
	tailPage int
	tail     model.BBox
}

// eligibleTables returns the tables that may take part in a merge, in
// page order then top-to-bottom, left-to-right. Ignored tables and tables
// already absorbed into another table's merge provenance are excluded.
func eligibleTables(doc *model.Document) []*tableInfo {
	blocks := doc.BlocksOfType(model.TypeTable)

	absorbed := make(map[model.BlockID]bool)
	for _, b := range blocks {
		t := b.(*model.Table)
		if t.MergeInfo == nil {
			continue
		}
		for _, o := range t.MergeInfo.OriginalTables {
			if o.ID != t.ID {
				absorbed[o.ID] = true
			}
		}
	}

	infos := make([]*tableInfo, 0, len(blocks))
	for _, b := range blocks {
		t := b.(*model.Table)
		if t.IgnoreForOutput || absorbed[t.ID] {
			continue
		}
		info := &tableInfo{
			table: t,
			grid:  NewGrid(doc, t),
			page:  t.ID.Page,
			box:   t.BBox(),
		}
		info.tailPage, info.tail = tailFragment(t, info.page, info.box)
		infos = append(infos, info)
	}

	sort.SliceStable(infos, func(i, j int) bool {
		a, b := infos[i], infos[j]
		if a.page != b.page {
			return a.page < b.page
		}
		if a.box.Y0 != b.box.Y0 {
			return a.box.Y0 < b.box.Y0
		}
		if a.box.X0 != b.box.X0 {
			return a.box.X0 < b.box.X0
		}
		return a.table.ID.Seq < b.table.ID.Seq
	})
	return infos
}

// tailFragment returns the page and box of the last fragment a table
// stands for: the original on the highest page, lowest on that page.
func tailFragment(t *model.Table, page int, box model.BBox) (int, model.BBox) {
	if t.MergeInfo == nil {
		return page, box
	}
	for _, o := range t.MergeInfo.OriginalTables {
		if o.Page <= t.ID.Page {
			continue
		}
		ob := model.BBox{X0: o.BBox[0], Y0: o.BBox[1], X1: o.BBox[2], Y1: o.BBox[3]}
		if o.Page > page || (o.Page == page && ob.Y1 > box.Y1) {
			page, box = o.Page, ob
		}
	}
	return page, box
}

// candidatePairs returns index pairs (i < j) into infos worth scoring.
// Same-page pairs must intersect once table i's box is padded by a few
// row heights; consecutive-page pairs need the tail of table i in the
// lower half of its page and table j in the upper half of the next.
func (e *Engine) candidatePairs(doc *model.Document, infos []*tableInfo) [][2]int {
	trees := make(map[int]*rtree.RTreeG[int])
	for i, info := range infos {
		tr, ok := trees[info.page]
		if !ok {
			tr = &rtree.RTreeG[int]{}
			trees[info.page] = tr
		}
		tr.Insert(
			[2]float64{info.box.X0, info.box.Y0},
			[2]float64{info.box.X1, info.box.Y1},
			i,
		)
	}

	var pairs [][2]int
	for i, a := range infos {
		var same []int
		if tr, ok := trees[a.page]; ok {
			pad := max(e.config.MinProximity, e.config.MaxGapRowMultiple*a.grid.RowHeight())
			q := a.box.Expand(pad)
			tr.Search([2]float64{q.X0, q.Y0}, [2]float64{q.X1, q.Y1}, func(_, _ [2]float64, j int) bool {
				if j > i {
					same = append(same, j)
				}
				return true
			})
		}
		sort.Ints(same)
		for _, j := range same {
			pairs = append(pairs, [2]int{i, j})
		}

		for j := i + 1; j < len(infos); j++ {
			b := infos[j]
			if b.page <= a.tailPage {
				continue
			}
			if b.page > a.tailPage+1 {
				break
			}
			if inLowerHalf(doc, a) && inUpperHalf(doc, b) {
				pairs = append(pairs, [2]int{i, j})
			}
		}
	}
	return pairs
}

func pageHeight(doc *model.Document, page int) float64 {
	if p := doc.Page(page); p != nil {
		return p.Height()
	}
	return 0
}

func inLowerHalf(doc *model.Document, t *tableInfo) bool {
	h := pageHeight(doc, t.tailPage)
	return h <= 0 || t.tail.Y1 >= h/2
}

func inUpperHalf(doc *model.Document, t *tableInfo) bool {
	h := pageHeight(doc, t.page)
	return h <= 0 || t.box.Y0 <= h/2
}
