package tables

import (
	"strings"
	"unicode/utf8"

	"github.com/tsawler/docstruct/model"
)

// inferTitles attaches to each table the caption-like block immediately
// preceding it in page layout order, unless that block was already taken
// by an earlier table. Titles are audit data only.
func (e *Engine) inferTitles(doc *model.Document, infos []*tableInfo) map[model.BlockID]*model.InferredTitle {
	titles := make(map[model.BlockID]*model.InferredTitle)
	consumed := make(map[model.BlockID]bool)
	layouts := make(map[int][]model.Block)

	for _, info := range infos {
		layout, ok := layouts[info.page]
		if !ok {
			layout = doc.TopLevelLayout(info.page)
			layouts[info.page] = layout
		}

		idx := -1
		for i, b := range layout {
			if b.Base().ID == info.table.ID {
				idx = i
				break
			}
		}
		if idx < 1 {
			continue
		}

		prev := layout[idx-1]
		base := prev.Base()
		if base.IgnoreForOutput || consumed[base.ID] {
			continue
		}
		if prev.Type() != model.TypeCaption && prev.Type() != model.TypeText {
			continue
		}

		text := strings.TrimSpace(doc.Text(prev))
		if text == "" {
			continue
		}
		if e.config.MaxTitleChars > 0 && utf8.RuneCountInString(text) > e.config.MaxTitleChars {
			continue
		}

		consumed[base.ID] = true
		titles[info.table.ID] = &model.InferredTitle{
			Block:      base.ID,
			Source:     prev.Type(),
			Text:       text,
			IsInferred: true,
		}
	}
	return titles
}
