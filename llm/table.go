package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tsawler/docstruct/htmldoc"
	"github.com/tsawler/docstruct/model"
	"github.com/tsawler/docstruct/render"
)

const tablePrompt = `You are reviewing a table extracted from a document image.
Compare the HTML below with the image and fix any mistakes in rows, columns,
merged cells or cell text. Use <th> for header cells and rowspan/colspan
for merged cells. If the table is already correct, return it unchanged.
Respond with a JSON object {"corrected_html": "<table>...</table>"}.

Extracted HTML:
%s`

var tableSchema = Schema{Name: "table_correction", Required: []string{"corrected_html"}}

// errEmptyTable is returned when corrected HTML contains no cells
var errEmptyTable = errors.New("corrected table has no cells")

// TableProcessor asks the model to correct table structure. It is a
// complex stage: it runs its own bounded wave, one task per table.
type TableProcessor struct {
	service Service
	config  Config
	logger  *slog.Logger
}

// NewTableProcessor creates the table correction stage
func NewTableProcessor(service Service, config Config) *TableProcessor {
	return &TableProcessor{service: service, config: config, logger: config.logger()}
}

// Name returns the stage name
func (p *TableProcessor) Name() string { return "llm_table" }

// BlockTypes returns the block types the stage touches
func (p *TableProcessor) BlockTypes() []model.BlockType {
	return []model.BlockType{model.TypeTable, model.TypeTableCell}
}

// Process corrects every visible table that has cells and an image
// region. A table whose call fails keeps its extracted cells.
func (p *TableProcessor) Process(ctx context.Context, doc *model.Document) error {
	if !p.config.active(p.service) {
		return nil
	}

	var tasks []Task
	current := make(map[model.BlockID]string)
	for _, blk := range doc.BlocksOfType(model.TypeTable) {
		t := blk.(*model.Table)
		if t.IgnoreForOutput || len(t.Structure) == 0 {
			continue
		}
		img := BlockImage(doc, t, p.config.MaxImageSide)
		if img == nil {
			continue
		}
		markup, err := render.TableHTML(doc, t)
		if err != nil {
			p.logger.Warn("llm table skipped", "block", t.ID.String(), "err", err)
			continue
		}
		current[t.ID] = markup
		tasks = append(tasks, Task{
			Stage: p.Name(),
			Block: t.ID,
			Request: Request{
				Prompt: fmt.Sprintf(tablePrompt, markup),
				Image:  img,
				Block:  t.ID,
				Schema: tableSchema,
			},
		})
	}
	if len(tasks) == 0 {
		return nil
	}

	results := NewRunner(p.service, p.config).Run(ctx, tasks)
	for _, res := range results {
		if res.Err != nil {
			continue
		}
		if err := p.apply(doc, res, current[res.Task.Block]); err != nil {
			p.logger.Warn("llm table correction rejected",
				"block", res.Task.Block.String(),
				"err", err)
		}
	}
	return nil
}

// apply replaces the table's cells with those parsed from the corrected
// HTML. Cell polygons divide the table box evenly by the new grid.
func (p *TableProcessor) apply(doc *model.Document, res Result, previous string) error {
	t, err := lookup[*model.Table](doc, res.Task.Block)
	if err != nil {
		return err
	}
	markup, err := decodeField(res.Response, "corrected_html")
	if err != nil {
		return err
	}
	if strings.TrimSpace(markup) == strings.TrimSpace(previous) {
		return nil
	}

	parsed, err := htmldoc.ParseTableHTML(markup)
	if err != nil {
		return err
	}
	cells := parsed.Positioned()
	if len(cells) == 0 {
		return errEmptyTable
	}

	box := t.BBox()
	rows, cols := parsed.RowCount(), parsed.ColCount()
	rh := box.Height() / float64(rows)
	cw := box.Width() / float64(cols)

	structure := make([]model.BlockID, 0, len(cells))
	for _, pc := range cells {
		cellBox := model.BBox{
			X0: box.X0 + float64(pc.Col)*cw,
			Y0: box.Y0 + float64(pc.Row)*rh,
			X1: box.X0 + float64(pc.Col+pc.ColSpan)*cw,
			Y1: box.Y0 + float64(pc.Row+pc.RowSpan)*rh,
		}
		blk, err := doc.NewBlock(t.ID.Page, model.TypeTableCell, model.PolygonFromBBox(cellBox))
		if err != nil {
			return err
		}
		cell := blk.(*model.TableCell)
		cell.Row, cell.Col = pc.Row, pc.Col
		cell.RowSpan, cell.ColSpan = pc.RowSpan, pc.ColSpan
		cell.IsHeader = pc.IsHeader
		cell.Text = pc.Text
		structure = append(structure, cell.ID)
	}

	t.Structure = structure
	t.HTML = ""
	if t.ExtractionDetails == nil {
		t.ExtractionDetails = make(map[string]any)
	}
	t.ExtractionDetails["llm_corrected"] = true
	return nil
}
