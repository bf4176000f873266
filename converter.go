package docstruct

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/tsawler/docstruct/config"
	"github.com/tsawler/docstruct/llm"
	"github.com/tsawler/docstruct/model"
	"github.com/tsawler/docstruct/ocr"
	"github.com/tsawler/docstruct/processor"
	"github.com/tsawler/docstruct/render"
)

// input is what a source yields before the document is built.
type input struct {
	pages     []model.RawPage
	languages []string
	warnings  []Warning
}

// source loads the raw detections. It runs once per terminal call, so a
// Converter can be reused.
type source func(c *Converter) (*input, error)

// Converter provides a fluent interface for converting raw detections into
// a document. Each configuration method returns a new Converter instance,
// making it safe for concurrent use and allowing method chaining.
type Converter struct {
	name string
	load source

	config  *config.Config
	service llm.Service
	logger  *slog.Logger
	ocr     ocr.Options

	// Accumulated error (fail-fast)
	err error
}

func newConverter(name string, load source) *Converter {
	return &Converter{name: name, load: load, config: config.Default()}
}

// failed returns a Converter whose terminal operations report err.
func failed(name string, err error) *Converter {
	c := newConverter(name, nil)
	c.err = err
	return c
}

// clone creates a shallow copy of the Converter with a deep copy of its
// configuration. Each chain method returns a new instance.
func (c *Converter) clone() *Converter {
	cfg := *c.config
	cfg.Processors = append([]string(nil), c.config.Processors...)
	return &Converter{
		name:    c.name,
		load:    c.load,
		config:  &cfg,
		service: c.service,
		logger:  c.logger,
		ocr:     c.ocr,
		err:     c.err,
	}
}

// ============================================================================
// Configuration Methods
// ============================================================================

// WithConfig replaces the configuration. The config is copied, so later
// changes to cfg do not affect the Converter.
func (c *Converter) WithConfig(cfg *config.Config) *Converter {
	n := c.clone()
	if n.err != nil {
		return n
	}
	if cfg == nil {
		n.err = errors.New("nil config")
		return n
	}
	if err := cfg.Validate(); err != nil {
		n.err = fmt.Errorf("invalid config: %w", err)
		return n
	}
	copied := *cfg
	copied.Processors = append([]string(nil), cfg.Processors...)
	n.config = &copied
	return n
}

// WithLLM sets the model-call collaborator and enables the LLM stages.
func (c *Converter) WithLLM(service llm.Service) *Converter {
	n := c.clone()
	n.service = service
	n.config.LLM.Enabled = service != nil
	return n
}

// WithLogger sets the logger used by every stage. nil uses slog.Default().
func (c *Converter) WithLogger(logger *slog.Logger) *Converter {
	n := c.clone()
	n.logger = logger
	return n
}

// Processors replaces the stage list. An empty list runs no stages.
//
// Example:
//
//	doc, _, err := docstruct.FromRaw(pages).
//	    Processors(processor.KindTableQuality, processor.KindDocumentTOC).
//	    Document(ctx)
func (c *Converter) Processors(kinds ...processor.Kind) *Converter {
	n := c.clone()
	n.config.Processors = make([]string, len(kinds))
	for i, k := range kinds {
		n.config.Processors[i] = string(k)
	}
	return n
}

// ApplyMerges makes the table merge stage apply its accepted candidates
// instead of only recording them.
func (c *Converter) ApplyMerges() *Converter {
	n := c.clone()
	n.config.Tables.ApplyMerges = true
	return n
}

// OCRLanguages sets the Tesseract languages used by image sources, e.g.
// "eng+deu".
func (c *Converter) OCRLanguages(languages string) *Converter {
	n := c.clone()
	n.ocr.Languages = languages
	return n
}

// ============================================================================
// Terminal Operations
// ============================================================================

// Document loads the source, builds the document and runs the configured
// pipeline over it. Warnings report non-fatal issues such as ambiguous
// table merges.
func (c *Converter) Document(ctx context.Context) (*model.Document, []Warning, error) {
	if c.err != nil {
		return nil, nil, c.err
	}
	logger := c.log()

	in, err := c.load(c)
	if err != nil {
		return nil, nil, err
	}
	warnings := append([]Warning(nil), in.warnings...)

	doc, err := model.NewBuilder(nil).Build(in.pages, in.languages...)
	if err != nil {
		return nil, warnings, fmt.Errorf("failed to build document: %w", err)
	}

	kinds, err := c.config.Kinds()
	if err != nil {
		return nil, warnings, err
	}
	pipeline, err := processor.Build(kinds, c.config.Deps(c.service, logger))
	if err != nil {
		return nil, warnings, err
	}

	if c.config.LLM.Enabled && c.service == nil {
		warnings = append(warnings, Warning{
			Stage:   "llm",
			Message: "LLM enabled without a model service; LLM stages skipped",
		})
	}

	logger.Debug("converting", "source", c.name, "pages", doc.PageCount(), "stages", len(pipeline.Stages()))
	if err := pipeline.Run(ctx, doc); err != nil {
		return nil, warnings, err
	}

	return doc, append(warnings, mergeWarnings(doc)...), nil
}

// JSON runs Document and renders the result.
func (c *Converter) JSON(ctx context.Context) ([]byte, []Warning, error) {
	doc, warnings, err := c.Document(ctx)
	if err != nil {
		return nil, warnings, err
	}
	out, err := render.NewRenderer(c.config.RenderOptions(c.log())).Marshal(doc)
	if err != nil {
		return nil, warnings, fmt.Errorf("failed to render document: %w", err)
	}
	return out, warnings, nil
}

func (c *Converter) log() *slog.Logger {
	if c.logger != nil {
		return c.logger
	}
	return slog.Default()
}
