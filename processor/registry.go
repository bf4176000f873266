package processor

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/tsawler/docstruct/llm"
	"github.com/tsawler/docstruct/tables"
)

// Kind names a registered processor
type Kind string

const (
	KindPageHeader            Kind = "page_header"
	KindSectionHeader         Kind = "section_header"
	KindCode                  Kind = "code"
	KindFootnote              Kind = "footnote"
	KindLLMTable              Kind = "llm_table"
	KindTableMerge            Kind = "table_merge"
	KindTableQuality          Kind = "table_quality"
	KindLLMEquation           Kind = "llm_equation"
	KindLLMPictureDescription Kind = "llm_picture_description"
	KindLLMHandwriting        Kind = "llm_handwriting"
	KindDocumentTOC           Kind = "document_toc"
)

// Deps carries what the factories need to construct stages.
type Deps struct {
	// Service performs model calls. nil disables every LLM stage.
	Service llm.Service

	LLM       llm.Config
	Quality   tables.QualityConfig
	Merge     tables.MergeConfig
	Furniture FurnitureConfig
	Headings  HeadingConfig

	// Logger is passed to stages whose own config has no logger
	Logger *slog.Logger
}

// DefaultDeps returns default stage configuration with no model service
func DefaultDeps() Deps {
	return Deps{
		LLM:       llm.DefaultConfig(),
		Quality:   tables.DefaultQualityConfig(),
		Merge:     tables.DefaultMergeConfig(),
		Furniture: DefaultFurnitureConfig(),
		Headings:  DefaultHeadingConfig(),
	}
}

func (d Deps) withLogger() Deps {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.LLM.Logger == nil {
		d.LLM.Logger = d.Logger
	}
	if d.Merge.Logger == nil {
		d.Merge.Logger = d.Logger
	}
	return d
}

var factories = map[Kind]func(Deps) Processor{
	KindPageHeader:    func(d Deps) Processor { return NewFurnitureProcessor(d.Furniture) },
	KindSectionHeader: func(d Deps) Processor { return NewSectionHeaderProcessor(d.Headings) },
	KindCode:          func(Deps) Processor { return NewCodeProcessor() },
	KindFootnote:      func(Deps) Processor { return NewFootnoteProcessor() },
	KindLLMTable:      func(d Deps) Processor { return llm.NewTableProcessor(d.Service, d.LLM) },
	KindTableMerge:    func(d Deps) Processor { return tables.NewMergeProcessor(d.Merge) },
	KindTableQuality:  func(d Deps) Processor { return tables.NewQualityProcessor(d.Quality) },
	KindDocumentTOC:   func(Deps) Processor { return NewTOCProcessor() },
}

// simpleFactories build the LLM stages that are batched into one wave.
var simpleFactories = map[Kind]func() llm.SimpleProcessor{
	KindLLMEquation:           func() llm.SimpleProcessor { return llm.NewEquationProcessor() },
	KindLLMPictureDescription: func() llm.SimpleProcessor { return llm.NewPictureDescriptionProcessor() },
	KindLLMHandwriting:        func() llm.SimpleProcessor { return llm.NewHandwritingProcessor() },
}

// DefaultKinds returns the default stage order
func DefaultKinds() []Kind {
	return []Kind{
		KindPageHeader,
		KindSectionHeader,
		KindCode,
		KindFootnote,
		KindLLMTable,
		KindTableMerge,
		KindTableQuality,
		KindLLMEquation,
		KindLLMPictureDescription,
		KindLLMHandwriting,
		KindDocumentTOC,
	}
}

// Kinds returns every registered kind in name order
func Kinds() []Kind {
	out := make([]Kind, 0, len(factories)+len(simpleFactories))
	for k := range factories {
		out = append(out, k)
	}
	for k := range simpleFactories {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ParseKind resolves a processor name
func ParseKind(name string) (Kind, error) {
	k := Kind(name)
	if IsSimple(k) {
		return k, nil
	}
	if _, ok := factories[k]; ok {
		return k, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownProcessor, name)
}

// IsSimple reports whether the kind is batched into the LLM meta stage
func IsSimple(k Kind) bool {
	_, ok := simpleFactories[k]
	return ok
}

// Build constructs a pipeline from kinds. The simple LLM kinds are folded
// into a single meta stage placed where the first of them appears.
func Build(kinds []Kind, deps Deps) (*Pipeline, error) {
	deps = deps.withLogger()

	seen := make(map[Kind]bool, len(kinds))
	var stages []Processor
	var simple []llm.SimpleProcessor
	metaIndex := -1

	for _, k := range kinds {
		if seen[k] {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateProcessor, k)
		}
		seen[k] = true

		if f, ok := simpleFactories[k]; ok {
			if metaIndex < 0 {
				metaIndex = len(stages)
				stages = append(stages, nil)
			}
			simple = append(simple, f())
			continue
		}
		f, ok := factories[k]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownProcessor, k)
		}
		stages = append(stages, f(deps))
	}

	if metaIndex >= 0 {
		stages[metaIndex] = llm.NewMetaProcessor(deps.Service, deps.LLM, simple...)
	}
	return New(deps.Logger, stages...), nil
}
