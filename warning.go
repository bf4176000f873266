package docstruct

import (
	"fmt"
	"strings"

	"github.com/tsawler/docstruct/model"
)

// Warning is a non-fatal issue found while converting a document. The
// conversion still produces output; warnings describe what may be off.
type Warning struct {
	// Stage names the part of the conversion that raised the warning,
	// e.g. "source", "llm" or "table_merge".
	Stage string

	// Block is the id of the block concerned, or empty.
	Block string

	Message string
}

// String formats the warning as "stage [block]: message".
func (w Warning) String() string {
	if w.Block != "" {
		return fmt.Sprintf("%s [%s]: %s", w.Stage, w.Block, w.Message)
	}
	return fmt.Sprintf("%s: %s", w.Stage, w.Message)
}

// FormatWarnings joins warnings into a single line-per-warning string.
func FormatWarnings(warnings []Warning) string {
	lines := make([]string, len(warnings))
	for i, w := range warnings {
		lines[i] = w.String()
	}
	return strings.Join(lines, "\n")
}

// mergeWarnings lifts the warnings attached to merge candidates.
func mergeWarnings(doc *model.Document) []Warning {
	var out []Warning
	for _, cand := range doc.Metadata.TableMergeCandidates {
		for _, msg := range cand.Warnings {
			out = append(out, Warning{
				Stage:   "table_merge",
				Block:   cand.TableA.String(),
				Message: msg,
			})
		}
	}
	return out
}
