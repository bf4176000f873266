package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tsawler/docstruct/model"
)

// imageTasks builds one task per visible block of the given types that has
// a usable page image. prompt returns false to skip a block.
func imageTasks(doc *model.Document, config Config, schema Schema, prompt func(model.Block) (string, bool), types ...model.BlockType) []Task {
	var tasks []Task
	for _, blk := range doc.BlocksOfType(types...) {
		base := blk.Base()
		if base.IgnoreForOutput {
			continue
		}
		text, ok := prompt(blk)
		if !ok {
			continue
		}
		img := BlockImage(doc, blk, config.MaxImageSide)
		if img == nil {
			continue
		}
		tasks = append(tasks, Task{
			Block: base.ID,
			Request: Request{
				Prompt: text,
				Image:  img,
				Block:  base.ID,
				Schema: schema,
			},
		})
	}
	return tasks
}

// lookup resolves a block id to the expected variant.
func lookup[T model.Block](doc *model.Document, id model.BlockID) (T, error) {
	var zero T
	blk, ok := doc.Block(id)
	if !ok {
		return zero, fmt.Errorf("%w: %s", model.ErrDanglingReference, id)
	}
	v, ok := blk.(T)
	if !ok {
		return zero, fmt.Errorf("block %s has unexpected type %s", id, blk.Type())
	}
	return v, nil
}

// decodeField extracts a non-empty string field from a response object.
func decodeField(resp json.RawMessage, key string) (string, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(resp, &obj); err != nil {
		return "", err
	}
	raw, ok := obj[key]
	if !ok {
		return "", fmt.Errorf("%w: missing %q", ErrSchemaMismatch, key)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", fmt.Errorf("%w: %q is not a string", ErrSchemaMismatch, key)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("empty %q in response", key)
	}
	return s, nil
}
