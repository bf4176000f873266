// Package model provides the block tree that every other package reads
// and transforms.
//
// # Blocks
//
// A document is a set of typed blocks. [BlockType] is a closed enumeration
// of variant tags; each tag has exactly one concrete variant struct (for
// example [Text], [Table], [TableCell], [SectionHeader]) which embeds
// [BaseBlock] for the shared fields:
//
//   - ID - a [BlockID] of (page, tag, sequence), immutable once assigned
//   - Polygon - the block footprint on its page
//   - Structure - ordered child ids
//   - IgnoreForOutput - keep the block addressable but do not render it
//
// Variant-specific payload lives on the variant: a [Table] carries
// optional extraction, quality and merge provenance fields, a [Code] block
// carries its source text and language.
//
// # Arena
//
// The [Document] is the only owner of blocks. Pages and blocks reference
// children by id, never by pointer, so the tree has no ownership cycles:
//
//	doc := model.NewDocument(nil)
//	doc.AddPage(model.NewPage(612, 792))
//	blk, err := doc.NewBlock(0, model.TypeText, polygon)
//	doc.Page(0).Append(blk.Base().ID)
//
// # Registry
//
// [Registry] maps each tag to the constructor of its variant. The default
// registry is populated at init and self-checked for a bijection with the
// enumeration; it is read-only afterwards.
//
// # Construction
//
// [Builder] turns provider detections ([RawPage], [RawBlock]) into a
// validated document. Unknown tags, out-of-range nesting hints, cycles and
// dangling references are reported as [*ConstructionError].
//
// # Geometry
//
//   - [BBox] - axis-aligned box in page image space with intersection,
//     union, IOU and adjacency helpers
//   - [Polygon] - block outline, JSON encoded as [[x, y], ...]
//   - [Point] - 2D point
package model
