// Package render walks a document tree into its nested JSON form.
//
// Each block renders to a [Node] carrying its id, tag, HTML, polygon and
// bounding box, and the section hierarchy in effect where it appears. The
// hierarchy is a stack of headings maintained by a [Tracker]: a heading
// pops every entry at its own level or deeper, then pushes itself.
//
// Container-shaped variants (list, figure, table and picture groups, and
// tables of contents) carry their children as nodes. All other variants
// are leaves: their children contribute HTML only. A block's HTML is its
// template with a placeholder per child, which is replaced by the child's
// rendered HTML after the child has been rendered.
//
// Blocks marked IgnoreForOutput are omitted. A structure entry that does
// not resolve is an [Error] wrapping [ErrMissingBlock].
package render
