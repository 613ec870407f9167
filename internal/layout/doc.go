// Package layout turns an input dataset tree into a flat list of video files
// to convert.
//
// A [Layout] is a rule table: one [DirRule] per directory level below the
// input root, then a [FileRule] for the leaf files. [Collect] walks the tree
// level by level, applying the rule for the current depth, and mirrors every
// matched directory into the output root before returning. Layouts are looked
// up by name from a registry, so new tree shapes are added as table entries
// without touching the traversal.
package layout
