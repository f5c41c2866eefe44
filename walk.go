package har

import (
	"io/fs"
	"iter"
	"os"
	"path/filepath"
)

// ItemKind classifies what a walk yielded.
type ItemKind uint8

const (
	// ItemFile is a regular file.
	ItemFile ItemKind = iota
	// ItemDir is a directory.
	ItemDir
	// ItemOther is a symbolic link or other non-regular file. Links are
	// never followed; the builder skips these with a warning.
	ItemOther
)

// WalkItem is one filesystem object yielded by Walk.
type WalkItem struct {
	Path string
	Kind ItemKind
	Info fs.FileInfo
}

// Walk enumerates the filesystem subtree rooted at source.
//
// A file source yields exactly one item. A directory source yields the
// directory itself followed by all descendants, depth-first, parents before
// children, with children in lexicographic name order. The traversal uses
// an explicit work stack, so depth is bounded by the tree's width rather
// than the call stack.
//
// Errors are yielded in-line with a partial item carrying the failing path.
// The sequence is finite and single-use.
func Walk(source string) iter.Seq2[WalkItem, error] {
	return func(yield func(WalkItem, error) bool) {
		info, err := os.Lstat(source)
		if err != nil {
			yield(WalkItem{Path: source}, err)
			return
		}
		if !info.IsDir() {
			yield(WalkItem{Path: source, Kind: kindOf(info.Mode()), Info: info}, nil)
			return
		}

		type frame struct {
			path string
			info fs.FileInfo
		}
		stack := []frame{{source, info}}
		for len(stack) > 0 {
			fr := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			if !fr.info.IsDir() {
				if !yield(WalkItem{Path: fr.path, Kind: kindOf(fr.info.Mode()), Info: fr.info}, nil) {
					return
				}
				continue
			}

			if !yield(WalkItem{Path: fr.path, Kind: ItemDir, Info: fr.info}, nil) {
				return
			}
			children, err := os.ReadDir(fr.path)
			if err != nil {
				if !yield(WalkItem{Path: fr.path, Kind: ItemDir}, err) {
					return
				}
				continue
			}
			// Push in reverse so the lexicographically first child is
			// expanded next.
			for i := len(children) - 1; i >= 0; i-- {
				child := children[i]
				path := filepath.Join(fr.path, child.Name())
				cinfo, err := child.Info()
				if err != nil {
					if !yield(WalkItem{Path: path}, err) {
						return
					}
					continue
				}
				stack = append(stack, frame{path, cinfo})
			}
		}
	}
}

func kindOf(mode fs.FileMode) ItemKind {
	switch {
	case mode.IsRegular():
		return ItemFile
	case mode.IsDir():
		return ItemDir
	default:
		return ItemOther
	}
}
