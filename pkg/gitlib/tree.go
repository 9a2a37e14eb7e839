package gitlib

import git2go "github.com/libgit2/git2go/v34"

// Tree wraps a libgit2 tree.
type Tree struct {
	tree *git2go.Tree
}

// Free releases the tree resources.
func (t *Tree) Free() {
	if t.tree != nil {
		t.tree.Free()
		t.tree = nil
	}
}
