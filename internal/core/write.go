package core

import (
	"github.com/metis-io/metis/internal/layout"
)

// moveIfNeeded relocates a document's on-disk file to newPath when its path
// changed (reassign_parent, archive, create).
func moveIfNeeded(oldPath, newPath string) error {
	if oldPath == "" || oldPath == newPath {
		return nil
	}
	return layout.Move(oldPath, newPath)
}
