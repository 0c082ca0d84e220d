package check

import (
	"fmt"

	"github.com/boljen/go-bitmap"
	"github.com/dargueta/scandisk/dirent"
	"github.com/dargueta/scandisk/errors"
	"github.com/dargueta/scandisk/volume"
	"go.uber.org/zap"
)

// fileVisitor is called for every regular file found in the tree. `dir` is the
// path of the directory holding the file, and `slot` aliases the file's 32-byte
// directory entry in the image.
type fileVisitor func(dir string, entry dirent.Entry, slot []byte) error

// dirCursor is the position of the walk inside one directory. A stack of these
// takes the place of recursion, so a deep or cyclic tree can't overflow the
// call stack.
type dirCursor struct {
	path    string
	cluster volume.ClusterID
	data    []byte
	offset  int
	depth   int
}

// treeWalker does a depth-first walk of the directory tree, visiting entries
// in storage order. Each directory cluster is entered at most once per walk.
type treeWalker struct {
	checker      *Checker
	visited      bitmap.Bitmap
	onDirCluster func(volume.ClusterID)
	onFile       fileVisitor
}

func (c *Checker) walkTree(
	root volume.ClusterID, onDirCluster func(volume.ClusterID), onFile fileVisitor,
) error {
	if onDirCluster == nil {
		onDirCluster = func(volume.ClusterID) {}
	}
	walker := treeWalker{
		checker:      c,
		visited:      bitmap.New(int(c.vol.Geometry().TotalClusters())),
		onDirCluster: onDirCluster,
		onFile:       onFile,
	}
	return walker.run(root)
}

func (w *treeWalker) run(root volume.ClusterID) error {
	first, err := w.enter("/", 0, root)
	if err != nil {
		return w.checker.handle(err)
	}

	stack := []*dirCursor{first}
	for len(stack) > 0 {
		top := stack[len(stack)-1]

		if top.offset+dirent.Size > len(top.data) {
			more, err := w.advance(top)
			if err != nil {
				if err = w.checker.handle(err); err != nil {
					return err
				}
			}
			if !more {
				stack = stack[:len(stack)-1]
			}
			continue
		}

		slot := top.data[top.offset : top.offset+dirent.Size]
		top.offset += dirent.Size

		entry, err := dirent.Decode(slot)
		if err != nil {
			return err
		}

		switch {
		case entry.Kind == dirent.KindEmpty:
			// No slot past the terminator is in use, but the clusters holding
			// those slots still belong to the directory.
			stack = stack[:len(stack)-1]
			if err := w.skipRest(top); err != nil {
				if err = w.checker.handle(err); err != nil {
					return err
				}
			}
		case entry.IsDirectory() && !entry.IsDotEntry() && !entry.IsVolumeLabel():
			child, err := w.enterSubdirectory(top, entry)
			if err != nil {
				if err = w.checker.handle(err); err != nil {
					return err
				}
				continue
			}
			stack = append(stack, child)
		case entry.IsFile():
			if err := w.onFile(top.path, entry, slot); err != nil {
				if err = w.checker.handle(err); err != nil {
					return err
				}
			}
		}
		// Deleted slots, dot entries and volume labels own no clusters.
	}
	return nil
}

func (w *treeWalker) enterSubdirectory(parent *dirCursor, entry dirent.Entry) (*dirCursor, error) {
	path := parent.path + entry.FullName() + "/"
	if entry.StartCluster == volume.RootDirCluster {
		message := fmt.Sprintf("directory %s has no clusters", path)
		return nil, errors.ErrFileSystemCorrupted.WithMessage(message)
	}
	if parent.depth+1 > w.checker.options.MaxDepth {
		message := fmt.Sprintf(
			"directory %s is nested deeper than %d levels", path, w.checker.options.MaxDepth)
		return nil, errors.ErrLinkCycleDetected.WithMessage(message)
	}
	return w.enter(path, parent.depth+1, entry.StartCluster)
}

// enter creates a cursor at the first cluster of a directory. Cluster 0 is the
// fixed root directory region.
func (w *treeWalker) enter(path string, depth int, cluster volume.ClusterID) (*dirCursor, error) {
	cursor := &dirCursor{path: path, depth: depth}
	if cluster == volume.RootDirCluster {
		data, err := w.checker.vol.ClusterBytes(volume.RootDirCluster)
		if err != nil {
			return nil, err
		}
		cursor.cluster = volume.RootDirCluster
		cursor.data = data
		return cursor, nil
	}

	label := "directory " + path
	if err := w.checker.chains.checkLink(label, 0, cluster); err != nil {
		return nil, err
	}
	if err := w.moveTo(cursor, label, cluster); err != nil {
		return nil, err
	}
	zap.L().Sugar().Debugf("entering %s at cluster %d, depth %d", path, cluster, depth)
	return cursor, nil
}

// advance moves a cursor to the next cluster of its directory. It returns
// false once the directory has no more clusters. The root directory region
// isn't a chain, so it's done once its last slot is read.
func (w *treeWalker) advance(cursor *dirCursor) (bool, error) {
	if cursor.cluster == volume.RootDirCluster {
		return false, nil
	}

	next, err := w.checker.vol.ReadFATEntry(cursor.cluster)
	if err != nil {
		return false, err
	}
	if w.checker.vol.IsEndOfChain(next) {
		return false, nil
	}

	label := "directory " + cursor.path
	if err := w.checker.chains.checkLink(label, cursor.cluster, next); err != nil {
		return false, err
	}
	if err := w.moveTo(cursor, label, next); err != nil {
		return false, err
	}
	return true, nil
}

// skipRest moves a cursor through the remaining clusters of its directory
// without reading their slots.
func (w *treeWalker) skipRest(cursor *dirCursor) error {
	for {
		more, err := w.advance(cursor)
		if err != nil || !more {
			return err
		}
	}
}

func (w *treeWalker) moveTo(cursor *dirCursor, label string, cluster volume.ClusterID) error {
	if w.visited.Get(int(cluster)) {
		message := fmt.Sprintf("%s: cluster %d was already walked", label, cluster)
		return errors.ErrLinkCycleDetected.WithMessage(message)
	}
	w.visited.Set(int(cluster), true)
	w.onDirCluster(cluster)

	data, err := w.checker.vol.ClusterBytes(cluster)
	if err != nil {
		return err
	}
	cursor.cluster = cluster
	cursor.data = data
	cursor.offset = 0
	return nil
}
