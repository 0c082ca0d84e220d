package check

import (
	"fmt"

	"github.com/boljen/go-bitmap"
	"github.com/dargueta/scandisk/errors"
	"github.com/dargueta/scandisk/volume"
)

// chainWalker follows cluster chains through the FAT. It keeps a scratch
// bitmap of the clusters seen during the current walk so that a chain looping
// back on itself is caught instead of followed forever. Every bit set during a
// walk is cleared again before the walk returns.
type chainWalker struct {
	vol     *volume.Volume
	scratch bitmap.Bitmap
	touched []volume.ClusterID
}

func newChainWalker(vol *volume.Volume) *chainWalker {
	return &chainWalker{
		vol:     vol,
		scratch: bitmap.New(int(vol.Geometry().TotalClusters())),
	}
}

// checkLink validates a cluster number about to be followed. `from` is the
// cluster whose FAT entry held the number, or 0 if it came from a directory
// entry.
//
// A link into a free cluster, the reserved cluster 1, or a cluster marked bad
// means the chain ends without an end-of-chain marker. That's local corruption
// and only the chain in question is affected. A link past the last cluster of
// the volume means the FAT itself can't be trusted, which is fatal.
func (w *chainWalker) checkLink(label string, from, to volume.ClusterID) error {
	if w.vol.IsValidCluster(to) && !w.vol.IsBad(to) {
		return nil
	}

	var problem string
	switch {
	case to < volume.FirstDataCluster:
		problem = "free cluster"
	case w.vol.IsBad(to):
		problem = "bad cluster"
	case uint(to) >= w.vol.Geometry().TotalClusters():
		var message string
		if from == 0 {
			message = fmt.Sprintf(
				"%s starts at cluster %d, past the last cluster (%d)",
				label,
				to,
				w.vol.Geometry().TotalClusters()-1)
		} else {
			message = fmt.Sprintf(
				"%s: cluster %d links to cluster %d, past the last cluster (%d)",
				label,
				from,
				to,
				w.vol.Geometry().TotalClusters()-1)
		}
		return errors.ErrResultOutOfRange.WithMessage(message)
	default:
		return nil
	}

	if from == 0 {
		message := fmt.Sprintf(
			"bad file termination: %s starts at %s %d", label, problem, to)
		return errors.ErrFileSystemCorrupted.WithMessage(message)
	}
	message := fmt.Sprintf(
		"bad file termination: %s: cluster %d links to %s %d", label, from, problem, to)
	return errors.ErrFileSystemCorrupted.WithMessage(message)
}

// walk calls `visit` on every cluster in the chain beginning at `start`, in
// chain order, until it reaches the end-of-chain marker. The declared size of
// whatever owns the chain plays no part in where the walk stops.
//
// `label` names the owner of the chain in error messages.
func (w *chainWalker) walk(
	label string, start volume.ClusterID, visit func(volume.ClusterID) error,
) error {
	defer w.reset()

	from := volume.ClusterID(0)
	current := start
	for {
		if err := w.checkLink(label, from, current); err != nil {
			return err
		}
		if w.scratch.Get(int(current)) {
			message := fmt.Sprintf(
				"%s: cluster %d links back to cluster %d", label, from, current)
			return errors.ErrLinkCycleDetected.WithMessage(message)
		}
		w.scratch.Set(int(current), true)
		w.touched = append(w.touched, current)

		if err := visit(current); err != nil {
			return err
		}

		next, err := w.vol.ReadFATEntry(current)
		if err != nil {
			return err
		}
		if w.vol.IsEndOfChain(next) {
			return nil
		}
		from, current = current, next
	}
}

func (w *chainWalker) reset() {
	for _, cluster := range w.touched {
		w.scratch.Set(int(cluster), false)
	}
	w.touched = w.touched[:0]
}

// list returns the clusters of the chain beginning at `start`, in chain order.
// On error the clusters walked so far are returned along with it.
func (w *chainWalker) list(label string, start volume.ClusterID) ([]volume.ClusterID, error) {
	chain := []volume.ClusterID{}
	err := w.walk(label, start, func(cluster volume.ClusterID) error {
		chain = append(chain, cluster)
		return nil
	})
	return chain, err
}
