package check

import (
	"fmt"

	"github.com/dargueta/scandisk/dirent"
	"github.com/dargueta/scandisk/errors"
	"github.com/dargueta/scandisk/volume"
	"go.uber.org/zap"
)

// MarkReferenced walks the directory tree under `root` and returns a table of
// every cluster reachable from it: the clusters of every directory and of
// every file chain. Pass volume.RootDirCluster to walk the whole volume.
//
// File chains are always followed to their end-of-chain marker, whatever size
// the directory entry declares.
func (c *Checker) MarkReferenced(root volume.ClusterID) (*Reachability, error) {
	reach := NewReachability(c.vol.Geometry().TotalClusters())

	err := c.walkTree(
		root,
		reach.Mark,
		func(dir string, entry dirent.Entry, _ []byte) error {
			if entry.StartCluster == 0 {
				if entry.Size == 0 {
					return nil
				}
				message := fmt.Sprintf(
					"bad file termination: %s%s declares %d bytes but has no clusters",
					dir,
					entry.FullName(),
					entry.Size)
				return errors.ErrFileSystemCorrupted.WithMessage(message)
			}

			return c.chains.walk(
				dir+entry.FullName(),
				entry.StartCluster,
				func(cluster volume.ClusterID) error {
					reach.Mark(cluster)
					return nil
				})
		})

	zap.L().Sugar().Debugf(
		"%d of %d clusters referenced from the directory tree", reach.Count(), reach.Len())
	return reach, err
}

// Unreferenced lists, in ascending order, the clusters that are allocated in
// the FAT but weren't marked in `reach`. Clusters marked bad aren't listed;
// they hold no data.
func (c *Checker) Unreferenced(reach *Reachability) ([]volume.ClusterID, error) {
	clusters := []volume.ClusterID{}
	total := c.vol.Geometry().TotalClusters()

	for cluster := volume.FirstDataCluster; uint(cluster) < total; cluster++ {
		if reach.IsReferenced(cluster) {
			continue
		}
		value, err := c.vol.ReadFATEntry(cluster)
		if err != nil {
			return clusters, err
		}
		if !c.vol.IsFree(value) && !c.vol.IsBad(value) {
			clusters = append(clusters, cluster)
		}
	}
	return clusters, nil
}
