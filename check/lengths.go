package check

import (
	"github.com/dargueta/scandisk/dirent"
	"github.com/dargueta/scandisk/volume"
	"go.uber.org/zap"
)

// RepairLengthMismatches walks the directory tree under `root` a second time,
// comparing the size each file declares against the length of its chain. When
// the chain is longer than ceil(size / cluster size), the mismatch is reported
// and the chain is cut to that length: the cluster at the new end gets the
// end-of-chain marker and every cluster after it is freed. A chain that's
// shorter than the size calls for is left alone.
//
// The new end is found by following the chain, never by counting up from the
// start cluster.
func (c *Checker) RepairLengthMismatches(root volume.ClusterID) ([]Mismatch, error) {
	mismatches := []Mismatch{}
	clusterSize := c.vol.Geometry().BytesPerCluster()

	err := c.walkTree(
		root,
		nil,
		func(dir string, entry dirent.Entry, slot []byte) error {
			if entry.StartCluster == 0 {
				return nil
			}

			chain, err := c.chains.list(dir+entry.FullName(), entry.StartCluster)
			if err != nil {
				// Truncating a damaged chain could free clusters that belong
				// to something else.
				return err
			}

			sizeInClusters := (uint(entry.Size) + clusterSize - 1) / clusterSize
			if uint(len(chain)) <= sizeInClusters {
				return nil
			}

			mismatch := Mismatch{
				Path:         dir,
				Name:         entry.FullName(),
				DeclaredSize: entry.Size,
				ActualSize:   uint64(len(chain)) * uint64(clusterSize),
				StartCluster: entry.StartCluster,
				ChainLength:  uint(len(chain)),
				NewLength:    sizeInClusters,
			}
			c.reporter.LengthMismatch(mismatch)
			mismatches = append(mismatches, mismatch)

			zap.L().Sugar().Infof(
				"truncating %s%s from %d to %d clusters",
				dir,
				mismatch.Name,
				mismatch.ChainLength,
				mismatch.NewLength)
			return c.truncate(entry, slot, chain, sizeInClusters)
		})

	return mismatches, err
}

// truncate cuts `chain` down to its first `keep` clusters and frees the rest.
// With nothing left to keep, the entry's start cluster is set to 0 since an
// empty file owns no clusters.
func (c *Checker) truncate(entry dirent.Entry, slot []byte, chain []volume.ClusterID, keep uint) error {
	if keep == 0 {
		entry.StartCluster = 0
		if err := dirent.Encode(entry, slot); err != nil {
			return err
		}
	} else {
		err := c.vol.WriteFATEntry(chain[keep-1], c.vol.EndOfChainMarker())
		if err != nil {
			return err
		}
	}

	for _, cluster := range chain[keep:] {
		if err := c.vol.WriteFATEntry(cluster, c.vol.FreeMarker()); err != nil {
			return err
		}
	}
	return nil
}
