package check

import (
	"fmt"

	"github.com/dargueta/scandisk/dirent"
	"github.com/dargueta/scandisk/errors"
	"github.com/dargueta/scandisk/volume"
	"go.uber.org/zap"
)

// maxFoundIndex is the largest n for which FOUND<n> still fits in the eight
// characters of a file name.
const maxFoundIndex = 999

// RecoverLostFiles scans the volume in ascending cluster order for allocated
// clusters that aren't in `reach`. Each one starts a lost chain. The chain is
// walked to its end, every cluster in it is marked in `reach`, and a new entry
// named FOUND<n>.DAT is added to the root directory pointing at it. The FAT
// isn't changed.
//
// Running out of names or of root directory slots stops the scan with an
// error naming the chain that couldn't be recovered.
func (c *Checker) RecoverLostFiles(reach *Reachability) ([]LostFile, error) {
	found := []LostFile{}
	total := c.vol.Geometry().TotalClusters()

	for cluster := volume.FirstDataCluster; uint(cluster) < total; cluster++ {
		if reach.IsReferenced(cluster) {
			continue
		}
		value, err := c.vol.ReadFATEntry(cluster)
		if err != nil {
			return found, err
		}
		if c.vol.IsFree(value) || c.vol.IsBad(value) {
			continue
		}

		length := uint(0)
		err = c.chains.walk(
			fmt.Sprintf("lost chain at cluster %d", cluster),
			cluster,
			func(member volume.ClusterID) error {
				length++
				reach.Mark(member)
				return nil
			})
		// A damaged lost chain is still recovered, up to where the damage is.
		if err = c.handle(err); err != nil {
			return found, err
		}

		lost := LostFile{Cluster: cluster, Length: length}
		lost.Name, err = c.recoverChain(lost)
		if err != nil {
			return found, err
		}

		zap.L().Sugar().Infof(
			"recovered %d-cluster chain at cluster %d as %s", lost.Length, lost.Cluster, lost.Name)
		c.reporter.LostFile(lost)
		found = append(found, lost)
	}
	return found, nil
}

// recoverChain adds a root directory entry for a lost chain and returns its
// name.
func (c *Checker) recoverChain(lost LostFile) (string, error) {
	root, err := c.vol.ClusterBytes(volume.RootDirCluster)
	if err != nil {
		return "", err
	}

	name, err := c.nextFoundName(root, lost)
	if err != nil {
		return "", err
	}

	clusterSize := uint64(c.vol.Geometry().BytesPerCluster())
	size := uint64(lost.Length) * clusterSize
	if size > 0xFFFFFFFF {
		message := fmt.Sprintf(
			"lost chain at cluster %d is %d bytes, too big for a directory entry",
			lost.Cluster,
			size)
		return "", errors.ErrResultOutOfRange.WithMessage(message)
	}

	entry, err := dirent.NewFileEntry(name, lost.Cluster, uint32(size))
	if err != nil {
		return "", err
	}

	slot, terminator, err := findFreeSlot(root)
	if err != nil {
		message := fmt.Sprintf(
			"no free root directory slot for lost chain at cluster %d", lost.Cluster)
		return "", errors.ErrNoSpaceOnDevice.WithMessage(message)
	}

	if err := dirent.Encode(entry, slot); err != nil {
		return "", err
	}
	if terminator != nil {
		dirent.WriteEmpty(terminator)
	}
	return name, nil
}

// nextFoundName picks the next FOUND<n>.DAT name not already used in the root
// directory. The counter only ever goes up during a run, even past names that
// were skipped because they were taken.
func (c *Checker) nextFoundName(root []byte, lost LostFile) (string, error) {
	for {
		c.foundIndex++
		if c.foundIndex > maxFoundIndex {
			message := fmt.Sprintf(
				"no FOUND<n>.DAT name left for the %d-cluster lost chain at cluster %d",
				lost.Length,
				lost.Cluster)
			return "", errors.ErrExists.WithMessage(message)
		}

		stem := fmt.Sprintf("FOUND%d", c.foundIndex)
		taken, err := hasEntry(root, stem, "DAT")
		if err != nil {
			return "", err
		}
		if !taken {
			return stem + ".DAT", nil
		}
		zap.L().Sugar().Debugf("%s.DAT already exists, skipping", stem)
	}
}

// hasEntry reports whether a live entry with the given name exists in a
// directory region.
func hasEntry(region []byte, name, extension string) (bool, error) {
	for offset := 0; offset+dirent.Size <= len(region); offset += dirent.Size {
		entry, err := dirent.Decode(region[offset : offset+dirent.Size])
		if err != nil {
			return false, err
		}
		if entry.Kind == dirent.KindEmpty {
			return false, nil
		}
		if entry.Kind == dirent.KindLive && entry.Name == name && entry.Extension == extension {
			return true, nil
		}
	}
	return false, nil
}

// findFreeSlot finds where a new entry goes in a directory region: the first
// deleted slot before the terminator, or failing that the terminator itself.
// In the second case the slot after it is returned as `terminator` so the
// caller can move the end of the directory down by one. That's nil if the new
// entry takes the region's last slot.
func findFreeSlot(region []byte) (slot []byte, terminator []byte, err error) {
	for offset := 0; offset+dirent.Size <= len(region); offset += dirent.Size {
		current := region[offset : offset+dirent.Size]
		switch current[0] {
		case dirent.SlotDeleted:
			return current, nil, nil
		case dirent.SlotEmpty:
			next := offset + dirent.Size
			if next+dirent.Size <= len(region) {
				return current, region[next : next+dirent.Size], nil
			}
			return current, nil, nil
		}
	}
	return nil, nil, errors.ErrNoSpaceOnDevice
}
