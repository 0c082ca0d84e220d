package volume

import (
	"encoding/binary"
	"fmt"

	"github.com/dargueta/scandisk/errors"
	"go.uber.org/zap"
)

const (
	fat12EndOfChain = 0xFF8
	fat12Bad        = 0xFF7
	fat12EOFMarker  = 0xFFF
	fat16EndOfChain = 0xFFF8
	fat16Bad        = 0xFFF7
	fat16EOFMarker  = 0xFFFF
)

// Volume is the single owner of a disk image for the duration of a run. All
// reads and writes go straight to the image bytes, so a write is visible to
// the very next read.
type Volume struct {
	data       []byte
	bootSector *RawBootSector
	geometry   Geometry
	backing    backing
}

func newVolume(data []byte, store backing) (*Volume, error) {
	bootSector, geometry, err := ParseBootSector(data)
	if err != nil {
		return nil, err
	}

	fatEnd := geometry.FATOffset() + int64(geometry.SectorsPerFAT*geometry.BytesPerSector)
	if fatEnd > int64(len(data)) {
		message := fmt.Sprintf(
			"FAT ends at byte %d but the image is only %d bytes", fatEnd, len(data))
		return nil, errors.ErrInvalidFileSystem.WithMessage(message)
	}

	zap.L().Sugar().Debugf(
		"mounted FAT%d volume: %d B/sector, %d sectors/cluster, %d sectors, %d clusters",
		geometry.FATBits,
		geometry.BytesPerSector,
		geometry.SectorsPerCluster,
		geometry.TotalSectors,
		geometry.TotalClusters())

	return &Volume{
		data:       data,
		bootSector: bootSector,
		geometry:   geometry,
		backing:    store,
	}, nil
}

// FromBytes creates a Volume that reads and modifies `data` in place. Nothing
// is written anywhere else; Flush and Close do nothing.
func FromBytes(data []byte) (*Volume, error) {
	return newVolume(data, memoryBacking{})
}

// Geometry returns the geometry read from the boot sector.
func (v *Volume) Geometry() Geometry {
	return v.geometry
}

// BootSector returns the raw boot sector fields.
func (v *Volume) BootSector() RawBootSector {
	return *v.bootSector
}

// IsValidCluster returns a boolean indicating whether the given cluster number
// can be part of a chain on this volume.
func (v *Volume) IsValidCluster(cluster ClusterID) bool {
	return cluster >= FirstDataCluster && uint(cluster) < v.geometry.TotalClusters()
}

// IsEndOfChain reports whether a FAT entry value marks the last cluster of a
// chain.
func (v *Volume) IsEndOfChain(value ClusterID) bool {
	if v.geometry.FATBits == 12 {
		return value >= fat12EndOfChain
	}
	return value >= fat16EndOfChain
}

// IsFree reports whether a FAT entry value marks an unallocated cluster.
func (v *Volume) IsFree(value ClusterID) bool {
	return value == 0
}

// IsBad reports whether a FAT entry value marks a cluster as unusable.
func (v *Volume) IsBad(value ClusterID) bool {
	if v.geometry.FATBits == 12 {
		return value == fat12Bad
	}
	return value == fat16Bad
}

// EndOfChainMarker is the value written to a FAT entry to end a chain.
func (v *Volume) EndOfChainMarker() ClusterID {
	if v.geometry.FATBits == 12 {
		return fat12EOFMarker
	}
	return fat16EOFMarker
}

// FreeMarker is the value written to a FAT entry to release a cluster.
func (v *Volume) FreeMarker() ClusterID {
	return 0
}

func (v *Volume) fat() []byte {
	start := v.geometry.FATOffset()
	end := start + int64(v.geometry.SectorsPerFAT*v.geometry.BytesPerSector)
	return v.data[start:end]
}

func (v *Volume) checkFATIndex(cluster ClusterID) error {
	if uint(cluster) >= v.geometry.FATEntries() {
		message := fmt.Sprintf(
			"FAT index %d not in range [0, %d)", cluster, v.geometry.FATEntries())
		return errors.ErrResultOutOfRange.WithMessage(message)
	}
	return nil
}

// ReadFATEntry returns the value stored in the first FAT for `cluster`.
func (v *Volume) ReadFATEntry(cluster ClusterID) (ClusterID, error) {
	if err := v.checkFATIndex(cluster); err != nil {
		return 0, err
	}

	table := v.fat()
	if v.geometry.FATBits == 16 {
		return ClusterID(binary.LittleEndian.Uint16(table[2*cluster:])), nil
	}

	// Two 12-bit entries are packed into three bytes. Even entries take the
	// whole first byte and the low nibble of the second; odd entries take the
	// high nibble of the second byte and the whole third.
	pos := (3 * uint(cluster)) / 2
	if cluster&1 == 0 {
		return ClusterID(uint16(table[pos]) | (uint16(table[pos+1]&0x0F) << 8)), nil
	}
	return ClusterID(uint16(table[pos]>>4) | (uint16(table[pos+1]) << 4)), nil
}

// WriteFATEntry stores `value` in the first FAT for `cluster`. The change is
// made directly in the image.
func (v *Volume) WriteFATEntry(cluster ClusterID, value ClusterID) error {
	if err := v.checkFATIndex(cluster); err != nil {
		return err
	}

	table := v.fat()
	if v.geometry.FATBits == 16 {
		if value > 0xFFFF {
			message := fmt.Sprintf("value %#x doesn't fit in a FAT16 entry", value)
			return errors.ErrArgumentOutOfRange.WithMessage(message)
		}
		binary.LittleEndian.PutUint16(table[2*cluster:], uint16(value))
		return nil
	}

	if value > 0xFFF {
		message := fmt.Sprintf("value %#x doesn't fit in a FAT12 entry", value)
		return errors.ErrArgumentOutOfRange.WithMessage(message)
	}

	pos := (3 * uint(cluster)) / 2
	if cluster&1 == 0 {
		table[pos] = uint8(value)
		table[pos+1] = (table[pos+1] & 0xF0) | (uint8(value>>8) & 0x0F)
	} else {
		table[pos] = (table[pos] & 0x0F) | (uint8(value&0x0F) << 4)
		table[pos+1] = uint8(value >> 4)
	}
	return nil
}

// ClusterToAddress converts a cluster number into a byte offset in the image.
// Cluster 0 stands for the root directory region.
func (v *Volume) ClusterToAddress(cluster ClusterID) (int64, error) {
	if cluster == RootDirCluster {
		return v.geometry.RootDirOffset(), nil
	}
	if cluster < FirstDataCluster {
		message := fmt.Sprintf("cluster %d is reserved and has no address", cluster)
		return -1, errors.ErrInvalidArgument.WithMessage(message)
	}
	if uint(cluster) >= v.geometry.TotalClusters() {
		message := fmt.Sprintf(
			"cluster %d not in range [%d, %d)",
			cluster,
			FirstDataCluster,
			v.geometry.TotalClusters())
		return -1, errors.ErrResultOutOfRange.WithMessage(message)
	}

	bytesPerCluster := int64(v.geometry.BytesPerCluster())
	return v.geometry.FirstDataOffset() + int64(cluster-FirstDataCluster)*bytesPerCluster, nil
}

// ClusterBytes returns the contents of a cluster as a slice aliasing the image.
// For cluster 0 the whole root directory region is returned.
func (v *Volume) ClusterBytes(cluster ClusterID) ([]byte, error) {
	address, err := v.ClusterToAddress(cluster)
	if err != nil {
		return nil, err
	}

	var length int64
	if cluster == RootDirCluster {
		length = int64(v.geometry.RootDirSectors() * v.geometry.BytesPerSector)
	} else {
		length = int64(v.geometry.BytesPerCluster())
	}

	if address+length > int64(len(v.data)) {
		message := fmt.Sprintf(
			"cluster %d spans bytes [%d, %d) but the image is only %d bytes",
			cluster,
			address,
			address+length,
			len(v.data))
		return nil, errors.ErrResultOutOfRange.WithMessage(message)
	}
	return v.data[address : address+length], nil
}

// Flush writes all changes to wherever the image came from.
func (v *Volume) Flush() error {
	return v.backing.flush(v.data)
}

// Close flushes all changes and releases the image. The Volume must not be
// used afterwards.
func (v *Volume) Close() error {
	err := v.backing.close(v.data)
	v.data = nil
	return err
}
