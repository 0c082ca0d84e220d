// Package volume gives the checker its view of a FAT12/16 disk image: the
// geometry from the boot sector, the first File Allocation Table, and the
// translation from cluster numbers to bytes in the image.
package volume

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/dargueta/scandisk/errors"
)

type ClusterID uint32

// RootDirCluster is the cluster number directory entries use for the root
// directory. On FAT12/16 the root isn't a cluster chain but a fixed region
// between the FATs and the data area.
const RootDirCluster ClusterID = 0

// FirstDataCluster is the lowest cluster number that can hold data. Entries 0
// and 1 of the FAT are reserved.
const FirstDataCluster ClusterID = 2

// BootSectorSize is the number of bytes of the boot sector that hold the BIOS
// Parameter Block fields common to every FAT version.
const BootSectorSize = 36

// RawBootSector is the on-disk representation of the boot sector.
//
// Note: This is only the section of the boot sector common to all FAT versions.
type RawBootSector struct {
	JmpBoot           [3]byte
	OEMName           [8]byte
	BytesPerSector    uint16
	SectorsPerCluster uint8
	ReservedSectors   uint16
	NumFATs           uint8
	RootEntryCount    uint16
	TotalSectors16    uint16
	Media             uint8
	SectorsPerFAT16   uint16
	SectorsPerTrack   uint16
	NumHeads          uint16
	HiddenSectors     uint32
	TotalSectors32    uint32
}

// Geometry holds the values derived from the boot sector that the rest of the
// program needs. It never changes for the lifetime of a Volume.
type Geometry struct {
	BytesPerSector    uint
	SectorsPerCluster uint
	TotalSectors      uint
	ReservedSectors   uint
	NumFATs           uint
	RootEntryCount    uint
	SectorsPerFAT     uint
	// FATBits is the width of one FAT entry, either 12 or 16.
	FATBits int
}

// BytesPerCluster gives the size of a single cluster, in bytes.
func (g Geometry) BytesPerCluster() uint {
	return g.BytesPerSector * g.SectorsPerCluster
}

// FATEntries gives the number of entries a single copy of the FAT can hold.
func (g Geometry) FATEntries() uint {
	fatBytes := g.SectorsPerFAT * g.BytesPerSector
	if g.FATBits == 12 {
		return (fatBytes * 2) / 3
	}
	return fatBytes / 2
}

// TotalClusters is the upper bound (exclusive) for valid cluster numbers. It's
// computed as total sectors divided by sectors per cluster, but never exceeds
// the number of entries the FAT can actually store.
func (g Geometry) TotalClusters() uint {
	if g.SectorsPerCluster == 0 {
		return 0
	}
	total := g.TotalSectors / g.SectorsPerCluster
	if fatEntries := g.FATEntries(); total > fatEntries {
		return fatEntries
	}
	return total
}

// RootDirSectors gives the number of sectors taken up by the fixed root
// directory region.
func (g Geometry) RootDirSectors() uint {
	if g.BytesPerSector == 0 {
		return 0
	}
	return ((g.RootEntryCount * 32) + (g.BytesPerSector - 1)) / g.BytesPerSector
}

// FATOffset is the byte offset of the first copy of the FAT.
func (g Geometry) FATOffset() int64 {
	return int64(g.ReservedSectors) * int64(g.BytesPerSector)
}

// RootDirOffset is the byte offset of the root directory region.
func (g Geometry) RootDirOffset() int64 {
	return int64(g.ReservedSectors+g.NumFATs*g.SectorsPerFAT) * int64(g.BytesPerSector)
}

// FirstDataOffset is the byte offset of cluster 2, the first data cluster.
func (g Geometry) FirstDataOffset() int64 {
	return g.RootDirOffset() + int64(g.RootDirSectors())*int64(g.BytesPerSector)
}

// DataClusters gives the number of clusters that actually fit in the data
// area. This, and only this, determines the FAT version.
func (g Geometry) DataClusters() uint {
	metadataSectors := g.ReservedSectors + g.NumFATs*g.SectorsPerFAT + g.RootDirSectors()
	if g.SectorsPerCluster == 0 || metadataSectors >= g.TotalSectors {
		return 0
	}
	return (g.TotalSectors - metadataSectors) / g.SectorsPerCluster
}

// DetermineFATVersion determines the version of the FAT file system based on the number
// of clusters on the system. (This is the only proper way to do so.)
func DetermineFATVersion(totalClusters uint) int {
	// These cluster counts, while odd-looking, are correct. They're taken directly from
	// Microsoft's FAT documentation, v1.03, page 14.
	if totalClusters < 4085 {
		return 12
	}
	if totalClusters < 65525 {
		return 16
	}
	return 32
}

// ParseBootSector decodes the boot sector at the beginning of `data` and
// validates it.
//
// FAT32 volumes are rejected with ErrNotSupported.
func ParseBootSector(data []byte) (*RawBootSector, Geometry, error) {
	if len(data) < BootSectorSize {
		message := fmt.Sprintf(
			"image is %d bytes, too small to hold a boot sector", len(data))
		return nil, Geometry{}, errors.ErrInvalidFileSystem.WithMessage(message)
	}

	raw := RawBootSector{}
	err := binary.Read(bytes.NewReader(data[:BootSectorSize]), binary.LittleEndian, &raw)
	if err != nil {
		return nil, Geometry{}, errors.ErrIOFailed.Wrap(err)
	}

	// BytesPerSector must be 512, 1024, 2048, or 4096.
	switch raw.BytesPerSector {
	case 512, 1024, 2048, 4096:
	default:
		message := fmt.Sprintf(
			"bad value for BytesPerSector: need 512, 1024, 2048, or 4096, got %d",
			raw.BytesPerSector)
		return nil, Geometry{}, errors.ErrInvalidFileSystem.WithMessage(message)
	}

	// SectorsPerCluster must be 2^x with x in [0, 8)
	switch raw.SectorsPerCluster {
	case 1, 2, 4, 8, 16, 32, 64, 128:
	default:
		message := fmt.Sprintf(
			"corruption detected: SectorsPerCluster must be a power of 2 in 1-128, got %d",
			raw.SectorsPerCluster)
		return nil, Geometry{}, errors.ErrInvalidFileSystem.WithMessage(message)
	}

	bytesPerCluster := uint(raw.BytesPerSector) * uint(raw.SectorsPerCluster)
	if bytesPerCluster > 32768 {
		message := fmt.Sprintf(
			"corruption detected: BytesPerCluster cannot exceed 32,768 but got %d",
			bytesPerCluster)
		return nil, Geometry{}, errors.ErrInvalidFileSystem.WithMessage(message)
	}

	if raw.ReservedSectors == 0 {
		return nil, Geometry{}, errors.ErrInvalidFileSystem.WithMessage(
			"corruption detected: ReservedSectors must be at least 1")
	}
	if raw.NumFATs == 0 {
		return nil, Geometry{}, errors.ErrInvalidFileSystem.WithMessage(
			"corruption detected: NumFATs must be at least 1")
	}

	// FAT32 keeps the FAT size in a 32-bit field after the common BPB and has no
	// fixed root directory.
	if raw.SectorsPerFAT16 == 0 || raw.RootEntryCount == 0 {
		return nil, Geometry{}, errors.ErrNotSupported.WithMessage(
			"FAT32 volumes aren't supported")
	}

	var totalSectors uint
	if raw.TotalSectors16 != 0 {
		totalSectors = uint(raw.TotalSectors16)
	} else {
		totalSectors = uint(raw.TotalSectors32)
	}

	geometry := Geometry{
		BytesPerSector:    uint(raw.BytesPerSector),
		SectorsPerCluster: uint(raw.SectorsPerCluster),
		TotalSectors:      totalSectors,
		ReservedSectors:   uint(raw.ReservedSectors),
		NumFATs:           uint(raw.NumFATs),
		RootEntryCount:    uint(raw.RootEntryCount),
		SectorsPerFAT:     uint(raw.SectorsPerFAT16),
	}

	geometry.FATBits = DetermineFATVersion(geometry.DataClusters())
	if geometry.FATBits == 32 {
		message := fmt.Sprintf(
			"%d data clusters is too many for FAT12/16", geometry.DataClusters())
		return nil, Geometry{}, errors.ErrNotSupported.WithMessage(message)
	}

	if geometry.FirstDataOffset() > int64(len(data)) {
		message := fmt.Sprintf(
			"data area starts at byte %d but the image is only %d bytes",
			geometry.FirstDataOffset(),
			len(data))
		return nil, Geometry{}, errors.ErrInvalidFileSystem.WithMessage(message)
	}

	return &raw, geometry, nil
}
