// Package testing has helpers for building small FAT12/16 images in memory so
// tests can set up exactly the damage they need.
package testing

import (
	"encoding/binary"
	"io"
	"testing"

	"github.com/dargueta/scandisk/dirent"
	"github.com/dargueta/scandisk/disks"
	"github.com/dargueta/scandisk/volume"
	"github.com/noxer/bytewriter"
	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/bytesextra"
)

// FAT12Floppy and FAT16Small are the slugs of the geometries used by
// NewFAT12Image and NewFAT16Image.
const (
	FAT12Floppy = "floppy-1440k"
	FAT16Small  = "hd-4m-fat16"
)

// ImageBuilder writes a freshly formatted image into memory and then lets a
// test add FAT chains and directory entries to it. Every helper fails the test
// on error.
type ImageBuilder struct {
	t    *testing.T
	data []byte
	vol  *volume.Volume
}

// NewImage formats an empty image with the predefined geometry named `slug`.
func NewImage(t *testing.T, slug string) *ImageBuilder {
	t.Helper()
	params, err := disks.GetPredefinedDiskGeometry(slug)
	require.NoError(t, err)
	return NewImageWithGeometry(t, params)
}

// NewImageWithGeometry formats an empty image with the given geometry.
func NewImageWithGeometry(t *testing.T, params disks.DiskGeometry) *ImageBuilder {
	t.Helper()

	data := make([]byte, uint(params.TotalSectors)*uint(params.BytesPerSector))
	bootSector := volume.RawBootSector{
		JmpBoot:           [3]byte{0xEB, 0x3C, 0x90},
		OEMName:           [8]byte{'S', 'C', 'A', 'N', 'D', 'I', 'S', 'K'},
		BytesPerSector:    params.BytesPerSector,
		SectorsPerCluster: params.SectorsPerCluster,
		ReservedSectors:   params.ReservedSectors,
		NumFATs:           params.NumFATs,
		RootEntryCount:    params.RootEntryCount,
		Media:             params.Media,
		SectorsPerFAT16:   params.SectorsPerFAT,
		SectorsPerTrack:   params.SectorsPerTrack,
		NumHeads:          params.Heads,
	}
	if params.TotalSectors < 0x10000 {
		bootSector.TotalSectors16 = uint16(params.TotalSectors)
	} else {
		bootSector.TotalSectors32 = params.TotalSectors
	}

	writer := bytewriter.New(data[:volume.BootSectorSize])
	err := binary.Write(writer, binary.LittleEndian, &bootSector)
	require.NoError(t, err, "failed to write boot sector")
	data[510] = 0x55
	data[511] = 0xAA

	vol, err := volume.FromBytes(data)
	require.NoError(t, err, "failed to mount freshly formatted image")

	builder := &ImageBuilder{t: t, data: data, vol: vol}

	// The first two FAT entries are reserved. The first holds the media byte.
	eoc := vol.EndOfChainMarker()
	builder.SetFAT(0, (eoc&^0xFF)|volume.ClusterID(params.Media))
	builder.SetFAT(1, eoc)
	return builder
}

// NewFAT12Image formats an empty 1.44 MB floppy image.
func NewFAT12Image(t *testing.T) *ImageBuilder {
	t.Helper()
	return NewImage(t, FAT12Floppy)
}

// NewFAT16Image formats an empty small FAT16 image.
func NewFAT16Image(t *testing.T) *ImageBuilder {
	t.Helper()
	return NewImage(t, FAT16Small)
}

// Bytes returns the image. Changes made through the builder after this call
// are visible in the returned slice.
func (b *ImageBuilder) Bytes() []byte {
	return b.data
}

// Clone returns an independent copy of the image bytes.
func (b *ImageBuilder) Clone() []byte {
	clone := make([]byte, len(b.data))
	copy(clone, b.data)
	return clone
}

// Volume returns a Volume operating directly on the builder's image.
func (b *ImageBuilder) Volume() *volume.Volume {
	return b.vol
}

// Stream returns a stream over a copy of the image, for tests that need an
// io.ReadWriteSeeker.
func (b *ImageBuilder) Stream() io.ReadWriteSeeker {
	return bytesextra.NewReadWriteSeeker(b.Clone())
}

// SetFAT sets the FAT entry of `cluster` to `value`.
func (b *ImageBuilder) SetFAT(cluster, value volume.ClusterID) {
	b.t.Helper()
	err := b.vol.WriteFATEntry(cluster, value)
	require.NoErrorf(b.t, err, "failed to set FAT entry %d to %#x", cluster, value)
}

// FAT returns the FAT entry of `cluster`.
func (b *ImageBuilder) FAT(cluster volume.ClusterID) volume.ClusterID {
	b.t.Helper()
	value, err := b.vol.ReadFATEntry(cluster)
	require.NoErrorf(b.t, err, "failed to read FAT entry %d", cluster)
	return value
}

// Chain links the given clusters together in order and ends the chain after
// the last one.
func (b *ImageBuilder) Chain(clusters ...volume.ClusterID) {
	b.t.Helper()
	for i, cluster := range clusters {
		if i == len(clusters)-1 {
			b.SetFAT(cluster, b.vol.EndOfChainMarker())
		} else {
			b.SetFAT(cluster, clusters[i+1])
		}
	}
}

// ChainLength follows the chain at `start` and returns its length. It gives up
// after as many clusters as the volume has, so a loop can't hang a test.
func (b *ImageBuilder) ChainLength(start volume.ClusterID) int {
	b.t.Helper()
	total := int(b.vol.Geometry().TotalClusters())
	length := 0
	for cluster := start; length < total; length++ {
		next := b.FAT(cluster)
		if b.vol.IsEndOfChain(next) {
			return length + 1
		}
		cluster = next
	}
	b.t.Fatalf("chain starting at cluster %d doesn't end", start)
	return -1
}

// AddEntry writes `entry` into the first empty slot of the directory whose
// first cluster is `dir`, or of the root directory if `dir` is 0. It returns
// the byte offset of the slot within the directory cluster.
func (b *ImageBuilder) AddEntry(dir volume.ClusterID, entry dirent.Entry) int {
	b.t.Helper()

	region, err := b.vol.ClusterBytes(dir)
	require.NoErrorf(b.t, err, "can't get bytes of directory at cluster %d", dir)

	for offset := 0; offset+dirent.Size <= len(region); offset += dirent.Size {
		if region[offset] != dirent.SlotEmpty {
			continue
		}
		err = dirent.Encode(entry, region[offset:offset+dirent.Size])
		require.NoErrorf(b.t, err, "failed to write entry %q", entry.FullName())
		return offset
	}

	b.t.Fatalf("directory at cluster %d is full", dir)
	return -1
}

// AddFile adds a regular file entry to a directory.
func (b *ImageBuilder) AddFile(
	dir volume.ClusterID, name string, start volume.ClusterID, size uint32,
) int {
	b.t.Helper()
	entry, err := dirent.NewFileEntry(name, start, size)
	require.NoErrorf(b.t, err, "bad file name %q", name)
	return b.AddEntry(dir, entry)
}

// AddDirectory creates a one-cluster subdirectory at `cluster` with its `.`
// and `..` entries, and adds an entry for it to `parent`.
func (b *ImageBuilder) AddDirectory(parent volume.ClusterID, name string, cluster volume.ClusterID) {
	b.t.Helper()
	b.Chain(cluster)

	self := dirent.Entry{
		Kind:         dirent.KindLive,
		Name:         ".",
		Attributes:   dirent.AttrDirectory,
		StartCluster: cluster,
	}
	up := self
	up.Name = ".."
	up.StartCluster = parent

	b.AddEntry(cluster, self)
	b.AddEntry(cluster, up)

	entry, err := dirent.NewFileEntry(name, cluster, 0)
	require.NoErrorf(b.t, err, "bad directory name %q", name)
	entry.Attributes = dirent.AttrDirectory
	b.AddEntry(parent, entry)
}

// AddVolumeLabel adds a volume label entry to the root directory.
func (b *ImageBuilder) AddVolumeLabel(label string) {
	b.t.Helper()
	b.AddEntry(volume.RootDirCluster, dirent.Entry{
		Kind:       dirent.KindLive,
		Name:       label,
		Attributes: dirent.AttrVolumeLabel | dirent.AttrArchived,
	})
}

// DeleteEntry marks the slot at byte `offset` of a directory's first cluster
// as deleted.
func (b *ImageBuilder) DeleteEntry(dir volume.ClusterID, offset int) {
	b.t.Helper()
	region, err := b.vol.ClusterBytes(dir)
	require.NoErrorf(b.t, err, "can't get bytes of directory at cluster %d", dir)
	region[offset] = dirent.SlotDeleted
}

// Entries returns every slot of a directory's first cluster (or the root
// region), up to but not including the terminator.
func (b *ImageBuilder) Entries(dir volume.ClusterID) []dirent.Entry {
	b.t.Helper()
	region, err := b.vol.ClusterBytes(dir)
	require.NoErrorf(b.t, err, "can't get bytes of directory at cluster %d", dir)

	entries := []dirent.Entry{}
	for offset := 0; offset+dirent.Size <= len(region); offset += dirent.Size {
		entry, err := dirent.Decode(region[offset : offset+dirent.Size])
		require.NoError(b.t, err)
		if entry.Kind == dirent.KindEmpty {
			break
		}
		entries = append(entries, entry)
	}
	return entries
}

// FindEntry returns the live entry named `fullName` in a directory.
func (b *ImageBuilder) FindEntry(dir volume.ClusterID, fullName string) (dirent.Entry, bool) {
	b.t.Helper()
	for _, entry := range b.Entries(dir) {
		if entry.Kind == dirent.KindLive && entry.FullName() == fullName {
			return entry, true
		}
	}
	return dirent.Entry{}, false
}
