package volume_test

import (
	"io"
	"testing"

	"github.com/dargueta/scandisk/disks"
	"github.com/dargueta/scandisk/errors"
	diskotest "github.com/dargueta/scandisk/testing"
	"github.com/dargueta/scandisk/volume"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBootSector__Floppy(t *testing.T) {
	image := diskotest.NewFAT12Image(t)

	_, geometry, err := volume.ParseBootSector(image.Bytes())
	require.NoError(t, err)
	assert.Equal(t, 12, geometry.FATBits)
	assert.EqualValues(t, 512, geometry.BytesPerCluster())
	assert.EqualValues(t, 2880, geometry.TotalClusters())
	assert.EqualValues(t, 2847, geometry.DataClusters())
	assert.EqualValues(t, 14, geometry.RootDirSectors())
	assert.EqualValues(t, 512, geometry.FATOffset())
	assert.EqualValues(t, 19*512, geometry.RootDirOffset())
	assert.EqualValues(t, 33*512, geometry.FirstDataOffset())
}

func TestVolume__BootSector(t *testing.T) {
	vol := diskotest.NewFAT12Image(t).Volume()

	bootSector := vol.BootSector()
	assert.EqualValues(t, 0xF0, bootSector.Media)
	assert.EqualValues(t, 512, bootSector.BytesPerSector)
	assert.EqualValues(t, 224, bootSector.RootEntryCount)
	assert.EqualValues(t, 2880, bootSector.TotalSectors16)
}

func TestParseBootSector__FAT16(t *testing.T) {
	image := diskotest.NewFAT16Image(t)

	_, geometry, err := volume.ParseBootSector(image.Bytes())
	require.NoError(t, err)
	assert.Equal(t, 16, geometry.FATBits)
	assert.EqualValues(t, 8192, geometry.TotalClusters())
}

func TestParseBootSector__TotalClustersClampedToFAT(t *testing.T) {
	params, err := disks.GetPredefinedDiskGeometry(diskotest.FAT12Floppy)
	require.NoError(t, err)
	params.SectorsPerFAT = 2
	image := diskotest.NewImageWithGeometry(t, params)

	_, geometry, err := volume.ParseBootSector(image.Bytes())
	require.NoError(t, err)
	assert.EqualValues(t, 682, geometry.FATEntries())
	assert.EqualValues(t, 682, geometry.TotalClusters())
}

func TestParseBootSector__Invalid(t *testing.T) {
	image := diskotest.NewFAT12Image(t)

	_, _, err := volume.ParseBootSector(image.Bytes()[:20])
	assert.ErrorIs(t, err, errors.ErrInvalidFileSystem)

	badSectorSize := image.Clone()
	badSectorSize[11] = 0
	badSectorSize[12] = 3
	_, _, err = volume.ParseBootSector(badSectorSize)
	assert.ErrorIs(t, err, errors.ErrInvalidFileSystem)

	badClusterSize := image.Clone()
	badClusterSize[13] = 3
	_, _, err = volume.ParseBootSector(badClusterSize)
	assert.ErrorIs(t, err, errors.ErrInvalidFileSystem)

	noFATs := image.Clone()
	noFATs[16] = 0
	_, _, err = volume.ParseBootSector(noFATs)
	assert.ErrorIs(t, err, errors.ErrInvalidFileSystem)

	fat32 := image.Clone()
	fat32[22] = 0
	fat32[23] = 0
	_, _, err = volume.ParseBootSector(fat32)
	assert.ErrorIs(t, err, errors.ErrNotSupported)

	truncated := image.Clone()[:4096]
	_, _, err = volume.ParseBootSector(truncated)
	assert.ErrorIs(t, err, errors.ErrInvalidFileSystem)
}

func TestFAT12Entries__Packing(t *testing.T) {
	image := diskotest.NewFAT12Image(t)
	vol := image.Volume()

	require.NoError(t, vol.WriteFATEntry(2, 0x123))
	require.NoError(t, vol.WriteFATEntry(3, 0x456))

	fat := image.Bytes()[512:]
	assert.Equal(t, []byte{0x23, 0x61, 0x45}, fat[3:6])

	value, err := vol.ReadFATEntry(2)
	require.NoError(t, err)
	assert.EqualValues(t, 0x123, value)
	value, err = vol.ReadFATEntry(3)
	require.NoError(t, err)
	assert.EqualValues(t, 0x456, value)

	// Rewriting one entry of a pair must leave the other alone.
	require.NoError(t, vol.WriteFATEntry(2, 0xFFF))
	value, err = vol.ReadFATEntry(3)
	require.NoError(t, err)
	assert.EqualValues(t, 0x456, value)
}

func TestFAT16Entries(t *testing.T) {
	image := diskotest.NewFAT16Image(t)
	vol := image.Volume()

	require.NoError(t, vol.WriteFATEntry(7, 0xABCD))
	assert.Equal(t, []byte{0xCD, 0xAB}, image.Bytes()[512+14:512+16])

	value, err := vol.ReadFATEntry(7)
	require.NoError(t, err)
	assert.EqualValues(t, 0xABCD, value)
}

func TestFATEntries__OutOfRange(t *testing.T) {
	vol := diskotest.NewFAT12Image(t).Volume()

	_, err := vol.ReadFATEntry(3072)
	assert.ErrorIs(t, err, errors.ErrResultOutOfRange)
	assert.ErrorIs(t, vol.WriteFATEntry(3072, 0), errors.ErrResultOutOfRange)
	assert.ErrorIs(t, vol.WriteFATEntry(5, 0x1000), errors.ErrArgumentOutOfRange)
}

func TestMarkers(t *testing.T) {
	fat12 := diskotest.NewFAT12Image(t).Volume()
	assert.True(t, fat12.IsEndOfChain(0xFF8))
	assert.True(t, fat12.IsEndOfChain(0xFFF))
	assert.False(t, fat12.IsEndOfChain(0xFF7))
	assert.True(t, fat12.IsBad(0xFF7))
	assert.True(t, fat12.IsFree(0))
	assert.EqualValues(t, 0xFFF, fat12.EndOfChainMarker())
	assert.True(t, fat12.IsValidCluster(2))
	assert.False(t, fat12.IsValidCluster(1))
	assert.False(t, fat12.IsValidCluster(2880))

	fat16 := diskotest.NewFAT16Image(t).Volume()
	assert.True(t, fat16.IsEndOfChain(0xFFF8))
	assert.False(t, fat16.IsEndOfChain(0xFF8))
	assert.True(t, fat16.IsBad(0xFFF7))
	assert.EqualValues(t, 0xFFFF, fat16.EndOfChainMarker())
	assert.EqualValues(t, 0, fat16.FreeMarker())
}

func TestClusterToAddress(t *testing.T) {
	vol := diskotest.NewFAT12Image(t).Volume()

	address, err := vol.ClusterToAddress(volume.RootDirCluster)
	require.NoError(t, err)
	assert.EqualValues(t, 19*512, address)

	address, err = vol.ClusterToAddress(2)
	require.NoError(t, err)
	assert.EqualValues(t, 33*512, address)

	address, err = vol.ClusterToAddress(3)
	require.NoError(t, err)
	assert.EqualValues(t, 34*512, address)

	_, err = vol.ClusterToAddress(1)
	assert.ErrorIs(t, err, errors.ErrInvalidArgument)

	_, err = vol.ClusterToAddress(2880)
	assert.ErrorIs(t, err, errors.ErrResultOutOfRange)
}

func TestClusterBytes(t *testing.T) {
	image := diskotest.NewFAT12Image(t)
	vol := image.Volume()

	rootDir, err := vol.ClusterBytes(volume.RootDirCluster)
	require.NoError(t, err)
	assert.Len(t, rootDir, 14*512)

	cluster, err := vol.ClusterBytes(2)
	require.NoError(t, err)
	assert.Len(t, cluster, 512)
	cluster[0] = 0x42
	assert.EqualValues(t, 0x42, image.Bytes()[33*512], "cluster bytes don't alias the image")

	// Past the end of the data area but still below total_clusters.
	_, err = vol.ClusterBytes(2879)
	assert.ErrorIs(t, err, errors.ErrResultOutOfRange)
}

func TestFromStream__FlushWritesBack(t *testing.T) {
	image := diskotest.NewFAT12Image(t)
	stream := image.Stream()

	vol, err := volume.FromStream(stream)
	require.NoError(t, err)
	require.NoError(t, vol.WriteFATEntry(5, 0xFFF))
	require.NoError(t, vol.Flush())

	_, err = stream.Seek(0, io.SeekStart)
	require.NoError(t, err)
	written, err := io.ReadAll(stream)
	require.NoError(t, err)

	image.SetFAT(5, 0xFFF)
	assert.Equal(t, image.Bytes(), written)
}

func TestLoad__CloseWritesBack(t *testing.T) {
	image := diskotest.NewFAT16Image(t)
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "disk.img", image.Bytes(), 0644))

	vol, err := volume.Load(fs, "disk.img")
	require.NoError(t, err)
	require.NoError(t, vol.WriteFATEntry(5, 0xFFFF))
	require.NoError(t, vol.Close())

	written, err := afero.ReadFile(fs, "disk.img")
	require.NoError(t, err)
	image.SetFAT(5, 0xFFFF)
	assert.Equal(t, image.Bytes(), written)
}

func TestLoad__Missing(t *testing.T) {
	_, err := volume.Load(afero.NewMemMapFs(), "nope.img")
	assert.ErrorIs(t, err, errors.ErrIOFailed)
}
