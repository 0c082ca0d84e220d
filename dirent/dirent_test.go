package dirent_test

import (
	"encoding/binary"
	"testing"

	"github.com/dargueta/scandisk/dirent"
	"github.com/dargueta/scandisk/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeSlot(name string, attributes byte, cluster uint16, size uint32) []byte {
	slot := make([]byte, dirent.Size)
	copy(slot[:11], name)
	slot[11] = attributes
	binary.LittleEndian.PutUint16(slot[22:], 0x6000)
	binary.LittleEndian.PutUint16(slot[24:], 0x5821)
	binary.LittleEndian.PutUint16(slot[26:], cluster)
	binary.LittleEndian.PutUint32(slot[28:], size)
	return slot
}

func TestDecode__LiveFile(t *testing.T) {
	slot := makeSlot("README  TXT", dirent.AttrArchived, 5, 1234)
	// The high word of the start cluster is FAT32-only and must be ignored.
	binary.LittleEndian.PutUint16(slot[20:], 0x1234)

	entry, err := dirent.Decode(slot)
	require.NoError(t, err)
	assert.Equal(t, dirent.KindLive, entry.Kind)
	assert.Equal(t, "README", entry.Name)
	assert.Equal(t, "TXT", entry.Extension)
	assert.Equal(t, "README.TXT", entry.FullName())
	assert.EqualValues(t, 5, entry.StartCluster)
	assert.EqualValues(t, 1234, entry.Size)
	assert.EqualValues(t, 0x6000, entry.Raw.LastModifiedTime)
	assert.EqualValues(t, 0x5821, entry.Raw.LastModifiedDate)
	assert.True(t, entry.IsFile())
	assert.False(t, entry.IsDirectory())
}

func TestDecode__Sentinels(t *testing.T) {
	empty, err := dirent.Decode(make([]byte, dirent.Size))
	require.NoError(t, err)
	assert.Equal(t, dirent.KindEmpty, empty.Kind)

	deleted, err := dirent.Decode(makeSlot("\xe5ONE    TXT", 0, 5, 10))
	require.NoError(t, err)
	assert.Equal(t, dirent.KindDeleted, deleted.Kind)
	assert.False(t, deleted.IsFile())
}

func TestDecode__EscapedE5(t *testing.T) {
	entry, err := dirent.Decode(makeSlot("\x05ABC    DAT", 0, 2, 1))
	require.NoError(t, err)
	assert.Equal(t, dirent.KindLive, entry.Kind)
	assert.Equal(t, "\xe5ABC", entry.Name)

	slot := make([]byte, dirent.Size)
	require.NoError(t, dirent.Encode(entry, slot))
	assert.EqualValues(t, dirent.SlotKanjiE5, slot[0], "0xE5 must be escaped on disk")
}

func TestDecode__Kinds(t *testing.T) {
	dir, err := dirent.Decode(makeSlot("SUB        ", dirent.AttrDirectory, 9, 0))
	require.NoError(t, err)
	assert.True(t, dir.IsDirectory())
	assert.False(t, dir.IsFile())
	assert.Equal(t, "SUB", dir.FullName())

	dot, err := dirent.Decode(makeSlot("..         ", dirent.AttrDirectory, 0, 0))
	require.NoError(t, err)
	assert.True(t, dot.IsDotEntry())

	label, err := dirent.Decode(makeSlot("MY DISK    ", dirent.AttrVolumeLabel, 0, 0))
	require.NoError(t, err)
	assert.True(t, label.IsVolumeLabel())
	assert.False(t, label.IsFile())

	// Long file name entries carry the volume label bit.
	lfn, err := dirent.Decode(makeSlot("Ax\x00y\x00z\x00\x00\x00\x00\x00", 0x0F, 0, 0))
	require.NoError(t, err)
	assert.True(t, lfn.IsVolumeLabel())
}

func TestDecode__ShortSlot(t *testing.T) {
	_, err := dirent.Decode(make([]byte, 31))
	assert.ErrorIs(t, err, errors.ErrInvalidArgument)
}

func TestEncode__NewFileEntry(t *testing.T) {
	entry, err := dirent.NewFileEntry("found1.dat", 5, 512)
	require.NoError(t, err)

	slot := make([]byte, dirent.Size)
	for i := range slot {
		slot[i] = 0xAA
	}
	require.NoError(t, dirent.Encode(entry, slot))

	expected := make([]byte, dirent.Size)
	copy(expected, "FOUND1  DAT")
	expected[26] = 5
	binary.LittleEndian.PutUint32(expected[28:], 512)
	assert.Equal(t, expected, slot)
}

func TestEncode__KeepsUntouchedFields(t *testing.T) {
	slot := makeSlot("DATA    BIN", dirent.AttrReadOnly, 7, 9000)
	entry, err := dirent.Decode(slot)
	require.NoError(t, err)

	entry.StartCluster = 0
	require.NoError(t, dirent.Encode(entry, slot))

	reread, err := dirent.Decode(slot)
	require.NoError(t, err)
	assert.EqualValues(t, 0, reread.StartCluster)
	assert.EqualValues(t, 9000, reread.Size)
	assert.EqualValues(t, dirent.AttrReadOnly, reread.Attributes)
	assert.Equal(t, entry.Raw.LastModifiedDate, reread.Raw.LastModifiedDate)
}

func TestEncode__Errors(t *testing.T) {
	slot := make([]byte, dirent.Size)

	err := dirent.Encode(dirent.Entry{Kind: dirent.KindDeleted, Name: "X"}, slot)
	assert.ErrorIs(t, err, errors.ErrInvalidArgument)

	err = dirent.Encode(dirent.Entry{Kind: dirent.KindLive}, slot)
	assert.ErrorIs(t, err, errors.ErrInvalidArgument)

	err = dirent.Encode(dirent.Entry{Kind: dirent.KindLive, Name: "NINECHARS"}, slot)
	assert.ErrorIs(t, err, errors.ErrNameTooLong)

	err = dirent.Encode(dirent.Entry{Kind: dirent.KindLive, Name: "A", StartCluster: 0x10000}, slot)
	assert.ErrorIs(t, err, errors.ErrArgumentOutOfRange)

	err = dirent.Encode(dirent.Entry{Kind: dirent.KindLive, Name: "A"}, slot[:10])
	assert.ErrorIs(t, err, errors.ErrInvalidArgument)
}

func TestSplitName(t *testing.T) {
	tests := []struct {
		filename  string
		stem      string
		extension string
		err       error
	}{
		{"found1.dat", "FOUND1", "DAT", nil},
		{"README", "README", "", nil},
		{"A.B", "A", "B", nil},
		{"EIGHTCHR.TXT", "EIGHTCHR", "TXT", nil},
		{"NINECHARS.TXT", "", "", errors.ErrNameTooLong},
		{"FILE.TEXT", "", "", errors.ErrNameTooLong},
		{".TXT", "", "", errors.ErrInvalidArgument},
		{"A.B.C", "", "", errors.ErrInvalidArgument},
		{"HAS SPC.TXT", "", "", errors.ErrInvalidArgument},
	}

	for _, test := range tests {
		t.Run(test.filename, func(t *testing.T) {
			stem, extension, err := dirent.SplitName(test.filename)
			if test.err != nil {
				assert.ErrorIs(t, err, test.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, test.stem, stem)
			assert.Equal(t, test.extension, extension)
		})
	}
}

func TestWriteEmpty(t *testing.T) {
	slot := makeSlot("README  TXT", 0, 5, 1234)
	dirent.WriteEmpty(slot)
	assert.Equal(t, make([]byte, dirent.Size), slot)
}
