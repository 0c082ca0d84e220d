// Package dirent converts between the 32-byte directory entry slots of a FAT
// directory and a tagged Entry value. A slot is either empty (it and every
// slot after it are unused), deleted (reusable, skipped when listing), or live.
package dirent

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/dargueta/scandisk/errors"
	"github.com/dargueta/scandisk/volume"
	"github.com/noxer/bytewriter"
)

// Size is the size of a single raw directory entry, in bytes.
const Size = 32

const (
	// SlotEmpty in the first byte of a name marks the end of the directory.
	SlotEmpty = 0x00
	// SlotDeleted in the first byte of a name marks a deleted entry.
	SlotDeleted = 0xE5
	// SlotKanjiE5 in the first byte of a name stands for a real 0xE5.
	SlotKanjiE5 = 0x05
)

// AttrNormal is the attribute byte of a plain file with no flags set.
const AttrNormal = 0

const (
	// AttrReadOnly is an attribute flag marking a directory entry as read-only.
	AttrReadOnly = 1 << iota

	// AttrHidden is an attribute flag marking a directory entry as "hidden", meaning it
	// wouldn't show up in normal directory listings.
	AttrHidden

	// AttrSystem is an attribute flag marking a directory entry as essential to the
	// operating system.
	AttrSystem

	// AttrVolumeLabel is an attribute flag that marks an entry as holding the volume
	// label. It owns no clusters. Long file name entries also carry this bit.
	AttrVolumeLabel

	// AttrDirectory is an attribute flag marking a directory entry as being a directory.
	AttrDirectory

	// AttrArchived is an attribute flag used by some systems to mark a directory entry
	// as "dirty".
	AttrArchived
)

// Kind says which of the three states a slot is in.
type Kind int

const (
	KindEmpty Kind = iota
	KindDeleted
	KindLive
)

func (k Kind) String() string {
	switch k {
	case KindEmpty:
		return "empty"
	case KindDeleted:
		return "deleted"
	case KindLive:
		return "live"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// RawDirent is the on-disk representation of a directory entry, broken down into its
// constituent fields.
type RawDirent struct {
	Name              [8]byte
	Extension         [3]byte
	AttributeFlags    uint8
	NTReserved        uint8
	CreatedTimeTenths uint8
	CreatedTime       uint16
	CreatedDate       uint16
	LastAccessedDate  uint16
	FirstClusterHigh  uint16
	LastModifiedTime  uint16
	LastModifiedDate  uint16
	FirstClusterLow   uint16
	FileSize          uint32
}

// Entry is a decoded directory slot. Name and Extension have their padding
// removed. Raw keeps every field of the slot so that re-encoding an entry only
// changes what the caller changed.
type Entry struct {
	Kind         Kind
	Name         string
	Extension    string
	Attributes   uint8
	StartCluster volume.ClusterID
	Size         uint32
	Raw          RawDirent
}

// FullName returns the name in NAME.EXT form, or just NAME if there's no
// extension.
func (e Entry) FullName() string {
	if e.Extension == "" {
		return e.Name
	}
	return e.Name + "." + e.Extension
}

func (e Entry) IsDirectory() bool {
	return e.Attributes&AttrDirectory != 0
}

func (e Entry) IsVolumeLabel() bool {
	return e.Attributes&AttrVolumeLabel != 0
}

// IsDotEntry reports whether this is the `.` or `..` entry of a subdirectory.
// These point at the directory itself and its parent.
func (e Entry) IsDotEntry() bool {
	return e.Name == "." || e.Name == ".."
}

// IsFile reports whether this is a live entry for a regular file, i.e. one
// that owns a cluster chain of file data.
func (e Entry) IsFile() bool {
	return e.Kind == KindLive && !e.IsDirectory() && !e.IsVolumeLabel() && !e.IsDotEntry()
}

// Decode deserializes the first 32 bytes of `slot`.
func Decode(slot []byte) (Entry, error) {
	if len(slot) < Size {
		message := fmt.Sprintf("directory slot must be %d bytes, got %d", Size, len(slot))
		return Entry{}, errors.ErrInvalidArgument.WithMessage(message)
	}

	raw := RawDirent{}
	err := binary.Read(bytes.NewReader(slot[:Size]), binary.LittleEndian, &raw)
	if err != nil {
		return Entry{}, errors.ErrIOFailed.Wrap(err)
	}

	switch raw.Name[0] {
	case SlotEmpty:
		return Entry{Kind: KindEmpty, Raw: raw}, nil
	case SlotDeleted:
		return Entry{Kind: KindDeleted, Raw: raw}, nil
	}

	name := strings.TrimRight(string(raw.Name[:]), " ")
	if raw.Name[0] == SlotKanjiE5 {
		name = "\xe5" + name[1:]
	}

	return Entry{
		Kind:       KindLive,
		Name:       name,
		Extension:  strings.TrimRight(string(raw.Extension[:]), " "),
		Attributes: raw.AttributeFlags,
		// FAT12/16 only use the low word; the high word belongs to FAT32.
		StartCluster: volume.ClusterID(raw.FirstClusterLow),
		Size:         raw.FileSize,
		Raw:          raw,
	}, nil
}

// Encode serializes a live entry into the first 32 bytes of `slot`.
func Encode(entry Entry, slot []byte) error {
	if entry.Kind != KindLive {
		message := fmt.Sprintf("only live entries can be encoded, got %s", entry.Kind)
		return errors.ErrInvalidArgument.WithMessage(message)
	}
	if len(slot) < Size {
		message := fmt.Sprintf("directory slot must be %d bytes, got %d", Size, len(slot))
		return errors.ErrInvalidArgument.WithMessage(message)
	}
	if entry.Name == "" {
		return errors.ErrInvalidArgument.WithMessage("entry name can't be empty")
	}
	if len(entry.Name) > 8 || len(entry.Extension) > 3 {
		message := fmt.Sprintf("%q doesn't fit in 8.3 format", entry.FullName())
		return errors.ErrNameTooLong.WithMessage(message)
	}
	if entry.StartCluster > 0xFFFF {
		message := fmt.Sprintf("start cluster %d doesn't fit in 16 bits", entry.StartCluster)
		return errors.ErrArgumentOutOfRange.WithMessage(message)
	}

	raw := entry.Raw
	pad(raw.Name[:], entry.Name)
	pad(raw.Extension[:], entry.Extension)
	if raw.Name[0] == SlotDeleted {
		raw.Name[0] = SlotKanjiE5
	}
	raw.AttributeFlags = entry.Attributes
	raw.FirstClusterHigh = 0
	raw.FirstClusterLow = uint16(entry.StartCluster)
	raw.FileSize = entry.Size

	writer := bytewriter.New(slot[:Size])
	if err := binary.Write(writer, binary.LittleEndian, &raw); err != nil {
		return errors.ErrIOFailed.Wrap(err)
	}
	return nil
}

// pad copies `value` into `field` and fills the rest with spaces.
func pad(field []byte, value string) {
	n := copy(field, value)
	for i := n; i < len(field); i++ {
		field[i] = ' '
	}
}

// WriteEmpty zeroes the first 32 bytes of `slot`, turning it into an
// end-of-directory marker.
func WriteEmpty(slot []byte) {
	for i := 0; i < Size && i < len(slot); i++ {
		slot[i] = 0
	}
	slot[0] = SlotEmpty
}

// SplitName converts a filename to the upper-case stem and extension stored
// in a directory entry.
func SplitName(filename string) (string, string, error) {
	upper := strings.ToUpper(filename)
	stem, extension, _ := strings.Cut(upper, ".")

	if stem == "" {
		message := fmt.Sprintf("filename has no stem: %q", filename)
		return "", "", errors.ErrInvalidArgument.WithMessage(message)
	}
	if strings.ContainsAny(stem, " ") || strings.ContainsAny(extension, " .") {
		message := fmt.Sprintf("filename isn't a valid 8.3 name: %q", filename)
		return "", "", errors.ErrInvalidArgument.WithMessage(message)
	}
	if len(stem) > 8 {
		message := fmt.Sprintf("filename stem can be at most eight characters: %q", stem)
		return "", "", errors.ErrNameTooLong.WithMessage(message)
	}
	if len(extension) > 3 {
		message := fmt.Sprintf("filename extension can be at most three characters: %q", extension)
		return "", "", errors.ErrNameTooLong.WithMessage(message)
	}
	return stem, extension, nil
}

// NewFileEntry builds a live entry for a regular file with all timestamps
// zeroed.
func NewFileEntry(filename string, start volume.ClusterID, size uint32) (Entry, error) {
	stem, extension, err := SplitName(filename)
	if err != nil {
		return Entry{}, err
	}
	return Entry{
		Kind:         KindLive,
		Name:         stem,
		Extension:    extension,
		Attributes:   AttrNormal,
		StartCluster: start,
		Size:         size,
	}, nil
}
