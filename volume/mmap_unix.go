//go:build unix

package volume

import (
	"fmt"
	"os"

	"github.com/dargueta/scandisk/errors"
	"golang.org/x/sys/unix"
)

// mmapBacking is an image file mapped shared and writable, so every change to
// the mapping lands in the file.
type mmapBacking struct {
	file *os.File
}

func (b mmapBacking) flush(data []byte) error {
	if err := unix.Msync(data, unix.MS_SYNC); err != nil {
		return errors.ErrIOFailed.Wrap(err)
	}
	return nil
}

func (b mmapBacking) close(data []byte) error {
	err := b.flush(data)
	if unmapErr := unix.Munmap(data); err == nil && unmapErr != nil {
		err = errors.ErrIOFailed.Wrap(unmapErr)
	}
	if closeErr := b.file.Close(); err == nil && closeErr != nil {
		err = errors.ErrIOFailed.Wrap(closeErr)
	}
	return err
}

// Open maps the image file at `path` into memory for reading and writing.
// Changes are made directly to the file.
func Open(path string) (*Volume, error) {
	file, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, errors.ErrIOFailed.Wrap(err)
	}

	stat, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, errors.ErrIOFailed.Wrap(err)
	}
	if stat.Size() < BootSectorSize {
		file.Close()
		message := fmt.Sprintf("%s is %d bytes, too small to be a disk image", path, stat.Size())
		return nil, errors.ErrInvalidFileSystem.WithMessage(message)
	}

	data, err := unix.Mmap(
		int(file.Fd()), 0, int(stat.Size()), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		file.Close()
		return nil, errors.ErrIOFailed.Wrap(fmt.Errorf("failed to mmap %s: %w", path, err))
	}

	vol, err := newVolume(data, mmapBacking{file: file})
	if err != nil {
		unix.Munmap(data)
		file.Close()
		return nil, err
	}
	return vol, nil
}
