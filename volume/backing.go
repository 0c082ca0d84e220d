package volume

import (
	"fmt"
	"io"
	"os"

	"github.com/dargueta/scandisk/errors"
	"github.com/spf13/afero"
)

// backing is whatever the image bytes of a Volume came from.
type backing interface {
	flush(data []byte) error
	close(data []byte) error
}

type memoryBacking struct{}

func (memoryBacking) flush([]byte) error { return nil }
func (memoryBacking) close([]byte) error { return nil }

// streamBacking holds a copy of the image read from a stream and writes the
// whole copy back on flush.
type streamBacking struct {
	stream io.ReadWriteSeeker
}

func (b streamBacking) flush(data []byte) error {
	if _, err := b.stream.Seek(0, io.SeekStart); err != nil {
		return errors.ErrIOFailed.Wrap(err)
	}
	nWritten, err := b.stream.Write(data)
	if err != nil {
		return errors.ErrIOFailed.Wrap(err)
	}
	if nWritten < len(data) {
		message := fmt.Sprintf("short write: wanted %d bytes, wrote %d", len(data), nWritten)
		return errors.ErrIOFailed.WithMessage(message)
	}
	return nil
}

func (b streamBacking) close(data []byte) error {
	err := b.flush(data)
	if closer, ok := b.stream.(io.Closer); ok {
		if closeErr := closer.Close(); err == nil && closeErr != nil {
			err = errors.ErrIOFailed.Wrap(closeErr)
		}
	}
	return err
}

// FromStream reads an entire image from `stream` into memory. Changes are
// written back to the stream, starting at offset 0, on Flush or Close. If the
// stream is also an io.Closer, Close closes it.
func FromStream(stream io.ReadWriteSeeker) (*Volume, error) {
	if _, err := stream.Seek(0, io.SeekStart); err != nil {
		return nil, errors.ErrIOFailed.Wrap(err)
	}

	data, err := io.ReadAll(stream)
	if err != nil {
		return nil, errors.ErrIOFailed.Wrap(err)
	}
	return newVolume(data, streamBacking{stream: stream})
}

// Load opens the image at `path` on `fs` and reads it into memory, as
// FromStream does. This is the way to go on platforms or file systems that
// can't memory-map the image.
func Load(fs afero.Fs, path string) (*Volume, error) {
	file, err := fs.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, errors.ErrIOFailed.Wrap(err)
	}

	vol, err := FromStream(file)
	if err != nil {
		file.Close()
		return nil, err
	}
	return vol, nil
}
