//go:build !unix

package volume

import (
	"github.com/dargueta/scandisk/errors"
)

// Open isn't available on this platform; use Load instead.
func Open(path string) (*Volume, error) {
	return nil, errors.ErrNotSupported.WithMessage("memory-mapped images need a Unix system")
}
