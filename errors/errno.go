// This is a compatibility shim for POSIX-defined errno codes across platforms.
// The syscall package doesn't define all the values we need on all systems,
// particularly things like EUCLEAN and EMEDIUMTYPE.

package errors

import (
	"fmt"
)

type Errno int

const (
	EOK Errno = iota
	ENOENT
	EIO
	EEXIST
	EINVAL
	ENOSPC
	EDOM
	ERANGE
	ENAMETOOLONG
	ELOOP
	ENOTSUP
	EUCLEAN
	EMEDIUMTYPE
)

var errorMessagesByCode = map[Errno]string{
	ENOENT:       "No such file or directory",
	EIO:          "Input/output error",
	EEXIST:       "File exists",
	EINVAL:       "Invalid argument",
	ENOSPC:       "No space left on device",
	EDOM:         "Numerical argument out of domain",
	ERANGE:       "Numerical result out of range",
	ENAMETOOLONG: "File name too long",
	ELOOP:        "Too many levels of symbolic links",
	ENOTSUP:      "Operation not supported",
	EUCLEAN:      "Structure needs cleaning",
	EMEDIUMTYPE:  "Wrong medium type",
}

var ErrNotFound = New(ENOENT)
var ErrIOFailed = New(EIO)
var ErrExists = New(EEXIST)
var ErrInvalidArgument = New(EINVAL)
var ErrNoSpaceOnDevice = New(ENOSPC)
var ErrArgumentOutOfRange = New(EDOM)
var ErrResultOutOfRange = New(ERANGE)
var ErrNameTooLong = New(ENAMETOOLONG)
var ErrLinkCycleDetected = New(ELOOP)
var ErrNotSupported = New(ENOTSUP)
var ErrFileSystemCorrupted = New(EUCLEAN)
var ErrInvalidFileSystem = New(EMEDIUMTYPE)

func StrError(code Errno) string {
	message, ok := errorMessagesByCode[code]
	if ok {
		return message
	}
	return fmt.Sprintf("error %d not recognized.", int(code))
}
