//go:build !windows

package filestore

import (
	"os"
	"syscall"
)

// openFileNoFollow refuses to follow a symlink in the final path component.
func openFileNoFollow(path string, flag int, perm os.FileMode) (*os.File, error) {
	fd, err := syscall.Open(path, flag|syscall.O_NOFOLLOW|syscall.O_CLOEXEC, uint32(perm))
	if err != nil {
		return nil, &os.PathError{Op: "open", Path: path, Err: err}
	}
	return os.NewFile(uintptr(fd), path), nil
}

func openFileNoFollowRead(path string) (*os.File, error) {
	return openFileNoFollow(path, syscall.O_RDONLY, 0)
}
