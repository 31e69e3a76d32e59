//go:build !linux && !darwin

package system

import (
	"fmt"
	"runtime"
)

func listDrives() ([]DriveDescriptor, error) {
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedPlatform, runtime.GOOS)
}

// FreeSpace на неподдерживаемых платформах недоступен.
func FreeSpace(path string) (free, total uint64, err error) {
	return 0, 0, fmt.Errorf("%w: %s", ErrUnsupportedPlatform, runtime.GOOS)
}
