//go:build !unix

package system

import (
	"errors"
	"os"
)

func IsPermissionDenied(err error) bool {
	return err != nil && errors.Is(err, os.ErrPermission)
}

func IsDiskFull(err error) bool {
	return false
}

func IsDeviceBusy(err error) bool {
	return err != nil && errors.Is(err, ErrDeviceBusy)
}
