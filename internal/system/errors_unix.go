//go:build unix

package system

import (
	"errors"
	"os"

	"golang.org/x/sys/unix"
)

// IsPermissionDenied проверяет, является ли ошибка отказом в доступе.
// По ней оркестратор запускает эскалацию привилегий.
func IsPermissionDenied(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, os.ErrPermission) {
		return true
	}
	return errors.Is(err, unix.EACCES) || errors.Is(err, unix.EPERM)
}

// IsDiskFull проверяет ошибку "нет места на устройстве".
// Для режима затирания свободного места это нормальное завершение прохода.
func IsDiskFull(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, unix.ENOSPC)
}

// IsDeviceBusy проверяет, занято ли устройство другим процессом.
func IsDeviceBusy(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, unix.EBUSY) || errors.Is(err, ErrDeviceBusy)
}
