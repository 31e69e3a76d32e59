package system

import "errors"

// Ошибки платформенного уровня, по которым оркестратор принимает решения.
var (
	ErrUnsupportedPlatform = errors.New("платформа не поддерживает прямую запись на устройство")
	ErrDeviceBusy          = errors.New("устройство занято или смонтировано")
)
