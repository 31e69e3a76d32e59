package wipe

import (
	"errors"
	"fmt"
	"strings"

	"securewipe/internal/system"
)

// ConfirmationPhrase — фраза, которую оператор обязан ввести дословно.
// Сравнение нечувствительно к регистру и краевым пробелам, любое другое
// отличие отклоняет запрос.
const ConfirmationPhrase = "ERASE ALL DATA"

// Request — запрос на затирание. Создаётся один раз на задание и не меняется.
type Request struct {
	Target                 system.DriveDescriptor
	MethodID               string
	Verify                 bool
	ConfirmationPhrase     string
	AcknowledgeSystemDrive bool
	FreeSpace              bool   // затирать свободное место ФС, а не устройство
	MountPoint             string // точка монтирования для режима FreeSpace
	DryRun                 bool
}

// Причины отказа SafetyGuard
var (
	ErrNoTarget               = errors.New("устройство не выбрано")
	ErrConfirmationMismatch   = errors.New("фраза подтверждения не совпадает")
	ErrSystemDriveUnconfirmed = errors.New("затирание системного диска требует явного дополнительного подтверждения")
)

// Authorize проверяет запрос перед созданием задания. Правила обязательны
// и проверяются по порядку; отказ здесь гарантирует, что к записи дело
// не дойдёт.
//
// Определение системного диска эвристическое (метки ОС на томе) и не
// авторитетно: оно дополняет двойное подтверждение, но не заменяет его.
func Authorize(req Request) error {
	if !req.Target.Selected() {
		return ErrNoTarget
	}

	if normalizePhrase(req.ConfirmationPhrase) != normalizePhrase(ConfirmationPhrase) {
		return fmt.Errorf("%w: ожидается %q", ErrConfirmationMismatch, ConfirmationPhrase)
	}

	if req.Target.IsSystem && !req.AcknowledgeSystemDrive {
		return ErrSystemDriveUnconfirmed
	}

	return nil
}

func normalizePhrase(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
