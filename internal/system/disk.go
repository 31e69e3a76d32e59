package system

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ListDrives перечисляет локальные накопители текущей платформы.
// На неподдерживаемых платформах возвращает ErrUnsupportedPlatform —
// молчаливый пустой список скрывал бы отсутствие реализации.
func ListDrives() ([]DriveDescriptor, error) {
	return listDrives()
}

// FindDrive ищет устройство по идентификатору среди перечисленных.
func FindDrive(deviceID string) (DriveDescriptor, error) {
	drives, err := ListDrives()
	if err != nil {
		return DriveDescriptor{}, err
	}
	for _, d := range drives {
		if d.DeviceID == deviceID {
			return d, nil
		}
	}
	return DriveDescriptor{}, fmt.Errorf("устройство %s не найдено", deviceID)
}

// systemMarkers — пути, наличие которых на смонтированном томе указывает
// на системный диск. Эвристика best-effort: она не заменяет явное
// двойное подтверждение, а лишь дополняет его.
var systemMarkers = []string{
	"etc/fstab",
	"boot",
	"System/Library/CoreServices",
	"Windows/System32",
}

// isSystemMount проверяет точку монтирования на признаки системного тома.
func isSystemMount(mountPoint string) bool {
	if mountPoint == "/" {
		return true
	}
	for _, marker := range systemMarkers {
		if _, err := os.Stat(filepath.Join(mountPoint, marker)); err == nil {
			return true
		}
	}
	return false
}

// DetectSystemDrive помечает дескриптор как системный, если хотя бы одна
// из его точек монтирования выглядит системной. Результат эвристический.
func DetectSystemDrive(d *DriveDescriptor) {
	for _, mp := range d.MountPoints {
		if isSystemMount(mp) {
			d.IsSystem = true
			return
		}
	}
}

// ValidatePath нормализует путь и проверяет его существование.
func ValidatePath(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("пустой путь")
	}

	expanded := os.ExpandEnv(path)
	absPath, err := filepath.Abs(expanded)
	if err != nil {
		return "", fmt.Errorf("некорректный путь: %w", err)
	}

	if _, err := os.Stat(absPath); os.IsNotExist(err) {
		return "", fmt.Errorf("путь не существует: %s", absPath)
	}

	return absPath, nil
}

// CheckWriteAccess проверяет право записи в директорию пробным файлом.
func CheckWriteAccess(dir string) bool {
	testFile := filepath.Join(dir, ".securewipe_write_test")

	f, err := os.Create(testFile)
	if err != nil {
		return false
	}
	f.Close()
	os.Remove(testFile)

	return true
}

// devicePath приводит короткое имя устройства к полному пути /dev/.
func devicePath(name string) string {
	if strings.HasPrefix(name, "/dev/") {
		return name
	}
	return "/dev/" + name
}
