//go:build linux

package system

import (
	"bufio"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"
)

const sysBlockDir = "/sys/block"

// listDrives перечисляет блочные устройства через /sys/block.
// Виртуальные устройства (loop, ram, zram, dm) пропускаются.
func listDrives() ([]DriveDescriptor, error) {
	entries, err := os.ReadDir(sysBlockDir)
	if err != nil {
		return nil, err
	}

	mounts, err := readMounts("/proc/mounts")
	if err != nil {
		// Без таблицы монтирования перечисление всё ещё полезно,
		// но системный диск определить не получится.
		mounts = nil
	}

	var drives []DriveDescriptor
	for _, entry := range entries {
		name := entry.Name()
		if isVirtualDevice(name) {
			continue
		}

		d := DriveDescriptor{
			DeviceID:  devicePath(name),
			SizeBytes: readBlockSize(name),
			Model:     readSysAttr(name, "device/model"),
			Removable: readSysAttr(name, "removable") == "1",
		}

		for _, m := range mounts {
			if isPartitionOf(m.device, d.DeviceID) {
				d.MountPoints = append(d.MountPoints, m.mountPoint)
				if d.Filesystem == "" {
					d.Filesystem = m.fsType
				}
			}
		}
		DetectSystemDrive(&d)

		drives = append(drives, d)
	}

	return drives, nil
}

// isPartitionOf сообщает, является ли dev самим диском disk или его
// разделом. Общий префикс не достаточен: /dev/sdab1 — не раздел /dev/sda.
// Раздел — это имя диска плюс номер, у nvme/mmc с разделителем "p".
func isPartitionOf(dev, disk string) bool {
	if dev == disk {
		return true
	}
	if !strings.HasPrefix(dev, disk) {
		return false
	}
	rest := dev[len(disk):]
	if rest[0] == 'p' {
		rest = rest[1:]
	}
	if rest == "" {
		return false
	}
	for i := 0; i < len(rest); i++ {
		if rest[i] < '0' || rest[i] > '9' {
			return false
		}
	}
	return true
}

type mountEntry struct {
	device     string
	mountPoint string
	fsType     string
}

// readMounts разбирает таблицу монтирования формата /proc/mounts.
func readMounts(path string) ([]mountEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var entries []mountEntry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 3 || !strings.HasPrefix(fields[0], "/dev/") {
			continue
		}
		entries = append(entries, mountEntry{
			device:     fields[0],
			mountPoint: unescapeMountPath(fields[1]),
			fsType:     fields[2],
		})
	}
	return entries, scanner.Err()
}

// unescapeMountPath раскрывает октальные последовательности вида \040.
func unescapeMountPath(path string) string {
	if !strings.Contains(path, "\\") {
		return path
	}
	var b strings.Builder
	for i := 0; i < len(path); i++ {
		if path[i] == '\\' && i+3 < len(path) {
			if code, err := strconv.ParseUint(path[i+1:i+4], 8, 8); err == nil {
				b.WriteByte(byte(code))
				i += 3
				continue
			}
		}
		b.WriteByte(path[i])
	}
	return b.String()
}

// readBlockSize читает размер устройства: /sys/block/<dev>/size в 512-байтных секторах.
func readBlockSize(name string) uint64 {
	raw := readSysAttr(name, "size")
	sectors, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0
	}
	return sectors * 512
}

func readSysAttr(name, attr string) string {
	data, err := os.ReadFile(filepath.Join(sysBlockDir, name, attr))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

func isVirtualDevice(name string) bool {
	for _, prefix := range []string{"loop", "ram", "zram", "dm-", "md", "sr"} {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}

// FreeSpace возвращает свободное и общее место файловой системы по пути.
func FreeSpace(path string) (free, total uint64, err error) {
	var st unix.Statfs_t
	if err = unix.Statfs(path, &st); err != nil {
		return 0, 0, err
	}
	bsize := uint64(st.Bsize)
	return st.Bavail * bsize, st.Blocks * bsize, nil
}
