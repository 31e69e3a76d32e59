//go:build darwin

package system

import (
	"os/exec"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"
)

// listDrives перечисляет физические диски через diskutil.
func listDrives() ([]DriveDescriptor, error) {
	out, err := exec.Command("diskutil", "list", "-plist", "physical").Output()
	if err != nil {
		// diskutil недоступен — пробуем упрощённый разбор текстового вывода.
		return listDrivesDarwinPlain()
	}

	var drives []DriveDescriptor
	for _, dev := range parseDiskutilPlistDevices(string(out)) {
		d, err := describeDarwinDisk(dev)
		if err != nil {
			continue
		}
		drives = append(drives, d)
	}
	return drives, nil
}

func listDrivesDarwinPlain() ([]DriveDescriptor, error) {
	out, err := exec.Command("diskutil", "list").Output()
	if err != nil {
		return nil, err
	}

	var drives []DriveDescriptor
	for _, line := range strings.Split(string(out), "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "/dev/disk") || strings.Contains(line, "synthesized") {
			continue
		}
		dev := strings.Fields(line)[0]
		d, err := describeDarwinDisk(dev)
		if err != nil {
			continue
		}
		drives = append(drives, d)
	}
	return drives, nil
}

// parseDiskutilPlistDevices вытаскивает идентификаторы целых дисков из plist-вывода.
// Полноценный разбор plist здесь не нужен: строки вида <string>disk0</string>
// внутри WholeDisks перечислены первыми.
func parseDiskutilPlistDevices(plist string) []string {
	var devs []string
	section := strings.SplitN(plist, "WholeDisks", 2)
	if len(section) != 2 {
		return devs
	}
	for _, line := range strings.Split(section[1], "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "<string>") && strings.HasSuffix(line, "</string>") {
			devs = append(devs, devicePath(strings.TrimSuffix(strings.TrimPrefix(line, "<string>"), "</string>")))
			continue
		}
		if strings.HasPrefix(line, "</array>") {
			break
		}
	}
	return devs
}

func describeDarwinDisk(dev string) (DriveDescriptor, error) {
	out, err := exec.Command("diskutil", "info", dev).Output()
	if err != nil {
		return DriveDescriptor{}, err
	}

	d := DriveDescriptor{DeviceID: devicePath(dev)}
	for _, line := range strings.Split(string(out), "\n") {
		parts := strings.SplitN(line, ":", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		val := strings.TrimSpace(parts[1])
		switch key {
		case "Device / Media Name":
			d.Model = val
		case "Disk Size", "Total Size":
			d.SizeBytes = parseDiskutilSize(val)
		case "File System Personality":
			d.Filesystem = val
		case "Removable Media":
			d.Removable = strings.EqualFold(val, "Removable")
		case "Mount Point":
			if val != "" && val != "Not applicable (no file system)" {
				d.MountPoints = append(d.MountPoints, val)
			}
		}
	}
	DetectSystemDrive(&d)
	return d, nil
}

// parseDiskutilSize извлекает точный размер из строки вида
// "500.3 GB (500277790720 Bytes) (exactly 977105060 512-Byte-Units)".
func parseDiskutilSize(val string) uint64 {
	open := strings.Index(val, "(")
	if open < 0 {
		return 0
	}
	fields := strings.Fields(val[open+1:])
	if len(fields) < 1 {
		return 0
	}
	n, err := strconv.ParseUint(fields[0], 10, 64)
	if err != nil {
		return 0
	}
	return n
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
