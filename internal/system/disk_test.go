package system

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDevicePath(t *testing.T) {
	assert.Equal(t, "/dev/sda", devicePath("sda"))
	assert.Equal(t, "/dev/sda", devicePath("/dev/sda"))
	assert.Equal(t, "/dev/nvme0n1", devicePath("nvme0n1"))
}

func TestDriveDescriptorSelected(t *testing.T) {
	assert.False(t, DriveDescriptor{}.Selected())
	assert.True(t, DriveDescriptor{DeviceID: "/dev/sdb"}.Selected())
}

func TestDriveDescriptorMounted(t *testing.T) {
	assert.False(t, DriveDescriptor{}.Mounted())
	assert.True(t, DriveDescriptor{MountPoints: []string{"/data"}}.Mounted())
}

func TestIsSystemMountRoot(t *testing.T) {
	assert.True(t, isSystemMount("/"))
}

func TestIsSystemMountMarkers(t *testing.T) {
	mount := t.TempDir()
	assert.False(t, isSystemMount(mount))

	// наличие etc/fstab на томе помечает его системным
	require.NoError(t, os.MkdirAll(filepath.Join(mount, "etc"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(mount, "etc", "fstab"), nil, 0644))
	assert.True(t, isSystemMount(mount))
}

func TestDetectSystemDrive(t *testing.T) {
	plain := t.TempDir()
	d := DriveDescriptor{DeviceID: "/dev/sdb", MountPoints: []string{plain}}
	DetectSystemDrive(&d)
	assert.False(t, d.IsSystem)

	d.MountPoints = append(d.MountPoints, "/")
	DetectSystemDrive(&d)
	assert.True(t, d.IsSystem)
}

func TestValidatePath(t *testing.T) {
	dir := t.TempDir()
	got, err := ValidatePath(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, got)

	_, err = ValidatePath("")
	assert.Error(t, err)

	_, err = ValidatePath(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}

func TestCheckWriteAccess(t *testing.T) {
	assert.True(t, CheckWriteAccess(t.TempDir()))
	assert.False(t, CheckWriteAccess("/nonexistent/dir"))
}
