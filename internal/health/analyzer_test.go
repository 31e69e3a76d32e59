package health

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"securewipe/internal/logging"
	"securewipe/internal/system"
)

func TestEvaluatePassed(t *testing.T) {
	raw := `{
		"smart_status": {"passed": true},
		"temperature": {"current": 34},
		"power_on_time": {"hours": 12043},
		"ata_smart_attributes": {"table": [
			{"id": 5, "name": "Reallocated_Sector_Ct", "value": 100, "thresh": 10, "raw": {"value": 0}},
			{"id": 194, "name": "Temperature_Celsius", "value": 34, "thresh": 0, "raw": {"value": 34}}
		]}
	}`
	var report smartctlReport
	require.NoError(t, json.Unmarshal([]byte(raw), &report))

	hs := evaluate("/dev/sda", &report)
	assert.Equal(t, StatusHealthy, hs.Status)
	require.NotNil(t, hs.TemperatureC)
	assert.Equal(t, 34, *hs.TemperatureC)
	require.NotNil(t, hs.PowerOnHours)
	assert.Equal(t, 12043, *hs.PowerOnHours)
	assert.Empty(t, hs.Errors)
}

func TestEvaluateOverallFailed(t *testing.T) {
	var report smartctlReport
	require.NoError(t, json.Unmarshal([]byte(`{"smart_status": {"passed": false}}`), &report))

	hs := evaluate("/dev/sdb", &report)
	assert.Equal(t, StatusFailing, hs.Status)
	assert.Contains(t, hs.Reason, "FAILED")
}

func TestEvaluateCriticalAttributes(t *testing.T) {
	// общий вердикт пройден, но критичные атрибуты ненулевые
	raw := `{
		"smart_status": {"passed": true},
		"ata_smart_attributes": {"table": [
			{"id": 5, "name": "Reallocated_Sector_Ct", "raw": {"value": 12}},
			{"id": 197, "name": "Current_Pending_Sector", "raw": {"value": 3}}
		]}
	}`
	var report smartctlReport
	require.NoError(t, json.Unmarshal([]byte(raw), &report))

	hs := evaluate("/dev/sdc", &report)
	assert.Equal(t, StatusFailing, hs.Status)
	assert.Len(t, hs.Errors, 2)
}

func TestEvaluateNoVerdict(t *testing.T) {
	var report smartctlReport
	require.NoError(t, json.Unmarshal([]byte(`{"temperature": {"current": 40}}`), &report))

	hs := evaluate("/dev/sdd", &report)
	assert.Equal(t, StatusUnknown, hs.Status)
	assert.NotEmpty(t, hs.Reason)
}

func TestAnalyzeWithoutSmartctl(t *testing.T) {
	// заведомо несуществующий путь и пустой PATH-поиск не дают smartctl
	a := NewAnalyzer("/nonexistent/smartctl", time.Second, 2, logging.Nop())
	t.Setenv("PATH", t.TempDir())

	hs := a.Analyze(context.Background(), system.DriveDescriptor{DeviceID: "/dev/null"})
	assert.Equal(t, StatusUnknown, hs.Status)
	assert.NotEmpty(t, hs.Reason)
	// /dev/null достижим, ошибок достижимости нет
	assert.Empty(t, hs.Errors)
}

func TestAnalyzeUnreachableDevice(t *testing.T) {
	a := NewAnalyzer("/nonexistent/smartctl", time.Second, 2, logging.Nop())
	t.Setenv("PATH", t.TempDir())

	hs := a.Analyze(context.Background(), system.DriveDescriptor{DeviceID: "/dev/definitely_missing"})
	assert.Equal(t, StatusUnknown, hs.Status)
	assert.NotEmpty(t, hs.Errors)
}

func TestAnalyzeAllIsolatesFailures(t *testing.T) {
	// сбой опроса одного устройства не портит результаты остальных
	a := NewAnalyzer("/nonexistent/smartctl", time.Second, 2, logging.Nop())
	t.Setenv("PATH", t.TempDir())

	drives := []system.DriveDescriptor{
		{DeviceID: "/dev/null"},
		{DeviceID: "/dev/definitely_missing"},
		{DeviceID: "/dev/zero"},
	}
	statuses := a.AnalyzeAll(context.Background(), drives)
	require.Len(t, statuses, 3)

	// порядок результатов соответствует порядку входа
	assert.Equal(t, "/dev/null", statuses[0].DeviceID)
	assert.Equal(t, "/dev/definitely_missing", statuses[1].DeviceID)
	assert.Equal(t, "/dev/zero", statuses[2].DeviceID)

	assert.Empty(t, statuses[0].Errors)
	assert.NotEmpty(t, statuses[1].Errors)
	assert.Empty(t, statuses[2].Errors)
}

func TestAnalyzerDefaults(t *testing.T) {
	a := NewAnalyzer("", 0, 0, logging.Nop())
	assert.Equal(t, 30*time.Second, a.Timeout)
	assert.Equal(t, 4, a.MaxParallel)
}

func TestFailing(t *testing.T) {
	statuses := []HealthStatus{
		{DeviceID: "/dev/sdb", Status: StatusFailing},
		{DeviceID: "/dev/sda", Status: StatusHealthy},
		{DeviceID: "/dev/sdc", Status: StatusFailing},
		{DeviceID: "/dev/sdd", Status: StatusUnknown},
	}
	assert.Equal(t, []string{"/dev/sdb", "/dev/sdc"}, Failing(statuses))
	assert.Empty(t, Failing(nil))
}
