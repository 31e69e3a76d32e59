package health

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
)

// smartctlReport — подмножество JSON-вывода smartctl, достаточное для оценки
type smartctlReport struct {
	SmartStatus *struct {
		Passed bool `json:"passed"`
	} `json:"smart_status"`
	Temperature *struct {
		Current int `json:"current"`
	} `json:"temperature"`
	PowerOnTime *struct {
		Hours int `json:"hours"`
	} `json:"power_on_time"`
	AtaSmartAttributes *struct {
		Table []ataAttribute `json:"table"`
	} `json:"ata_smart_attributes"`
	Smartctl struct {
		ExitStatus int `json:"exit_status"`
		Messages   []struct {
			String   string `json:"string"`
			Severity string `json:"severity"`
		} `json:"messages"`
	} `json:"smartctl"`
}

type ataAttribute struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	Value      int    `json:"value"`
	Thresh     int    `json:"thresh"`
	WhenFailed string `json:"when_failed"`
	Raw        struct {
		Value int64 `json:"value"`
	} `json:"raw"`
}

// Критичные ATA-атрибуты: ненулевое raw-значение — признак деградации
// носителя независимо от общего вердикта smart_status.
var criticalAttributes = map[int]string{
	5:   "Reallocated_Sector_Ct",
	187: "Reported_Uncorrect",
	197: "Current_Pending_Sector",
	198: "Offline_Uncorrectable",
}

// probeSmartctl запускает smartctl и разбирает его JSON-вывод.
// smartctl возвращает ненулевой код и при живом устройстве с плохим
// SMART, поэтому вывод разбирается даже после ошибки запуска.
func probeSmartctl(ctx context.Context, smartctlPath, device string) (*smartctlReport, error) {
	cmd := exec.CommandContext(ctx, smartctlPath, "-H", "-A", "--json", device)
	out, runErr := cmd.Output()

	if len(out) == 0 {
		if runErr != nil {
			return nil, fmt.Errorf("smartctl для %s не вернул данных: %w", device, runErr)
		}
		return nil, fmt.Errorf("smartctl для %s не вернул данных", device)
	}

	var report smartctlReport
	if err := json.Unmarshal(out, &report); err != nil {
		return nil, fmt.Errorf("ошибка разбора вывода smartctl для %s: %w", device, err)
	}

	return &report, nil
}

// evaluate превращает разобранный отчёт в HealthStatus
func evaluate(device string, report *smartctlReport) HealthStatus {
	hs := HealthStatus{DeviceID: device, Status: StatusUnknown}

	if report.Temperature != nil {
		t := report.Temperature.Current
		hs.TemperatureC = &t
	}
	if report.PowerOnTime != nil {
		h := report.PowerOnTime.Hours
		hs.PowerOnHours = &h
	}

	if report.AtaSmartAttributes != nil {
		for _, attr := range report.AtaSmartAttributes.Table {
			name, critical := criticalAttributes[attr.ID]
			if critical && attr.Raw.Value > 0 {
				hs.Errors = append(hs.Errors, fmt.Sprintf("%s (id %d): raw=%d", name, attr.ID, attr.Raw.Value))
			}
			if attr.WhenFailed != "" {
				hs.Errors = append(hs.Errors, fmt.Sprintf("атрибут %s (id %d) помечен failed: %s", attr.Name, attr.ID, attr.WhenFailed))
			}
		}
	}

	switch {
	case report.SmartStatus == nil:
		hs.Reason = "устройство не сообщает общий вердикт SMART"
	case !report.SmartStatus.Passed:
		hs.Status = StatusFailing
		hs.Reason = "общий вердикт SMART: FAILED"
	case len(hs.Errors) > 0:
		hs.Status = StatusFailing
		hs.Reason = "критичные SMART-атрибуты с ненулевым raw-значением"
	default:
		hs.Status = StatusHealthy
	}

	return hs
}

// smartctlAvailable проверяет доступность бинаря smartctl
func smartctlAvailable(path string) (string, bool) {
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			return path, true
		}
	}
	resolved, err := exec.LookPath("smartctl")
	if err != nil {
		return "", false
	}
	return resolved, true
}
