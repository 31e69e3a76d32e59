package reporting

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"securewipe/internal/health"
	"securewipe/internal/wipe"
)

// RunReport — JSON отчёт об одном запуске
type RunReport struct {
	RunID      string                `json:"run_id"`
	Version    string                `json:"version"`
	Hostname   string                `json:"hostname"`
	Timestamp  time.Time             `json:"timestamp"`
	Duration   string                `json:"duration"`
	Jobs       []wipe.Report         `json:"jobs"`
	Health     []health.HealthStatus `json:"health,omitempty"`
	Summary    Summary               `json:"summary"`
	ExitCode   int                   `json:"exit_code"`
	DryRun     bool                  `json:"dry_run"`
	ProfileTag string                `json:"profile,omitempty"`
}

// Summary — сводная информация по заданиям запуска
type Summary struct {
	TotalDevices int    `json:"total_devices"`
	Completed    int    `json:"completed"`
	Cancelled    int    `json:"cancelled"`
	Failed       int    `json:"failed"`
	Unverified   int    `json:"unverified"`
	TotalBytes   uint64 `json:"total_bytes"`
}

// BuildRunReport собирает отчёт запуска из терминальных отчётов заданий
func BuildRunReport(version, profile string, jobs []wipe.Report, statuses []health.HealthStatus, start, end time.Time, exitCode int) *RunReport {
	hostname, _ := os.Hostname()

	report := &RunReport{
		RunID:      fmt.Sprintf("run_%d", start.UnixNano()),
		Version:    version,
		Hostname:   hostname,
		Timestamp:  start,
		Duration:   end.Sub(start).String(),
		Jobs:       jobs,
		Health:     statuses,
		ExitCode:   exitCode,
		ProfileTag: profile,
	}

	for _, j := range jobs {
		report.Summary.TotalDevices++
		report.Summary.TotalBytes += j.BytesWritten
		switch j.Outcome {
		case wipe.OutcomeCompleted:
			report.Summary.Completed++
			if !j.Verified && j.VerifyNote != "" {
				report.Summary.Unverified++
			}
		case wipe.OutcomeCancelled:
			report.Summary.Cancelled++
		case wipe.OutcomeFailed:
			report.Summary.Failed++
		}
		if j.DryRun {
			report.DryRun = true
		}
	}

	return report
}

// SaveRunReport сохраняет отчёт в JSON файл в каталоге отчётов
func SaveRunReport(report *RunReport, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("ошибка создания директории для отчётов: %w", err)
	}

	filename := fmt.Sprintf("securewipe_report_%s.json", report.Timestamp.Format("20060102_150405"))
	path := filepath.Join(dir, filename)

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("ошибка сериализации отчёта: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("ошибка записи отчёта: %w", err)
	}

	return path, nil
}
