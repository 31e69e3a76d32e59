package health

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"securewipe/internal/logging"
	"securewipe/internal/system"
)

// Analyzer опрашивает состояние накопителей с ограниченным параллелизмом.
// Сбой опроса одного устройства не прерывает остальные: ошибка оседает
// в HealthStatus этого устройства.
type Analyzer struct {
	SmartctlPath string
	Timeout      time.Duration
	MaxParallel  int
	Logger       *logging.AuditLogger
}

func NewAnalyzer(smartctlPath string, timeout time.Duration, maxParallel int, logger *logging.AuditLogger) *Analyzer {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if maxParallel <= 0 {
		maxParallel = 4
	}
	return &Analyzer{
		SmartctlPath: smartctlPath,
		Timeout:      timeout,
		MaxParallel:  maxParallel,
		Logger:       logger,
	}
}

// Analyze опрашивает один накопитель
func (a *Analyzer) Analyze(ctx context.Context, drive system.DriveDescriptor) HealthStatus {
	probeCtx, cancel := context.WithTimeout(ctx, a.Timeout)
	defer cancel()

	path, ok := smartctlAvailable(a.SmartctlPath)
	if !ok {
		return a.reachabilityOnly(drive)
	}

	report, err := probeSmartctl(probeCtx, path, drive.DeviceID)
	if err != nil {
		a.Logger.Log("WARN", "Опрос SMART не удался", "device", drive.DeviceID, "error", err.Error())
		return HealthStatus{
			DeviceID: drive.DeviceID,
			Status:   StatusUnknown,
			Errors:   []string{err.Error()},
			Reason:   "smartctl не вернул разборчивый отчёт",
		}
	}

	hs := evaluate(drive.DeviceID, report)
	a.Logger.Log("DEBUG", "Опрос SMART завершён", "device", drive.DeviceID, "status", string(hs.Status))
	return hs
}

// AnalyzeAll опрашивает все накопители, не более MaxParallel одновременно.
// Порядок результатов соответствует порядку устройств на входе.
func (a *Analyzer) AnalyzeAll(ctx context.Context, drives []system.DriveDescriptor) []HealthStatus {
	results := make([]HealthStatus, len(drives))
	sem := make(chan struct{}, a.MaxParallel)
	var wg sync.WaitGroup

	for i, drive := range drives {
		wg.Add(1)
		go func(i int, drive system.DriveDescriptor) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			select {
			case <-ctx.Done():
				results[i] = HealthStatus{
					DeviceID: drive.DeviceID,
					Status:   StatusUnknown,
					Reason:   "опрос прерван",
				}
				return
			default:
			}

			results[i] = a.Analyze(ctx, drive)
		}(i, drive)
	}

	wg.Wait()
	return results
}

// reachabilityOnly — запасной путь без smartctl: проверяется лишь
// достижимость устройства. Достижимость не доказывает исправность,
// поэтому статус остаётся Unknown.
func (a *Analyzer) reachabilityOnly(drive system.DriveDescriptor) HealthStatus {
	hs := HealthStatus{
		DeviceID: drive.DeviceID,
		Status:   StatusUnknown,
		Reason:   "smartctl недоступен, выполнена только проверка достижимости",
	}
	if _, err := os.Stat(drive.DeviceID); err != nil {
		hs.Errors = append(hs.Errors, fmt.Sprintf("устройство недостижимо: %v", err))
	}
	return hs
}

// Failing возвращает идентификаторы устройств со статусом Failing
func Failing(statuses []HealthStatus) []string {
	var bad []string
	for _, s := range statuses {
		if s.Status == StatusFailing {
			bad = append(bad, s.DeviceID)
		}
	}
	sort.Strings(bad)
	return bad
}
