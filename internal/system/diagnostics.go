package system

import (
	"context"
	"os"
	"os/exec"
	"runtime"
	"time"
)

// DiagnosticTest определяет тип проверки
type DiagnosticTest string

const (
	TestPrivileges  DiagnosticTest = "privileges"
	TestDrives      DiagnosticTest = "drives"
	TestSmartctl    DiagnosticTest = "smartctl"
	TestScratchPath DiagnosticTest = "scratch_path"
)

// DiagnosticResult содержит результат одной проверки
type DiagnosticResult struct {
	Test      DiagnosticTest `json:"test"`
	Status    string         `json:"status"` // PASS, FAIL, WARN
	Message   string         `json:"message"`
	Duration  time.Duration  `json:"duration"`
	Timestamp time.Time      `json:"timestamp"`
}

// Diagnostics содержит итог предполётной проверки
type Diagnostics struct {
	StartTime time.Time          `json:"start_time"`
	EndTime   time.Time          `json:"end_time"`
	Overall   string             `json:"overall"` // HEALTHY, WARNING, CRITICAL
	Results   []DiagnosticResult `json:"results"`
	Summary   DiagnosticSummary  `json:"summary"`
	OS        string             `json:"os"`
	Arch      string             `json:"arch"`
}

// DiagnosticSummary содержит сводку результатов
type DiagnosticSummary struct {
	TotalTests int `json:"total_tests"`
	Passed     int `json:"passed"`
	Failed     int `json:"failed"`
	Warnings   int `json:"warnings"`
}

// RunDiagnostics выполняет предполётную проверку окружения затирания:
// привилегии, перечисление дисков, наличие smartctl, запись во временный
// каталог. Остановка на первом сбое не делается, собираются все результаты.
func RunDiagnostics(ctx context.Context, smartctlPath, scratchDir string) *Diagnostics {
	d := &Diagnostics{
		StartTime: time.Now(),
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}

	tests := []func() DiagnosticResult{
		checkPrivileges,
		checkDriveEnumeration,
		func() DiagnosticResult { return checkSmartctl(smartctlPath) },
		func() DiagnosticResult { return checkScratchPath(scratchDir) },
	}

	for _, test := range tests {
		select {
		case <-ctx.Done():
			d.EndTime = time.Now()
			d.Overall = "WARNING"
			return d
		default:
		}
		d.Results = append(d.Results, test())
	}

	d.EndTime = time.Now()
	for _, r := range d.Results {
		d.Summary.TotalTests++
		switch r.Status {
		case "PASS":
			d.Summary.Passed++
		case "WARN":
			d.Summary.Warnings++
		default:
			d.Summary.Failed++
		}
	}
	switch {
	case d.Summary.Failed > 0:
		d.Overall = "CRITICAL"
	case d.Summary.Warnings > 0:
		d.Overall = "WARNING"
	default:
		d.Overall = "HEALTHY"
	}
	return d
}

func newResult(test DiagnosticTest, status, message string, started time.Time) DiagnosticResult {
	return DiagnosticResult{
		Test:      test,
		Status:    status,
		Message:   message,
		Duration:  time.Since(started),
		Timestamp: time.Now(),
	}
}

func checkPrivileges() DiagnosticResult {
	started := time.Now()
	if os.Geteuid() == 0 {
		return newResult(TestPrivileges, "PASS", "процесс запущен с правами root", started)
	}
	// Без root запись на сырые устройства потребует эскалации через sudo.
	if _, err := exec.LookPath("sudo"); err != nil {
		return newResult(TestPrivileges, "FAIL", "нет прав root и не найден sudo: прямая запись на устройства невозможна", started)
	}
	return newResult(TestPrivileges, "WARN", "нет прав root: при необходимости будет выполнена эскалация через sudo", started)
}

func checkDriveEnumeration() DiagnosticResult {
	started := time.Now()
	drives, err := ListDrives()
	if err != nil {
		return newResult(TestDrives, "FAIL", "перечисление дисков не работает: "+err.Error(), started)
	}
	if len(drives) == 0 {
		return newResult(TestDrives, "WARN", "не найдено ни одного физического диска", started)
	}
	return newResult(TestDrives, "PASS", "перечисление дисков работает", started)
}

func checkSmartctl(path string) DiagnosticResult {
	started := time.Now()
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			return newResult(TestSmartctl, "PASS", "smartctl найден: "+path, started)
		}
	}
	resolved, err := exec.LookPath("smartctl")
	if err != nil {
		return newResult(TestSmartctl, "WARN", "smartctl не найден: анализ состояния дисков будет ограничен", started)
	}
	return newResult(TestSmartctl, "PASS", "smartctl найден: "+resolved, started)
}

func checkScratchPath(dir string) DiagnosticResult {
	started := time.Now()
	if dir == "" {
		dir = os.TempDir()
	}
	if !CheckWriteAccess(dir) {
		return newResult(TestScratchPath, "FAIL", "временный каталог недоступен для записи: "+dir, started)
	}
	return newResult(TestScratchPath, "PASS", "временный каталог доступен для записи", started)
}
