package wipe

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"securewipe/internal/logging"
	"securewipe/internal/privilege"
	"securewipe/internal/system"
)

// Outcome — терминальный исход задания
type Outcome string

const (
	OutcomeCompleted Outcome = "COMPLETED"
	OutcomeCancelled Outcome = "CANCELLED"
	OutcomeFailed    Outcome = "FAILED"
)

// Progress — снимок хода выполнения. Потребитель обрабатывает каждую
// эмиссию как самый свежий снимок, накопления нет.
type Progress struct {
	Pass        int
	TotalPasses int
	Percent     float64
	Message     string
}

// Report — терминальный результат задания
type Report struct {
	JobID           string    `json:"job_id"`
	Device          string    `json:"device"`
	Method          string    `json:"method"`
	Outcome         Outcome   `json:"outcome"`
	PassesCompleted int       `json:"passes_completed"`
	TotalPasses     int       `json:"total_passes"`
	Verified        bool      `json:"verified"`
	VerifyNote      string    `json:"verify_note,omitempty"`
	FailReason      string    `json:"fail_reason,omitempty"`
	BytesWritten    uint64    `json:"bytes_written"`
	StartTime       time.Time `json:"start_time"`
	EndTime         time.Time `json:"end_time"`
	FreeSpaceMode   bool      `json:"free_space_mode"`
	DryRun          bool      `json:"dry_run"`
}

// Job — одно задание затирания. Владеет эксклюзивным доступом к целевому
// устройству на время жизни и уничтожается после выдачи Report.
type Job struct {
	ID      string
	Request Request

	progress  chan Progress
	done      chan struct{}
	report    *Report
	cancel    context.CancelFunc
	cancelled atomic.Bool
}

// Progress возвращает канал снимков хода выполнения.
// Канал закрывается вместе с завершением задания.
func (j *Job) Progress() <-chan Progress {
	return j.progress
}

// Done закрывается при завершении задания
func (j *Job) Done() <-chan struct{} {
	return j.done
}

// Cancel запрашивает кооперативную отмену. Уже записанные блоки
// не откатываются; устройство остаётся частично затёртым.
func (j *Job) Cancel() {
	j.cancelled.Store(true)
	j.cancel()
}

// Wait блокируется до завершения и возвращает терминальный отчёт
func (j *Job) Wait() *Report {
	<-j.done
	return j.report
}

func (j *Job) isCancelled() bool {
	return j.cancelled.Load()
}

// emit доставляет снимок без блокировки: если потребитель отстаёт,
// устаревший снимок вытесняется свежим.
func (j *Job) emit(p Progress) {
	select {
	case j.progress <- p:
	default:
		select {
		case <-j.progress:
		default:
		}
		select {
		case j.progress <- p:
		default:
		}
	}
}

// Orchestrator — точка входа подсистемы: проводит задание от SafetyGuard
// до Report, по одному живому заданию на устройство.
type Orchestrator struct {
	Writer    *DeviceWriter
	FreeSpace *FreeSpaceWiper
	Verifier  *Verifier
	Escalator *privilege.Escalator
	Logger    *logging.AuditLogger

	// SelfPath — путь к собственному исполняемому файлу: привилегированный
	// помощник записи запускается как его подкоманда.
	SelfPath string

	mu     sync.Mutex
	active map[string]struct{}
}

func NewOrchestrator(writer *DeviceWriter, freeSpace *FreeSpaceWiper, verifier *Verifier, escalator *privilege.Escalator, selfPath string, logger *logging.AuditLogger) *Orchestrator {
	return &Orchestrator{
		Writer:    writer,
		FreeSpace: freeSpace,
		Verifier:  verifier,
		Escalator: escalator,
		SelfPath:  selfPath,
		Logger:    logger,
		active:    make(map[string]struct{}),
	}
}

// Submit валидирует запрос и запускает задание на отдельной горутине.
// Второй запрос на то же устройство отклоняется, пока первый жив:
// взаимное исключение по идентификатору устройства, не по OS-дескриптору.
func (o *Orchestrator) Submit(ctx context.Context, req Request) (*Job, error) {
	if err := Authorize(req); err != nil {
		return nil, err
	}

	method, err := Resolve(req.MethodID)
	if err != nil {
		return nil, err
	}

	if !req.FreeSpace && req.Target.Mounted() {
		return nil, fmt.Errorf("%w: %s смонтировано в %v", system.ErrDeviceBusy, req.Target.DeviceID, req.Target.MountPoints)
	}
	if req.FreeSpace && req.MountPoint == "" {
		return nil, fmt.Errorf("режим свободного места требует точку монтирования")
	}

	o.mu.Lock()
	if _, busy := o.active[req.Target.DeviceID]; busy {
		o.mu.Unlock()
		return nil, fmt.Errorf("задание для %s уже выполняется", req.Target.DeviceID)
	}
	o.active[req.Target.DeviceID] = struct{}{}
	o.mu.Unlock()

	jobCtx, cancel := context.WithCancel(ctx)
	job := &Job{
		ID:       uuid.NewString(),
		Request:  req,
		progress: make(chan Progress, 16),
		done:     make(chan struct{}),
		cancel:   cancel,
	}

	o.Logger.Log("INFO", "Задание принято",
		"job_id", job.ID,
		"device", req.Target.DeviceID,
		"method", method.ID,
		"passes", len(method.Passes),
		"verify", req.Verify,
		"free_space", req.FreeSpace,
		"dry_run", req.DryRun)

	go o.run(jobCtx, job, method)

	return job, nil
}

func (o *Orchestrator) release(deviceID string) {
	o.mu.Lock()
	delete(o.active, deviceID)
	o.mu.Unlock()
}

func (o *Orchestrator) run(ctx context.Context, job *Job, method Method) {
	req := job.Request
	report := &Report{
		JobID:         job.ID,
		Device:        req.Target.DeviceID,
		Method:        method.ID,
		TotalPasses:   len(method.Passes),
		StartTime:     time.Now(),
		FreeSpaceMode: req.FreeSpace,
		DryRun:        req.DryRun,
	}

	defer func() {
		report.EndTime = time.Now()
		job.report = report
		o.release(req.Target.DeviceID)
		close(job.progress)
		close(job.done)
		o.Logger.Log("INFO", "Задание завершено",
			"job_id", job.ID,
			"device", report.Device,
			"outcome", string(report.Outcome),
			"passes_completed", report.PassesCompleted,
			"verified", report.Verified,
			"bytes", report.BytesWritten)
	}()

	if req.DryRun {
		o.dryRun(job, method, report)
		return
	}

	target := Target{Path: req.Target.DeviceID, SizeBytes: req.Target.SizeBytes}

	// Единственная попытка эскалации на задание; секрет живёт до конца
	// задания и затирается при выходе.
	var cred *privilege.Credential
	defer func() {
		if cred != nil {
			cred.Zero()
		}
	}()

	for i, spec := range method.Passes {
		onProgress := o.passProgress(job, spec.Number, len(method.Passes))

		var written uint64
		var err error
		if req.FreeSpace {
			written, err = o.FreeSpace.WritePass(ctx, req.MountPoint, spec, onProgress, job.isCancelled)
			report.BytesWritten += written
		} else if cred != nil {
			// После эскалации все проходы идут через помощника.
			err = o.writeElevated(ctx, job, target, spec, 0, cred, onProgress)
			if err == nil {
				report.BytesWritten += target.SizeBytes
			}
		} else {
			var done uint64
			done, err = o.Writer.WritePass(ctx, target, spec, 0, 0, onProgress, job.isCancelled)
			report.BytesWritten += passBytes(done, o.Writer.blockSize(target), target.SizeBytes)

			// Без эскалатора отказ в доступе сразу терминален.
			if err != nil && o.Escalator != nil && system.IsPermissionDenied(err) {
				o.Logger.Log("WARN", "Прямая запись запрещена, запускаем эскалацию привилегий",
					"job_id", job.ID, "device", target.Path, "pass", spec.Number)

				cred, err = o.Escalator.Obtain(ctx)
				if err == nil {
					// Дописываем оставшиеся блоки; готовые не перезаписываются.
					err = o.writeElevated(ctx, job, target, spec, done, cred, onProgress)
					if err == nil {
						report.BytesWritten += target.SizeBytes - passBytes(done, o.Writer.blockSize(target), target.SizeBytes)
					}
				}
			}
		}

		if err != nil {
			if errors.Is(err, ErrInterrupted) || errors.Is(err, context.Canceled) {
				report.Outcome = OutcomeCancelled
				o.Logger.Log("INFO", "Задание отменено пользователем", "job_id", job.ID, "pass", spec.Number)
			} else {
				// Ошибки записи не повторяются автоматически: повтор на
				// сбоящем носителе продлевает экспозицию данных.
				report.Outcome = OutcomeFailed
				report.FailReason = err.Error()
				o.Logger.Log("ERROR", "Проход завершился ошибкой", "job_id", job.ID, "pass", spec.Number, "error", err.Error())
			}
			return
		}

		report.PassesCompleted = i + 1
	}

	report.Outcome = OutcomeCompleted

	if req.Verify {
		o.verify(ctx, job, report, target, method.Passes[len(method.Passes)-1])
	}
}

// passBytes переводит число записанных блоков в байты. Последний блок
// устройства может быть неполным, поэтому результат ограничен sizeBytes.
func passBytes(blocks uint64, blockSize int, sizeBytes uint64) uint64 {
	n := blocks * uint64(blockSize)
	if n > sizeBytes {
		return sizeBytes
	}
	return n
}

func (o *Orchestrator) dryRun(job *Job, method Method, report *Report) {
	for _, spec := range method.Passes {
		job.emit(Progress{
			Pass:        spec.Number,
			TotalPasses: len(method.Passes),
			Percent:     100,
			Message:     fmt.Sprintf("dry-run: проход %d (%s) пропущен", spec.Number, spec.Kind),
		})
	}
	report.PassesCompleted = len(method.Passes)
	report.Outcome = OutcomeCompleted
}

func (o *Orchestrator) passProgress(job *Job, passNumber, totalPasses int) ProgressFunc {
	return func(blocksWritten, totalBlocks uint64, message string) {
		percent := float64(0)
		if totalBlocks > 0 {
			percent = float64(blocksWritten) / float64(totalBlocks) * 100
		}
		job.emit(Progress{
			Pass:        passNumber,
			TotalPasses: totalPasses,
			Percent:     percent,
			Message:     message,
		})
	}
}

// verify сверяет выборку блоков с паттерном последнего прохода.
// Несовпадение не переводит задание в Failed: затирание состоялось,
// снижено лишь доверие к нему — Completed с verified=false.
func (o *Orchestrator) verify(ctx context.Context, job *Job, report *Report, target Target, lastPass PassSpec) {
	job.emit(Progress{
		Pass:        report.TotalPasses,
		TotalPasses: report.TotalPasses,
		Percent:     100,
		Message:     "проверка результата",
	})

	var res *VerifyResult
	var err error
	if job.Request.FreeSpace {
		res, err = o.Verifier.VerifyScratchRemoved(o.FreeSpace.ScratchDir(job.Request.MountPoint))
	} else {
		res, err = o.Verifier.VerifyDevice(ctx, target, lastPass)
	}

	if err != nil {
		report.Verified = false
		report.VerifyNote = fmt.Sprintf("проверка не выполнена: %v", err)
		o.Logger.Log("WARN", "Проверка результата не выполнена", "job_id", job.ID, "error", err.Error())
		return
	}

	report.Verified = res.Verified
	report.VerifyNote = res.Note
	if !res.Verified {
		o.Logger.Log("WARN", "Проверка выявила несовпадения",
			"job_id", job.ID, "mismatches", len(res.Mismatches), "sampled", res.SampledBlocks)
	}
}

// writeElevated дописывает проход через привилегированного помощника.
// Устройство делится на ограниченное число сегментов (а не процесс на
// блок): прогресс остаётся плавным, а запусков sudo — единицы.
func (o *Orchestrator) writeElevated(ctx context.Context, job *Job, target Target, spec PassSpec, startBlock uint64, cred *privilege.Credential, onProgress ProgressFunc) error {
	totalBlocks := o.Writer.TotalBlocks(target)
	segments := uint64(o.Writer.Segments)
	if segments == 0 {
		segments = 10
	}

	for s := uint64(0); s < segments; s++ {
		segStart := totalBlocks * s / segments
		segEnd := totalBlocks * (s + 1) / segments
		if segStart < startBlock {
			segStart = startBlock
		}
		if segEnd <= segStart {
			continue
		}

		select {
		case <-ctx.Done():
			return ErrInterrupted
		default:
		}
		if job.isCancelled() {
			return ErrInterrupted
		}

		argv := []string{
			o.SelfPath, "write-pass",
			"--device", target.Path,
			"--size", strconv.FormatUint(target.SizeBytes, 10),
			"--block-size", strconv.Itoa(o.Writer.blockSize(target)),
			"--kind", spec.Kind.String(),
			"--start", strconv.FormatUint(segStart, 10),
			"--end", strconv.FormatUint(segEnd, 10),
			"--pass", strconv.Itoa(spec.Number),
		}
		if spec.Kind == PatternFixed {
			argv = append(argv, "--seq", hex.EncodeToString(spec.Seq))
		}

		if err := o.Escalator.RunElevated(ctx, cred, argv); err != nil {
			return fmt.Errorf("привилегированный сегмент %d/%d: %w", s+1, segments, err)
		}

		if onProgress != nil {
			onProgress(segEnd, totalBlocks, fmt.Sprintf("проход %d: привилегированная запись, сегмент %d/%d", spec.Number, s+1, segments))
		}
	}

	return nil
}
