package main

import (
	"bufio"
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"securewipe/internal/config"
	"securewipe/internal/health"
	"securewipe/internal/logging"
	"securewipe/internal/privilege"
	"securewipe/internal/reporting"
	"securewipe/internal/system"
	"securewipe/internal/wipe"
)

const (
	Version = "1.0.0"
	AppName = "SecureWipe"

	// Exit codes
	EXIT_SUCCESS = 0
	EXIT_ERROR   = 1
	EXIT_WARNING = 2
)

var (
	cfg        *config.Config
	logger     *logging.AuditLogger
	verbose    bool
	configPath string
	profile    string
	dryRun     bool

	// флаги wipe
	methodID       string
	confirmPhrase  string
	ackSystemDrive bool
	freeSpaceMode  bool
	noVerify       bool
	maxSpeedMBps   float64

	// флаги write-pass
	wpDevice    string
	wpSize      uint64
	wpBlockSize int
	wpKind      string
	wpSeqHex    string
	wpStart     uint64
	wpEnd       uint64
	wpPass      int

	// флаги history
	historyDevice string
	historyLimit  int
)

var rootCmd = &cobra.Command{
	Use:     "securewipe",
	Short:   "SecureWipe - движок безопасного затирания накопителей",
	Long:    "Утилита безопасного уничтожения данных: многопроходное затирание устройств, затирание свободного места и анализ состояния накопителей",
	Version: Version,
}

var wipeCmd = &cobra.Command{
	Use:   "wipe <устройство|точка монтирования>",
	Short: "Затереть устройство или свободное место файловой системы",
	Args:  cobra.ExactArgs(1),
	RunE:  runWipe,
}

var drivesCmd = &cobra.Command{
	Use:   "drives",
	Short: "Показать обнаруженные физические накопители",
	RunE:  runDrives,
}

var healthCmd = &cobra.Command{
	Use:   "health [устройства...]",
	Short: "Проанализировать состояние накопителей по SMART",
	RunE:  runHealth,
}

var verifyCmd = &cobra.Command{
	Use:   "verify <устройство>",
	Short: "Выборочно проверить качество затирания",
	Args:  cobra.ExactArgs(1),
	RunE:  runVerify,
}

var methodsCmd = &cobra.Command{
	Use:   "methods",
	Short: "Показать каталог методов затирания",
	RunE:  runMethods,
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Показать журнал аудита выполненных заданий",
	RunE:  runHistory,
}

var diagnoseCmd = &cobra.Command{
	Use:   "diagnose",
	Short: "Предполётная самодиагностика",
	RunE:  runDiagnose,
}

// writePassCmd — служебная подкоманда для привилегированной записи.
// Запускается оркестратором через sudo, в руках оператора ей делать нечего.
var writePassCmd = &cobra.Command{
	Use:    "write-pass",
	Hidden: true,
	RunE:   runWritePass,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Подробный вывод")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Путь к конфигурации")
	rootCmd.PersistentFlags().StringVar(&profile, "profile", "", "Профиль производительности (safe/balanced/aggressive)")

	wipeCmd.Flags().StringVarP(&methodID, "method", "m", "", "Метод затирания (quick/dod/gutmann/random)")
	wipeCmd.Flags().StringVar(&confirmPhrase, "confirm", "", "Фраза подтверждения (иначе будет запрошена)")
	wipeCmd.Flags().BoolVar(&ackSystemDrive, "acknowledge-system-drive", false, "Подтвердить затирание системного диска (ОПАСНО)")
	wipeCmd.Flags().BoolVar(&freeSpaceMode, "free-space", false, "Затирать свободное место ФС вместо устройства")
	wipeCmd.Flags().BoolVar(&noVerify, "no-verify", false, "Пропустить проверку результата")
	wipeCmd.Flags().Float64Var(&maxSpeedMBps, "max-speed", 0, "Ограничение скорости записи, MB/s (0 = без ограничения)")
	wipeCmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "Тестовый режим без записи")

	verifyCmd.Flags().StringVarP(&methodID, "method", "m", "", "Метод, которым выполнялось затирание")

	historyCmd.Flags().StringVar(&historyDevice, "device", "", "Только задания для устройства")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Максимум записей")

	writePassCmd.Flags().StringVar(&wpDevice, "device", "", "")
	writePassCmd.Flags().Uint64Var(&wpSize, "size", 0, "")
	writePassCmd.Flags().IntVar(&wpBlockSize, "block-size", 0, "")
	writePassCmd.Flags().StringVar(&wpKind, "kind", "", "")
	writePassCmd.Flags().StringVar(&wpSeqHex, "seq", "", "")
	writePassCmd.Flags().Uint64Var(&wpStart, "start", 0, "")
	writePassCmd.Flags().Uint64Var(&wpEnd, "end", 0, "")
	writePassCmd.Flags().IntVar(&wpPass, "pass", 1, "")

	rootCmd.AddCommand(wipeCmd, drivesCmd, healthCmd, verifyCmd, methodsCmd, historyCmd, diagnoseCmd, writePassCmd)
}

// setup загружает конфигурацию, применяет профиль и поднимает логгер
func setup() error {
	var err error
	cfg, err = config.Load(configPath)
	if err != nil {
		return fmt.Errorf("ошибка загрузки конфигурации: %w", err)
	}

	if profile != "" {
		if err := config.ApplyProfile(cfg, profile); err != nil {
			return fmt.Errorf("ошибка применения профиля %s: %w", profile, err)
		}
	}

	logger, err = logging.NewAuditLogger(cfg, verbose)
	if err != nil {
		return fmt.Errorf("ошибка инициализации логгера: %w", err)
	}
	return nil
}

func runWipe(cmd *cobra.Command, args []string) error {
	startTime := time.Now()
	if err := setup(); err != nil {
		return err
	}
	defer logger.Close()

	if cfg.Security.RequireRoot && !privilege.IsRoot() && !dryRun {
		return fmt.Errorf("конфигурация требует запуск с правами root")
	}

	req, err := buildRequest(args[0])
	if err != nil {
		return err
	}

	// Отказ SafetyGuard до создания задания, чтобы оператор видел причину
	// сразу, без разбора логов.
	if err := wipe.Authorize(req); err != nil {
		return err
	}

	selfPath, err := os.Executable()
	if err != nil {
		return fmt.Errorf("не удалось определить путь к исполняемому файлу: %w", err)
	}

	orch := newOrchestrator(selfPath)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	job, err := orch.Submit(ctx, req)
	if err != nil {
		return err
	}

	// Первый сигнал — кооперативная отмена, второй — немедленный выход
	sigChan := make(chan os.Signal, 2)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		logger.Log("WARN", "Получен сигнал, запрашиваем отмену задания", "signal", sig.String())
		fmt.Printf("\n[INFO] Получен сигнал %s, завершаем текущий блок...\n", sig.String())
		job.Cancel()
		<-sigChan
		os.Exit(EXIT_ERROR)
	}()

	for p := range job.Progress() {
		fmt.Printf("\rПроход %d/%d: %5.1f%%  %s", p.Pass, p.TotalPasses, p.Percent, p.Message)
	}
	fmt.Println()

	report := job.Wait()
	printJobReport(report)
	persistReport(report, startTime)

	switch report.Outcome {
	case wipe.OutcomeCompleted:
		if req.Verify && !report.Verified {
			os.Exit(EXIT_WARNING)
		}
		return nil
	case wipe.OutcomeCancelled:
		os.Exit(EXIT_WARNING)
	default:
		os.Exit(EXIT_ERROR)
	}
	return nil
}

// buildRequest собирает запрос на затирание из аргументов и конфигурации
func buildRequest(targetArg string) (wipe.Request, error) {
	req := wipe.Request{
		MethodID:               methodID,
		Verify:                 !noVerify && cfg.Wipe.Verify,
		AcknowledgeSystemDrive: ackSystemDrive,
		FreeSpace:              freeSpaceMode,
		DryRun:                 dryRun,
	}
	if req.MethodID == "" {
		req.MethodID = cfg.Wipe.DefaultMethod
	}

	if freeSpaceMode {
		mount, err := system.ValidatePath(targetArg)
		if err != nil {
			return req, fmt.Errorf("некорректная точка монтирования: %w", err)
		}
		req.MountPoint = mount
		req.Target = system.DriveDescriptor{DeviceID: mount, MountPoints: []string{mount}}
		system.DetectSystemDrive(&req.Target)
	} else {
		drive, err := system.FindDrive(targetArg)
		if err != nil {
			return req, err
		}
		req.Target = drive
	}

	for _, excluded := range cfg.Security.ExcludedDevices {
		if strings.EqualFold(excluded, req.Target.DeviceID) {
			return req, fmt.Errorf("устройство %s исключено конфигурацией", req.Target.DeviceID)
		}
	}

	req.ConfirmationPhrase = confirmPhrase
	if req.ConfirmationPhrase == "" && cfg.Security.RequireConfirmation {
		phrase, err := promptConfirmation(req)
		if err != nil {
			return req, err
		}
		req.ConfirmationPhrase = phrase
	}

	return req, nil
}

func promptConfirmation(req wipe.Request) (string, error) {
	target := req.Target.DeviceID
	size := "?"
	if req.Target.SizeBytes > 0 {
		size = humanize.IBytes(req.Target.SizeBytes)
	}
	fmt.Printf("ВНИМАНИЕ: данные на %s (%s) будут уничтожены безвозвратно.\n", target, size)
	if req.Target.IsSystem {
		fmt.Println("ВНИМАНИЕ: цель похожа на системный диск!")
	}
	fmt.Printf("Введите %q для продолжения: ", wipe.ConfirmationPhrase)

	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("ошибка чтения подтверждения: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func newOrchestrator(selfPath string) *wipe.Orchestrator {
	speed := cfg.Wipe.MaxSpeedMBps
	if maxSpeedMBps > 0 {
		speed = maxSpeedMBps
	}

	writer := &wipe.DeviceWriter{
		BlockSize:     cfg.Wipe.BlockSize,
		MaxSpeedMBps:  speed,
		ProgressEvery: cfg.Wipe.ProgressEveryBlock,
		Segments:      cfg.Wipe.Segments,
		Logger:        logger,
	}
	freeSpace := &wipe.FreeSpaceWiper{
		ScratchDirName: cfg.Wipe.ScratchDirName,
		MaxSpeedMBps:   speed,
		ProgressEvery:  cfg.Wipe.ProgressEveryBlock,
		Logger:         logger,
	}
	verifier := &wipe.Verifier{
		Samples:   cfg.Verify.Samples,
		BlockSize: cfg.Verify.BlockSize,
		Logger:    logger,
	}
	escalator := privilege.NewEscalator(cfg.EscalationTimeout(), logger)

	return wipe.NewOrchestrator(writer, freeSpace, verifier, escalator, selfPath, logger)
}

func printJobReport(r *wipe.Report) {
	fmt.Printf("\nЗадание %s: %s\n", r.JobID, r.Outcome)
	fmt.Printf("  Устройство: %s\n", r.Device)
	fmt.Printf("  Метод:      %s (%d/%d проходов)\n", r.Method, r.PassesCompleted, r.TotalPasses)
	fmt.Printf("  Записано:   %s\n", humanize.IBytes(r.BytesWritten))
	fmt.Printf("  Время:      %s\n", r.EndTime.Sub(r.StartTime).Round(time.Second))
	if r.Outcome == wipe.OutcomeCompleted {
		if r.Verified {
			fmt.Println("  Проверка:   пройдена")
		} else if r.VerifyNote != "" {
			fmt.Printf("  Проверка:   НЕ пройдена (%s)\n", r.VerifyNote)
		}
	}
	if r.FailReason != "" {
		fmt.Printf("  Ошибка:     %s\n", r.FailReason)
	}
}

// persistReport сохраняет JSON-отчёт запуска и запись в журнале аудита.
// Сбой сохранения не меняет исход задания: затирание уже состоялось.
func persistReport(r *wipe.Report, startTime time.Time) {
	if !cfg.Reporting.Enabled {
		return
	}

	run := reporting.BuildRunReport(Version, profile, []wipe.Report{*r}, nil, startTime, time.Now(), 0)
	if path, err := reporting.SaveRunReport(run, cfg.Reporting.LocalPath); err != nil {
		logger.Log("WARN", "Не удалось сохранить JSON-отчёт", "error", err.Error())
	} else {
		logger.Log("INFO", "Отчёт сохранён", "path", path)
	}

	store, err := reporting.OpenStore(cfg.Reporting.DatabasePath)
	if err != nil {
		logger.Log("WARN", "Не удалось открыть журнал аудита", "error", err.Error())
		return
	}
	defer store.Close()
	if err := store.InsertJob(*r); err != nil {
		logger.Log("WARN", "Не удалось записать задание в журнал аудита", "error", err.Error())
	}
}

func runDrives(cmd *cobra.Command, args []string) error {
	if err := setup(); err != nil {
		return err
	}
	defer logger.Close()

	drives, err := system.ListDrives()
	if err != nil {
		return fmt.Errorf("ошибка перечисления дисков: %w", err)
	}
	if len(drives) == 0 {
		fmt.Println("Физические накопители не обнаружены")
		return nil
	}

	fmt.Printf("Обнаружено накопителей: %d\n\n", len(drives))
	for _, d := range drives {
		flags := ""
		if d.IsSystem {
			flags += " [СИСТЕМНЫЙ]"
		}
		if d.Removable {
			flags += " [съёмный]"
		}
		fmt.Printf("  %-16s %10s  %s%s\n", d.DeviceID, humanize.IBytes(d.SizeBytes), d.Model, flags)
		if len(d.MountPoints) > 0 {
			fmt.Printf("  %-16s смонтировано: %s\n", "", strings.Join(d.MountPoints, ", "))
		}
	}
	return nil
}

func runHealth(cmd *cobra.Command, args []string) error {
	if err := setup(); err != nil {
		return err
	}
	defer logger.Close()

	var drives []system.DriveDescriptor
	if len(args) > 0 {
		for _, arg := range args {
			d, err := system.FindDrive(arg)
			if err != nil {
				return err
			}
			drives = append(drives, d)
		}
	} else {
		var err error
		drives, err = system.ListDrives()
		if err != nil {
			return fmt.Errorf("ошибка перечисления дисков: %w", err)
		}
	}

	analyzer := health.NewAnalyzer(cfg.Health.SmartctlPath, cfg.HealthTimeout(), cfg.Health.MaxParallel, logger)
	statuses := analyzer.AnalyzeAll(context.Background(), drives)

	for _, hs := range statuses {
		fmt.Printf("  %-16s %s", hs.DeviceID, hs.Status)
		if hs.TemperatureC != nil {
			fmt.Printf("  %d°C", *hs.TemperatureC)
		}
		if hs.PowerOnHours != nil {
			fmt.Printf("  %d ч наработки", *hs.PowerOnHours)
		}
		fmt.Println()
		if hs.Reason != "" {
			fmt.Printf("    %s\n", hs.Reason)
		}
		for _, e := range hs.Errors {
			fmt.Printf("    ! %s\n", e)
		}
	}

	if bad := health.Failing(statuses); len(bad) > 0 {
		fmt.Printf("\nНакопители с признаками деградации: %s\n", strings.Join(bad, ", "))
		os.Exit(EXIT_WARNING)
	}
	return nil
}

func runVerify(cmd *cobra.Command, args []string) error {
	if err := setup(); err != nil {
		return err
	}
	defer logger.Close()

	drive, err := system.FindDrive(args[0])
	if err != nil {
		return err
	}

	id := methodID
	if id == "" {
		id = cfg.Wipe.DefaultMethod
	}
	method, err := wipe.Resolve(id)
	if err != nil {
		return err
	}
	lastPass := method.Passes[len(method.Passes)-1]

	verifier := &wipe.Verifier{
		Samples:   cfg.Verify.Samples,
		BlockSize: cfg.Verify.BlockSize,
		Logger:    logger,
	}
	res, err := verifier.VerifyDevice(context.Background(),
		wipe.Target{Path: drive.DeviceID, SizeBytes: drive.SizeBytes}, lastPass)
	if err != nil {
		return fmt.Errorf("проверка не выполнена: %w", err)
	}

	fmt.Printf("Проверено блоков: %d\n", res.SampledBlocks)
	if res.Note != "" {
		fmt.Println(res.Note)
	}
	if res.Verified {
		fmt.Println("Результат: соответствует паттерну последнего прохода")
		return nil
	}
	fmt.Printf("Результат: НЕ соответствует, несовпадений: %d\n", len(res.Mismatches))
	os.Exit(EXIT_WARNING)
	return nil
}

func runMethods(cmd *cobra.Command, args []string) error {
	for _, m := range wipe.Methods() {
		fmt.Printf("  %-8s %-16s %d проход(ов)  %s\n", m.ID, m.Name, len(m.Passes), m.Description)
	}
	return nil
}

func runHistory(cmd *cobra.Command, args []string) error {
	if err := setup(); err != nil {
		return err
	}
	defer logger.Close()

	store, err := reporting.OpenStore(cfg.Reporting.DatabasePath)
	if err != nil {
		return err
	}
	defer store.Close()

	jobs, err := store.ListJobs(historyDevice, historyLimit)
	if err != nil {
		return err
	}
	if len(jobs) == 0 {
		fmt.Println("Журнал аудита пуст")
		return nil
	}

	for _, j := range jobs {
		verified := ""
		if j.Outcome == wipe.OutcomeCompleted && !j.Verified {
			verified = " [не проверено]"
		}
		fmt.Printf("  %s  %-16s %-8s %-10s %s%s\n",
			j.StartTime.Format("2006-01-02 15:04"),
			j.Device, j.Method, j.Outcome, humanize.IBytes(j.BytesWritten), verified)
	}
	return nil
}

func runDiagnose(cmd *cobra.Command, args []string) error {
	if err := setup(); err != nil {
		return err
	}
	defer logger.Close()

	d := system.RunDiagnostics(context.Background(), cfg.Health.SmartctlPath, os.TempDir())
	fmt.Printf("%s v%s, %s/%s\n\n", AppName, Version, d.OS, d.Arch)
	for _, r := range d.Results {
		fmt.Printf("  [%-4s] %-14s %s\n", r.Status, r.Test, r.Message)
	}
	fmt.Printf("\nИтог: %s (%d тестов, %d сбоев, %d предупреждений)\n",
		d.Overall, d.Summary.TotalTests, d.Summary.Failed, d.Summary.Warnings)

	if d.Overall == "CRITICAL" {
		os.Exit(EXIT_ERROR)
	}
	return nil
}

// runWritePass выполняет сегмент прохода от имени root. Вывод минимален:
// родительский процесс следит за прогрессом по границам сегментов.
func runWritePass(cmd *cobra.Command, args []string) error {
	if wpDevice == "" || wpSize == 0 {
		return fmt.Errorf("write-pass: не заданы устройство или размер")
	}

	kind, err := wipe.ParseKind(wpKind)
	if err != nil {
		return err
	}

	spec := wipe.PassSpec{Number: wpPass, Kind: kind}
	if kind == wipe.PatternFixed {
		seq, err := hex.DecodeString(wpSeqHex)
		if err != nil || len(seq) == 0 {
			return fmt.Errorf("write-pass: некорректный паттерн: %q", wpSeqHex)
		}
		spec.Seq = seq
	}

	writer := &wipe.DeviceWriter{BlockSize: wpBlockSize, Logger: logging.Nop()}
	target := wipe.Target{Path: wpDevice, SizeBytes: wpSize}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	_, err = writer.WritePass(ctx, target, spec, wpStart, wpEnd, nil, nil)
	return err
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Ошибка: %v\n", err)
		os.Exit(EXIT_ERROR)
	}
}
