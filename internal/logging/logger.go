package logging

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"securewipe/internal/config"
)

// AuditLogger — журнал аудита поверх zap: консоль для оператора,
// JSON-файл для разбора инцидентов. Сохраняет интерфейс
// Log(level, message, key, value, ...) для всех вызывающих.
type AuditLogger struct {
	sugar   *zap.SugaredLogger
	verbose bool
}

func NewAuditLogger(cfg *config.Config, verbose bool) (*AuditLogger, error) {
	level := parseLevel(cfg.Logging.Level)
	if verbose && level > zapcore.DebugLevel {
		level = zapcore.DebugLevel
	}

	var cores []zapcore.Core

	if cfg.Logging.Console {
		encCfg := zap.NewDevelopmentEncoderConfig()
		encCfg.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05")
		consoleLevel := level
		if !verbose {
			// Без verbose в консоль идут только заметные события.
			consoleLevel = zapcore.WarnLevel
		}
		cores = append(cores, zapcore.NewCore(
			zapcore.NewConsoleEncoder(encCfg),
			zapcore.Lock(os.Stdout),
			consoleLevel,
		))
	}

	if cfg.Logging.File != "" {
		logDir := filepath.Dir(cfg.Logging.File)
		if err := os.MkdirAll(logDir, 0755); err != nil {
			// Не можем создать директорию — работаем только с консолью.
			fmt.Printf("[WARN] Не удалось создать директорию логов %s: %v\n", logDir, err)
		} else {
			f, err := os.OpenFile(cfg.Logging.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
			if err != nil {
				fmt.Printf("[WARN] Не удалось открыть файл логов %s: %v\n", cfg.Logging.File, err)
			} else {
				encCfg := zap.NewProductionEncoderConfig()
				encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
				cores = append(cores, zapcore.NewCore(
					zapcore.NewJSONEncoder(encCfg),
					zapcore.Lock(f),
					level,
				))
			}
		}
	}

	if len(cores) == 0 {
		cores = append(cores, zapcore.NewCore(
			zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
			zapcore.Lock(os.Stdout),
			level,
		))
	}

	z := zap.New(zapcore.NewTee(cores...))
	return &AuditLogger{sugar: z.Sugar(), verbose: verbose}, nil
}

// Log пишет запись аудита. level — DEBUG/INFO/WARN/ERROR/FATAL,
// fields — чередующиеся ключи и значения.
func (l *AuditLogger) Log(level, message string, fields ...interface{}) {
	switch level {
	case "DEBUG":
		l.sugar.Debugw(message, fields...)
	case "INFO":
		l.sugar.Infow(message, fields...)
	case "WARN":
		l.sugar.Warnw(message, fields...)
	case "ERROR":
		l.sugar.Errorw(message, fields...)
	case "FATAL":
		l.sugar.Fatalw(message, fields...)
	default:
		l.sugar.Infow(message, fields...)
	}
}

func (l *AuditLogger) Close() error {
	return l.sugar.Sync()
}

// Nop возвращает логгер, который ничего не пишет. Для тестов.
func Nop() *AuditLogger {
	return &AuditLogger{sugar: zap.NewNop().Sugar()}
}

func parseLevel(level string) zapcore.Level {
	switch level {
	case "DEBUG":
		return zapcore.DebugLevel
	case "INFO":
		return zapcore.InfoLevel
	case "WARN":
		return zapcore.WarnLevel
	case "ERROR":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
