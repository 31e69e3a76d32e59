package reporting

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"securewipe/internal/wipe"
)

const timeFormat = "2006-01-02 15:04:05"

// Store — журнал аудита заданий затирания поверх SQLite.
// Хранится именно факт затирания: он нужен и после ротации JSON-отчётов.
type Store struct {
	db *sql.DB
}

// OpenStore открывает (и при необходимости создаёт) базу аудита
func OpenStore(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." && path != ":memory:" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("ошибка создания директории базы аудита %s: %w", dir, err)
		}
	}

	dsn := path
	if path != ":memory:" {
		dsn = fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", path)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("ошибка открытия базы аудита %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ошибка подключения к базе аудита: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS wipe_jobs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		job_id TEXT NOT NULL UNIQUE,
		device TEXT NOT NULL,
		method TEXT NOT NULL,
		outcome TEXT NOT NULL,
		passes_completed INTEGER NOT NULL,
		total_passes INTEGER NOT NULL,
		verified INTEGER NOT NULL,
		verify_note TEXT,
		fail_reason TEXT,
		bytes_written INTEGER NOT NULL,
		free_space_mode INTEGER NOT NULL DEFAULT 0,
		dry_run INTEGER NOT NULL DEFAULT 0,
		start_time TEXT NOT NULL,
		end_time TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_wipe_jobs_device ON wipe_jobs(device);
	CREATE INDEX IF NOT EXISTS idx_wipe_jobs_start ON wipe_jobs(start_time);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("ошибка создания схемы базы аудита: %w", err)
	}
	return nil
}

// InsertJob записывает терминальный отчёт задания в журнал аудита
func (s *Store) InsertJob(r wipe.Report) error {
	_, err := s.db.Exec(`
		INSERT INTO wipe_jobs (job_id, device, method, outcome, passes_completed, total_passes,
			verified, verify_note, fail_reason, bytes_written, free_space_mode, dry_run, start_time, end_time)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(job_id) DO UPDATE SET
			outcome          = excluded.outcome,
			passes_completed = excluded.passes_completed,
			verified         = excluded.verified,
			verify_note      = excluded.verify_note,
			fail_reason      = excluded.fail_reason,
			bytes_written    = excluded.bytes_written,
			end_time         = excluded.end_time
	`, r.JobID, r.Device, r.Method, string(r.Outcome), r.PassesCompleted, r.TotalPasses,
		boolToInt(r.Verified), r.VerifyNote, r.FailReason, r.BytesWritten,
		boolToInt(r.FreeSpaceMode), boolToInt(r.DryRun),
		r.StartTime.UTC().Format(timeFormat), r.EndTime.UTC().Format(timeFormat))
	if err != nil {
		return fmt.Errorf("ошибка записи задания %s в журнал аудита: %w", r.JobID, err)
	}
	return nil
}

// ListJobs возвращает последние задания, новые первыми.
// Пустой device означает все устройства.
func (s *Store) ListJobs(device string, limit int) ([]wipe.Report, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT job_id, device, method, outcome, passes_completed, total_passes,
			verified, verify_note, fail_reason, bytes_written, free_space_mode, dry_run, start_time, end_time
		FROM wipe_jobs`
	args := []interface{}{}
	if device != "" {
		query += " WHERE device = ?"
		args = append(args, device)
	}
	query += " ORDER BY start_time DESC, id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения журнала аудита: %w", err)
	}
	defer rows.Close()

	var reports []wipe.Report
	for rows.Next() {
		var r wipe.Report
		var outcome string
		var verified, freeSpace, dryRun int
		var start, end string
		var note, reason sql.NullString
		if err := rows.Scan(&r.JobID, &r.Device, &r.Method, &outcome, &r.PassesCompleted, &r.TotalPasses,
			&verified, &note, &reason, &r.BytesWritten, &freeSpace, &dryRun, &start, &end); err != nil {
			return nil, fmt.Errorf("ошибка чтения строки журнала аудита: %w", err)
		}
		r.Outcome = wipe.Outcome(outcome)
		r.Verified = verified != 0
		r.FreeSpaceMode = freeSpace != 0
		r.DryRun = dryRun != 0
		r.VerifyNote = note.String
		r.FailReason = reason.String
		r.StartTime, _ = time.Parse(timeFormat, start)
		r.EndTime, _ = time.Parse(timeFormat, end)
		reports = append(reports, r)
	}
	return reports, rows.Err()
}

// Close закрывает базу аудита
func (s *Store) Close() error {
	return s.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
