package privilege

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"

	"golang.org/x/term"

	"securewipe/internal/logging"
)

// Ошибки эскалации. После любой из них задание завершается с ошибкой,
// автоматических повторов нет.
var (
	ErrEscalationTimeout  = errors.New("тайм-аут ожидания учётных данных")
	ErrEscalationDeclined = errors.New("эскалация отклонена пользователем")
)

// Credential — учётные данные для единственной привилегированной операции.
// Секрет никогда не логируется и не попадает в аргументы процессов:
// дочернему sudo он передаётся только через stdin-канал.
type Credential struct {
	secret []byte
}

// Zero затирает секрет в памяти. Вызывается сразу после использования.
func (c *Credential) Zero() {
	for i := range c.secret {
		c.secret[i] = 0
	}
	c.secret = nil
}

// String намеренно не раскрывает секрет: Credential может попасть
// в форматирование по ошибке.
func (c *Credential) String() string {
	return "credential(redacted)"
}

// IsRoot сообщает, выполняется ли процесс с правами root —
// тогда эскалация не нужна вовсе.
func IsRoot() bool {
	return os.Geteuid() == 0
}

// Escalator запрашивает учётные данные и выполняет привилегированные
// подпроцессы. С точки зрения оркестратора операции синхронны.
type Escalator struct {
	Timeout time.Duration
	Logger  *logging.AuditLogger

	// подменяется в тестах
	readPassword func(fd int) ([]byte, error)
}

func NewEscalator(timeout time.Duration, logger *logging.AuditLogger) *Escalator {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Escalator{
		Timeout:      timeout,
		Logger:       logger,
		readPassword: term.ReadPassword,
	}
}

type result struct {
	secret []byte
	err    error
}

// Obtain запрашивает пароль без эха. Если ввод не получен за Timeout,
// возвращается ErrEscalationTimeout и задание завершается ошибкой,
// а не повторяет запрос молча.
func (e *Escalator) Obtain(ctx context.Context) (*Credential, error) {
	read := e.readPassword
	if read == nil {
		read = term.ReadPassword
	}

	fmt.Fprint(os.Stderr, "Для записи на устройство нужны права администратора.\nПароль sudo: ")

	ch := make(chan result, 1)
	go func() {
		secret, err := read(int(os.Stdin.Fd()))
		ch <- result{secret: secret, err: err}
	}()

	select {
	case r := <-ch:
		fmt.Fprintln(os.Stderr)
		if r.err != nil {
			return nil, fmt.Errorf("ошибка чтения пароля: %w", r.err)
		}
		if len(r.secret) == 0 {
			return nil, ErrEscalationDeclined
		}
		if e.Logger != nil {
			// Фиксируем факт эскалации, но никогда — сам секрет.
			e.Logger.Log("INFO", "Учётные данные для эскалации получены")
		}
		return &Credential{secret: r.secret}, nil

	case <-time.After(e.Timeout):
		fmt.Fprintln(os.Stderr)
		go drainSecret(ch)
		return nil, ErrEscalationTimeout

	case <-ctx.Done():
		fmt.Fprintln(os.Stderr)
		go drainSecret(ch)
		return nil, ctx.Err()
	}
}

// drainSecret дожидается опоздавший ввод и затирает его: пароль, набранный
// после тайм-аута, не должен оставаться в памяти.
func drainSecret(ch chan result) {
	r := <-ch
	for i := range r.secret {
		r.secret[i] = 0
	}
}

// RunElevated выполняет argv через sudo. Пароль передаётся sudo -S
// через stdin-канал: он не появляется ни в списке процессов, ни в
// истории оболочки, ни в логах.
func (e *Escalator) RunElevated(ctx context.Context, cred *Credential, argv []string) error {
	if len(argv) == 0 {
		return fmt.Errorf("пустая команда для привилегированного запуска")
	}

	args := append([]string{"-S", "-p", "", "--"}, argv...)
	cmd := exec.CommandContext(ctx, "sudo", args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("ошибка создания stdin-канала: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("ошибка запуска sudo: %w", err)
	}

	go func() {
		stdin.Write(cred.secret)
		stdin.Write([]byte("\n"))
		stdin.Close()
	}()

	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("привилегированная команда завершилась с ошибкой: %w", err)
	}
	return nil
}
