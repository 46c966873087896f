// password хэширует и проверяет пароли через bcrypt.
//
// bcrypt намеренно дорог по CPU, поэтому число одновременных вычислений
// ограничено семафором: хэширование не вытесняет горутины, принимающие запросы.
package password

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"
)

// DefaultCost — рабочий фактор bcrypt по умолчанию.
const DefaultCost = 12

// MaxLength — предел bcrypt в байтах; длинные пароли отклоняются, а не обрезаются.
const MaxLength = 72

var (
	// ErrHashFormat — сохранённый хэш повреждён или не является bcrypt-хэшем.
	ErrHashFormat = errors.New("malformed password hash")
	// ErrTooLong — пароль длиннее MaxLength байт.
	ErrTooLong = errors.New("password is too long")
)

// Hasher — потокобезопасный bcrypt-хэшер.
type Hasher struct {
	cost int
	sem  *semaphore.Weighted
}

// New создаёт Hasher. cost вне допустимого диапазона заменяется на DefaultCost,
// concurrency <= 0 означает GOMAXPROCS.
func New(cost, concurrency int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultCost
	}

	if concurrency <= 0 {
		concurrency = runtime.GOMAXPROCS(0)
	}

	return &Hasher{
		cost: cost,
		sem:  semaphore.NewWeighted(int64(concurrency)),
	}
}

// Hash возвращает bcrypt-хэш пароля с солью.
func (h *Hasher) Hash(ctx context.Context, plain string) (string, error) {
	const op = "password.Hash"

	if len(plain) > MaxLength {
		return "", fmt.Errorf("%s: %w", op, ErrTooLong)
	}

	if err := h.sem.Acquire(ctx, 1); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	defer h.sem.Release(1)

	b, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return string(b), nil
}

// Verify сравнивает пароль с хэшем.
// Несовпадение — (false, nil); битый или пустой хэш — ErrHashFormat.
func (h *Hasher) Verify(ctx context.Context, plain, hash string) (bool, error) {
	const op = "password.Verify"

	if _, err := bcrypt.Cost([]byte(hash)); err != nil {
		return false, fmt.Errorf("%s: %w", op, ErrHashFormat)
	}

	if len(plain) > MaxLength {
		return false, nil
	}

	if err := h.sem.Acquire(ctx, 1); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	defer h.sem.Release(1)

	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("%s: %w: %v", op, ErrHashFormat, err)
	}
}

// Cost возвращает рабочий фактор хэшера.
func (h *Hasher) Cost() int {
	return h.cost
}
