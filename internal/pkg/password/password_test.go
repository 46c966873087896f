package password

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestHasher() *Hasher {
	return New(bcrypt.MinCost, 2)
}

func TestHashAndVerify_OK(t *testing.T) {
	t.Parallel()

	h := newTestHasher()
	ctx := context.Background()

	hash, err := h.Hash(ctx, "Secret123!")
	require.NoError(t, err)
	require.NotEqual(t, "Secret123!", hash)

	ok, err := h.Verify(ctx, "Secret123!", hash)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = h.Verify(ctx, "Secret123?", hash)
	require.NoError(t, err)
	require.False(t, ok)
}

// Соль случайна: два хэша одного пароля различаются, но оба проходят проверку.
func TestHash_Salted(t *testing.T) {
	t.Parallel()

	h := newTestHasher()
	ctx := context.Background()

	a, err := h.Hash(ctx, "Secret123!")
	require.NoError(t, err)
	b, err := h.Hash(ctx, "Secret123!")
	require.NoError(t, err)
	require.NotEqual(t, a, b)

	for _, hash := range []string{a, b} {
		ok, err := h.Verify(ctx, "Secret123!", hash)
		require.NoError(t, err)
		require.True(t, ok)
	}
}

func TestVerify_MalformedHash(t *testing.T) {
	t.Parallel()

	h := newTestHasher()

	for _, hash := range []string{"", "not-a-bcrypt-hash", "$2a$xx$broken"} {
		ok, err := h.Verify(context.Background(), "Secret123!", hash)
		require.False(t, ok)
		require.ErrorIs(t, err, ErrHashFormat, hash)
	}
}

func TestHash_TooLong(t *testing.T) {
	t.Parallel()

	h := newTestHasher()
	_, err := h.Hash(context.Background(), strings.Repeat("a", MaxLength+1))
	require.ErrorIs(t, err, ErrTooLong)

	hash, err := h.Hash(context.Background(), strings.Repeat("a", MaxLength))
	require.NoError(t, err)

	ok, err := h.Verify(context.Background(), strings.Repeat("a", MaxLength+1), hash)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestNew_Defaults(t *testing.T) {
	t.Parallel()

	require.Equal(t, DefaultCost, New(0, 0).Cost())
	require.Equal(t, DefaultCost, New(bcrypt.MaxCost+1, 1).Cost())
	require.Equal(t, bcrypt.MinCost, New(bcrypt.MinCost, 1).Cost())
}

// Отменённый контекст не даёт занять слот семафора.
func TestHash_ContextCanceledWhileWaiting(t *testing.T) {
	t.Parallel()

	h := New(bcrypt.MinCost, 1)
	require.NoError(t, h.sem.Acquire(context.Background(), 1))
	defer h.sem.Release(1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := h.Hash(ctx, "Secret123!")
	require.ErrorIs(t, err, context.Canceled)
}

func TestHash_Concurrent(t *testing.T) {
	t.Parallel()

	h := newTestHasher()
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			hash, err := h.Hash(ctx, "Secret123!")
			if err != nil {
				errs <- err
				return
			}
			if _, err := h.Verify(ctx, "Secret123!", hash); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
}
