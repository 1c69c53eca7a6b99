package testutil

import (
	"log/slog"
	"testing"

	"github.com/bigkaa/reurb-backend/internal/auth"
)

// TestJWTSecret — секрет токенов для тестов.
const TestJWTSecret = "test-secret-0123456789"

// Logger возвращает логгер, отбрасывающий вывод.
func Logger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// Hasher возвращает PasswordHasher с облегчёнными параметрами argon2id.
func Hasher(t testing.TB) *auth.PasswordHasher {
	t.Helper()
	h, err := auth.NewPasswordHasher(auth.Params{
		Memory:      1024,
		Iterations:  1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	})
	if err != nil {
		t.Fatalf("NewPasswordHasher() ошибка: %v", err)
	}
	return h
}
