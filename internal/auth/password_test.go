package auth

import (
	"errors"
	"strings"
	"testing"
)

// testParams — облегчённые параметры для быстрых тестов.
var testParams = Params{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}

func newTestHasher(t *testing.T) *PasswordHasher {
	t.Helper()
	h, err := NewPasswordHasher(testParams)
	if err != nil {
		t.Fatalf("NewPasswordHasher() ошибка: %v", err)
	}
	return h
}

func TestHash_Format(t *testing.T) {
	h := newTestHasher(t)

	encoded, err := h.Hash("segredo")
	if err != nil {
		t.Fatalf("Hash() ошибка: %v", err)
	}
	if !strings.HasPrefix(encoded, "$argon2id$v=19$m=1024,t=1,p=1$") {
		t.Errorf("Hash() = %q, неожиданный префикс", encoded)
	}
	if strings.Contains(encoded, "segredo") {
		t.Error("хэш содержит пароль в открытом виде")
	}
}

func TestHash_SaltIsRandom(t *testing.T) {
	h := newTestHasher(t)

	a, _ := h.Hash("mesma-senha")
	b, _ := h.Hash("mesma-senha")
	if a == b {
		t.Error("два хэша одного пароля совпадают: соль не случайна")
	}
}

func TestVerify(t *testing.T) {
	h := newTestHasher(t)
	encoded, err := h.Hash("correct horse")
	if err != nil {
		t.Fatalf("Hash() ошибка: %v", err)
	}

	ok, err := h.Verify(encoded, "correct horse")
	if err != nil || !ok {
		t.Errorf("Verify(верный пароль) = %v, %v", ok, err)
	}

	ok, err = h.Verify(encoded, "wrong horse")
	if err != nil || ok {
		t.Errorf("Verify(неверный пароль) = %v, %v", ok, err)
	}
}

func TestVerify_UsesParamsFromHash(t *testing.T) {
	strong, err := NewPasswordHasher(Params{Memory: 2048, Iterations: 2, Parallelism: 2, SaltLength: 8, KeyLength: 16})
	if err != nil {
		t.Fatal(err)
	}
	encoded, _ := strong.Hash("senha")

	// Hasher с другими параметрами всё равно проверяет старый хэш
	ok, err := newTestHasher(t).Verify(encoded, "senha")
	if err != nil || !ok {
		t.Errorf("Verify() с параметрами из хэша = %v, %v", ok, err)
	}
}

func TestVerify_InvalidHash(t *testing.T) {
	h := newTestHasher(t)

	invalid := []string{
		"",
		"plaintext",
		"$argon2i$v=19$m=1024,t=1,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=18$m=1024,t=1,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=x,t=1,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=1024,t=1,p=1$!!!$aGFzaA",
		"$argon2id$v=19$m=1024,t=1,p=1$c2FsdA$",
	}

	for _, enc := range invalid {
		if _, err := h.Verify(enc, "x"); !errors.Is(err, ErrInvalidHash) {
			t.Errorf("Verify(%q) ошибка = %v, ожидалась ErrInvalidHash", enc, err)
		}
	}
}

func TestVerifyDummy_DoesNotPanic(t *testing.T) {
	newTestHasher(t).VerifyDummy("qualquer")
}
