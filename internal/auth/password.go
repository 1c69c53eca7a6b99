// Пакет auth — хэширование паролей (argon2id) и session token (HS256 JWT).
package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// ErrInvalidHash — строка хэша не в формате $argon2id$v=19$m=..,t=..,p=..$salt$hash.
var ErrInvalidHash = errors.New("некорректный формат хэша пароля")

// Params — параметры argon2id.
type Params struct {
	// Memory — объём памяти в KiB
	Memory uint32
	// Iterations — число проходов
	Iterations uint32
	// Parallelism — число потоков
	Parallelism uint8
	// SaltLength — длина соли в байтах
	SaltLength uint32
	// KeyLength — длина хэша в байтах
	KeyLength uint32
}

// DefaultParams — параметры argon2id по умолчанию (RFC 9106, вторая рекомендация).
var DefaultParams = Params{
	Memory:      64 * 1024,
	Iterations:  3,
	Parallelism: 2,
	SaltLength:  16,
	KeyLength:   32,
}

// PasswordHasher — хэширование и проверка паролей.
type PasswordHasher struct {
	params Params
	// dummy — хэш для проверки несуществующего логина
	dummy string
}

// NewPasswordHasher создаёт hasher с указанными параметрами.
func NewPasswordHasher(params Params) (*PasswordHasher, error) {
	h := &PasswordHasher{params: params}
	dummy, err := h.Hash("reurb-dummy-password")
	if err != nil {
		return nil, err
	}
	h.dummy = dummy
	return h, nil
}

// Hash возвращает argon2id хэш пароля со случайной солью в PHC-формате.
func (h *PasswordHasher) Hash(password string) (string, error) {
	salt := make([]byte, h.params.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("ошибка генерации соли: %w", err)
	}

	key := argon2.IDKey([]byte(password), salt,
		h.params.Iterations, h.params.Memory, h.params.Parallelism, h.params.KeyLength)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, h.params.Memory, h.params.Iterations, h.params.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify сравнивает пароль с хэшем за постоянное время.
// Параметры argon2id берутся из самого хэша.
func (h *PasswordHasher) Verify(encoded, password string) (bool, error) {
	p, salt, key, err := decodeHash(encoded)
	if err != nil {
		return false, err
	}

	other := argon2.IDKey([]byte(password), salt, p.Iterations, p.Memory, p.Parallelism, p.KeyLength)
	return subtle.ConstantTimeCompare(key, other) == 1, nil
}

// VerifyDummy выполняет проверку против фиктивного хэша.
// Вызывается для неизвестного логина, чтобы время ответа не отличалось.
func (h *PasswordHasher) VerifyDummy(password string) {
	_, _ = h.Verify(h.dummy, password)
}

// decodeHash разбирает PHC-строку argon2id.
func decodeHash(encoded string) (Params, []byte, []byte, error) {
	var p Params

	// "", "argon2id", "v=19", "m=..,t=..,p=..", salt, hash
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return p, nil, nil, ErrInvalidHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return p, nil, nil, ErrInvalidHash
	}
	if version != argon2.Version {
		return p, nil, nil, fmt.Errorf("%w: неподдерживаемая версия %d", ErrInvalidHash, version)
	}

	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.Memory, &p.Iterations, &p.Parallelism); err != nil {
		return p, nil, nil, ErrInvalidHash
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return p, nil, nil, ErrInvalidHash
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(key) == 0 {
		return p, nil, nil, ErrInvalidHash
	}

	p.SaltLength = uint32(len(salt))
	p.KeyLength = uint32(len(key))
	return p, salt, key, nil
}
