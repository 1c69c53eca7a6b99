package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/bigkaa/reurb-backend/internal/domain/model"
)

// Причины отказа в валидации токена.
var (
	ErrTokenMissing          = errors.New("токен отсутствует")
	ErrTokenMalformed        = errors.New("токен имеет неверный формат")
	ErrTokenExpired          = errors.New("срок действия токена истёк")
	ErrTokenSignatureInvalid = errors.New("подпись токена недействительна")
)

// Claims — содержимое session token.
type Claims struct {
	UserID int64  `json:"user_id"`
	Login  string `json:"login"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// TokenIssuer выпускает и проверяет session token (HS256).
// Токены stateless, отзыв не поддерживается, единственный механизм
// инвалидации — срок действия.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenIssuer создаёт issuer с общим для процесса секретом.
func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// WithClock подменяет источник времени (для тестов).
func (ti *TokenIssuer) WithClock(now func() time.Time) *TokenIssuer {
	ti.now = now
	return ti
}

// TTL возвращает время жизни токена.
func (ti *TokenIssuer) TTL() time.Duration {
	return ti.ttl
}

// Issue выпускает токен для пользователя: exp = iat + TTL.
func (ti *TokenIssuer) Issue(user *model.User) (string, time.Time, error) {
	issuedAt := ti.now()
	expiresAt := issuedAt.Add(ti.ttl)

	claims := Claims{
		UserID: user.ID,
		Login:  user.Login,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(user.ID, 10),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(ti.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("ошибка подписи токена: %w", err)
	}
	return signed, expiresAt, nil
}

// Validate проверяет подпись и срок действия токена.
// Ошибка — одна из ErrTokenMissing, ErrTokenMalformed,
// ErrTokenExpired, ErrTokenSignatureInvalid.
func (ti *TokenIssuer) Validate(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrTokenMissing
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(_ *jwt.Token) (any, error) { return ti.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(ti.now),
	)
	if err != nil {
		return nil, classifyTokenError(err)
	}
	if claims.UserID <= 0 {
		return nil, ErrTokenMalformed
	}
	return claims, nil
}

// classifyTokenError сводит ошибки jwt к причинам отказа.
func classifyTokenError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid),
		errors.Is(err, jwt.ErrTokenUnverifiable):
		return ErrTokenSignatureInvalid
	default:
		return ErrTokenMalformed
	}
}
