package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/bigkaa/reurb-backend/internal/domain/model"
)

const testSecret = "test-secret-0123456789"

func testUser() *model.User {
	return &model.User{ID: 42, Login: "maria", Name: "Maria", Role: "Administrador"}
}

// fixedClock возвращает часы, которые можно сдвигать.
func fixedClock(start time.Time) (func() time.Time, func(time.Duration)) {
	now := start
	return func() time.Time { return now }, func(d time.Duration) { now = now.Add(d) }
}

func TestIssueValidate_RoundTrip(t *testing.T) {
	issuer := NewTokenIssuer(testSecret, 24*time.Hour)

	token, exp, err := issuer.Issue(testUser())
	if err != nil {
		t.Fatalf("Issue() ошибка: %v", err)
	}
	if time.Until(exp) < 23*time.Hour {
		t.Errorf("exp = %v, ожидалось ~24h от текущего времени", exp)
	}

	claims, err := issuer.Validate(token)
	if err != nil {
		t.Fatalf("Validate() ошибка: %v", err)
	}
	if claims.UserID != 42 || claims.Login != "maria" || claims.Role != "Administrador" {
		t.Errorf("claims = %+v", claims)
	}
	if claims.Subject != "42" {
		t.Errorf("sub = %q, ожидался 42", claims.Subject)
	}
}

func TestValidate_ExpiredAfterOneDay(t *testing.T) {
	clock, advance := fixedClock(time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC))
	issuer := NewTokenIssuer(testSecret, 24*time.Hour).WithClock(clock)

	token, _, err := issuer.Issue(testUser())
	if err != nil {
		t.Fatalf("Issue() ошибка: %v", err)
	}

	advance(23 * time.Hour)
	if _, err := issuer.Validate(token); err != nil {
		t.Fatalf("Validate() через 23h ошибка: %v", err)
	}

	advance(2 * time.Hour)
	if _, err := issuer.Validate(token); !errors.Is(err, ErrTokenExpired) {
		t.Errorf("Validate() через 25h = %v, ожидалась ErrTokenExpired", err)
	}
}

func TestValidate_Errors(t *testing.T) {
	issuer := NewTokenIssuer(testSecret, time.Hour)
	valid, _, _ := issuer.Issue(testUser())

	otherIssuer := NewTokenIssuer("another-secret-0123456789", time.Hour)
	foreign, _, _ := otherIssuer.Issue(testUser())

	noneToken, _ := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"user_id": 42,
		"exp":     time.Now().Add(time.Hour).Unix(),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)

	noUser, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"login": "x",
		"exp":   time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))

	noExp, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": 42,
	}).SignedString([]byte(testSecret))

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{"пустой", "", ErrTokenMissing},
		{"мусор", "not-a-jwt", ErrTokenMalformed},
		{"обрезанный", valid[:len(valid)-10] + "AAAAAAAAAA", ErrTokenSignatureInvalid},
		{"чужой секрет", foreign, ErrTokenSignatureInvalid},
		{"alg none", noneToken, ErrTokenSignatureInvalid},
		{"без user_id", noUser, ErrTokenMalformed},
		{"без exp", noExp, ErrTokenMalformed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := issuer.Validate(tt.token)
			if !errors.Is(err, tt.want) {
				t.Errorf("Validate() = %v, хотели %v", err, tt.want)
			}
		})
	}
}
