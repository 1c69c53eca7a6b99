package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bigkaa/reurb-backend/internal/auth"
	"github.com/bigkaa/reurb-backend/internal/domain/model"
	"github.com/bigkaa/reurb-backend/internal/domain/rbac"
	"github.com/bigkaa/reurb-backend/internal/service"
	"github.com/bigkaa/reurb-backend/internal/testutil"
)

// authEnv — AuthService поверх in-memory хранилища.
type authEnv struct {
	store  *testutil.Store
	tokens *auth.TokenIssuer
	auth   *Authenticator
	user   *model.User
}

func newAuthEnv(t *testing.T) *authEnv {
	t.Helper()
	store := testutil.NewStore()
	tokens := auth.NewTokenIssuer(testutil.TestJWTSecret, 24*time.Hour)
	svc := service.NewAuthService(store.Users(), testutil.Hasher(t), tokens, testutil.Logger())

	user := &model.User{Name: "Maria", Login: "maria", PasswordHash: "x", Role: rbac.RoleUser}
	if err := store.Users().Create(context.Background(), user); err != nil {
		t.Fatal(err)
	}

	return &authEnv{
		store:  store,
		tokens: tokens,
		auth:   NewAuthenticator(svc, testutil.Logger()),
		user:   user,
	}
}

func (e *authEnv) token(t *testing.T, u *model.User) string {
	t.Helper()
	tok, _, err := e.tokens.Issue(u)
	if err != nil {
		t.Fatal(err)
	}
	return tok
}

// okHandler отвечает 200 и записывает login пользователя из контекста.
func okHandler(w http.ResponseWriter, r *http.Request) {
	p := PrincipalFromContext(r.Context())
	if p == nil {
		w.WriteHeader(http.StatusTeapot)
		return
	}
	_, _ = w.Write([]byte(p.Login))
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) (code, message string) {
	t.Helper()
	var body struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("тело ответа не JSON: %v (%s)", err, rec.Body.String())
	}
	return body.Error.Code, body.Error.Message
}

func TestAuthenticator_Authorized(t *testing.T) {
	env := newAuthEnv(t)
	handler := env.auth.Middleware()(http.HandlerFunc(okHandler))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/registrations", nil)
	req.Header.Set("Authorization", "Bearer "+env.token(t, env.user))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("статус = %d, ожидается 200 (%s)", rec.Code, rec.Body.String())
	}
	if rec.Body.String() != "maria" {
		t.Errorf("login = %q, ожидается maria", rec.Body.String())
	}
}

func TestAuthenticator_Reasons(t *testing.T) {
	env := newAuthEnv(t)

	otherIssuer := auth.NewTokenIssuer("another-secret-0123456789", 24*time.Hour)
	forged, _, err := otherIssuer.Issue(env.user)
	if err != nil {
		t.Fatal(err)
	}

	old := auth.NewTokenIssuer(testutil.TestJWTSecret, 24*time.Hour).
		WithClock(func() time.Time { return time.Now().Add(-25 * time.Hour) })
	expired, _, err := old.Issue(env.user)
	if err != nil {
		t.Fatal(err)
	}

	ghost := env.token(t, &model.User{ID: 9999, Login: "ghost", Role: rbac.RoleAdmin})

	tests := []struct {
		name   string
		header string
		reason Reason
	}{
		{"без заголовка", "", ReasonAbsent},
		{"схема Basic", "Basic bWFyaWE6MTIz", ReasonMalformed},
		{"пустой Bearer", "Bearer ", ReasonMalformed},
		{"мусор вместо JWT", "Bearer not-a-jwt", ReasonMalformed},
		{"чужая подпись", "Bearer " + forged, ReasonSignatureInvalid},
		{"просроченный", "Bearer " + expired, ReasonExpired},
		{"удалённый пользователь", "Bearer " + ghost, ReasonUserNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			result, err := env.auth.Resolve(req)
			if err != nil {
				t.Fatalf("Resolve() ошибка: %v", err)
			}
			u, ok := result.(Unauthorized)
			if !ok {
				t.Fatalf("Resolve() = %#v, ожидается Unauthorized", result)
			}
			if u.Reason != tt.reason {
				t.Errorf("причина = %q, ожидается %q", u.Reason, tt.reason)
			}

			rec := httptest.NewRecorder()
			env.auth.Middleware()(http.HandlerFunc(okHandler)).ServeHTTP(rec, req)
			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("статус = %d, ожидается 401", rec.Code)
			}
			code, msg := errorMessage(t, rec)
			if code != "UNAUTHORIZED" {
				t.Errorf("code = %q, ожидается UNAUTHORIZED", code)
			}
			if msg != tt.reason.Message() {
				t.Errorf("message = %q, ожидается %q", msg, tt.reason.Message())
			}
			if !strings.Contains(rec.Header().Get("WWW-Authenticate"), string(tt.reason)) {
				t.Errorf("WWW-Authenticate = %q", rec.Header().Get("WWW-Authenticate"))
			}
		})
	}
}

// failingAuthenticator имитирует недоступную базу.
type failingAuthenticator struct{}

func (failingAuthenticator) Authenticate(context.Context, string) (*service.Principal, error) {
	return nil, errors.New("connection refused")
}

func TestAuthenticator_InfrastructureError(t *testing.T) {
	a := NewAuthenticator(failingAuthenticator{}, testutil.Logger())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer abc")
	rec := httptest.NewRecorder()
	a.Middleware()(http.HandlerFunc(okHandler)).ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("статус = %d, ожидается 500", rec.Code)
	}
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name      string
		principal *service.Principal
		want      int
	}{
		{"без пользователя", nil, http.StatusUnauthorized},
		{"usuario", &service.Principal{UserID: 1, Role: rbac.RoleUser}, http.StatusForbidden},
		{"administrador", &service.Principal{UserID: 2, Role: rbac.RoleAdmin}, http.StatusOK},
		{"неизвестная роль", &service.Principal{UserID: 3, Role: "root"}, http.StatusForbidden},
	}

	handler := RequireRole(rbac.RoleAdmin)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/users", nil)
			if tt.principal != nil {
				req = req.WithContext(WithPrincipal(req.Context(), tt.principal))
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Errorf("статус = %d, ожидается %d", rec.Code, tt.want)
			}
			if tt.want == http.StatusForbidden {
				_, msg := errorMessage(t, rec)
				if !strings.Contains(msg, rbac.RoleAdmin) {
					t.Errorf("сообщение %q не называет роль", msg)
				}
			}
		})
	}
}
