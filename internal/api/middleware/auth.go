// auth.go — аутентификация по session token и проверка ролей.
// Результат аутентификации — Authorized с пользователем или Unauthorized
// с причиной отказа; причина определяет сообщение 401.
package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	apierrors "github.com/bigkaa/reurb-backend/internal/api/errors"
	"github.com/bigkaa/reurb-backend/internal/auth"
	"github.com/bigkaa/reurb-backend/internal/domain/rbac"
	"github.com/bigkaa/reurb-backend/internal/service"
)

// contextKey — тип для ключей контекста (избегаем коллизий).
type contextKey string

const (
	// ContextKeyPrincipal — аутентифицированный пользователь в контексте запроса.
	ContextKeyPrincipal contextKey = "principal"
	contextKeyHolder    contextKey = "principal_holder"
)

// Reason — причина отказа в аутентификации.
type Reason string

const (
	ReasonAbsent           Reason = "absent"
	ReasonMalformed        Reason = "malformed"
	ReasonExpired          Reason = "expired"
	ReasonSignatureInvalid Reason = "signature_invalid"
	ReasonUserNotFound     Reason = "user_not_found"
)

// Message возвращает текст ответа 401 для причины.
func (r Reason) Message() string {
	switch r {
	case ReasonAbsent:
		return "Отсутствует токен авторизации"
	case ReasonExpired:
		return "Срок действия токена истёк"
	case ReasonSignatureInvalid:
		return "Недействительная подпись токена"
	case ReasonUserNotFound:
		return "Пользователь токена не найден"
	default:
		return "Неверный формат токена: ожидается Bearer <token>"
	}
}

// AuthResult — результат аутентификации: Authorized или Unauthorized.
type AuthResult interface {
	authResult()
}

// Authorized — токен валиден, пользователь существует.
type Authorized struct {
	Principal *service.Principal
}

// Unauthorized — запрос не аутентифицирован.
type Unauthorized struct {
	Reason Reason
}

func (Authorized) authResult()   {}
func (Unauthorized) authResult() {}

// TokenAuthenticator проверяет токен и возвращает пользователя.
// Реализуется service.AuthService.
type TokenAuthenticator interface {
	Authenticate(ctx context.Context, token string) (*service.Principal, error)
}

// Authenticator — middleware аутентификации по заголовку Authorization.
type Authenticator struct {
	tokens TokenAuthenticator
	logger *slog.Logger
}

// NewAuthenticator создаёт middleware аутентификации.
func NewAuthenticator(tokens TokenAuthenticator, logger *slog.Logger) *Authenticator {
	return &Authenticator{
		tokens: tokens,
		logger: logger.With(slog.String("component", "auth_middleware")),
	}
}

// Resolve аутентифицирует запрос. Ошибка возвращается только при сбое
// инфраструктуры (например, недоступна база), а не при плохом токене.
func (a *Authenticator) Resolve(r *http.Request) (AuthResult, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return Unauthorized{Reason: ReasonAbsent}, nil
	}

	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return Unauthorized{Reason: ReasonMalformed}, nil
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return Unauthorized{Reason: ReasonMalformed}, nil
	}

	principal, err := a.tokens.Authenticate(r.Context(), token)
	switch {
	case err == nil:
		return Authorized{Principal: principal}, nil
	case errors.Is(err, auth.ErrTokenMissing):
		return Unauthorized{Reason: ReasonAbsent}, nil
	case errors.Is(err, auth.ErrTokenExpired):
		return Unauthorized{Reason: ReasonExpired}, nil
	case errors.Is(err, auth.ErrTokenSignatureInvalid):
		return Unauthorized{Reason: ReasonSignatureInvalid}, nil
	case errors.Is(err, auth.ErrTokenMalformed):
		return Unauthorized{Reason: ReasonMalformed}, nil
	case errors.Is(err, service.ErrUserNotFound):
		return Unauthorized{Reason: ReasonUserNotFound}, nil
	default:
		return nil, err
	}
}

// Middleware возвращает HTTP middleware: без валидного токена запрос
// получает 401, иначе пользователь помещается в контекст.
func (a *Authenticator) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			result, err := a.Resolve(r)
			if err != nil {
				a.logger.ErrorContext(r.Context(), "Ошибка аутентификации",
					slog.String("error", err.Error()),
				)
				apierrors.InternalError(w, "Ошибка проверки токена")
				return
			}

			switch res := result.(type) {
			case Authorized:
				next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), res.Principal)))
			case Unauthorized:
				a.logger.DebugContext(r.Context(), "Запрос отклонён",
					slog.String("reason", string(res.Reason)),
					slog.String("remote_addr", r.RemoteAddr),
				)
				w.Header().Set("WWW-Authenticate",
					fmt.Sprintf(`Bearer error="invalid_token", error_description=%q`, string(res.Reason)))
				apierrors.Unauthorized(w, res.Reason.Message())
			}
		})
	}
}

// RequireRole возвращает middleware, требующий роль не ниже required.
// Должен использоваться ПОСЛЕ Authenticator.Middleware().
func RequireRole(required string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := PrincipalFromContext(r.Context())
			if p == nil {
				apierrors.Unauthorized(w, ReasonAbsent.Message())
				return
			}
			if !rbac.Satisfies(p.Role, required) {
				apierrors.Forbidden(w, "Недостаточно прав: требуется роль "+required)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WithPrincipal помещает пользователя в контекст.
func WithPrincipal(ctx context.Context, p *service.Principal) context.Context {
	if h, ok := ctx.Value(contextKeyHolder).(*principalHolder); ok && p != nil {
		h.userID = p.UserID
	}
	return context.WithValue(ctx, ContextKeyPrincipal, p)
}

// principalHolder передаёт user_id вверх по цепочке в RequestLogger.
type principalHolder struct {
	userID int64
}

func withPrincipalHolder(ctx context.Context, h *principalHolder) context.Context {
	return context.WithValue(ctx, contextKeyHolder, h)
}

// PrincipalFromContext извлекает пользователя из контекста запроса.
// Возвращает nil, если запрос не аутентифицирован.
func PrincipalFromContext(ctx context.Context) *service.Principal {
	p, _ := ctx.Value(ContextKeyPrincipal).(*service.Principal)
	return p
}
