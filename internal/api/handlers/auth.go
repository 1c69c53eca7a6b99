// auth.go — вход в систему и текущий пользователь.
package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	apierrors "github.com/bigkaa/reurb-backend/internal/api/errors"
	"github.com/bigkaa/reurb-backend/internal/api/middleware"
	"github.com/bigkaa/reurb-backend/internal/service"
)

type loginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"`
	Name      string `json:"name"`
	Role      string `json:"role"`
}

type meResponse struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Login string `json:"login"`
	Role  string `json:"role"`
}

// invalidCredentials — единое сообщение для любого неуспешного входа.
const invalidCredentials = "Неверный логин или пароль"

// Login — POST /api/v1/login.
// Неизвестный логин, неверный пароль, пустые поля и нечитаемое тело
// дают одинаковый 401.
func (h *APIHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		apierrors.Unauthorized(w, invalidCredentials)
		return
	}
	req.Login = strings.TrimSpace(req.Login)
	if req.Login == "" || req.Password == "" {
		apierrors.Unauthorized(w, invalidCredentials)
		return
	}

	result, err := h.auth.Login(r.Context(), req.Login, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			apierrors.Unauthorized(w, invalidCredentials)
			return
		}
		h.writeServiceError(w, r, err, "", "Ошибка входа в систему")
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt.UTC().Format(time.RFC3339),
		Name:      result.User.Name,
		Role:      result.User.Role,
	})
}

// Me — GET /api/v1/auth/me.
func (h *APIHandler) Me(w http.ResponseWriter, r *http.Request) {
	p := middleware.PrincipalFromContext(r.Context())
	if p == nil {
		apierrors.Unauthorized(w, middleware.ReasonAbsent.Message())
		return
	}
	writeJSON(w, http.StatusOK, meResponse{
		ID:    p.UserID,
		Name:  p.Name,
		Login: p.Login,
		Role:  p.Role,
	})
}
