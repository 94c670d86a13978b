package handler

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/grupovitta/backoffice-api/internal/auth"
	"github.com/grupovitta/backoffice-api/internal/domain"
)

type AuthHandler struct {
	logger *zap.Logger
}

func NewAuthHandler(logger *zap.Logger) *AuthHandler {
	return &AuthHandler{logger: logger}
}

// AuthUserDTO is the /auth/me response shape
type AuthUserDTO struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Email       string   `json:"email"`
	Roles       []string `json:"roles"`
	Permissions []string `json:"permissions"`
}

// Me godoc
// @Summary Get current authenticated user
// @Description Returns the current authenticated user with roles and effective permissions
// @Tags Auth
// @Produce json
// @Success 200 {object} handler.AuthUserDTO
// @Failure 401 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /auth/me [get]
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userCtx, ok := auth.FromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	permissions := make([]string, 0, len(domain.AllPermissions))
	for _, perm := range domain.AllPermissions {
		if userCtx.HasPermission(perm) {
			permissions = append(permissions, string(perm))
		}
	}

	respondJSON(w, http.StatusOK, AuthUserDTO{
		ID:          userCtx.UserID.String(),
		Name:        userCtx.DisplayName,
		Email:       userCtx.Email,
		Roles:       userCtx.RolesAsStrings(),
		Permissions: permissions,
	})
}
