package auth

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/meridian-crm/meridian-crm/internal/platform/httpx"
	"github.com/meridian-crm/meridian-crm/internal/shared"
)

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// HandleLogin authenticates credentials and returns a session token.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", "request body must be valid JSON")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		// Same body as a credential mismatch so a missing field does not
		// reveal anything about account existence either.
		httpx.RespondError(w, shared.ErrInvalidCredentials)
		return
	}

	token, err := h.service.Login(r.Context(), req.Email, req.Password, r.RemoteAddr, r.UserAgent())
	if err != nil {
		h.logger.Warn("login failed", slog.String("remote", r.RemoteAddr))
		httpx.RespondError(w, err)
		return
	}
	h.logger.Info("login", slog.String("email", req.Email))
	httpx.JSON(w, http.StatusOK, loginResponse{Token: token.Raw, ExpiresAt: token.ExpiresAt})
}

// HandleLogout denylists the presented token.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	raw, ok := extractBearerToken(r)
	if !ok {
		httpx.RespondError(w, shared.ErrTokenInvalid)
		return
	}
	if err := h.service.Logout(r.Context(), raw); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
