package rbac

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/meridian-crm/meridian-crm/internal/platform/httpx"
	"github.com/meridian-crm/meridian-crm/internal/shared"
)

// Handler exposes catalog administration endpoints. Every route is gated by
// rbac.manage through the Guard, never by role-name comparisons.
type Handler struct {
	logger    *slog.Logger
	catalog   *Catalog
	guard     *Guard
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, catalog *Catalog, guard *Guard) *Handler {
	return &Handler{
		logger:    logger,
		catalog:   catalog,
		guard:     guard,
		validator: validator.New(),
	}
}

// MountRoutes registers catalog routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/rbac", func(r chi.Router) {
		r.Get("/roles", h.listRoles)
		r.Get("/permissions", h.listPermissions)
		r.Get("/roles/{role}/permissions", h.rolePermissions)
		r.Post("/roles/{role}/permissions", h.grant)
		r.Delete("/roles/{role}/permissions/{code}", h.revoke)
	})
}

type roleResponse struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Permissions []string `json:"permissions,omitempty"`
}

type permissionResponse struct {
	ID          int64  `json:"id"`
	Code        string `json:"code"`
	Description string `json:"description"`
}

type grantRequest struct {
	Code string `json:"code" validate:"required"`
}

func (h *Handler) listRoles(w http.ResponseWriter, r *http.Request) {
	principal := shared.PrincipalFromContext(r.Context())
	if err := h.guard.Require(principal, PermRBACManage); err != nil {
		httpx.RespondError(w, err)
		return
	}
	roles, err := h.catalog.ListRoles(r.Context())
	if err != nil {
		h.logger.Error("list roles", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	out := make([]roleResponse, 0, len(roles))
	for _, role := range roles {
		out = append(out, roleResponse{ID: role.ID, Name: role.Name, Description: role.Description})
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) listPermissions(w http.ResponseWriter, r *http.Request) {
	principal := shared.PrincipalFromContext(r.Context())
	if err := h.guard.Require(principal, PermRBACManage); err != nil {
		httpx.RespondError(w, err)
		return
	}
	perms, err := h.catalog.ListPermissions(r.Context())
	if err != nil {
		h.logger.Error("list permissions", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	out := make([]permissionResponse, 0, len(perms))
	for _, perm := range perms {
		out = append(out, permissionResponse{ID: perm.ID, Code: perm.Code, Description: perm.Description})
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) rolePermissions(w http.ResponseWriter, r *http.Request) {
	principal := shared.PrincipalFromContext(r.Context())
	if err := h.guard.Require(principal, PermRBACManage); err != nil {
		httpx.RespondError(w, err)
		return
	}
	roleName := chi.URLParam(r, "role")
	role, err := h.catalog.FindRole(r.Context(), roleName)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	codes, err := h.catalog.PermissionsOf(r.Context(), role.Name)
	if err != nil {
		h.logger.Error("role permissions", slog.String("role", role.Name), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, roleResponse{ID: role.ID, Name: role.Name, Description: role.Description, Permissions: codes})
}

func (h *Handler) grant(w http.ResponseWriter, r *http.Request) {
	principal := shared.PrincipalFromContext(r.Context())
	if err := h.guard.Require(principal, PermRBACManage); err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req grantRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", "request body must be valid JSON")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	if err := h.catalog.Grant(r.Context(), chi.URLParam(r, "role"), req.Code); err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.logger.Info("permission granted",
		slog.String("role", chi.URLParam(r, "role")),
		slog.String("code", req.Code),
		slog.Int64("by", principal.ID))
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) revoke(w http.ResponseWriter, r *http.Request) {
	principal := shared.PrincipalFromContext(r.Context())
	if err := h.guard.Require(principal, PermRBACManage); err != nil {
		httpx.RespondError(w, err)
		return
	}
	roleName := chi.URLParam(r, "role")
	code := chi.URLParam(r, "code")
	if err := h.catalog.Revoke(r.Context(), roleName, code); err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.logger.Info("permission revoked",
		slog.String("role", roleName),
		slog.String("code", code),
		slog.Int64("by", principal.ID))
	w.WriteHeader(http.StatusNoContent)
}
