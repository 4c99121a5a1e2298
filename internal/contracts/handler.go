package contracts

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/meridian-crm/meridian-crm/internal/platform/httpx"
	"github.com/meridian-crm/meridian-crm/internal/shared"
)

// Handler exposes contract endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers contract routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/contracts", func(r chi.Router) {
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Get("/{id}", h.get)
		r.Patch("/{id}", h.update)
		r.Post("/{id}/sign", h.sign)
	})
}

type createContractRequest struct {
	ClientID    int64   `json:"client_id" validate:"required,gt=0"`
	TotalAmount float64 `json:"total_amount" validate:"required,gte=0"`
	AmountDue   float64 `json:"amount_due" validate:"gte=0"`
}

type updateContractRequest struct {
	TotalAmount *float64 `json:"total_amount" validate:"omitempty,gte=0"`
	AmountDue   *float64 `json:"amount_due" validate:"omitempty,gte=0"`
}

type contractResponse struct {
	ID             int64      `json:"id"`
	ClientID       int64      `json:"client_id"`
	SalesContactID *int64     `json:"sales_contact_id,omitempty"`
	TotalAmount    float64    `json:"total_amount"`
	AmountDue      float64    `json:"amount_due"`
	Status         string     `json:"status"`
	SignedAt       *time.Time `json:"signed_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

type contractListResponse struct {
	Items      []contractResponse `json:"items"`
	Pagination shared.Pagination  `json:"pagination"`
}

func toResponse(c *Contract) contractResponse {
	return contractResponse{
		ID:             c.ID,
		ClientID:       c.ClientID,
		SalesContactID: c.SalesContactID,
		TotalAmount:    c.TotalAmount,
		AmountDue:      c.AmountDue,
		Status:         c.Status,
		SignedAt:       c.SignedAt,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	principal := shared.PrincipalFromContext(r.Context())
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	items, pagination, err := h.service.List(r.Context(), principal, page, perPage)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	out := contractListResponse{Items: make([]contractResponse, 0, len(items)), Pagination: pagination}
	for i := range items {
		out.Items = append(out.Items, toResponse(&items[i]))
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	principal := shared.PrincipalFromContext(r.Context())
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", "id must be an integer")
		return
	}
	contract, err := h.service.Get(r.Context(), principal, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(contract))
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	principal := shared.PrincipalFromContext(r.Context())
	var req createContractRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", "request body must be valid JSON")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	contract, err := h.service.Create(r.Context(), principal, CreateInput{
		ClientID:    req.ClientID,
		TotalAmount: req.TotalAmount,
		AmountDue:   req.AmountDue,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.logger.Info("contract created", slog.Int64("id", contract.ID), slog.Int64("by", principal.ID))
	httpx.JSON(w, http.StatusCreated, toResponse(contract))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	principal := shared.PrincipalFromContext(r.Context())
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", "id must be an integer")
		return
	}
	var req updateContractRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", "request body must be valid JSON")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	contract, err := h.service.Update(r.Context(), principal, id, UpdateInput{
		TotalAmount: req.TotalAmount,
		AmountDue:   req.AmountDue,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(contract))
}

func (h *Handler) sign(w http.ResponseWriter, r *http.Request) {
	principal := shared.PrincipalFromContext(r.Context())
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", "id must be an integer")
		return
	}
	contract, err := h.service.Sign(r.Context(), principal, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.logger.Info("contract signed", slog.Int64("id", contract.ID), slog.Int64("by", principal.ID))
	httpx.JSON(w, http.StatusOK, toResponse(contract))
}
