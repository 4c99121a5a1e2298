package events

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/meridian-crm/meridian-crm/internal/platform/httpx"
	"github.com/meridian-crm/meridian-crm/internal/shared"
)

// Handler exposes event endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers event routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/events", func(r chi.Router) {
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Get("/{id}", h.get)
		r.Patch("/{id}", h.update)
		r.Post("/{id}/support-contact", h.assignSupport)
	})
}

type createEventRequest struct {
	ContractID int64      `json:"contract_id" validate:"required,gt=0"`
	EventDate  *time.Time `json:"event_date"`
	Location   string     `json:"location" validate:"max=255"`
	Attendees  int        `json:"attendees" validate:"gte=0"`
	Notes      string     `json:"notes"`
}

type updateEventRequest struct {
	EventDate *time.Time `json:"event_date"`
	Location  *string    `json:"location" validate:"omitempty,max=255"`
	Attendees *int       `json:"attendees" validate:"omitempty,gte=0"`
	Notes     *string    `json:"notes"`
}

type assignSupportRequest struct {
	UserID int64 `json:"user_id" validate:"required,gt=0"`
}

type eventResponse struct {
	ID               int64      `json:"id"`
	ContractID       int64      `json:"contract_id"`
	SupportContactID *int64     `json:"support_contact_id,omitempty"`
	EventDate        *time.Time `json:"event_date,omitempty"`
	Location         string     `json:"location"`
	Attendees        int        `json:"attendees"`
	Notes            string     `json:"notes"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

type eventListResponse struct {
	Items      []eventResponse   `json:"items"`
	Pagination shared.Pagination `json:"pagination"`
}

func toResponse(e *Event) eventResponse {
	return eventResponse{
		ID:               e.ID,
		ContractID:       e.ContractID,
		SupportContactID: e.SupportContactID,
		EventDate:        e.EventDate,
		Location:         e.Location,
		Attendees:        e.Attendees,
		Notes:            e.Notes,
		CreatedAt:        e.CreatedAt,
		UpdatedAt:        e.UpdatedAt,
	}
}

func respondEventError(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrContractNotSigned) {
		httpx.Problem(w, http.StatusConflict, "Contract Not Signed", "events can only be attached to signed contracts")
		return
	}
	httpx.RespondError(w, err)
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
	out := eventListResponse{Items: make([]eventResponse, 0, len(items)), Pagination: pagination}
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
	event, err := h.service.Get(r.Context(), principal, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(event))
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	principal := shared.PrincipalFromContext(r.Context())
	var req createEventRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", "request body must be valid JSON")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	event, err := h.service.Create(r.Context(), principal, CreateInput{
		ContractID: req.ContractID,
		EventDate:  req.EventDate,
		Location:   req.Location,
		Attendees:  req.Attendees,
		Notes:      req.Notes,
	})
	if err != nil {
		respondEventError(w, err)
		return
	}
	h.logger.Info("event created", slog.Int64("id", event.ID), slog.Int64("contract", event.ContractID), slog.Int64("by", principal.ID))
	httpx.JSON(w, http.StatusCreated, toResponse(event))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	principal := shared.PrincipalFromContext(r.Context())
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", "id must be an integer")
		return
	}
	var req updateEventRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", "request body must be valid JSON")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	event, err := h.service.Update(r.Context(), principal, id, UpdateInput{
		EventDate: req.EventDate,
		Location:  req.Location,
		Attendees: req.Attendees,
		Notes:     req.Notes,
	})
	if err != nil {
		respondEventError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(event))
}

func (h *Handler) assignSupport(w http.ResponseWriter, r *http.Request) {
	principal := shared.PrincipalFromContext(r.Context())
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", "id must be an integer")
		return
	}
	var req assignSupportRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", "request body must be valid JSON")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	event, err := h.service.AssignSupport(r.Context(), principal, id, req.UserID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.logger.Info("event support assigned", slog.Int64("event", id), slog.Int64("user", req.UserID), slog.Int64("by", principal.ID))
	httpx.JSON(w, http.StatusOK, toResponse(event))
}
