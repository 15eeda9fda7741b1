package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/gobank/internal/adapter/http/dto"
	"github.com/iho/gobank/internal/domain"
	"github.com/iho/gobank/internal/usecase"
)

// CatalogService defines the behavior needed by CatalogHandler.
type CatalogService interface {
	CreateType(ctx context.Context, input usecase.CreateTypeInput) (*domain.InstrumentType, error)
	AddOption(ctx context.Context, kind domain.InstrumentKind, id string, option domain.Option) (*domain.InstrumentType, error)
	RemoveOption(ctx context.Context, kind domain.InstrumentKind, id string, option domain.Option) (*domain.InstrumentType, error)
	SetAvailability(ctx context.Context, kind domain.InstrumentKind, id string, available bool) (*domain.InstrumentType, error)
	DeleteType(ctx context.Context, kind domain.InstrumentKind, id string) error
	GetType(ctx context.Context, kind domain.InstrumentKind, id string) (*domain.InstrumentType, error)
	ListTypes(ctx context.Context, kind domain.InstrumentKind, onlyAvailable bool) ([]*domain.InstrumentType, error)
}

// CatalogHandler serves one catalog, loan types or deposit types. Mutations
// are mounted behind admin-only middleware.
type CatalogHandler struct {
	catalogUC CatalogService
	kind      domain.InstrumentKind
}

// NewCatalogHandler creates a CatalogHandler for kind.
func NewCatalogHandler(catalogUC CatalogService, kind domain.InstrumentKind) *CatalogHandler {
	return &CatalogHandler{catalogUC: catalogUC, kind: kind}
}

// Create adds a type to the catalog.
func (h *CatalogHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateTypeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	t, err := h.catalogUC.CreateType(r.Context(), req.ToUseCaseInput(h.kind))
	if err != nil {
		writeDomainError(w, r, "failed to create type", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.InstrumentTypeFromDomain(t))
}

// Get retrieves a type by ID.
func (h *CatalogHandler) Get(w http.ResponseWriter, r *http.Request) {
	t, err := h.catalogUC.GetType(r.Context(), h.kind, chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, "failed to get type", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.InstrumentTypeFromDomain(t))
}

// List lists the catalog. Non-admins only see available types; admins may pass
// ?all=true to include the rest.
func (h *CatalogHandler) List(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	onlyAvailable := !(p.IsAdmin() && r.URL.Query().Get("all") == "true")

	types, err := h.catalogUC.ListTypes(r.Context(), h.kind, onlyAvailable)
	if err != nil {
		writeDomainError(w, r, "failed to list types", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ListTypesResponse{
		Types: dto.InstrumentTypesFromDomain(types),
		Total: int64(len(types)),
	})
}

// AddOption adds a (duration, percent) option.
func (h *CatalogHandler) AddOption(w http.ResponseWriter, r *http.Request) {
	h.option(w, r, h.catalogUC.AddOption, "failed to add option")
}

// RemoveOption removes a (duration, percent) option.
func (h *CatalogHandler) RemoveOption(w http.ResponseWriter, r *http.Request) {
	h.option(w, r, h.catalogUC.RemoveOption, "failed to remove option")
}

func (h *CatalogHandler) option(
	w http.ResponseWriter,
	r *http.Request,
	apply func(context.Context, domain.InstrumentKind, string, domain.Option) (*domain.InstrumentType, error),
	message string,
) {
	var req dto.OptionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	t, err := apply(r.Context(), h.kind, chi.URLParam(r, "id"), req.ToDomain())
	if err != nil {
		writeDomainError(w, r, message, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.InstrumentTypeFromDomain(t))
}

// SetAvailability shows or hides a type.
func (h *CatalogHandler) SetAvailability(w http.ResponseWriter, r *http.Request) {
	var req dto.AvailabilityRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	t, err := h.catalogUC.SetAvailability(r.Context(), h.kind, chi.URLParam(r, "id"), req.Available)
	if err != nil {
		writeDomainError(w, r, "failed to update availability", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.InstrumentTypeFromDomain(t))
}

// Delete removes a type no active instrument references.
func (h *CatalogHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.catalogUC.DeleteType(r.Context(), h.kind, chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, r, "failed to delete type", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
