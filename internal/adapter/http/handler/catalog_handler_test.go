package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/iho/gobank/internal/adapter/http/dto"
	"github.com/iho/gobank/internal/domain"
	"github.com/iho/gobank/internal/usecase"
)

type catalogServiceStub struct {
	createFn    func(ctx context.Context, input usecase.CreateTypeInput) (*domain.InstrumentType, error)
	addFn       func(ctx context.Context, kind domain.InstrumentKind, id string, o domain.Option) (*domain.InstrumentType, error)
	removeFn    func(ctx context.Context, kind domain.InstrumentKind, id string, o domain.Option) (*domain.InstrumentType, error)
	availableFn func(ctx context.Context, kind domain.InstrumentKind, id string, available bool) (*domain.InstrumentType, error)
	deleteFn    func(ctx context.Context, kind domain.InstrumentKind, id string) error
	getFn       func(ctx context.Context, kind domain.InstrumentKind, id string) (*domain.InstrumentType, error)
	listFn      func(ctx context.Context, kind domain.InstrumentKind, onlyAvailable bool) ([]*domain.InstrumentType, error)
}

func (s *catalogServiceStub) CreateType(ctx context.Context, input usecase.CreateTypeInput) (*domain.InstrumentType, error) {
	return s.createFn(ctx, input)
}

func (s *catalogServiceStub) AddOption(ctx context.Context, kind domain.InstrumentKind, id string, o domain.Option) (*domain.InstrumentType, error) {
	return s.addFn(ctx, kind, id, o)
}

func (s *catalogServiceStub) RemoveOption(ctx context.Context, kind domain.InstrumentKind, id string, o domain.Option) (*domain.InstrumentType, error) {
	return s.removeFn(ctx, kind, id, o)
}

func (s *catalogServiceStub) SetAvailability(ctx context.Context, kind domain.InstrumentKind, id string, available bool) (*domain.InstrumentType, error) {
	return s.availableFn(ctx, kind, id, available)
}

func (s *catalogServiceStub) DeleteType(ctx context.Context, kind domain.InstrumentKind, id string) error {
	return s.deleteFn(ctx, kind, id)
}

func (s *catalogServiceStub) GetType(ctx context.Context, kind domain.InstrumentKind, id string) (*domain.InstrumentType, error) {
	return s.getFn(ctx, kind, id)
}

func (s *catalogServiceStub) ListTypes(ctx context.Context, kind domain.InstrumentKind, onlyAvailable bool) ([]*domain.InstrumentType, error) {
	return s.listFn(ctx, kind, onlyAvailable)
}

func TestCatalogHandler_Create(t *testing.T) {
	var captured usecase.CreateTypeInput
	handler := NewCatalogHandler(&catalogServiceStub{
		createFn: func(ctx context.Context, input usecase.CreateTypeInput) (*domain.InstrumentType, error) {
			captured = input
			return &domain.InstrumentType{ID: "t-1", Kind: input.Kind, Name: input.Name, Options: input.Options, Available: input.Available}, nil
		},
	}, domain.InstrumentDeposit)

	rec := httptest.NewRecorder()
	handler.Create(rec, newRequest(http.MethodPost, "/api/v1/deposit-types",
		`{"name":"Savings","options":[{"duration":8,"percent":"0.8"}]}`, &admin))

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if captured.Kind != domain.InstrumentDeposit || !captured.Available || len(captured.Options) != 1 {
		t.Fatalf("unexpected input %+v", captured)
	}

	var resp dto.InstrumentTypeResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Kind != "DEPOSIT" || !resp.Options[0].Percent.Equal(decimal.RequireFromString("0.8")) {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestCatalogHandler_Errors(t *testing.T) {
	handler := NewCatalogHandler(&catalogServiceStub{
		createFn: func(ctx context.Context, input usecase.CreateTypeInput) (*domain.InstrumentType, error) {
			return nil, domain.ErrDuplicateTypeName
		},
		addFn: func(ctx context.Context, kind domain.InstrumentKind, id string, o domain.Option) (*domain.InstrumentType, error) {
			return nil, domain.ErrDuplicateOption
		},
		deleteFn: func(ctx context.Context, kind domain.InstrumentKind, id string) error {
			return domain.ErrTypeInUse
		},
		getFn: func(ctx context.Context, kind domain.InstrumentKind, id string) (*domain.InstrumentType, error) {
			return nil, kind.NotFoundError()
		},
	}, domain.InstrumentLoan)

	rec := httptest.NewRecorder()
	handler.Create(rec, newRequest(http.MethodPost, "/api/v1/loan-types", `{"name":"Car"}`, &admin))
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate name: expected 409, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.AddOption(rec, newRequest(http.MethodPost, "/api/v1/loan-types/t-1/options", `{"duration":4,"percent":"0.1"}`, &admin, "id", "t-1"))
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate option: expected 409, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.Delete(rec, newRequest(http.MethodDelete, "/api/v1/loan-types/t-1", nil, &admin, "id", "t-1"))
	if rec.Code != http.StatusConflict {
		t.Fatalf("type in use: expected 409, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.Get(rec, newRequest(http.MethodGet, "/api/v1/loan-types/nope", nil, &alice, "id", "nope"))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing type: expected 404, got %d", rec.Code)
	}
}

func TestCatalogHandler_ListHidesUnavailableFromUsers(t *testing.T) {
	var onlyAvailable []bool
	handler := NewCatalogHandler(&catalogServiceStub{
		listFn: func(ctx context.Context, kind domain.InstrumentKind, only bool) ([]*domain.InstrumentType, error) {
			onlyAvailable = append(onlyAvailable, only)
			return nil, nil
		},
	}, domain.InstrumentLoan)

	for _, p := range []domain.Principal{alice, admin} {
		rec := httptest.NewRecorder()
		handler.List(rec, newRequest(http.MethodGet, "/api/v1/loan-types?all=true", nil, &p))
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
	}

	if len(onlyAvailable) != 2 || !onlyAvailable[0] || onlyAvailable[1] {
		t.Fatalf("expected users filtered and admins unfiltered, got %v", onlyAvailable)
	}
}
