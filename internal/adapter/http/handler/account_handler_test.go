package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/iho/gobank/internal/adapter/http/dto"
	"github.com/iho/gobank/internal/domain"
	"github.com/iho/gobank/internal/usecase"
)

type accountServiceStub struct {
	createFn     func(ctx context.Context, input usecase.CreateAccountInput) (*domain.Account, error)
	getFn        func(ctx context.Context, number string) (*domain.Account, error)
	listFn       func(ctx context.Context, userID string) ([]*domain.Account, error)
	renameFn     func(ctx context.Context, number, name string) (*domain.Account, error)
	setDefaultFn func(ctx context.Context, number string) (*domain.Account, error)
	deleteFn     func(ctx context.Context, number string) error
}

func (s *accountServiceStub) CreateAccount(ctx context.Context, input usecase.CreateAccountInput) (*domain.Account, error) {
	return s.createFn(ctx, input)
}

func (s *accountServiceStub) GetAccount(ctx context.Context, number string) (*domain.Account, error) {
	return s.getFn(ctx, number)
}

func (s *accountServiceStub) ListAccounts(ctx context.Context, userID string) ([]*domain.Account, error) {
	return s.listFn(ctx, userID)
}

func (s *accountServiceStub) RenameAccount(ctx context.Context, number, name string) (*domain.Account, error) {
	return s.renameFn(ctx, number, name)
}

func (s *accountServiceStub) SetDefaultAccount(ctx context.Context, number string) (*domain.Account, error) {
	return s.setDefaultFn(ctx, number)
}

func (s *accountServiceStub) DeleteAccount(ctx context.Context, number string) error {
	return s.deleteFn(ctx, number)
}

func ownedBy(userID string) func(ctx context.Context, number string) (*domain.Account, error) {
	return func(ctx context.Context, number string) (*domain.Account, error) {
		return &domain.Account{ID: "acc-" + number, UserID: userID, Number: number, Currency: "AMD"}, nil
	}
}

func TestAccountHandler_Create_Success(t *testing.T) {
	var captured usecase.CreateAccountInput
	handler := NewAccountHandler(&accountServiceStub{
		createFn: func(ctx context.Context, input usecase.CreateAccountInput) (*domain.Account, error) {
			captured = input
			return &domain.Account{ID: "acc-1", UserID: input.UserID, Number: "1345436382311342", Name: input.Name, Currency: input.Currency, IsDefault: true}, nil
		},
	})

	req := newRequest(http.MethodPost, "/api/v1/accounts?userId=bob", dto.CreateAccountRequest{Name: "Main", Currency: "AMD"}, &alice)
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	if captured.UserID != "alice" || captured.Name != "Main" || captured.Currency != "AMD" {
		t.Fatalf("expected input for the caller, got %+v", captured)
	}

	var resp dto.AccountResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Number != "1345436382311342" || !resp.IsDefault {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestAccountHandler_Get_NotFound(t *testing.T) {
	handler := NewAccountHandler(&accountServiceStub{
		getFn: func(ctx context.Context, number string) (*domain.Account, error) {
			return nil, domain.ErrAccountNotFound
		},
	})

	rec := httptest.NewRecorder()
	handler.Get(rec, newRequest(http.MethodGet, "/api/v1/accounts/missing", nil, &alice, "number", "missing"))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestAccountHandler_MutationsRequireOwnership(t *testing.T) {
	handler := NewAccountHandler(&accountServiceStub{
		getFn: ownedBy("bob"),
		renameFn: func(ctx context.Context, number, name string) (*domain.Account, error) {
			t.Fatalf("rename must not run for a foreign account")
			return nil, nil
		},
		deleteFn: func(ctx context.Context, number string) error {
			t.Fatalf("delete must not run for a foreign account")
			return nil
		},
	})

	rec := httptest.NewRecorder()
	handler.Rename(rec, newRequest(http.MethodPatch, "/api/v1/accounts/1", `{"name":"mine now"}`, &alice, "number", "1"))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for rename, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.Delete(rec, newRequest(http.MethodDelete, "/api/v1/accounts/1", nil, &alice, "number", "1"))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for delete, got %d", rec.Code)
	}
}

func TestAccountHandler_SetDefaultAndDelete(t *testing.T) {
	var defaulted, deleted string
	handler := NewAccountHandler(&accountServiceStub{
		getFn: ownedBy("alice"),
		setDefaultFn: func(ctx context.Context, number string) (*domain.Account, error) {
			defaulted = number
			return &domain.Account{Number: number, UserID: "alice", IsDefault: true}, nil
		},
		deleteFn: func(ctx context.Context, number string) error {
			deleted = number
			return domain.ErrAccountInUse
		},
	})

	rec := httptest.NewRecorder()
	handler.SetDefault(rec, newRequest(http.MethodPut, "/api/v1/accounts/7/default", nil, &alice, "number", "7"))
	if rec.Code != http.StatusOK || defaulted != "7" {
		t.Fatalf("expected default to be set, got %d (%q)", rec.Code, defaulted)
	}

	rec = httptest.NewRecorder()
	handler.Delete(rec, newRequest(http.MethodDelete, "/api/v1/accounts/7", nil, &alice, "number", "7"))
	if rec.Code != http.StatusConflict || deleted != "7" {
		t.Fatalf("expected 409 for an account in use, got %d", rec.Code)
	}
}

func TestAccountHandler_List_AdminForOtherUser(t *testing.T) {
	var listed string
	handler := NewAccountHandler(&accountServiceStub{
		listFn: func(ctx context.Context, userID string) ([]*domain.Account, error) {
			listed = userID
			return []*domain.Account{{Number: "1", UserID: userID}}, nil
		},
	})

	rec := httptest.NewRecorder()
	handler.List(rec, newRequest(http.MethodGet, "/api/v1/accounts?userId=bob", nil, &admin))

	if rec.Code != http.StatusOK || listed != "bob" {
		t.Fatalf("expected admin listing for bob, got %d (%q)", rec.Code, listed)
	}

	var resp dto.ListAccountsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Total != 1 {
		t.Fatalf("unexpected total %d", resp.Total)
	}
}
