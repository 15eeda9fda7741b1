package dto

import (
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/gobank/internal/domain"
	"github.com/iho/gobank/internal/usecase"
)

func TestCreateAccountRequest_ToUseCaseInput(t *testing.T) {
	req := &CreateAccountRequest{Name: "Main", Currency: "USD", Type: "saving"}

	got := req.ToUseCaseInput("user-1")
	want := usecase.CreateAccountInput{
		UserID:   "user-1",
		Name:     "Main",
		Currency: "USD",
		Type:     domain.AccountTypeSaving,
	}

	if got != want {
		t.Fatalf("ToUseCaseInput() = %+v, want %+v", got, want)
	}
}

func TestIssueCardRequest_ToUseCaseInput(t *testing.T) {
	req := &IssueCardRequest{Type: "visa", Currency: "AMD", HolderName: "ANNA P", AccountNumber: "1345436382311342"}

	got := req.ToUseCaseInput("user-1")
	want := usecase.IssueCardInput{
		UserID:        "user-1",
		Type:          domain.CardTypeVisa,
		Currency:      "AMD",
		HolderName:    "ANNA P",
		AccountNumber: "1345436382311342",
	}

	if got != want {
		t.Fatalf("ToUseCaseInput() = %+v, want %+v", got, want)
	}
}

func TestCreateTransferRequest_ToUseCaseInput(t *testing.T) {
	tests := []struct {
		name    string
		request *CreateTransferRequest
		want    usecase.CreateTransferInput
		wantErr error
	}{
		{
			name: "typed destination",
			request: &CreateTransferRequest{
				From:        " 1345436382311342 ",
				To:          "+37491000000",
				Type:        "phone",
				Amount:      decimal.RequireFromString("12.34"),
				Description: "rent",
			},
			want: usecase.CreateTransferInput{
				From:        "1345436382311342",
				To:          "+37491000000",
				Type:        domain.TokenPhone,
				Amount:      decimal.RequireFromString("12.34"),
				Description: "rent",
			},
		},
		{
			name: "inferred types",
			request: &CreateTransferRequest{
				From:   "4000123412341234",
				To:     "1345436382311342",
				Amount: decimal.NewFromInt(5),
			},
			want: usecase.CreateTransferInput{
				From:   "4000123412341234",
				To:     "1345436382311342",
				Amount: decimal.NewFromInt(5),
			},
		},
		{
			name:    "unknown destination type",
			request: &CreateTransferRequest{From: "a", To: "b", Type: "iban", Amount: decimal.NewFromInt(1)},
			wantErr: domain.ErrInvalidEndpointKind,
		},
		{
			name:    "unknown source type",
			request: &CreateTransferRequest{From: "a", FromType: "wallet", To: "b", Amount: decimal.NewFromInt(1)},
			wantErr: domain.ErrInvalidEndpointKind,
		},
		{
			name:    "fraction of a cent",
			request: &CreateTransferRequest{From: "a", To: "b", Amount: decimal.RequireFromString("0.995")},
			wantErr: domain.ErrInvalidAmount,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.request.ToUseCaseInput()
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !transferInputEqual(got, tt.want) {
				t.Fatalf("ToUseCaseInput() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestCreateTypeRequest_ToUseCaseInput(t *testing.T) {
	req := &CreateTypeRequest{
		Name:    "Standard",
		Options: []OptionRequest{{Duration: 8, Percent: decimal.RequireFromString("0.8")}},
	}

	got := req.ToUseCaseInput(domain.InstrumentDeposit)
	if got.Kind != domain.InstrumentDeposit || got.Name != "Standard" || !got.Available {
		t.Fatalf("unexpected input %+v", got)
	}
	if len(got.Options) != 1 || got.Options[0].Duration != 8 || !got.Options[0].Percent.Equal(decimal.RequireFromString("0.8")) {
		t.Fatalf("unexpected options %+v", got.Options)
	}

	unavailable := false
	req.Available = &unavailable
	if req.ToUseCaseInput(domain.InstrumentLoan).Available {
		t.Fatalf("expected explicit availability to be kept")
	}
}

func TestInstrumentRequestsEndpoints(t *testing.T) {
	loan := &CreateLoanRequest{To: " 1345436382311342 ", Type: "account"}
	ref, err := loan.Destination()
	if err != nil || ref.Number != "1345436382311342" || ref.Type != domain.TokenAccount {
		t.Fatalf("Destination() = %+v, %v", ref, err)
	}

	deposit := &CreateDepositRequest{From: "4000123412341234", Type: "bogus"}
	if _, err := deposit.Source(); !errors.Is(err, domain.ErrInvalidEndpointKind) {
		t.Fatalf("expected invalid type error, got %v", err)
	}

	update := &InstrumentUpdateRequest{From: "4000123412341234"}
	ref, err = update.Source()
	if err != nil || ref.Type != "" {
		t.Fatalf("Source() = %+v, %v", ref, err)
	}
}

func TestParseUpdateType(t *testing.T) {
	for _, s := range []string{UpdateAddAmount, UpdateTakeAll} {
		if got, err := ParseUpdateType(s); err != nil || got != s {
			t.Fatalf("ParseUpdateType(%q) = %q, %v", s, got, err)
		}
	}

	if _, err := ParseUpdateType("close"); !errors.Is(err, ErrInvalidQuery) {
		t.Fatalf("expected ErrInvalidQuery, got %v", err)
	}
}

func TestParseTransactionFilter(t *testing.T) {
	q := url.Values{}
	q.Set("accountNumber", "1345436382311342")
	q.Set("dateFrom", "2026-03-01")
	q.Set("dateTo", "2026-03-31")
	q.Set("amountMin", "10")
	q.Set("amountMax", "250.50")
	q.Set("isCredit", "true")
	q.Set("isDone", "false")
	q.Set("description", "rent")
	q.Set("page", "2")
	q.Set("size", "20")

	f, err := ParseTransactionFilter(q)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if f.AccountNumber != "1345436382311342" || f.DescriptionContains != "rent" {
		t.Fatalf("unexpected filter %+v", f)
	}
	if !f.DateFrom.Equal(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected dateFrom %v", f.DateFrom)
	}
	if !f.DateTo.Equal(time.Date(2026, 3, 31, 23, 59, 59, 999999999, time.UTC)) {
		t.Fatalf("dateTo should cover the whole day, got %v", f.DateTo)
	}
	if !f.AmountMin.Equal(decimal.NewFromInt(10)) || f.AmountMax == nil || !f.AmountMax.Equal(decimal.RequireFromString("250.5")) {
		t.Fatalf("unexpected amount range %v..%v", f.AmountMin, f.AmountMax)
	}
	if f.IsCredit == nil || !*f.IsCredit || f.IsDone == nil || *f.IsDone {
		t.Fatalf("unexpected flags credit=%v done=%v", f.IsCredit, f.IsDone)
	}
	if f.Page != 2 || f.Size != 20 {
		t.Fatalf("unexpected paging %d/%d", f.Page, f.Size)
	}
}

func TestParseTransactionFilterDefaults(t *testing.T) {
	f, err := ParseTransactionFilter(url.Values{"userId": {"user-1"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if f.Size != domain.DefaultPageSize || f.DateFrom != nil || f.AmountMax != nil || f.IsCredit != nil {
		t.Fatalf("unexpected defaults %+v", f)
	}

	ts, err := ParseTransactionFilter(url.Values{"cardNumber": {"4000123412341234"}, "dateFrom": {"2026-03-01T10:00:00Z"}})
	if err != nil || !ts.DateFrom.Equal(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected RFC 3339 dateFrom, got %v (%v)", ts.DateFrom, err)
	}
}

func TestParseTransactionFilterErrors(t *testing.T) {
	for _, q := range []url.Values{
		{"dateFrom": {"yesterday"}},
		{"dateTo": {"2026-13-01"}},
		{"amountMin": {"ten"}},
		{"amountMax": {"1,5"}},
		{"isCredit": {"maybe"}},
		{"isDone": {"2"}},
		{"page": {"first"}},
		{"size": {"1.5"}},
	} {
		if _, err := ParseTransactionFilter(q); !errors.Is(err, ErrInvalidQuery) {
			t.Fatalf("ParseTransactionFilter(%v) expected ErrInvalidQuery, got %v", q, err)
		}
	}
}

func transferInputEqual(a, b usecase.CreateTransferInput) bool {
	return a.From == b.From &&
		a.FromType == b.FromType &&
		a.To == b.To &&
		a.Type == b.Type &&
		a.Amount.Equal(b.Amount) &&
		a.Description == b.Description
}
