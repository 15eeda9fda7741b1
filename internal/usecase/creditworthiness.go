package usecase

import (
	"context"
	"log/slog"
)

// CreditworthinessGate decides loan eligibility from the user's current state.
type CreditworthinessGate struct {
	userRepo  UserRepository
	stateRepo CreditworthinessRepository
}

// NewCreditworthinessGate creates a new CreditworthinessGate.
func NewCreditworthinessGate(userRepo UserRepository, stateRepo CreditworthinessRepository) *CreditworthinessGate {
	return &CreditworthinessGate{
		userRepo:  userRepo,
		stateRepo: stateRepo,
	}
}

// CanGiveLoan reports whether userID may take a new loan. Unknown users, users
// without a state and lookup failures are all ineligible.
func (g *CreditworthinessGate) CanGiveLoan(ctx context.Context, userID string) bool {
	user, err := g.userRepo.GetByID(ctx, userID)
	if err != nil {
		slog.Warn("creditworthiness: user lookup failed", "user_id", userID, "error", err)
		return false
	}
	if !user.Active || user.CreditworthinessID == "" {
		return false
	}

	state, err := g.stateRepo.GetByID(ctx, user.CreditworthinessID)
	if err != nil {
		slog.Warn("creditworthiness: state lookup failed", "user_id", userID, "error", err)
		return false
	}

	return state.CanGetLoan
}
