package domain

// BestCreditworthinessOrder is the rank of the most trusted state.
const BestCreditworthinessOrder = -1

// Creditworthiness is a ranked eligibility state assigned to a user.
type Creditworthiness struct {
	ID string
	// Order ranks states; lower is better.
	Order int
	// UnblockDuration is the number of periods before the state recovers.
	UnblockDuration int
	Name            string
	CanGetLoan      bool
}
