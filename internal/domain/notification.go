package domain

import "time"

// Notification types
const (
	NotificationTransactionCreated = "transaction.created"
	NotificationLoanIssued         = "loan.issued"
	NotificationLoanPaid           = "loan.paid"
	NotificationLoanClosed         = "loan.closed"
	NotificationDepositOpened      = "deposit.opened"
	NotificationDepositToppedUp    = "deposit.topped_up"
	NotificationDepositClosed      = "deposit.closed"
)

// Notification is emitted after a mutation commits. Delivery is best effort.
type Notification struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	UserID    string         `json:"user_id"`
	Payload   map[string]any `json:"payload"`
	CreatedAt time.Time      `json:"created_at"`
}

// TransactionNotification describes a committed transfer.
func TransactionNotification(id, userID string, tx *Transaction) *Notification {
	return &Notification{
		ID:     id,
		Type:   NotificationTransactionCreated,
		UserID: userID,
		Payload: map[string]any{
			"transaction_id": tx.ID,
			"from":           tx.From.Number,
			"to":             tx.To.Number,
			"amount":         tx.Amount.String(),
			"currency":       tx.Currency,
			"description":    tx.Description,
		},
		CreatedAt: tx.CreatedAt,
	}
}

// LoanNotification describes a loan state change.
func LoanNotification(id, kind string, loan *Loan, now time.Time) *Notification {
	return &Notification{
		ID:     id,
		Type:   kind,
		UserID: loan.UserID,
		Payload: map[string]any{
			"loan_id":       loan.ID,
			"loan_name":     loan.LoanName,
			"amount":        loan.Amount.String(),
			"stayed_amount": loan.StayedAmount.String(),
			"status":        string(loan.Status),
		},
		CreatedAt: now,
	}
}

// DepositNotification describes a deposit state change.
func DepositNotification(id, kind string, deposit *Deposit, now time.Time) *Notification {
	return &Notification{
		ID:     id,
		Type:   kind,
		UserID: deposit.UserID,
		Payload: map[string]any{
			"deposit_id":   deposit.ID,
			"deposit_name": deposit.DepositName,
			"amount":       deposit.Amount.String(),
			"status":       string(deposit.Status),
		},
		CreatedAt: now,
	}
}
