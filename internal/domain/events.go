package domain

import "time"

// Event types
const (
	EventTypeTransactionCreated = "transaction.created"
	EventTypeTransactionUpdated = "transaction.updated"
	EventTypeTransactionDeleted = "transaction.deleted"
)

// AggregateTypeTransaction is the aggregate all ledger events belong to.
const AggregateTypeTransaction = "transaction"

// OutboxEvent represents an event to be published
type OutboxEvent struct {
	ID            string
	OwnerID       string
	AggregateID   string
	AggregateType string
	EventType     string
	Payload       map[string]any
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Published     bool
}

// TransactionEvent payload
type TransactionEvent struct {
	TransactionID string   `json:"transaction_id"`
	Type          string   `json:"type"`
	Amount        string   `json:"amount"`
	AccountIDs    []string `json:"account_ids"`
	DebtID        string   `json:"debt_id,omitempty"`
	GoalID        string   `json:"goal_id,omitempty"`
	Orphaned      int      `json:"orphaned,omitempty"`
	EventAt       string   `json:"event_at"`
}

// NewTransactionEvent builds the payload describing tx.
func NewTransactionEvent(tx *Transaction, orphaned int, at time.Time) TransactionEvent {
	refs := tx.References()
	return TransactionEvent{
		TransactionID: tx.ID,
		Type:          string(tx.Type()),
		Amount:        tx.Amount.String(),
		AccountIDs:    refs.AccountIDs,
		DebtID:        refs.DebtID,
		GoalID:        refs.GoalID,
		Orphaned:      orphaned,
		EventAt:       at.Format(time.RFC3339),
	}
}

// Map flattens the payload for OutboxEvent.Payload.
func (e TransactionEvent) Map() map[string]any {
	m := map[string]any{
		"transaction_id": e.TransactionID,
		"type":           e.Type,
		"amount":         e.Amount,
		"account_ids":    e.AccountIDs,
		"event_at":       e.EventAt,
	}
	if e.DebtID != "" {
		m["debt_id"] = e.DebtID
	}
	if e.GoalID != "" {
		m["goal_id"] = e.GoalID
	}
	if e.Orphaned > 0 {
		m["orphaned"] = e.Orphaned
	}
	return m
}
