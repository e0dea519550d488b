package entity

import "github.com/shopspring/decimal"

// UpsertOutcome is what a catalog upsert did to a row.
type UpsertOutcome string

const (
	UpsertCreated   UpsertOutcome = "created"
	UpsertUpdated   UpsertOutcome = "updated"
	UpsertUnchanged UpsertOutcome = "unchanged"
)

const maxSyncDetails = 100

// SyncReport summarises one catalog sync run.
type SyncReport struct {
	Success         bool     `json:"success"`
	Partial         bool     `json:"partial"`
	PricesApplied   bool     `json:"prices_applied"`
	Pages           int      `json:"pages"`
	Created         int      `json:"created"`
	Updated         int      `json:"updated"`
	Unchanged       int      `json:"unchanged"`
	PricesUnchanged int      `json:"prices_unchanged"`
	Invalid         int      `json:"invalid"`
	Failed          int      `json:"failed"`
	Error           string   `json:"error,omitempty"`
	Details         []string `json:"details,omitempty"`
}

// AddDetail appends a message until the report holds maxSyncDetails.
func (r *SyncReport) AddDetail(msg string) {
	if len(r.Details) < maxSyncDetails {
		r.Details = append(r.Details, msg)
	}
}

// PushResult is the outcome of pushing one product's price.
type PushResult struct {
	ProductID uint            `json:"product_id"`
	RemoteID  string          `json:"remote_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Status    string          `json:"status"` // updated, failed, skipped
	Error     string          `json:"error,omitempty"`
}

const (
	PushUpdated = "updated"
	PushFailed  = "failed"
	PushSkipped = "skipped"
)

type PushReport struct {
	Updated int          `json:"updated"`
	Failed  int          `json:"failed"`
	Skipped int          `json:"skipped"`
	Details []PushResult `json:"details"`
}

// Add appends a result and bumps the matching counter.
func (r *PushReport) Add(res PushResult) {
	switch res.Status {
	case PushUpdated:
		r.Updated++
	case PushSkipped:
		r.Skipped++
	default:
		r.Failed++
	}
	r.Details = append(r.Details, res)
}

// ProcessReport is returned by invoice processing.
type ProcessReport struct {
	InvoiceID uint         `json:"invoice_id"`
	Number    string       `json:"number"`
	Synced    bool         `json:"synced"`
	Updated   int          `json:"updated"`
	Failed    int          `json:"failed"`
	Skipped   int          `json:"skipped"`
	Details   []PushResult `json:"details"`
}

// RecomputeResult is the outcome of recomputing one product's sale price.
type RecomputeResult struct {
	ProductID uint            `json:"product_id"`
	Name      string          `json:"name"`
	SalePrice decimal.Decimal `json:"sale_price"`
	Error     string          `json:"error,omitempty"`
}

type RecomputeReport struct {
	Updated int               `json:"updated"`
	Skipped int               `json:"skipped"` // no purchase cost
	Failed  int               `json:"failed"`
	Results []RecomputeResult `json:"results"`
}

// Webhook delivery outcomes.
const (
	DeliveryProcessed = "processed"
	DeliveryIgnored   = "ignored"
	DeliveryDuplicate = "duplicate"
	DeliveryRejected  = "rejected"
	DeliveryInvalid   = "invalid"
	DeliveryFailed    = "failed"
)

// DeliveryResult is what the receiver did with one inbound delivery.
type DeliveryResult struct {
	Type      string   `json:"type"`
	Outcome   string   `json:"outcome"`
	Updated   int      `json:"updated"`
	Skipped   int      `json:"skipped,omitempty"`   // levels of stores not mirrored
	Unmatched []string `json:"unmatched,omitempty"` // variant ids with no local product
}
