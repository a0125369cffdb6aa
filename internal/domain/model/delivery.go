package model

import "time"

type DeliveryChannel string

const (
	ChannelOnDemand DeliveryChannel = "on_demand"
	ChannelAlert    DeliveryChannel = "alert"
)

// LedgerEntry records that a listing was sent to a user. The (UserID,
// ListingID) pair is unique in the store; the ledger is the at-most-once
// guard for every delivery path.
type LedgerEntry struct {
	UserID      string
	ListingID   string
	Channel     DeliveryChannel
	DeliveredAt time.Time
}

// PendingAlert is a durable, not-yet-delivered notification obligation for a
// premium user. It survives restarts; successful dispatch converts it into a
// LedgerEntry.
type PendingAlert struct {
	UserID     string
	ListingID  string
	EnqueuedAt time.Time
}

// QuotaStatus classifies the outcome of an on-demand request. Every value is
// renderable by the front end; none of them is an error.
type QuotaStatus string

const (
	QuotaStatusOK                     QuotaStatus = "ok"
	QuotaStatusExhaustedQuota         QuotaStatus = "exhausted_quota"
	QuotaStatusExhaustedSupply        QuotaStatus = "exhausted_supply"
	QuotaStatusTemporarilyUnavailable QuotaStatus = "temporarily_unavailable"
)

// IngestionReport summarizes one Ingest call.
type IngestionReport struct {
	Inserted         int
	SkippedDuplicate int
	AlertsEnqueued   int
}

func (r IngestionReport) Total() int { return r.Inserted + r.SkippedDuplicate }
