package model

import "time"

// LedgerSummary is a read-side fold of the transaction log over a window.
type LedgerSummary struct {
	PointsIssued    int64 `json:"points_issued"`
	PointsRedeemed  int64 `json:"points_redeemed"`
	RedemptionCount int64 `json:"redemption_count"`
	NewMembers      int64 `json:"new_members"`
}

// DailyReport holds the current and prior day summaries pushed to the
// messaging channel.
type DailyReport struct {
	MerchantID string        `json:"merchant_id"`
	StoreName  string        `json:"store_name"`
	Date       string        `json:"date"` // YYYY-MM-DD in report-local time
	Today      LedgerSummary `json:"today"`
	Yesterday  LedgerSummary `json:"yesterday"`
}

// ReportJob is the unit of work queued for the reporter.
type ReportJob struct {
	MerchantID string    `json:"merchant_id"`
	StoreName  string    `json:"store_name"`
	Date       string    `json:"date"` // YYYY-MM-DD in report-local time
	EnqueuedAt time.Time `json:"enqueued_at"`
}
