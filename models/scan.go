package models

import "time"

// ScanStatus is the lifecycle state of one coordinated scan. There is no
// transition out of Completed or Error.
type ScanStatus string

const (
	ScanInitializing ScanStatus = "INITIALIZING"
	ScanRunning      ScanStatus = "RUNNING"
	ScanCompleted    ScanStatus = "COMPLETED"
	ScanError        ScanStatus = "ERROR"
)

// ScanRecord is the bookkeeping for one coordinated scan request. Progress
// only ever moves forward and ends at 100 in both terminal states.
type ScanRecord struct {
	Key       string         `json:"key"`
	Status    ScanStatus     `json:"status"`
	Progress  int            `json:"progress"`
	Results   []*Opportunity `json:"results"`
	CreatedAt time.Time      `json:"createdAt"`
	ExpiresAt time.Time      `json:"expiresAt"`
}
