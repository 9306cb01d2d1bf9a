package store

import "time"

type UserAccount struct {
	ID     string
	Login  string
	PlanID string
}

// UsageRecord mirrors one row of the usage_records table. EndTime is
// NULL in the store while the gear or cartridge is still running.
type UsageRecord struct {
	ID        string
	UserID    string
	UsageType string
	GearSize  string
	AddtlFsGB int
	CartName  string
	GearID    string
	AppName   string
	BeginTime time.Time
	EndTime   *time.Time
}

type UsageStats struct {
	RecordsCount    int64
	FirstRecordTime *time.Time
}
