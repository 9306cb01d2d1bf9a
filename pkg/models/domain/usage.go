package domain

import (
	"strconv"
	"time"
)

type UsageType string

const (
	UsageTypeGear        UsageType = "gear_usage"
	UsageTypeAddtlFsGB   UsageType = "addtl_fs_gb"
	UsageTypePremiumCart UsageType = "premium_cart"
)

// UsageRecord is a single metered interval read from the record store.
// EndTime == nil means the record is still accruing.
type UsageRecord struct {
	UserID    string
	BeginTime time.Time
	EndTime   *time.Time
	UsageType UsageType
	GearSize  string
	AddtlFsGB int
	CartName  string
	GearID    string
	AppName   string
}

// Qualifier returns the category key a billing rate is looked up by:
// the gear size, the storage amount, or the cart name.
func (r UsageRecord) Qualifier() string {
	switch r.UsageType {
	case UsageTypeGear:
		return r.GearSize
	case UsageTypePremiumCart:
		return r.CartName
	case UsageTypeAddtlFsGB:
		return strconv.Itoa(r.AddtlFsGB)
	}
	return ""
}

type UserAccount struct {
	ID     string
	Login  string
	PlanID string
}

type BillingDuration string

const (
	DurationHour  BillingDuration = "hour"
	DurationDay   BillingDuration = "day"
	DurationMonth BillingDuration = "month"
)

// UsageRate is the price for one whole billing unit of a usage category.
type UsageRate struct {
	USD      float64
	Duration BillingDuration
}

// AccountFilter narrows the account lookup; empty fields match everything.
type AccountFilter struct {
	Login  string
	PlanID string
}

// RecordFilter narrows the usage-record lookup to a set of users, an
// optional app/gear, and a time window. Records overlapping the window
// are returned, including still-open ones.
type RecordFilter struct {
	UserIDs []string
	AppName string
	GearID  string
	Start   time.Time
	End     time.Time
}
