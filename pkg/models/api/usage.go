package api

import "time"

type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

type Cost struct {
	USD      float64 `json:"usd"`
	RateUSD  float64 `json:"rate_usd"`
	Duration string  `json:"duration"`
	Units    int64   `json:"units"`
}

type UsageLine struct {
	UsageType string     `json:"usage_type"`
	Qualifier string     `json:"qualifier"`
	GearID    string     `json:"gear_id,omitempty"`
	AppName   string     `json:"app_name,omitempty"`
	BeginTime time.Time  `json:"begin_time"`
	EndTime   *time.Time `json:"end_time,omitempty"`
	Duration  string     `json:"duration"`
	Cost      *Cost      `json:"cost,omitempty"`
}

type UserUsageReport struct {
	Login  string      `json:"login"`
	PlanID string      `json:"plan_id,omitempty"`
	Window Window      `json:"window"`
	Lines  []UsageLine `json:"lines"`
}

type PlanUsageSummary struct {
	PlanID         string           `json:"plan_id,omitempty"`
	Users          int              `json:"users"`
	GearHours      map[string]int64 `json:"gear_hours"`
	CartHours      map[string]int64 `json:"cart_hours"`
	StorageGBHours int64            `json:"storage_gb_hours"`
	CostUSD        float64          `json:"cost_usd"`
}

type UsageSummary struct {
	Window       Window             `json:"window"`
	MonthAligned bool               `json:"month_aligned"`
	Plans        []PlanUsageSummary `json:"plans"`
}
