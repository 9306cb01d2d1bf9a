// Package billing implements the rate/plan collaborator as a YAML
// catalog: plans -> usage type -> qualifier -> rate, plus optional
// free monthly allowances subtracted before aggregate totals.
package billing

import (
	"fmt"
	"sort"

	"github.com/de-tools/usage-atlas/pkg/models/domain"
	"github.com/de-tools/usage-atlas/pkg/services/usage"
	"github.com/spf13/viper"
)

type rateConfig struct {
	USD      float64 `mapstructure:"usd"`
	Duration string  `mapstructure:"duration"`
}

type planConfig struct {
	// Rates: usage type -> qualifier -> rate.
	Rates map[string]map[string]rateConfig `mapstructure:"rates"`
	// Discounts: usage type -> qualifier -> free hours per month.
	Discounts map[string]map[string]int64 `mapstructure:"discounts"`
}

type catalogConfig struct {
	Plans map[string]planConfig `mapstructure:"plans"`
}

type Catalog struct {
	plans map[string]planConfig
}

// LoadCatalog reads the rate catalog from a YAML file. A missing or
// malformed file is fatal; a catalog with zero plans is valid and
// puts the aggregate report into its single-group mode.
func LoadCatalog(path string) (*Catalog, error) {
	v := viper.New()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read rate catalog: %w", err)
	}

	var cfg catalogConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse rate catalog: %w", err)
	}

	for plan, pc := range cfg.Plans {
		for usageType, rates := range pc.Rates {
			for qualifier, rate := range rates {
				switch domain.BillingDuration(rate.Duration) {
				case domain.DurationHour, domain.DurationDay, domain.DurationMonth:
				default:
					return nil, fmt.Errorf("plan %q rate %s/%s: unknown duration %q",
						plan, usageType, qualifier, rate.Duration)
				}
			}
		}
	}

	return &Catalog{plans: cfg.Plans}, nil
}

func (c *Catalog) GetRate(planID string, usageType domain.UsageType, qualifier string) (domain.UsageRate, bool) {
	plan, ok := c.plans[planID]
	if !ok {
		return domain.UsageRate{}, false
	}
	rate, ok := plan.Rates[string(usageType)][qualifier]
	if !ok {
		return domain.UsageRate{}, false
	}
	return domain.UsageRate{USD: rate.USD, Duration: domain.BillingDuration(rate.Duration)}, true
}

func (c *Catalog) ListPlans() []string {
	plans := make([]string, 0, len(c.plans))
	for plan := range c.plans {
		plans = append(plans, plan)
	}
	sort.Strings(plans)
	return plans
}

// ValidatePlanID rejects plan ids absent from the catalog. An empty
// id means "no plan filter" and always passes.
func (c *Catalog) ValidatePlanID(planID string) error {
	if planID == "" {
		return nil
	}
	if _, ok := c.plans[planID]; !ok {
		return usage.NewExitError(usage.ExitInvalidPlanID, fmt.Sprintf("invalid plan id %q", planID))
	}
	return nil
}

// ApplyDiscounts subtracts each plan's free monthly allowances from
// the per-user accumulators, flooring every bucket at zero. Storage
// allowances are applied once per invocation, not per month, since
// the storage total is not month-bucketed.
func (c *Catalog) ApplyDiscounts(planID string, accs map[string]*usage.Accumulator) {
	plan, ok := c.plans[planID]
	if !ok || len(plan.Discounts) == 0 {
		return
	}

	for _, acc := range accs {
		for qualifier, freeHours := range plan.Discounts[string(domain.UsageTypeGear)] {
			discountBuckets(acc.GearSeconds[qualifier], freeHours*3600)
		}
		for qualifier, freeHours := range plan.Discounts[string(domain.UsageTypePremiumCart)] {
			discountBuckets(acc.CartSeconds[qualifier], freeHours*3600)
		}
		for _, freeHours := range plan.Discounts[string(domain.UsageTypeAddtlFsGB)] {
			acc.StorageGBSeconds -= freeHours * 3600
			if acc.StorageGBSeconds < 0 {
				acc.StorageGBSeconds = 0
			}
		}
	}
}

func discountBuckets(buckets usage.MonthlySeconds, freeSeconds int64) {
	for _, months := range buckets {
		for month, secs := range months {
			secs -= freeSeconds
			if secs < 0 {
				secs = 0
			}
			months[month] = secs
		}
	}
}
