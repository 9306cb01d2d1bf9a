package adapters

import (
	"github.com/de-tools/usage-atlas/pkg/models/api"
	"github.com/de-tools/usage-atlas/pkg/models/domain"
	"github.com/de-tools/usage-atlas/pkg/models/store"
	"github.com/de-tools/usage-atlas/pkg/services/usage/format"
)

func MapStoreAccountToDomain(acc store.UserAccount) domain.UserAccount {
	return domain.UserAccount{
		ID:     acc.ID,
		Login:  acc.Login,
		PlanID: acc.PlanID,
	}
}

func MapStoreUsageRecordToDomain(rec store.UsageRecord) domain.UsageRecord {
	return domain.UsageRecord{
		UserID:    rec.UserID,
		BeginTime: rec.BeginTime,
		EndTime:   rec.EndTime,
		UsageType: domain.UsageType(rec.UsageType),
		GearSize:  rec.GearSize,
		AddtlFsGB: rec.AddtlFsGB,
		CartName:  rec.CartName,
		GearID:    rec.GearID,
		AppName:   rec.AppName,
	}
}

func MapUserReportDomainToApi(report domain.UserUsageReport) api.UserUsageReport {
	out := api.UserUsageReport{
		Login:  report.Account.Login,
		PlanID: report.Account.PlanID,
		Window: api.Window{Start: report.Window.Start, End: report.Window.End},
		Lines:  []api.UsageLine{},
	}

	for _, line := range report.Lines {
		out.Lines = append(out.Lines, MapUsageLineDomainToApi(line))
	}

	return out
}

func MapUsageLineDomainToApi(line domain.UsageLine) api.UsageLine {
	apiLine := api.UsageLine{
		UsageType: string(line.Record.UsageType),
		Qualifier: line.Record.Qualifier(),
		GearID:    line.Record.GearID,
		AppName:   line.Record.AppName,
		BeginTime: line.Record.BeginTime,
		EndTime:   line.Record.EndTime,
		Duration:  format.PrettyDuration(int64(line.Elapsed.Seconds())),
	}

	if line.Cost != nil {
		apiLine.Cost = &api.Cost{
			USD:      line.Cost.USD,
			RateUSD:  line.Cost.Rate.USD,
			Duration: string(line.Cost.Rate.Duration),
			Units:    line.Cost.Units,
		}
	}

	return apiLine
}

func MapSummaryDomainToApi(summary domain.UsageSummary) api.UsageSummary {
	out := api.UsageSummary{
		Window:       api.Window{Start: summary.Window.Start, End: summary.Window.End},
		MonthAligned: summary.Window.MonthAligned(),
		Plans:        []api.PlanUsageSummary{},
	}

	for _, plan := range summary.Plans {
		out.Plans = append(out.Plans, api.PlanUsageSummary{
			PlanID:         plan.PlanID,
			Users:          plan.Users,
			GearHours:      plan.GearHours,
			CartHours:      plan.CartHours,
			StorageGBHours: plan.StorageGBHours,
			CostUSD:        plan.CostUSD,
		})
	}

	return out
}
