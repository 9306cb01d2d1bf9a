// Package records adapts the sqlite stores to the domain-level
// resolvers the aggregator consumes.
package records

import (
	"context"
	"fmt"

	"github.com/de-tools/usage-atlas/pkg/adapters"
	"github.com/de-tools/usage-atlas/pkg/models/domain"
	"github.com/de-tools/usage-atlas/pkg/store/sqlite/account"
	"github.com/de-tools/usage-atlas/pkg/store/sqlite/usage"
)

type Resolver struct {
	accounts account.Store
	records  usage.Store
}

func NewResolver(accounts account.Store, records usage.Store) *Resolver {
	return &Resolver{accounts: accounts, records: records}
}

func (r *Resolver) GetAccounts(ctx context.Context, filter domain.AccountFilter) ([]domain.UserAccount, error) {
	// A bare login lookup needs at most one row.
	if filter.Login != "" && filter.PlanID == "" {
		row, err := r.accounts.GetAccountByLogin(ctx, filter.Login)
		if err != nil {
			return nil, fmt.Errorf("get account by login: %w", err)
		}
		if row == nil {
			return []domain.UserAccount{}, nil
		}
		return []domain.UserAccount{adapters.MapStoreAccountToDomain(*row)}, nil
	}

	rows, err := r.accounts.GetAccounts(ctx, filter.Login, filter.PlanID)
	if err != nil {
		return nil, fmt.Errorf("get accounts: %w", err)
	}

	accounts := make([]domain.UserAccount, 0, len(rows))
	for _, row := range rows {
		accounts = append(accounts, adapters.MapStoreAccountToDomain(row))
	}
	return accounts, nil
}

func (r *Resolver) GetRecords(ctx context.Context, filter domain.RecordFilter) ([]domain.UsageRecord, error) {
	rows, err := r.records.GetRecords(ctx, usage.Filter{
		UserIDs: filter.UserIDs,
		AppName: filter.AppName,
		GearID:  filter.GearID,
		Start:   filter.Start,
		End:     filter.End,
	})
	if err != nil {
		return nil, fmt.Errorf("get usage records: %w", err)
	}

	records := make([]domain.UsageRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, adapters.MapStoreUsageRecordToDomain(row))
	}
	return records, nil
}
