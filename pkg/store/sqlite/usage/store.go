package usage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/de-tools/usage-atlas/pkg/models/store"
	"github.com/de-tools/usage-atlas/pkg/store/sqlite"
)

// Filter narrows GetRecords. UserIDs must be non-empty; the remaining
// fields are optional. A record matches the window when its active
// interval overlaps [Start, End]; an open record (end_time NULL)
// overlaps every window that starts after its begin_time.
type Filter struct {
	UserIDs []string
	AppName string
	GearID  string
	Start   time.Time
	End     time.Time
}

// Store supports both ingestion (Add) and the filtered read the
// reporting pipeline performs.
type Store interface {
	Add(ctx context.Context, records []store.UsageRecord) error
	GetRecords(ctx context.Context, filter Filter) ([]store.UsageRecord, error)
	GetUsageStats(ctx context.Context) (*store.UsageStats, error)
}

type usageStore struct {
	db *sql.DB
}

func NewStore(db *sql.DB) (Store, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}
	return &usageStore{db: db}, nil
}

func (u *usageStore) Add(ctx context.Context, records []store.UsageRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx := sqlite.GetTransaction(ctx)
	query := `
		INSERT INTO usage_records (
			id, user_id, usage_type, gear_size, addtl_fs_gb,
			cart_name, gear_id, app_name, begin_time, end_time
		) VALUES (
			?, ?, ?, ?, ?, ?, ?, ?, ?, ?
		)`

	var stmt *sql.Stmt
	var err error
	if tx == nil {
		stmt, err = u.db.PrepareContext(ctx, query)
	} else {
		stmt, err = tx.PrepareContext(ctx, query)
	}

	if err != nil {
		return fmt.Errorf("prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, record := range records {
		var end interface{}
		if record.EndTime != nil {
			end = *record.EndTime
		}

		_, err = stmt.ExecContext(ctx,
			record.ID,
			record.UserID,
			record.UsageType,
			record.GearSize,
			record.AddtlFsGB,
			record.CartName,
			record.GearID,
			record.AppName,
			record.BeginTime,
			end,
		)

		if err != nil {
			return fmt.Errorf("insert record: %w", err)
		}
	}

	return nil
}

func (u *usageStore) GetRecords(ctx context.Context, filter Filter) ([]store.UsageRecord, error) {
	if len(filter.UserIDs) == 0 {
		return []store.UsageRecord{}, nil
	}

	placeholders := make([]string, len(filter.UserIDs))
	args := make([]interface{}, 0, len(filter.UserIDs)+4)
	for i, id := range filter.UserIDs {
		placeholders[i] = "?"
		args = append(args, id)
	}

	query := fmt.Sprintf(`
		SELECT id, user_id, usage_type, gear_size, addtl_fs_gb,
		       cart_name, gear_id, app_name, begin_time, end_time
		FROM usage_records
		WHERE user_id IN (%s)
		  AND begin_time < ?
		  AND (end_time IS NULL OR end_time > ?)`, strings.Join(placeholders, ","))
	args = append(args, filter.End, filter.Start)

	if filter.AppName != "" {
		query += " AND app_name = ?"
		args = append(args, filter.AppName)
	}
	if filter.GearID != "" {
		query += " AND gear_id = ?"
		args = append(args, filter.GearID)
	}
	query += " ORDER BY begin_time"

	rows, err := u.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query usage records: %w", err)
	}
	defer rows.Close()

	return scanUsageRows(rows)
}

func (u *usageStore) GetUsageStats(ctx context.Context) (*store.UsageStats, error) {
	var total int64
	if err := u.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM usage_records`).Scan(&total); err != nil {
		return nil, fmt.Errorf("count usage records: %w", err)
	}

	// MIN(begin_time) loses the column's TIMESTAMP decltype and the
	// driver hands back a bare string, so fetch the earliest row instead.
	var earliest time.Time
	err := u.db.QueryRowContext(ctx,
		`SELECT begin_time FROM usage_records ORDER BY begin_time LIMIT 1`).Scan(&earliest)
	switch {
	case err == sql.ErrNoRows:
		return &store.UsageStats{RecordsCount: total}, nil
	case err != nil:
		return nil, fmt.Errorf("get earliest record: %w", err)
	}

	return &store.UsageStats{RecordsCount: total, FirstRecordTime: &earliest}, nil
}

func scanUsageRows(rows *sql.Rows) ([]store.UsageRecord, error) {
	records := make([]store.UsageRecord, 0)
	for rows.Next() {
		var (
			rec      store.UsageRecord
			gearSize sql.NullString
			fsGB     sql.NullInt64
			cartName sql.NullString
			gearID   sql.NullString
			appName  sql.NullString
			end      sql.NullTime
		)
		err := rows.Scan(&rec.ID, &rec.UserID, &rec.UsageType, &gearSize, &fsGB,
			&cartName, &gearID, &appName, &rec.BeginTime, &end)
		if err != nil {
			return nil, err
		}

		rec.GearSize = gearSize.String
		rec.AddtlFsGB = int(fsGB.Int64)
		rec.CartName = cartName.String
		rec.GearID = gearID.String
		rec.AppName = appName.String
		if end.Valid {
			t := end.Time
			rec.EndTime = &t
		}

		records = append(records, rec)
	}
	return records, rows.Err()
}
