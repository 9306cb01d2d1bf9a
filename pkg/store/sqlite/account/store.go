package account

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/de-tools/usage-atlas/pkg/models/store"
)

// Store reads user accounts from the account table. The reporting path
// only ever filters by login and plan.
type Store interface {
	GetAccounts(ctx context.Context, login, planID string) ([]store.UserAccount, error)
	GetAccountByLogin(ctx context.Context, login string) (*store.UserAccount, error)
}

type accountStore struct {
	db *sql.DB
}

func NewStore(db *sql.DB) (Store, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}
	return &accountStore{db: db}, nil
}

func (a *accountStore) GetAccounts(ctx context.Context, login, planID string) ([]store.UserAccount, error) {
	query := `SELECT id, login, plan_id FROM user_accounts WHERE 1=1`
	args := make([]interface{}, 0, 2)

	if login != "" {
		query += " AND login = ?"
		args = append(args, login)
	}
	if planID != "" {
		query += " AND plan_id = ?"
		args = append(args, planID)
	}
	query += " ORDER BY login"

	rows, err := a.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query accounts: %w", err)
	}
	defer rows.Close()

	return scanAccountRows(rows)
}

func (a *accountStore) GetAccountByLogin(ctx context.Context, login string) (*store.UserAccount, error) {
	query := `SELECT id, login, plan_id FROM user_accounts WHERE login = ?`

	var acc store.UserAccount
	var plan sql.NullString
	err := a.db.QueryRowContext(ctx, query, login).Scan(&acc.ID, &acc.Login, &plan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query account by login: %w", err)
	}
	acc.PlanID = plan.String

	return &acc, nil
}

func scanAccountRows(rows *sql.Rows) ([]store.UserAccount, error) {
	accounts := make([]store.UserAccount, 0)
	for rows.Next() {
		var acc store.UserAccount
		var plan sql.NullString
		if err := rows.Scan(&acc.ID, &acc.Login, &plan); err != nil {
			return nil, err
		}
		acc.PlanID = plan.String
		accounts = append(accounts, acc)
	}
	return accounts, rows.Err()
}
