package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/de-tools/usage-atlas/pkg/models/store"
	"github.com/de-tools/usage-atlas/pkg/services/config"
	"github.com/de-tools/usage-atlas/pkg/store/sqlite"
	sqliteusage "github.com/de-tools/usage-atlas/pkg/store/sqlite/usage"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type LoadCmd struct {
	profile string
	file    string
}

type loadAccount struct {
	ID     string `mapstructure:"id"`
	Login  string `mapstructure:"login"`
	PlanID string `mapstructure:"plan_id"`
}

type loadRecord struct {
	ID        string     `mapstructure:"id"`
	UserID    string     `mapstructure:"user_id"`
	UsageType string     `mapstructure:"usage_type"`
	GearSize  string     `mapstructure:"gear_size"`
	AddtlFsGB int        `mapstructure:"addtl_fs_gb"`
	CartName  string     `mapstructure:"cart_name"`
	GearID    string     `mapstructure:"gear_id"`
	AppName   string     `mapstructure:"app_name"`
	BeginTime time.Time  `mapstructure:"begin_time"`
	EndTime   *time.Time `mapstructure:"end_time"`
}

// NewLoadCmd ingests accounts and usage records from a YAML file into
// the store. The insert runs in one transaction so a malformed file
// leaves the store untouched.
func NewLoadCmd() *cobra.Command {
	lc := &LoadCmd{}
	cmd := &cobra.Command{
		Use:   "load",
		Short: "Load accounts and usage records from a YAML file",
		RunE:  lc.run,
	}

	cmd.Flags().StringVar(&lc.profile, "profile", defaultProfilePath(), "Path to the store profile file")
	cmd.Flags().StringVarP(&lc.file, "file", "f", "", "YAML file with accounts and usage records")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func (lc *LoadCmd) run(cmd *cobra.Command, _ []string) error {
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()
	ctx := logger.WithContext(cmd.Context())

	v := viper.New()
	v.SetConfigFile(lc.file)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read input file: %w", err)
	}

	var accounts []loadAccount
	if err := v.UnmarshalKey("accounts", &accounts); err != nil {
		return fmt.Errorf("failed to parse accounts: %w", err)
	}
	var recs []loadRecord
	if err := v.UnmarshalKey("records", &recs); err != nil {
		return fmt.Errorf("failed to parse records: %w", err)
	}

	registry, err := config.NewRegistry(lc.profile)
	if err != nil {
		return fmt.Errorf("failed to load store profile: %w", err)
	}
	settings, err := registry.GetStoreSettings(ctx, "default")
	if err != nil {
		return err
	}

	db, err := sqlite.NewDB(settings)
	if err != nil {
		return err
	}
	defer db.Close()

	usageStore, err := sqliteusage.NewStore(db)
	if err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	txCtx := sqlite.WithTransaction(ctx, tx)

	for _, acc := range accounts {
		_, err := tx.ExecContext(txCtx,
			`INSERT OR REPLACE INTO user_accounts (id, login, plan_id) VALUES (?, ?, ?)`,
			acc.ID, acc.Login, acc.PlanID)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("insert account %s: %w", acc.Login, err)
		}
	}

	storeRecords := make([]store.UsageRecord, 0, len(recs))
	for _, rec := range recs {
		storeRecords = append(storeRecords, store.UsageRecord(rec))
	}
	if err := usageStore.Add(txCtx, storeRecords); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	logger.Info().
		Int("accounts", len(accounts)).
		Int("records", len(storeRecords)).
		Msg("load complete")
	return nil
}
