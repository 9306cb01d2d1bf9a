package commands

import (
	"context"
	"fmt"
	"os"
	"os/user"
	"time"

	"github.com/de-tools/usage-atlas/pkg/models/domain"
	"github.com/de-tools/usage-atlas/pkg/runtime/terminal/export"
	"github.com/de-tools/usage-atlas/pkg/services/billing"
	"github.com/de-tools/usage-atlas/pkg/services/config"
	"github.com/de-tools/usage-atlas/pkg/services/records"
	"github.com/de-tools/usage-atlas/pkg/services/usage"
	"github.com/de-tools/usage-atlas/pkg/store/sqlite"
	sqliteaccount "github.com/de-tools/usage-atlas/pkg/store/sqlite/account"
	sqliteusage "github.com/de-tools/usage-atlas/pkg/store/sqlite/usage"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

type ReportCmd struct {
	login   string
	app     string
	gear    string
	plan    string
	start   string
	end     string
	profile string
	rates   string

	reporter *export.Reporter
}

func defaultProfilePath() string {
	usr, err := user.Current()
	if err != nil {
		return ".usage-atlas.ini"
	}
	return fmt.Sprintf("%s/.usage-atlas.ini", usr.HomeDir)
}

func defaultRatesPath() string {
	usr, err := user.Current()
	if err != nil {
		return "rates.yaml"
	}
	return fmt.Sprintf("%s/.usage-atlas-rates.yaml", usr.HomeDir)
}

func NewReportCmd(reporter *export.Reporter) *cobra.Command {
	rc := &ReportCmd{reporter: reporter}
	cmd := &cobra.Command{
		Use:   "usage",
		Short: "Report gear usage and estimated cost",
		Long: "Report per-record usage for a single user, or a per-plan usage summary " +
			"across all users, over a date window.",
		RunE: rc.run,
	}

	cmd.Flags().StringVarP(&rc.login, "login", "l", "", "User login to report on")
	cmd.Flags().StringVarP(&rc.app, "app", "a", "", "Filter by application name")
	cmd.Flags().StringVarP(&rc.gear, "gear", "g", "", "Filter by gear id")
	cmd.Flags().StringVarP(&rc.plan, "plan", "p", "", "Filter by billing plan id")
	cmd.Flags().StringVarP(&rc.start, "start", "s", "", "Start date (YYYY-MM-DD, default: start of current month)")
	cmd.Flags().StringVarP(&rc.end, "end", "e", "", "End date (YYYY-MM-DD, default: now)")
	cmd.Flags().StringVar(&rc.profile, "profile", defaultProfilePath(), "Path to the store profile file")
	cmd.Flags().StringVar(&rc.rates, "rates", defaultRatesPath(), "Path to the billing rate catalog")

	return cmd
}

func (rc *ReportCmd) run(cmd *cobra.Command, _ []string) error {
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()
	ctx := logger.WithContext(cmd.Context())

	if err := usage.ValidateGearID(rc.gear); err != nil {
		return err
	}

	catalog, err := billing.LoadCatalog(rc.rates)
	if err != nil {
		return err
	}
	if err := catalog.ValidatePlanID(rc.plan); err != nil {
		return err
	}

	window, err := usage.ResolveWindow(ctx, rc.start, rc.end, time.Now())
	if err != nil {
		return err
	}

	registry, err := config.NewRegistry(rc.profile)
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

	accountStore, err := sqliteaccount.NewStore(db)
	if err != nil {
		return err
	}
	usageStore, err := sqliteusage.NewStore(db)
	if err != nil {
		return err
	}

	resolver := records.NewResolver(accountStore, usageStore)
	aggregator := usage.NewAggregator(resolver, resolver, catalog)
	filters := usage.Filters{AppName: rc.app, GearID: rc.gear, PlanID: rc.plan}

	login := rc.login
	if login == "" {
		login, err = implicitSingleMatch(ctx, resolver, rc.plan)
		if err != nil {
			return err
		}
	}

	if login != "" {
		report, err := aggregator.UserReport(ctx, login, filters, window)
		if err != nil {
			return err
		}
		return rc.reporter.HandleUserReport(report)
	}

	summary, err := aggregator.Summary(ctx, filters, window)
	if err != nil {
		return err
	}
	return rc.reporter.HandleSummary(summary)
}

// implicitSingleMatch switches to single-user mode when the filters
// resolve to exactly one account even without --login.
func implicitSingleMatch(ctx context.Context, resolver *records.Resolver, planID string) (string, error) {
	accounts, err := resolver.GetAccounts(ctx, domain.AccountFilter{PlanID: planID})
	if err != nil {
		return "", err
	}
	if len(accounts) == 1 {
		return accounts[0].Login, nil
	}
	return "", nil
}
