package export

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/template"

	"github.com/de-tools/usage-atlas/pkg/models/domain"
	"github.com/de-tools/usage-atlas/pkg/services/usage/format"
)

type TableConfig struct {
	TypeWidth      int
	QualifierWidth int
	TargetWidth    int
	DurationWidth  int
	TimeWidth      int
	CostWidth      int
}

func DefaultTableConfig() TableConfig {
	return TableConfig{
		TypeWidth:      14,
		QualifierWidth: 12,
		TargetWidth:    34,
		DurationWidth:  24,
		TimeWidth:      17,
		CostWidth:      12,
	}
}

// Reporter renders the per-record and plan-aggregated reports as
// formatted text tables.
type Reporter struct {
	writer io.Writer
	config TableConfig
}

func NewReporter(writer io.Writer) *Reporter {
	if writer == nil {
		writer = os.Stdout
	}
	return &Reporter{
		writer: writer,
		config: DefaultTableConfig(),
	}
}

const timeLayout = "2006-01-02 15:04"

func (c *Reporter) funcMap() template.FuncMap {
	return template.FuncMap{
		"formatRow": func(usageType, qualifier, target, duration, begin, end, cost string) string {
			return fmt.Sprintf("| %-*s | %-*s | %-*s | %-*s | %-*s | %-*s | %-*s |",
				c.config.TypeWidth, usageType,
				c.config.QualifierWidth, qualifier,
				c.config.TargetWidth, target,
				c.config.DurationWidth, duration,
				c.config.TimeWidth, begin,
				c.config.TimeWidth, end,
				c.config.CostWidth, cost)
		},
		"separator": func() string {
			widths := []int{
				c.config.TypeWidth, c.config.QualifierWidth, c.config.TargetWidth,
				c.config.DurationWidth, c.config.TimeWidth, c.config.TimeWidth, c.config.CostWidth,
			}
			parts := make([]string, 0, len(widths))
			for _, w := range widths {
				parts = append(parts, strings.Repeat("-", w+2))
			}
			return "+" + strings.Join(parts, "+") + "+"
		},
		"target": func(rec domain.UsageRecord) string {
			if rec.AppName == "" {
				return rec.GearID
			}
			return fmt.Sprintf("%s (%s)", rec.GearID, rec.AppName)
		},
		"duration": func(line domain.UsageLine) string {
			return format.PrettyDuration(int64(line.Elapsed.Seconds()))
		},
		"beginTime": func(rec domain.UsageRecord) string {
			return rec.BeginTime.UTC().Format(timeLayout)
		},
		// "end" is a template keyword, so the open-end formatter
		// needs a distinct name.
		"endTime": func(rec domain.UsageRecord) string {
			if rec.EndTime == nil {
				return "PRESENT"
			}
			return rec.EndTime.UTC().Format(timeLayout)
		},
		"cost": func(line domain.UsageLine) string {
			if line.Cost == nil {
				return ""
			}
			return format.FormattedNumber(line.Cost.USD)
		},
		"money": format.FormattedNumber,
		"planTitle": func(planID string) string {
			if planID == "" {
				return "all users"
			}
			return planID
		},
	}
}

func (c *Reporter) HandleUserReport(report *domain.UserUsageReport) error {
	tmpl := `
Usage for {{.Account.Login}}{{if .Account.PlanID}} (plan: {{.Account.PlanID}}){{end}}
Period: {{.Window.Start.Format "2006-01-02"}} to {{.Window.End.Format "2006-01-02"}}
{{if not .Lines}}
No usage records found.
{{else}}
{{separator}}
{{formatRow "Type" "Qualifier" "Gear (App)" "Duration" "From" "To" "Cost"}}
{{separator}}
{{range .Lines}}{{formatRow (printf "%s" .Record.UsageType) .Record.Qualifier (target .Record) (duration .) (beginTime .Record) (endTime .Record) (cost .)}}
{{end}}{{separator}}
{{end}}`

	t, err := template.New("user-report").Funcs(c.funcMap()).Parse(tmpl)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}

	return t.Execute(c.writer, report)
}

func (c *Reporter) HandleSummary(summary *domain.UsageSummary) error {
	tmpl := `
Usage summary
Period: {{.Window.Start.Format "2006-01-02 15:04"}} to {{.Window.End.Format "2006-01-02 15:04"}}
{{if not .Window.MonthAligned}}
Note: the query window is not aligned to calendar-month boundaries,
monthly discounts assume whole months and may overstate the deduction.
{{end}}
{{range .Plans}}
=== Plan: {{planTitle .PlanID}} ({{.Users}} users) ===
{{range $size, $hours := .GearHours}}
Gear {{$size}}: {{$hours}} hours
{{end}}
{{range $cart, $hours := .CartHours}}
Cartridge {{$cart}}: {{$hours}} hours
{{end}}
Additional storage: {{.StorageGBHours}} GB-hours
Estimated cost: {{money .CostUSD}}
{{end}}
`

	t, err := template.New("summary").Funcs(c.funcMap()).Parse(tmpl)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}

	return t.Execute(c.writer, summary)
}
