package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/obligo/internal/cli"
	"github.com/theirongolddev/obligo/internal/engine"
	"github.com/theirongolddev/obligo/internal/model"
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Totals with breakdowns by kind and by source",
	RunE:  runSummary,
}

func init() {
	rootCmd.AddCommand(summaryCmd)
}

func runSummary(_ *cobra.Command, _ []string) error {
	now, err := today()
	if err != nil {
		return err
	}
	s, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	obligations, err := s.ListObligations()
	if err != nil {
		return err
	}
	if len(obligations) == 0 {
		fmt.Println("\n  No obligations yet.")
		fmt.Println(cli.RenderMuted("  Add one with `obligo add card` or import an export with `obligo import <path>`."))
		return nil
	}

	sum := engine.AggregateWindow(obligations, now, windowDays())

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("OBLIGATIONS  as of %s", engine.Today(now))))
	fmt.Println()

	fmt.Print(cli.RenderKV([][2]string{
		{"Total payable", cli.RenderMoney(cli.FormatMoney(sum.TotalPayable))},
		{"Due this month", cli.FormatMoney(sum.MonthlyDue)},
		{"Owed to you", cli.FormatMoney(sum.Receivable)},
		{"Upcoming", fmt.Sprintf("%d in the next %d days", len(sum.Upcoming), windowDays())},
		{"Overdue", overdueLabel(sum)},
	}))
	fmt.Println()

	byKind := engine.ByKind(obligations, now)
	fmt.Print(cli.RenderTable(kindTable(byKind)))
	fmt.Println()
	fmt.Print(kindBars(byKind))
	fmt.Println()
	fmt.Print(cli.RenderTable(sourceTable(engine.BySource(obligations, now))))

	if len(sum.Skipped) > 0 {
		fmt.Fprintf(os.Stderr, "\n  %s skipped as malformed: %v\n", cli.FormatCount(len(sum.Skipped), "record"), sum.Skipped)
	}
	return nil
}

func overdueLabel(sum model.Summary) string {
	n := sum.OverdueCount()
	if n == 0 {
		return "none"
	}
	return cli.RenderAlert(cli.FormatCount(n, "item"))
}

func kindTable(totals []model.KindTotal) cli.Table {
	rows := make([][]string, 0, len(totals))
	for _, kt := range totals {
		rows = append(rows, []string{
			kt.Kind.Label(),
			fmt.Sprintf("%d", kt.Count),
			cli.FormatMoney(kt.Payable),
			cli.FormatMoney(kt.MonthlyDue),
		})
	}
	return cli.Table{
		Title:   "By kind",
		Headers: []string{"Kind", "Count", "Payable", "This month"},
		Rows:    rows,
	}
}

// kindBars charts each kind's payable against the largest one.
func kindBars(totals []model.KindTotal) string {
	var maxV float64
	for _, kt := range totals {
		if v := kt.Payable.InexactFloat64(); v > maxV {
			maxV = v
		}
	}
	if maxV <= 0 {
		return ""
	}
	var b strings.Builder
	for _, kt := range totals {
		if !kt.Payable.IsPositive() {
			continue
		}
		label := fmt.Sprintf("%-16s %12s", kt.Kind.Label(), cli.FormatCompact(kt.Payable))
		b.WriteString(cli.RenderHorizontalBar(label, kt.Payable.InexactFloat64(), maxV, 30))
		b.WriteString("\n")
	}
	return b.String()
}

func sourceTable(totals []model.SourceTotal) cli.Table {
	rows := make([][]string, 0, len(totals))
	for _, st := range totals {
		rows = append(rows, []string{
			cli.Truncate(st.Source, 28),
			st.Kind.Label(),
			fmt.Sprintf("%d", st.Count),
			cli.FormatMoney(st.Payable),
			cli.FormatMoney(st.MonthlyDue),
		})
	}
	return cli.Table{
		Title:    "By source",
		Headers:  []string{"Source", "Kind", "Count", "Payable", "This month"},
		Rows:     rows,
		LeftCols: []int{1},
	}
}
