package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/obligo/internal/cli"
	"github.com/theirongolddev/obligo/internal/engine"
	"github.com/theirongolddev/obligo/internal/model"
)

var (
	flagListKinds  []string
	flagListStatus string
	flagListSearch string
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List obligations",
	RunE:    runList,
}

func init() {
	listCmd.Flags().StringSliceVarP(&flagListKinds, "kind", "k", nil, "Only these kinds (card, wallet, installment, borrow, lend, planned)")
	listCmd.Flags().StringVar(&flagListStatus, "status", "", "Only pending or paid")
	listCmd.Flags().StringVarP(&flagListSearch, "search", "s", "", "Case-insensitive match on name, lender or note")
	rootCmd.AddCommand(listCmd)
}

func runList(_ *cobra.Command, _ []string) error {
	var kinds []model.Kind
	for _, k := range flagListKinds {
		kind, err := model.ParseKind(k)
		if err != nil {
			return err
		}
		kinds = append(kinds, kind)
	}

	status := model.Status(flagListStatus)
	if status != "" && status != model.StatusPending && status != model.StatusPaid {
		return fmt.Errorf("--status must be pending or paid, got %q", flagListStatus)
	}

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
	obligations = engine.FilterByKind(obligations, kinds...)
	obligations = engine.FilterByStatus(obligations, status)
	obligations = engine.Search(obligations, flagListSearch)

	if len(obligations) == 0 {
		fmt.Println("\n  No matching obligations.")
		return nil
	}

	rows := make([][]string, 0, len(obligations))
	for _, o := range obligations {
		rows = append(rows, listRow(o, now))
	}
	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:    cli.FormatCount(len(obligations), "obligation"),
		Headers:  []string{"ID", "Kind", "Name", "Amount", "Due", "Status", "Detail"},
		Rows:     rows,
		LeftCols: []int{1, 2, 4, 5, 6},
	}))
	return nil
}

// listRow shows the headline amount and date of each variant.
func listRow(o model.Obligation, now time.Time) []string {
	var amount, due, detail string
	switch v := o.(type) {
	case model.Revolving:
		amount = cli.FormatMoney(v.AmountDue)
		due = cli.FormatDate(v.DueDate)
		detail = "paid " + cli.FormatPercent(engine.PaidProgress(v))
	case model.Installment:
		amount = cli.FormatMoney(v.Principal)
		if sched, err := engine.ComputeSchedule(v); err == nil {
			if next, ok := engine.NextPayment(sched, engine.Today(now)); ok {
				due = cli.FormatDate(next.Date)
			}
			detail = fmt.Sprintf("%s/mo x %d", cli.FormatAmount(sched.MonthlyPayment), v.TermMonths)
		} else {
			detail = err.Error()
		}
	case model.Personal:
		amount = cli.FormatMoney(v.Amount)
		due = cli.FormatDate(v.DueDate)
		detail = v.Note
	case model.Planned:
		amount = cli.FormatMoney(v.Amount)
		due = cli.FormatDate(v.PlannedDate)
	}
	if due == "" {
		due = "-"
	}
	return []string{
		shortID(o.Info().ID),
		o.Kind().Label(),
		cli.Truncate(o.Name(), 28),
		amount,
		due,
		string(o.Info().Status),
		cli.Truncate(detail, 30),
	}
}
