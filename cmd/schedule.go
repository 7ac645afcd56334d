package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/obligo/internal/cli"
	"github.com/theirongolddev/obligo/internal/engine"
	"github.com/theirongolddev/obligo/internal/model"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule <id>",
	Short: "Show the amortization schedule of an installment loan",
	Args:  cobra.ExactArgs(1),
	RunE:  runSchedule,
}

func init() {
	rootCmd.AddCommand(scheduleCmd)
}

func runSchedule(_ *cobra.Command, args []string) error {
	now, err := today()
	if err != nil {
		return err
	}
	s, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	id, err := resolveID(s, args[0])
	if err != nil {
		return err
	}
	o, err := s.GetObligation(id)
	if err != nil {
		return err
	}
	inst, ok := o.(model.Installment)
	if !ok {
		return errors.New(o.Kind().Label() + " has no schedule; only installments do")
	}

	sched, err := engine.ComputeSchedule(inst)
	if err != nil {
		return err
	}
	remaining, paidPeriods, err := engine.Outstanding(inst, engine.Today(now))
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("%s  %s", inst.Name(), inst.Method)))
	fmt.Println()
	fmt.Print(cli.RenderKV([][2]string{
		{"Principal", cli.FormatMoney(inst.Principal)},
		{"Rate", cli.FormatRate(inst.AnnualRate) + " / year"},
		{"Monthly payment", cli.RenderMoney(cli.FormatMoney(sched.MonthlyPayment))},
		{"Total interest", cli.FormatMoney(sched.TotalInterest())},
		{"Total paid", cli.FormatMoney(sched.TotalPaid())},
		{"Outstanding", fmt.Sprintf("%s after %d of %d payments", cli.FormatMoney(remaining), paidPeriods, inst.TermMonths)},
		{"Progress", cli.RenderProgressBar(float64(paidPeriods)/float64(inst.TermMonths), 24)},
	}))
	fmt.Println()

	next, hasNext := engine.NextPayment(sched, engine.Today(now))
	rows := make([][]string, 0, len(sched.Entries))
	for _, e := range sched.Entries {
		mark := ""
		if hasNext && e.Period == next.Period {
			mark = "next"
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", e.Period),
			e.Date.String(),
			cli.FormatAmount(e.Payment),
			cli.FormatAmount(e.Interest),
			cli.FormatAmount(e.Principal),
			cli.FormatAmount(e.Remaining),
			mark,
		})
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Headers:  []string{"#", "Date", "Payment", "Interest", "Principal", "Remaining", ""},
		Rows:     rows,
		LeftCols: []int{1, 6},
	}))
	return nil
}
