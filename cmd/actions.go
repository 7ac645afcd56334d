package cmd

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/obligo/internal/cli"
	"github.com/theirongolddev/obligo/internal/engine"
	"github.com/theirongolddev/obligo/internal/model"
)

var payCmd = &cobra.Command{
	Use:   "pay <id> <amount>",
	Short: "Record a payment against a card or wallet statement",
	Args:  cobra.ExactArgs(2),
	RunE:  runPay,
}

var statementCmd = &cobra.Command{
	Use:   "statement <id> <amount> <due-date>",
	Short: "Start a new statement cycle for a card or wallet",
	Args:  cobra.ExactArgs(3),
	RunE:  runStatement,
}

var toggleCmd = &cobra.Command{
	Use:   "toggle <id>",
	Short: "Flip an obligation between pending and paid",
	Args:  cobra.ExactArgs(1),
	RunE:  runToggle,
}

var rmCmd = &cobra.Command{
	Use:     "rm <id>",
	Aliases: []string{"delete"},
	Short:   "Delete an obligation",
	Args:    cobra.ExactArgs(1),
	RunE:    runRemove,
}

func init() {
	rootCmd.AddCommand(payCmd, statementCmd, toggleCmd, rmCmd)
}

func runPay(_ *cobra.Command, args []string) error {
	amount, err := parseAmount(args[1])
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
	r, err := s.Pay(id, amount)
	if err != nil {
		return err
	}
	fmt.Printf("  Paid %s to %s. Still due: %s (%s of statement)\n",
		cli.FormatMoney(amount), r.Source, cli.FormatMoney(r.AmountDue), cli.FormatPercent(engine.PaidProgress(r)))
	return nil
}

func runStatement(_ *cobra.Command, args []string) error {
	amount, err := parseAmount(args[1])
	if err != nil {
		return err
	}
	due, err := model.ParseDate(args[2])
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
	r, err := s.UpdateStatement(id, amount, due)
	if err != nil {
		return err
	}
	fmt.Printf("  New statement for %s: %s due %s\n", r.Source, cli.FormatMoney(r.AmountDue), cli.FormatDate(r.DueDate))
	return nil
}

func runToggle(_ *cobra.Command, args []string) error {
	s, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	id, err := resolveID(s, args[0])
	if err != nil {
		return err
	}
	o, err := s.Toggle(id)
	if err != nil {
		return err
	}
	fmt.Printf("  %s is now %s\n", o.Name(), o.Info().Status)
	return nil
}

func runRemove(_ *cobra.Command, args []string) error {
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
	if err := s.DeleteObligation(id); err != nil {
		return err
	}
	logger.WithField("id", id).Debug("obligation deleted")
	fmt.Printf("  Deleted %s (%s)\n", o.Name(), o.Kind().Label())
	return nil
}

func parseAmount(s string) (decimal.Decimal, error) {
	v, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("amount %q: %w", s, err)
	}
	return v, nil
}

