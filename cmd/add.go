package cmd

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/obligo/internal/cli"
	"github.com/theirongolddev/obligo/internal/model"
)

// addInput holds raw field values from flags or the interactive form.
type addInput struct {
	Name      string
	Source    string
	Amount    string
	Statement string
	Limit     string
	Due       string
	Rate      string
	Term      string
	Method    string
	Monthly   string
	Start     string
	Note      string
}

var flagAdd addInput

var addCmd = &cobra.Command{
	Use:   "add <kind>",
	Short: "Add an obligation (card, wallet, installment, borrow, lend, planned)",
	Long: "Add an obligation. With no field flags an interactive form is shown.\n\n" +
		"Kinds: card, wallet, installment, borrow, lend, planned.",
	Args: cobra.ExactArgs(1),
	RunE: runAdd,
}

func init() {
	f := addCmd.Flags()
	f.StringVar(&flagAdd.Name, "name", "", "Card/wallet name, loan description, person or plan")
	f.StringVar(&flagAdd.Source, "lender", "", "Lender of an installment loan")
	f.StringVar(&flagAdd.Amount, "amount", "", "Amount due, principal, or amount owed")
	f.StringVar(&flagAdd.Statement, "statement", "", "Statement balance (defaults to --amount)")
	f.StringVar(&flagAdd.Limit, "limit", "", "Credit limit")
	f.StringVar(&flagAdd.Due, "due", "", "Due date YYYY-MM-DD")
	f.StringVar(&flagAdd.Rate, "rate", "", "Annual interest rate in percent")
	f.StringVar(&flagAdd.Term, "term", "", "Term in months")
	f.StringVar(&flagAdd.Method, "method", "", "flat, reducing or fixed (default flat)")
	f.StringVar(&flagAdd.Monthly, "monthly", "", "Monthly payment for the fixed method")
	f.StringVar(&flagAdd.Start, "start", "", "First payment date YYYY-MM-DD")
	f.StringVar(&flagAdd.Note, "note", "", "Free-form note")
	rootCmd.AddCommand(addCmd)
}

func runAdd(cmd *cobra.Command, args []string) error {
	kind, err := model.ParseKind(args[0])
	if err != nil {
		return err
	}

	in := flagAdd
	if cmd.Flags().NFlag() == 0 {
		if err := runAddForm(kind, &in); err != nil {
			if errors.Is(err, huh.ErrUserAborted) {
				return nil
			}
			return err
		}
	}

	o, err := buildObligation(kind, in)
	if err != nil {
		return err
	}

	s, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	saved, err := s.PutObligation(o)
	if err != nil {
		return err
	}
	fmt.Printf("  Added %s %s (%s)\n", saved.Kind().Label(), saved.Name(), shortID(saved.Info().ID))
	return nil
}

// buildObligation turns raw input into a validated obligation of the given kind.
func buildObligation(kind model.Kind, in addInput) (model.Obligation, error) {
	name := strings.TrimSpace(in.Name)
	amount, err := optDecimal("amount", in.Amount)
	if err != nil {
		return nil, err
	}
	due, err := model.ParseDate(strings.TrimSpace(in.Due))
	if err != nil {
		return nil, fmt.Errorf("due date: %w", err)
	}

	var o model.Obligation
	switch kind {
	case model.KindCreditCard, model.KindRevolvingWallet:
		statement, err := optDecimal("statement", in.Statement)
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(in.Statement) == "" {
			statement = amount
		}
		limit, err := optDecimal("limit", in.Limit)
		if err != nil {
			return nil, err
		}
		o = model.Revolving{
			Type:             kind,
			Source:           firstNonEmpty(name, in.Source),
			StatementBalance: statement,
			AmountDue:        amount,
			CreditLimit:      limit,
			DueDate:          due,
			Note:             in.Note,
		}

	case model.KindInstallment:
		rate, err := optDecimal("rate", in.Rate)
		if err != nil {
			return nil, err
		}
		monthly, err := optDecimal("monthly", in.Monthly)
		if err != nil {
			return nil, err
		}
		term, err := strconv.Atoi(strings.TrimSpace(in.Term))
		if err != nil {
			return nil, fmt.Errorf("%w: term %q", model.ErrInvalidTerm, in.Term)
		}
		var method model.Method
		if err := method.UnmarshalText([]byte(firstNonEmpty(in.Method, string(model.MethodFlat)))); err != nil {
			return nil, err
		}
		start, err := model.ParseDate(strings.TrimSpace(in.Start))
		if err != nil {
			return nil, fmt.Errorf("start date: %w", err)
		}
		o = model.Installment{
			Description:  name,
			Lender:       strings.TrimSpace(in.Source),
			Principal:    amount,
			AnnualRate:   rate,
			TermMonths:   term,
			Method:       method,
			FixedMonthly: monthly,
			StartDate:    start,
		}

	case model.KindPersonalLoan, model.KindPersonalLend:
		o = model.Personal{
			Type:         kind,
			Counterparty: firstNonEmpty(name, in.Source),
			Note:         in.Note,
			Amount:       amount,
			DueDate:      due,
		}

	case model.KindPlanned:
		o = model.Planned{
			Description: name,
			Amount:      amount,
			PlannedDate: due,
		}

	default:
		return nil, fmt.Errorf("%w: %q", model.ErrUnknownKind, kind)
	}

	if o.Name() == "" {
		return nil, errors.New("a name is required")
	}
	o = o.WithMeta(model.Meta{Status: model.StatusPending})
	if err := o.Validate(); err != nil {
		return nil, err
	}
	return o, nil
}

func optDecimal(field, s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" {
		return decimal.Zero, nil
	}
	v, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s %q is not a number", field, s)
	}
	return v, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// runAddForm asks for the fields of kind interactively.
func runAddForm(kind model.Kind, in *addInput) error {
	nameTitle := map[model.Kind]string{
		model.KindCreditCard:      "Card name",
		model.KindRevolvingWallet: "Wallet name",
		model.KindInstallment:     "What was bought",
		model.KindPersonalLoan:    "Who lent you the money",
		model.KindPersonalLend:    "Who owes you",
		model.KindPlanned:         "What is planned",
	}[kind]

	groups := []*huh.Group{
		huh.NewGroup(
			huh.NewInput().Title(nameTitle).Value(&in.Name).Validate(required),
			huh.NewInput().Title(amountTitle(kind)).Description(cli.Currency).Value(&in.Amount).Validate(validAmount),
		).Title("New " + kind.Label()),
	}

	switch kind {
	case model.KindCreditCard, model.KindRevolvingWallet:
		groups = append(groups, huh.NewGroup(
			huh.NewInput().Title("Statement balance").Description("Leave empty to use the amount due").Value(&in.Statement).Validate(validOptionalAmount),
			huh.NewInput().Title("Credit limit").Value(&in.Limit).Validate(validOptionalAmount),
			huh.NewInput().Title("Due date").Placeholder(model.DateLayout).Value(&in.Due).Validate(validOptionalDate),
		))
	case model.KindInstallment:
		in.Method = string(model.MethodFlat)
		groups = append(groups,
			huh.NewGroup(
				huh.NewInput().Title("Lender").Value(&in.Source),
				huh.NewInput().Title("Annual rate (%)").Value(&in.Rate).Validate(validOptionalAmount),
				huh.NewInput().Title("Term (months)").Value(&in.Term).Validate(validTerm),
				huh.NewSelect[string]().Title("Calculation").Options(
					huh.NewOption("Flat", string(model.MethodFlat)),
					huh.NewOption("Reducing balance", string(model.MethodReducing)),
					huh.NewOption("Fixed monthly amount", string(model.MethodFixed)),
				).Value(&in.Method),
				huh.NewInput().Title("First payment date").Placeholder(model.DateLayout).Value(&in.Start).Validate(validDate),
			),
			huh.NewGroup(
				huh.NewInput().Title("Monthly payment").Value(&in.Monthly).Validate(validAmount),
			).WithHideFunc(func() bool { return in.Method != string(model.MethodFixed) }),
		)
	case model.KindPersonalLoan, model.KindPersonalLend:
		groups = append(groups, huh.NewGroup(
			huh.NewInput().Title("Due date").Placeholder(model.DateLayout).Value(&in.Due).Validate(validOptionalDate),
			huh.NewInput().Title("Note").Value(&in.Note),
		))
	case model.KindPlanned:
		groups = append(groups, huh.NewGroup(
			huh.NewInput().Title("Planned date").Placeholder(model.DateLayout).Value(&in.Due).Validate(validOptionalDate),
		))
	}

	return huh.NewForm(groups...).Run()
}

func amountTitle(kind model.Kind) string {
	switch kind {
	case model.KindCreditCard, model.KindRevolvingWallet:
		return "Amount due"
	case model.KindInstallment:
		return "Principal"
	}
	return "Amount"
}

func required(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("required")
	}
	return nil
}

func validAmount(s string) error {
	if err := required(s); err != nil {
		return err
	}
	return validOptionalAmount(s)
}

func validOptionalAmount(s string) error {
	v, err := optDecimal("value", s)
	if err != nil {
		return err
	}
	if v.IsNegative() {
		return errors.New("must not be negative")
	}
	return nil
}

func validTerm(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return errors.New("whole number of months, at least 1")
	}
	return nil
}

func validDate(s string) error {
	if err := required(s); err != nil {
		return err
	}
	return validOptionalDate(s)
}

func validOptionalDate(s string) error {
	_, err := model.ParseDate(strings.TrimSpace(s))
	return err
}
