package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/obligo/internal/cli"
	"github.com/theirongolddev/obligo/internal/engine"
	"github.com/theirongolddev/obligo/internal/model"
)

var (
	flagAccStatus   string
	flagAccProvider string
	flagAccSearch   string

	flagAccNew struct {
		service, mail, provider, buyer, purchase, expiry, note string
	}
)

var accountsCmd = &cobra.Command{
	Use:     "accounts",
	Aliases: []string{"acc"},
	Short:   "Manage subscription accounts and their expiry",
	RunE:    runAccountsList,
}

var accountsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List accounts with their expiry status",
	RunE:  runAccountsList,
}

var accountsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add an account",
	RunE:  runAccountsAdd,
}

var accountsRmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Delete an account",
	Args:  cobra.ExactArgs(1),
	RunE:  runAccountsRemove,
}

func init() {
	for _, c := range []*cobra.Command{accountsCmd, accountsListCmd} {
		c.Flags().StringVar(&flagAccStatus, "status", "", "active, expiring, expired, unknown or all")
		c.Flags().StringVar(&flagAccProvider, "provider", "", "Only accounts from this provider")
		c.Flags().StringVarP(&flagAccSearch, "search", "s", "", "Match on service name or mail")
	}

	f := accountsAddCmd.Flags()
	f.StringVar(&flagAccNew.service, "service", "", "Service name (required)")
	f.StringVar(&flagAccNew.mail, "mail", "", "Login mail")
	f.StringVar(&flagAccNew.provider, "provider", "", "Where it was bought")
	f.StringVar(&flagAccNew.buyer, "buyer", "", "Buyer nickname")
	f.StringVar(&flagAccNew.purchase, "purchase", "", "Purchase date YYYY-MM-DD")
	f.StringVar(&flagAccNew.expiry, "expiry", "", "Expiry date YYYY-MM-DD")
	f.StringVar(&flagAccNew.note, "note", "", "Free-form note")
	_ = accountsAddCmd.MarkFlagRequired("service")

	accountsCmd.AddCommand(accountsListCmd, accountsAddCmd, accountsRmCmd)
	rootCmd.AddCommand(accountsCmd)
}

func runAccountsList(_ *cobra.Command, _ []string) error {
	status, err := model.ParseExpiryStatus(flagAccStatus)
	if err != nil {
		return err
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

	accounts, err := s.ListAccounts()
	if err != nil {
		return err
	}
	accounts = engine.FilterAccounts(accounts, engine.AccountFilter{
		Status:   status,
		Provider: flagAccProvider,
		Search:   flagAccSearch,
	}, now, windowDays())

	if len(accounts) == 0 {
		fmt.Println("\n  No matching accounts.")
		return nil
	}

	rows := make([][]string, 0, len(accounts))
	for _, a := range accounts {
		when := "-"
		if days, ok := engine.DaysRemaining(a.ExpiryDate, now); ok {
			when = cli.RenderDays(days)
		}
		rows = append(rows, []string{
			shortID(a.ID),
			cli.Truncate(a.ServiceName, 24),
			cli.Truncate(a.MainMail, 28),
			a.Provider,
			cli.FormatDate(a.ExpiryDate),
			string(engine.AccountStatus(a, now, windowDays())),
			when,
		})
	}
	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:    cli.FormatCount(len(accounts), "account"),
		Headers:  []string{"ID", "Service", "Mail", "Provider", "Expiry", "Status", "When"},
		Rows:     rows,
		LeftCols: []int{1, 2, 3, 4, 5},
	}))
	return nil
}

func runAccountsAdd(_ *cobra.Command, _ []string) error {
	purchase, err := model.ParseDate(flagAccNew.purchase)
	if err != nil {
		return err
	}
	expiry, err := model.ParseDate(flagAccNew.expiry)
	if err != nil {
		return err
	}

	s, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	a, err := s.PutAccount(model.Account{
		ServiceName:  flagAccNew.service,
		MainMail:     flagAccNew.mail,
		Provider:     flagAccNew.provider,
		BuyerNick:    flagAccNew.buyer,
		PurchaseDate: purchase,
		ExpiryDate:   expiry,
		Note:         flagAccNew.note,
	})
	if err != nil {
		return err
	}
	fmt.Printf("  Added account %s (%s)\n", a.ServiceName, shortID(a.ID))
	return nil
}

func runAccountsRemove(_ *cobra.Command, args []string) error {
	s, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	id, err := resolveAccountID(s, args[0])
	if err != nil {
		return err
	}
	if err := s.DeleteAccount(id); err != nil {
		return err
	}
	fmt.Printf("  Deleted account %s\n", shortID(id))
	return nil
}
