package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/obligo/internal/cli"
	"github.com/theirongolddev/obligo/internal/engine"
	"github.com/theirongolddev/obligo/internal/model"
)

var flagUpcomingNoAccounts bool

var upcomingCmd = &cobra.Command{
	Use:     "upcoming",
	Aliases: []string{"due"},
	Short:   "What is due or expiring soon, most urgent first",
	RunE:    runUpcoming,
}

func init() {
	upcomingCmd.Flags().BoolVar(&flagUpcomingNoAccounts, "no-accounts", false, "Leave expiring accounts out of the feed")
	rootCmd.AddCommand(upcomingCmd)
}

func runUpcoming(_ *cobra.Command, _ []string) error {
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
	var expiring []model.ExpiringAccount
	if !flagUpcomingNoAccounts {
		accounts, err := s.ListAccounts()
		if err != nil {
			return err
		}
		expiring = engine.ExpiringAccounts(accounts, now, windowDays())
	}

	sum := engine.AggregateWindow(obligations, now, windowDays())
	feed := engine.MergeFeeds(sum.Upcoming, expiring)

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("UPCOMING  next %d days", windowDays())))
	fmt.Println()

	if len(feed) == 0 {
		fmt.Println("  Nothing due. Enjoy it.")
		return nil
	}

	rows := make([][]string, 0, len(feed))
	for _, item := range feed {
		rows = append(rows, feedRow(item))
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Headers:  []string{"When", "Date", "Name", "Kind", "Amount", "ID"},
		Rows:     rows,
		LeftCols: []int{1, 2, 3, 5},
	}))
	return nil
}

func feedRow(item model.FeedItem) []string {
	if item.Account != nil {
		a := item.Account.Account
		return []string{
			cli.RenderDays(item.DaysLeft),
			cli.FormatDate(a.ExpiryDate),
			cli.Truncate(a.ServiceName, 28),
			"Account expiry",
			"",
			shortID(a.ID),
		}
	}
	u := item.Upcoming
	return []string{
		cli.RenderDays(item.DaysLeft),
		cli.FormatDate(u.DueDate),
		cli.Truncate(u.Obligation.Name(), 28),
		u.Obligation.Kind().Label(),
		cli.FormatMoney(u.DueAmount),
		shortID(u.Obligation.Info().ID),
	}
}
