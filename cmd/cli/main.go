package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/iho/gofinance/internal/adapter/http/dto"
	"github.com/iho/gofinance/internal/adapter/http/middleware"
	"github.com/iho/gofinance/internal/infrastructure/postgres"
)

// options are the persistent flags shared by every command.
type options struct {
	baseURL     string
	owner       string
	timeout     time.Duration
	databaseURL string
}

// newMigrator is replaced in tests.
var newMigrator = func(databaseURL string, logger zerolog.Logger) migrator {
	return postgres.NewMigrator(databaseURL, logger)
}

type migrator interface {
	Up() error
	Down() error
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:           "gofinance-cli",
		Short:         "GoFinance CLI tool",
		Long:          `A command line interface for the GoFinance API and its database.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.baseURL, "url", "http://localhost:8080", "Base URL of the GoFinance API")
	rootCmd.PersistentFlags().StringVar(&opts.owner, "owner", os.Getenv("GOFINANCE_OWNER"), "Owner ID sent as "+middleware.OwnerHeader)
	rootCmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 10*time.Second, "Request timeout")
	rootCmd.PersistentFlags().StringVar(&opts.databaseURL, "database-url", os.Getenv("DATABASE_URL"), "PostgreSQL URL for migrations")

	rootCmd.AddCommand(migrateCmd(opts), accountsCmd(opts), transactionsCmd(opts), summaryCmd(opts))
	return rootCmd
}

func migrateCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back database migrations",
	}

	run := func(apply func(migrator) error, done string) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, _ []string) error {
			if opts.databaseURL == "" {
				return fmt.Errorf("--database-url or DATABASE_URL is required")
			}
			logger := zerolog.New(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr(), NoColor: true}).With().Timestamp().Logger()
			if err := apply(newMigrator(opts.databaseURL, logger)); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), done)
			return nil
		}
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE:  run(migrator.Up, "migrations applied"),
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the last migration",
			Args:  cobra.NoArgs,
			RunE:  run(migrator.Down, "last migration rolled back"),
		},
	)
	return cmd
}

func accountsCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "Account operations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var resp dto.ListResponse[*dto.AccountResponse]
			if err := getJSON(opts, "/api/v1/accounts", nil, &resp); err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tTYPE\tBALANCE")
			for _, a := range resp.Items {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s %s\n", a.ID, truncate(a.Name, 24), a.Type, a.Currency, a.Balance.StringFixed(2))
			}
			return w.Flush()
		},
	})
	return cmd
}

func transactionsCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transactions",
		Short: "Transaction operations",
	}

	var (
		accountID string
		typ       string
		limit     int
	)
	list := &cobra.Command{
		Use:   "list",
		Short: "List transactions, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			query := url.Values{}
			if accountID != "" {
				query.Set("account_id", accountID)
			}
			if typ != "" {
				query.Set("type", typ)
			}
			query.Set("limit", fmt.Sprint(limit))

			var resp dto.ListResponse[*dto.TransactionResponse]
			if err := getJSON(opts, "/api/v1/transactions", query, &resp); err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "DATE\tTYPE\tAMOUNT\tDESCRIPTION")
			for _, t := range resp.Items {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", t.Date.Format(time.DateOnly), t.Type, t.Amount.StringFixed(2), truncate(t.Description, 32))
			}
			return w.Flush()
		},
	}
	list.Flags().StringVar(&accountID, "account", "", "Only transactions touching this account")
	list.Flags().StringVar(&typ, "type", "", "Only transactions of this type")
	list.Flags().IntVar(&limit, "limit", 20, "Maximum number of transactions")

	cmd.AddCommand(list)
	return cmd
}

func summaryCmd(opts *options) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Show balances, debt and this month's cash flow",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var s dto.SummaryResponse
			if err := getJSON(opts, "/api/v1/summary", nil, &s); err != nil {
				return err
			}
			if asJSON {
				return printJSON(cmd.OutOrStdout(), s)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Summary for %04d-%02d\n", s.Year, s.Month)
			printMoney(out, "Balance", s.Balances)
			printMoney(out, "Owed debt", s.OwedDebt)
			printMoney(out, "Credit cards", s.CreditCardDebt)
			printMoney(out, "Net worth", s.NetWorth)
			fmt.Fprintf(out, "Income:    %s\n", s.MonthIncome.StringFixed(2))
			fmt.Fprintf(out, "Expenses:  %s\n", s.MonthExpense.StringFixed(2))
			fmt.Fprintf(out, "Cash flow: %s\n", s.CashFlow.StringFixed(2))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the raw JSON response")
	return cmd
}

// getJSON sends GET path to the API as the configured owner and decodes the
// response into dst.
func getJSON(opts *options, path string, query url.Values, dst any) error {
	if opts.owner == "" {
		return fmt.Errorf("--owner or GOFINANCE_OWNER is required")
	}

	target := opts.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequest(http.MethodGet, target, nil)
	if err != nil {
		return err
	}
	req.Header.Set(middleware.OwnerHeader, opts.owner)

	client := &http.Client{Timeout: opts.timeout}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		var apiErr dto.ErrorResponse
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s (status %d): %s", apiErr.Error, resp.StatusCode, apiErr.Message)
		}
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}
	return json.Unmarshal(body, dst)
}

func printMoney(w io.Writer, label string, m map[string]decimal.Decimal) {
	if len(m) == 0 {
		fmt.Fprintf(w, "%-13s -\n", label+":")
		return
	}
	currencies := make([]string, 0, len(m))
	for c := range m {
		currencies = append(currencies, c)
	}
	sort.Strings(currencies)
	for _, c := range currencies {
		fmt.Fprintf(w, "%-13s %s %s\n", label+":", c, m[c].StringFixed(2))
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}
