package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/google/subcommands"
	"github.com/shopspring/decimal"

	"github.com/bobmcallan/papertrade/internal/app"
	"github.com/bobmcallan/papertrade/internal/common"
	"github.com/bobmcallan/papertrade/internal/models"
)

// commands returns every subcommand writing to out.
func commands(out io.Writer) []subcommands.Command {
	return []subcommands.Command{
		&tokenCmd{out: out},
		&walletsCmd{out: out},
		&adjustCmd{out: out},
		&reconcileCmd{out: out},
	}
}

// openApp loads the configured app with a quiet logger so command output
// stays readable.
func openApp() (*app.App, error) {
	cfg, err := common.LoadConfig(app.ResolveConfigPath(*configPath))
	if err != nil {
		return nil, err
	}
	return app.NewAppWithConfig(cfg, common.NewLogger("warn"))
}

type tokenCmd struct {
	out    io.Writer
	userID string
	email  string
	role   string
}

func (*tokenCmd) Name() string     { return "token" }
func (*tokenCmd) Synopsis() string { return "mint a bearer token for local development" }
func (*tokenCmd) Usage() string {
	return `papertrade token -user <id> [-email <email>] [-role user|admin]

  Signs a token with the configured auth.jwt_secret. Refused in production.
`
}

func (c *tokenCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.userID, "user", "", "subject user id")
	f.StringVar(&c.email, "email", "", "email claim")
	f.StringVar(&c.role, "role", string(models.RoleUser), "role claim (user or admin)")
}

func (c *tokenCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.userID == "" {
		fmt.Fprintln(os.Stderr, "-user is required")
		return subcommands.ExitUsageError
	}
	role := models.Role(c.role)
	if !role.Valid() {
		fmt.Fprintf(os.Stderr, "unknown role %q\n", c.role)
		return subcommands.ExitUsageError
	}

	cfg, err := common.LoadConfig(app.ResolveConfigPath(*configPath))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	if cfg.IsProduction() {
		fmt.Fprintln(os.Stderr, "token minting is disabled in production")
		return subcommands.ExitFailure
	}

	tok, err := common.SignToken(cfg.Auth, common.UserContext{UserID: c.userID, Email: c.email, Role: role}, time.Now())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	fmt.Fprintln(c.out, tok)
	return subcommands.ExitSuccess
}

type walletsCmd struct {
	out io.Writer
}

func (*walletsCmd) Name() string     { return "wallets" }
func (*walletsCmd) Synopsis() string { return "list wallets and balances" }
func (*walletsCmd) Usage() string {
	return `papertrade wallets
`
}

func (*walletsCmd) SetFlags(*flag.FlagSet) {}

func (c *walletsCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := openApp()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	wallets, err := a.Storage.WalletStore().ListWallets(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "USER\tWALLET\tBALANCE\tVERSION\tSTATUS")
	total := decimal.Zero
	for _, w := range wallets {
		total = total.Add(w.Balance)
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", w.UserID, w.ID, common.FormatMoney(w.Balance, w.Currency), w.Version, w.Status)
	}
	fmt.Fprintf(tw, "\t\t%s\t\t\n", common.FormatUSD(total))
	tw.Flush()
	return subcommands.ExitSuccess
}

type adjustCmd struct {
	out         io.Writer
	adminID     string
	userID      string
	amount      string
	txType      string
	description string
}

func (*adjustCmd) Name() string     { return "adjust" }
func (*adjustCmd) Synopsis() string { return "post an admin balance entry" }
func (*adjustCmd) Usage() string {
	return `papertrade adjust -admin <id> -user <id> -amount <signed amount> [-type adjustment|deposit|withdrawal|fee] [-description <text>]
`
}

func (c *adjustCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.adminID, "admin", "", "acting admin id, recorded as created_by")
	f.StringVar(&c.userID, "user", "", "wallet owner")
	f.StringVar(&c.amount, "amount", "", "signed amount, e.g. 100 or -25.50")
	f.StringVar(&c.txType, "type", string(models.TransactionAdjustment), "entry type")
	f.StringVar(&c.description, "description", "", "ledger description")
}

func (c *adjustCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	amount, err := decimal.NewFromString(c.amount)
	if err != nil || c.userID == "" || c.adminID == "" {
		fmt.Fprintln(os.Stderr, "-admin, -user and a numeric -amount are required")
		return subcommands.ExitUsageError
	}

	a, err := openApp()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	entry, err := a.AdminService.AdjustWallet(common.OperatorContext(ctx, c.adminID), c.adminID, c.userID, amount, models.TransactionType(c.txType), c.description)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	fmt.Fprintf(c.out, "%s %s %s -> %s\n", entry.ID, entry.Type, entry.Amount, common.FormatUSD(entry.BalanceAfter))
	return subcommands.ExitSuccess
}

type reconcileCmd struct {
	out    io.Writer
	userID string
}

func (*reconcileCmd) Name() string     { return "reconcile" }
func (*reconcileCmd) Synopsis() string { return "replay wallet ledgers and report breaks" }
func (*reconcileCmd) Usage() string {
	return `papertrade reconcile [-user <id>]

  Replays every wallet (or one) and exits non-zero when a stored balance
  does not match its ledger.
`
}

func (c *reconcileCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.userID, "user", "", "reconcile one user only")
}

func (c *reconcileCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := openApp()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	users := []string{c.userID}
	if c.userID == "" {
		wallets, err := a.Storage.WalletStore().ListWallets(ctx)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitFailure
		}
		users = users[:0]
		for _, w := range wallets {
			users = append(users, w.UserID)
		}
	}

	broken := 0
	for _, userID := range users {
		rec, err := a.WalletService.Reconcile(ctx, userID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", userID, err)
			broken++
			continue
		}
		state := "ok"
		if !rec.Consistent {
			state = "BROKEN"
			broken++
		}
		fmt.Fprintf(c.out, "%s\t%s\tentries=%d stored=%s replayed=%s\n", state, userID, rec.Entries, rec.StoredBalance, rec.ReplayedBalance)
		for _, b := range rec.Breaks {
			fmt.Fprintf(c.out, "  seq %d %s: %s\n", b.Sequence, b.TransactionID, b.Reason)
		}
	}

	if broken > 0 {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
