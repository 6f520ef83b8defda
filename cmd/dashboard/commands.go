package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/shopspring/decimal"
	"github.com/urfave/cli/v2"

	"github.com/rss3-network/gateway-dashboard/internal/billing"
	"github.com/rss3-network/gateway-dashboard/internal/confirm"
	"github.com/rss3-network/gateway-dashboard/internal/form"
	"github.com/rss3-network/gateway-dashboard/internal/settings"
)

func idFlag() cli.Flag {
	return &cli.Int64Flag{Name: "id", Usage: "Key ID", Required: true}
}

func yesFlag() cli.Flag {
	return &cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "Skip the confirmation"}
}

func amountFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "amount", Aliases: []string{"a"}, Usage: "Amount in tokens"},
		&cli.BoolFlag{Name: "max", Usage: "Use the whole balance"},
		yesFlag(),
	}
}

func keysCommand() *cli.Command {
	return &cli.Command{
		Name:  "keys",
		Usage: "Manage API keys",
		Subcommands: []*cli.Command{
			{
				Name:  "create",
				Usage: "Create a key",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Usage: "Key name"},
				},
				Action: createKey,
			},
			{
				Name:  "show",
				Usage: "Show a key",
				Flags: []cli.Flag{
					idFlag(),
					&cli.BoolFlag{Name: "reveal", Usage: "Print the passkey in clear text"},
					&cli.BoolFlag{Name: "copy", Usage: "Print only the passkey, for piping to the clipboard"},
				},
				Action: showKey,
			},
			{
				Name:  "rename",
				Usage: "Rename a key",
				Flags: []cli.Flag{
					idFlag(),
					&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Usage: "New name"},
				},
				Action: renameKey,
			},
			{
				Name:  "regenerate",
				Usage: "Issue a new passkey; the old one stops working",
				Flags: []cli.Flag{
					idFlag(),
					yesFlag(),
					&cli.BoolFlag{Name: "reveal", Usage: "Print the new passkey in clear text"},
				},
				Action: regenerateKey,
			},
		},
	}
}

func billingCommand() *cli.Command {
	return &cli.Command{
		Name:  "billing",
		Usage: "Deposit and withdraw billing tokens",
		Subcommands: []*cli.Command{
			{
				Name:   "balance",
				Usage:  "Show the wallet and deposited balances",
				Action: showBalance,
			},
			{
				Name:   "deposit",
				Usage:  "Deposit tokens, approving the allowance first if needed",
				Flags:  amountFlags(),
				Action: deposit,
			},
			{
				Name:   "withdraw",
				Usage:  "Request a withdrawal of deposited tokens",
				Flags:  amountFlags(),
				Action: withdraw,
			},
			{
				Name:   "watch",
				Usage:  "Notify when the pending withdrawal settles",
				Action: watch,
			},
		},
	}
}

func printKey(w io.Writer, id int64, name, passkey string) {
	fmt.Fprintf(w, "ID:      %d\nName:    %s\nPasskey: %s\n", id, name, passkey)
}

// reportError prints validation errors and declined confirmations and
// returns whatever remains.
func reportError(w io.Writer, err error) error {
	var validationErr *form.ValidationError
	switch {
	case errors.As(err, &validationErr):
		fields := make([]string, 0, len(validationErr.Fields))
		for f := range validationErr.Fields {
			fields = append(fields, f)
		}
		sort.Strings(fields)
		for _, f := range fields {
			fmt.Fprintf(w, "%s: %s\n", f, validationErr.Fields[f])
		}
		return cli.Exit("", 1)
	case errors.Is(err, confirm.ErrCancelled):
		fmt.Fprintln(w, "Cancelled.")
		return nil
	default:
		return err
	}
}

func createKey(c *cli.Context) error {
	d, ctx, done, err := setup(c)
	if err != nil {
		return err
	}
	defer done()

	key, err := settings.CreateKey(ctx, d.Gateway(), c.String("name"))
	if err != nil {
		return err
	}
	printKey(c.App.Writer, key.ID, key.Name, key.Passkey)
	return nil
}

func showKey(c *cli.Context) error {
	d, ctx, done, err := setup(c)
	if err != nil {
		return err
	}
	defer done()

	key, err := d.Gateway().GetKey(ctx, c.Int64("id"))
	if err != nil {
		return err
	}
	if c.Bool("copy") {
		return settings.NewKeyForm(d.Logger(), d.Gateway(), nil, d.Notificator(), key.ID, key.Passkey).Copy(c.App.Writer)
	}
	passkey := settings.Mask(key.Passkey)
	if c.Bool("reveal") {
		passkey = key.Passkey
	}
	printKey(c.App.Writer, key.ID, key.Name, passkey)
	return nil
}

func renameKey(c *cli.Context) error {
	d, ctx, done, err := setup(c)
	if err != nil {
		return err
	}
	defer done()

	id := c.Int64("id")
	f := settings.NewNameForm(d.Logger(), d.Gateway(), id, "")
	key, err := d.Gateway().GetKey(ctx, id)
	if err != nil {
		return err
	}
	f.Sync(key.Name)
	if c.IsSet("name") {
		f.SetName(c.String("name"))
	}
	if err := f.Submit(ctx); err != nil {
		return reportError(c.App.Writer, err)
	}
	fmt.Fprintf(c.App.Writer, "Key %d renamed to %q\n", id, f.Name())
	return nil
}

func regenerateKey(c *cli.Context) error {
	d, ctx, done, err := setup(c)
	if err != nil {
		return err
	}
	defer done()

	f := settings.NewKeyForm(d.Logger(), d.Gateway(), confirmer(c), d.Notificator(), c.Int64("id"), "")
	key, err := f.Regenerate(ctx)
	if err != nil {
		return reportError(c.App.Writer, err)
	}
	passkey := f.Masked()
	if c.Bool("reveal") {
		passkey = f.Reveal()
	}
	printKey(c.App.Writer, key.ID, key.Name, passkey)
	return nil
}

func showBalance(c *cli.Context) error {
	d, ctx, done, err := setup(c)
	if err != nil {
		return err
	}
	defer done()

	panel, err := d.Panel(ctx, confirmer(c))
	if err != nil {
		return err
	}
	b, err := panel.Balances(ctx)
	fmt.Fprintf(c.App.Writer, "Wallet:    %s %s\nDeposited: %s %s\n", b.WalletDisplay, b.Symbol, b.DepositedDisplay, b.Symbol)

	current, werr := d.Gateway().GetCurrentWithdrawalRequest(ctx)
	if werr == nil && current.Pending() {
		fmt.Fprintln(c.App.Writer, billing.PendingWarning(current, b.Symbol))
	}
	return errors.Join(err, werr)
}

// amount reads --amount, or leaves it to the caller when --max is set.
func amount(c *cli.Context) (decimal.Decimal, error) {
	if c.Bool("max") {
		return decimal.Zero, nil
	}
	if !c.IsSet("amount") {
		return decimal.Zero, cli.Exit("either --amount or --max is required", 1)
	}
	v, err := decimal.NewFromString(c.String("amount"))
	if err != nil {
		return decimal.Zero, cli.Exit(fmt.Sprintf("invalid amount %q", c.String("amount")), 1)
	}
	return v, nil
}

func deposit(c *cli.Context) error {
	value, err := amount(c)
	if err != nil {
		return err
	}
	d, ctx, done, err := setup(c)
	if err != nil {
		return err
	}
	defer done()

	panel, err := d.Panel(ctx, confirmer(c))
	if err != nil {
		return err
	}
	flow := panel.Deposit
	if err := flow.Refresh(ctx); err != nil {
		return err
	}
	flow.Open()
	if c.Bool("max") {
		flow.SetMax()
	} else {
		flow.SetAmount(value)
	}

	requested := flow.Amount()
	fmt.Fprintf(c.App.Writer, "%s %s...\n", flow.SubmitLabel(), requested.String())
	step, err := flow.Submit(ctx)
	if err != nil {
		return reportError(c.App.Writer, err)
	}
	switch step {
	case billing.StepApproved:
		fmt.Fprintln(c.App.Writer, "Allowance approved. Run the command again to deposit.")
	case billing.StepDeposited:
		fmt.Fprintf(c.App.Writer, "Deposited %s.\n", requested.String())
	default:
		fmt.Fprintln(c.App.Writer, "Balances are not available yet, nothing was sent.")
	}
	return nil
}

func withdraw(c *cli.Context) error {
	value, err := amount(c)
	if err != nil {
		return err
	}
	d, ctx, done, err := setup(c)
	if err != nil {
		return err
	}
	defer done()

	panel, err := d.Panel(ctx, confirmer(c))
	if err != nil {
		return err
	}
	flow := panel.Withdraw
	if err := flow.Refresh(ctx); err != nil {
		return err
	}
	flow.Open()
	if c.Bool("max") {
		flow.SetMax()
	} else {
		flow.SetAmount(value)
	}

	if _, err := flow.Submit(ctx); err != nil {
		return reportError(c.App.Writer, err)
	}
	fmt.Fprintln(c.App.Writer, "Withdrawal requested. It is processed at the end of the current epoch (every 18 hours).")
	return nil
}

func watch(c *cli.Context) error {
	d, _, done, err := setup(c)
	if err != nil {
		return err
	}
	defer done()

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()
	return d.Watch(ctx)
}
