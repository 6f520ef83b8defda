package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/rss3-network/gateway-dashboard/internal/config"
	"github.com/rss3-network/gateway-dashboard/internal/confirm"
	"github.com/rss3-network/gateway-dashboard/internal/dashboard"
	"github.com/rss3-network/gateway-dashboard/pkg/logger"
)

func main() {
	err := newApp().Run(os.Args)
	if err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "dashboard",
		Usage: "Manage gateway API keys and the billing deposit",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "gateway-url", Aliases: []string{"g"}, Usage: "Gateway base URL"},
			&cli.StringFlag{Name: "session-token", Usage: "Gateway session token"},
			&cli.StringFlag{Name: "rpc-url", Aliases: []string{"r"}, Usage: "Ethereum RPC URL"},
			&cli.StringFlag{Name: "token-contract-address", Usage: "Billing token contract address"},
			&cli.StringFlag{Name: "billing-contract-address", Usage: "Billing contract address"},
			&cli.DurationFlag{Name: "timeout", Aliases: []string{"t"}, Usage: "Timeout of a single command"},
			&cli.BoolFlag{Name: "development", Aliases: []string{"D"}, Usage: "Development mode"},
		},
		Commands: []*cli.Command{
			keysCommand(),
			billingCommand(),
			{
				Name:  "serve",
				Usage: "Serve the local JSON API and watch withdrawals",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Usage: "API port"},
				},
				Action: serve,
			},
		},
	}
}

// loadConfig reads the environment and applies the flags that were set.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %v", err)
	}

	// Override with flags if set
	if c.IsSet("gateway-url") {
		cfg.GatewayURL = c.String("gateway-url")
	}
	if c.IsSet("session-token") {
		cfg.SessionToken = c.String("session-token")
	}
	if c.IsSet("rpc-url") {
		cfg.RPCURL = c.String("rpc-url")
	}
	if c.IsSet("token-contract-address") {
		cfg.TokenContractAddress = c.String("token-contract-address")
	}
	if c.IsSet("billing-contract-address") {
		cfg.BillingContractAddress = c.String("billing-contract-address")
	}
	if c.IsSet("timeout") {
		cfg.RequestTimeout = c.Duration("timeout")
	}
	if c.IsSet("development") {
		cfg.Development = c.Bool("development")
	}
	if c.IsSet("port") {
		cfg.APIPort = c.Int("port")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// setup builds the dashboard for one command. The returned context is
// bounded by --timeout.
func setup(c *cli.Context) (*dashboard.Dashboard, context.Context, func(), error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, nil, nil, err
	}

	// Initialize logger
	log, err := logger.NewLogger(cfg.Development)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to initialize logger: %v", err)
	}

	d, err := dashboard.NewDashboard(cfg, log)
	if err != nil {
		return nil, nil, nil, err
	}

	ctx, cancel := context.WithTimeout(c.Context, cfg.RequestTimeout)
	return d, ctx, func() {
		cancel()
		_ = d.Close()
	}, nil
}

// confirmer asks on the terminal unless --yes was given.
func confirmer(c *cli.Context) confirm.Confirmer {
	if c.Bool("yes") {
		return &confirm.Static{Answer: true}
	}
	return confirm.NewTerminal(os.Stdin, c.App.Writer)
}

func serve(c *cli.Context) error {
	d, _, done, err := setup(c)
	if err != nil {
		return err
	}
	defer done()

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()
	return d.Serve(ctx)
}
