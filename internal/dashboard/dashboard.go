// Package dashboard wires the gateway client, the contracts, the
// notificator and the billing panel together for the CLI and the API.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rss3-network/gateway-dashboard/internal/billing"
	"github.com/rss3-network/gateway-dashboard/internal/blockchain"
	"github.com/rss3-network/gateway-dashboard/internal/config"
	"github.com/rss3-network/gateway-dashboard/internal/confirm"
	"github.com/rss3-network/gateway-dashboard/internal/gateway"
	"github.com/rss3-network/gateway-dashboard/internal/http_api"
	"github.com/rss3-network/gateway-dashboard/internal/models"
	"github.com/rss3-network/gateway-dashboard/internal/notificator"
	"github.com/rss3-network/gateway-dashboard/pkg/logger"
)

// Dashboard is the main struct of the application. It holds the shared
// components; the contracts are connected on first use.
type Dashboard struct {
	logger *logger.Logger
	config *config.Config

	gateway     models.GatewayService
	notificator *notificator.Notificator

	mu        sync.Mutex
	contracts models.BillingContracts
	closeRPC  func() error
}

// NewDashboard creates a Dashboard from cfg.
func NewDashboard(cfg *config.Config, logger *logger.Logger) (*Dashboard, error) {
	notif, err := notificator.NewFromConfig(logger, cfg)
	if err != nil {
		return nil, err
	}
	return &Dashboard{
		logger:      logger,
		config:      cfg,
		gateway:     gateway.NewClient(cfg.GatewayURL, cfg.SessionCookie, cfg.SessionToken, logger),
		notificator: notif,
	}, nil
}

// NewWithServices creates a Dashboard around existing services. contracts
// may be nil when billing is not used.
func NewWithServices(cfg *config.Config, logger *logger.Logger, gw models.GatewayService, contracts models.BillingContracts, notif *notificator.Notificator) *Dashboard {
	return &Dashboard{
		logger:      logger,
		config:      cfg,
		gateway:     gw,
		contracts:   contracts,
		notificator: notif,
	}
}

func (d *Dashboard) Logger() *logger.Logger {
	return d.logger
}

func (d *Dashboard) Gateway() models.GatewayService {
	return d.gateway
}

func (d *Dashboard) Notificator() models.NotificationService {
	return d.notificator
}

// Contracts connects to the RPC endpoint and binds the contracts.
func (d *Dashboard) Contracts(ctx context.Context) (models.BillingContracts, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.contracts != nil {
		return d.contracts, nil
	}

	if err := d.config.ValidateBilling(); err != nil {
		return nil, fmt.Errorf("billing is not configured: %w", err)
	}
	eth := blockchain.NewEthereum(d.logger, d.config)
	if err := eth.Run(ctx); err != nil {
		return nil, err
	}
	d.logger.Info("Connected to the billing contracts", "wallet", eth.Wallet().Hex())

	d.contracts = eth
	d.closeRPC = eth.Close
	return eth, nil
}

// Panel returns a billing panel asking confirmer before each action.
func (d *Dashboard) Panel(ctx context.Context, confirmer confirm.Confirmer) (*billing.Panel, error) {
	contracts, err := d.Contracts(ctx)
	if err != nil {
		return nil, err
	}
	return billing.NewPanel(d.logger, contracts, d.gateway, confirmer, d.notificator), nil
}

// Watcher returns a watcher for the pending withdrawal request.
func (d *Dashboard) Watcher() *billing.Watcher {
	return billing.NewWatcher(d.logger, d.gateway, d.notificator, d.config.WithdrawalWatchInterval, d.config.RequestTimeout)
}

// Watch polls the withdrawal request until ctx is done.
func (d *Dashboard) Watch(ctx context.Context) error {
	w := d.Watcher()
	if err := w.Start(); err != nil {
		return err
	}
	defer w.Stop()

	d.startBot(ctx)
	<-ctx.Done()
	return nil
}

// startBot answers Telegram updates in the background until ctx is done.
func (d *Dashboard) startBot(ctx context.Context) {
	if d.notificator.TelegramNotificator == nil {
		return
	}
	go d.notificator.TelegramNotificator.Start(ctx)
}

// Server builds the local API. Billing routes are disabled when the
// contracts cannot be reached.
func (d *Dashboard) Server(ctx context.Context) *http_api.HTTPServer {
	panel, err := d.Panel(ctx, confirm.FromContext{})
	if err != nil {
		d.logger.Warn("Billing routes disabled", "error", err)
		panel = nil
	}
	return http_api.NewHTTPServer(d.gateway, panel, d.notificator, d.config.APIPort, d.logger)
}

// Serve runs the local API and the withdrawal watcher until ctx is done.
func (d *Dashboard) Serve(ctx context.Context) error {
	server := d.Server(ctx)

	w := d.Watcher()
	if err := w.Start(); err != nil {
		return err
	}
	defer w.Stop()
	d.startBot(ctx)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		if err := server.Shutdown(); err != nil {
			return err
		}
		return <-errCh
	}
}

func (d *Dashboard) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	var errs []error
	if d.closeRPC != nil {
		errs = append(errs, d.closeRPC())
	}
	d.logger.Sync()
	return errors.Join(errs...)
}
