package blockchain

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/rss3-network/gateway-dashboard/internal/config"
	"github.com/rss3-network/gateway-dashboard/internal/models"
	"github.com/rss3-network/gateway-dashboard/pkg/logger"
	"github.com/rss3-network/gateway-dashboard/pkg/validation"
)

var ErrTransactionReverted = errors.New("transaction reverted")

// Backend is what the contracts need from an RPC connection.
// *ethclient.Client satisfies it.
type Backend interface {
	bind.ContractBackend
	bind.DeployBackend
	ChainID(ctx context.Context) (*big.Int, error)
}

// Ethereum reads balances from the token and billing contracts and sends
// approve and deposit transactions from the configured wallet.
type Ethereum struct {
	logger *logger.Logger
	config *config.Config
	client Backend

	tokenABI   abi.ABI
	billingABI abi.ABI
	token      *bind.BoundContract
	billing    *bind.BoundContract

	tokenAddress   common.Address
	billingAddress common.Address

	key     *ecdsa.PrivateKey
	wallet  common.Address
	chainID *big.Int

	mu       sync.Mutex
	decimals *uint8
	symbol   string
	// pending holds broadcast transactions until they are waited for.
	pending map[common.Hash]*types.Transaction
}

var _ models.BillingContracts = (*Ethereum)(nil)

// NewEthereum creates a new Ethereum instance. Run must be called before use.
func NewEthereum(logger *logger.Logger, config *config.Config) *Ethereum {
	return &Ethereum{
		logger:  logger.Named("blockchain"),
		config:  config,
		pending: map[common.Hash]*types.Transaction{},
	}
}

func (e *Ethereum) Run(ctx context.Context) error {
	err := e.ConnectToRPC(ctx)
	if err != nil {
		return fmt.Errorf("failed to connect to the RPC server: %w", err)
	}
	return e.Attach(ctx, e.client)
}

func (e *Ethereum) ConnectToRPC(ctx context.Context) error {
	client, err := ethclient.DialContext(ctx, e.config.RPCURL)
	if err != nil {
		return fmt.Errorf("failed to dial %s: %w", e.config.RPCURL, err)
	}
	e.client = client
	return nil
}

// Attach binds the contracts to backend and loads the wallet.
func (e *Ethereum) Attach(ctx context.Context, backend Backend) error {
	e.client = backend
	if err := e.BuildBindings(); err != nil {
		return fmt.Errorf("failed to build bindings: %w", err)
	}
	if err := e.loadWallet(ctx); err != nil {
		return fmt.Errorf("failed to load wallet: %w", err)
	}
	return nil
}

func (e *Ethereum) BuildBindings() error {
	tokenAddress, err := validation.ValidateAndParseAddress(e.config.TokenContractAddress)
	if err != nil {
		return fmt.Errorf("failed to parse token contract address: %w", err)
	}
	billingAddress, err := validation.ValidateAndParseAddress(e.config.BillingContractAddress)
	if err != nil {
		return fmt.Errorf("failed to parse billing contract address: %w", err)
	}

	tokenABI, billingABI, err := parseABIs()
	if err != nil {
		return err
	}

	e.tokenABI, e.billingABI = tokenABI, billingABI
	e.tokenAddress, e.billingAddress = tokenAddress, billingAddress
	e.token = bind.NewBoundContract(tokenAddress, tokenABI, e.client, e.client, e.client)
	e.billing = bind.NewBoundContract(billingAddress, billingABI, e.client, e.client, e.client)
	return nil
}

func (e *Ethereum) loadWallet(ctx context.Context) error {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(e.config.WalletPrivateKey, "0x"))
	if err != nil {
		return fmt.Errorf("failed to parse private key: %w", err)
	}
	e.key = key
	e.wallet = crypto.PubkeyToAddress(key.PublicKey)

	if e.config.ChainID != 0 {
		e.chainID = big.NewInt(e.config.ChainID)
		return nil
	}
	chainID, err := e.client.ChainID(ctx)
	if err != nil {
		return fmt.Errorf("failed to get chain ID: %w", err)
	}
	e.chainID = chainID
	return nil
}

// Wallet is the address deposits are made from.
func (e *Ethereum) Wallet() common.Address {
	return e.wallet
}

func (e *Ethereum) Close() error {
	if c, ok := e.client.(*ethclient.Client); ok && c != nil {
		c.Close()
	}
	return nil
}

func (e *Ethereum) callOpts(ctx context.Context) *bind.CallOpts {
	return &bind.CallOpts{Context: ctx, From: e.wallet}
}

// tokenInfo returns the token decimals and symbol, reading them from the
// contract the first time.
func (e *Ethereum) tokenInfo(ctx context.Context) (uint8, string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.decimals != nil {
		return *e.decimals, e.symbol, nil
	}

	results := []interface{}{}
	if err := e.token.Call(e.callOpts(ctx), &results, "decimals"); err != nil {
		return 0, "", fmt.Errorf("failed to get token decimals: %w", err)
	}
	decimals := results[0].(uint8)

	results = []interface{}{}
	if err := e.token.Call(e.callOpts(ctx), &results, "symbol"); err != nil {
		return 0, "", fmt.Errorf("failed to get token symbol: %w", err)
	}

	e.decimals = &decimals
	e.symbol = results[0].(string)
	return decimals, e.symbol, nil
}

func (e *Ethereum) balanceOf(ctx context.Context, contract *bind.BoundContract) (*models.TokenBalance, error) {
	decimals, symbol, err := e.tokenInfo(ctx)
	if err != nil {
		return nil, err
	}

	results := []interface{}{}
	if err := contract.Call(e.callOpts(ctx), &results, "balanceOf", e.wallet); err != nil {
		return nil, fmt.Errorf("failed to get balance: %w", err)
	}
	return &models.TokenBalance{Amount: results[0].(*big.Int), Decimals: decimals, Symbol: symbol}, nil
}

// TokenBalance returns the wallet's token balance.
func (e *Ethereum) TokenBalance(ctx context.Context) (*models.TokenBalance, error) {
	return e.balanceOf(ctx, e.token)
}

// DepositedBalance returns the balance held by the billing contract for the wallet.
func (e *Ethereum) DepositedBalance(ctx context.Context) (*models.TokenBalance, error) {
	return e.balanceOf(ctx, e.billing)
}

func (e *Ethereum) Allowance(ctx context.Context) (*models.Allowance, error) {
	decimals, _, err := e.tokenInfo(ctx)
	if err != nil {
		return nil, err
	}

	results := []interface{}{}
	if err := e.token.Call(e.callOpts(ctx), &results, "allowance", e.wallet, e.billingAddress); err != nil {
		return nil, fmt.Errorf("failed to get allowance: %w", err)
	}
	return &models.Allowance{Amount: results[0].(*big.Int), Decimals: decimals}, nil
}

// Approve lets the billing contract spend amount of the wallet's tokens.
func (e *Ethereum) Approve(ctx context.Context, amount *big.Int) (*models.PendingTx, error) {
	return e.transact(ctx, e.token, e.tokenABI, "approve", e.billingAddress, amount)
}

// Deposit moves amount from the wallet into the billing contract.
func (e *Ethereum) Deposit(ctx context.Context, amount *big.Int) (*models.PendingTx, error) {
	return e.transact(ctx, e.billing, e.billingABI, "deposit", amount)
}

func (e *Ethereum) transact(ctx context.Context, contract *bind.BoundContract, contractABI abi.ABI, method string, params ...interface{}) (*models.PendingTx, error) {
	opts, err := bind.NewKeyedTransactorWithChainID(e.key, e.chainID)
	if err != nil {
		return nil, fmt.Errorf("failed to create transactor: %w", err)
	}
	opts.Context = ctx

	tx, err := contract.Transact(opts, method, params...)
	if err != nil {
		return nil, fmt.Errorf("failed to send %s transaction: %w", method, err)
	}

	call, err := DecodeCall(contractABI, tx.Data())
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s transaction: %w", method, err)
	}
	e.logger.Info("Transaction sent", "method", call.Method, "amount", call.Amount.String(), "tx", tx.Hash().Hex())

	e.mu.Lock()
	e.pending[tx.Hash()] = tx
	e.mu.Unlock()

	return &models.PendingTx{Hash: tx.Hash().Hex(), Method: call.Method, Amount: call.Amount}, nil
}

// WaitForTransaction blocks until tx is mined or ctx is done. A mined but
// failed transaction returns ErrTransactionReverted along with its receipt.
func (e *Ethereum) WaitForTransaction(ctx context.Context, pending *models.PendingTx) (*models.TxReceipt, error) {
	hash := common.HexToHash(pending.Hash)

	e.mu.Lock()
	tx, ok := e.pending[hash]
	e.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("unknown transaction %s", pending.Hash)
	}

	receipt, err := bind.WaitMined(ctx, e.client, tx)
	if err != nil {
		return nil, fmt.Errorf("failed to wait for %s transaction: %w", pending.Method, err)
	}

	e.mu.Lock()
	delete(e.pending, hash)
	e.mu.Unlock()

	result := &models.TxReceipt{
		Hash:        receipt.TxHash.Hex(),
		BlockNumber: receipt.BlockNumber.Uint64(),
		Success:     receipt.Status == types.ReceiptStatusSuccessful,
	}
	if !result.Success {
		e.logger.Warn("Transaction reverted", "method", pending.Method, "tx", result.Hash)
		return result, fmt.Errorf("%s %s: %w", pending.Method, result.Hash, ErrTransactionReverted)
	}
	e.logger.Info("Transaction confirmed", "method", pending.Method, "tx", result.Hash, "block", result.BlockNumber)
	return result, nil
}
