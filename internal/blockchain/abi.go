package blockchain

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// TokenABI is the part of the ERC-20 interface the dashboard uses.
const TokenABI = `[
{"inputs":[{"internalType":"address","name":"owner","type":"address"},{"internalType":"address","name":"spender","type":"address"}],"name":"allowance","outputs":[{"internalType":"uint256","name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
{"inputs":[{"internalType":"address","name":"spender","type":"address"},{"internalType":"uint256","name":"amount","type":"uint256"}],"name":"approve","outputs":[{"internalType":"bool","name":"","type":"bool"}],"stateMutability":"nonpayable","type":"function"},
{"inputs":[{"internalType":"address","name":"account","type":"address"}],"name":"balanceOf","outputs":[{"internalType":"uint256","name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
{"inputs":[],"name":"decimals","outputs":[{"internalType":"uint8","name":"","type":"uint8"}],"stateMutability":"view","type":"function"},
{"inputs":[],"name":"symbol","outputs":[{"internalType":"string","name":"","type":"string"}],"stateMutability":"view","type":"function"}
]`

// BillingABI is the part of the billing contract the dashboard uses.
// balanceOf returns the deposited balance of an account.
const BillingABI = `[
{"inputs":[{"internalType":"uint256","name":"amount","type":"uint256"}],"name":"deposit","outputs":[],"stateMutability":"nonpayable","type":"function"},
{"inputs":[{"internalType":"address","name":"account","type":"address"}],"name":"balanceOf","outputs":[{"internalType":"uint256","name":"","type":"uint256"}],"stateMutability":"view","type":"function"}
]`

func parseABIs() (token abi.ABI, billing abi.ABI, err error) {
	token, err = abi.JSON(strings.NewReader(TokenABI))
	if err != nil {
		return abi.ABI{}, abi.ABI{}, fmt.Errorf("failed to parse token ABI: %w", err)
	}
	billing, err = abi.JSON(strings.NewReader(BillingABI))
	if err != nil {
		return abi.ABI{}, abi.ABI{}, fmt.Errorf("failed to parse billing ABI: %w", err)
	}
	return token, billing, nil
}
