package blockchain

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

var ErrUnknownMethod = errors.New("unknown method")

// Call is a decoded contract call sent by the dashboard.
type Call struct {
	Method string
	// Spender is set for approve calls.
	Spender common.Address
	Amount  *big.Int
}

// DecodeCall decodes the calldata of an approve or deposit transaction.
func DecodeCall(contract abi.ABI, data []byte) (*Call, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("calldata too short: %d bytes", len(data))
	}
	method, err := contract.MethodById(data[:4])
	if err != nil {
		return nil, fmt.Errorf("%w: %x", ErrUnknownMethod, data[:4])
	}
	args, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		return nil, fmt.Errorf("failed to unpack %s arguments: %w", method.Name, err)
	}

	call := &Call{Method: method.Name}
	switch method.Name {
	case "approve":
		call.Spender = args[0].(common.Address)
		call.Amount = args[1].(*big.Int)
	case "deposit":
		call.Amount = args[0].(*big.Int)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownMethod, method.Name)
	}
	return call, nil
}
