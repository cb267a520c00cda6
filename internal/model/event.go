package model

import (
	"fmt"
	"math/big"
)

// EventKind identifies a normalized depositor event.
type EventKind string

const (
	KindDeposit     EventKind = "deposit"
	KindWithdraw    EventKind = "withdraw"
	KindTransferIn  EventKind = "transfer_in"
	KindTransferOut EventKind = "transfer_out"
)

// DepositData carries the deposit-specific payload.
type DepositData struct {
	Shares *big.Int
	Assets *big.Int
}

// WithdrawData carries the withdrawal-specific payload.
type WithdrawData struct {
	Shares *big.Int
	Assets *big.Int
}

// TransferData carries the share transfer payload.
type TransferData struct {
	Sender   string
	Receiver string
	Value    *big.Int
}

// Event is a normalized depositor event. Exactly one payload pointer is
// set, matching Kind. Events are ordered by (BlockNumber, LogIndex).
type Event struct {
	Kind        EventKind
	BlockNumber uint64
	LogIndex    uint64

	Deposit  *DepositData
	Withdraw *WithdrawData
	Transfer *TransferData
}

// ShareDelta returns the signed share balance change for the event.
func (e Event) ShareDelta() *big.Int {
	switch e.Kind {
	case KindDeposit:
		return new(big.Int).Set(e.Deposit.Shares)
	case KindWithdraw:
		return new(big.Int).Neg(e.Withdraw.Shares)
	case KindTransferIn:
		return new(big.Int).Set(e.Transfer.Value)
	case KindTransferOut:
		return new(big.Int).Neg(e.Transfer.Value)
	default:
		return new(big.Int)
	}
}

// ParseAmount parses a decimal token amount string. Empty input counts as zero.
func ParseAmount(value string) (*big.Int, error) {
	if value == "" {
		return big.NewInt(0), nil
	}
	parsed, ok := new(big.Int).SetString(value, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount: %s", value)
	}
	return parsed, nil
}

// DecimalScale returns 10^decimals.
func DecimalScale(decimals uint8) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
}
