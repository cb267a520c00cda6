package timeline

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"vaultScope/internal/model"
)

// ParseEventID splits a composite indexer event id of the form
// "<prefix>_<block_number>_<log_index>" into its ordering key.
func ParseEventID(id string) (blockNumber, logIndex uint64, err error) {
	parts := strings.Split(id, "_")
	if len(parts) != 3 {
		return 0, 0, fmt.Errorf("malformed event id: %s", id)
	}
	blockNumber, err = strconv.ParseUint(parts[1], 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("malformed block number in event id %s: %w", id, err)
	}
	logIndex, err = strconv.ParseUint(parts[2], 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("malformed log index in event id %s: %w", id, err)
	}
	return blockNumber, logIndex, nil
}

// Build merges deposits, withdrawals, and transfers into one timeline
// ordered by (block number, log index). Transfers are classified as inbound
// or outbound relative to the depositor; a transfer touching neither side
// means the upstream query filter is broken and is rejected outright.
func Build(
	deposits []model.RawDeposit,
	withdrawals []model.RawWithdraw,
	transfers []model.RawTransfer,
	depositor string,
) ([]model.Event, error) {
	events := make([]model.Event, 0, len(deposits)+len(withdrawals)+len(transfers))

	for _, deposit := range deposits {
		block, logIndex, err := ParseEventID(deposit.ID)
		if err != nil {
			return nil, err
		}
		shares, err := model.ParseAmount(deposit.Shares)
		if err != nil {
			return nil, fmt.Errorf("deposit %s: %w", deposit.ID, err)
		}
		assets, err := model.ParseAmount(deposit.Assets)
		if err != nil {
			return nil, fmt.Errorf("deposit %s: %w", deposit.ID, err)
		}
		events = append(events, model.Event{
			Kind:        model.KindDeposit,
			BlockNumber: block,
			LogIndex:    logIndex,
			Deposit:     &model.DepositData{Shares: shares, Assets: assets},
		})
	}

	for _, withdrawal := range withdrawals {
		block, logIndex, err := ParseEventID(withdrawal.ID)
		if err != nil {
			return nil, err
		}
		shares, err := model.ParseAmount(withdrawal.Shares)
		if err != nil {
			return nil, fmt.Errorf("withdrawal %s: %w", withdrawal.ID, err)
		}
		assets, err := model.ParseAmount(withdrawal.Assets)
		if err != nil {
			return nil, fmt.Errorf("withdrawal %s: %w", withdrawal.ID, err)
		}
		events = append(events, model.Event{
			Kind:        model.KindWithdraw,
			BlockNumber: block,
			LogIndex:    logIndex,
			Withdraw:    &model.WithdrawData{Shares: shares, Assets: assets},
		})
	}

	for _, transfer := range transfers {
		block, logIndex, err := ParseEventID(transfer.ID)
		if err != nil {
			return nil, err
		}
		value, err := model.ParseAmount(transfer.Value)
		if err != nil {
			return nil, fmt.Errorf("transfer %s: %w", transfer.ID, err)
		}

		var kind model.EventKind
		switch {
		case strings.EqualFold(transfer.Sender, depositor):
			kind = model.KindTransferOut
		case strings.EqualFold(transfer.Receiver, depositor):
			kind = model.KindTransferIn
		default:
			return nil, fmt.Errorf("transfer %s touches neither side of depositor %s", transfer.ID, depositor)
		}

		events = append(events, model.Event{
			Kind:        kind,
			BlockNumber: block,
			LogIndex:    logIndex,
			Transfer: &model.TransferData{
				Sender:   transfer.Sender,
				Receiver: transfer.Receiver,
				Value:    value,
			},
		})
	}

	sort.SliceStable(events, func(i, j int) bool {
		if events[i].BlockNumber != events[j].BlockNumber {
			return events[i].BlockNumber < events[j].BlockNumber
		}
		return events[i].LogIndex < events[j].LogIndex
	})

	return events, nil
}
