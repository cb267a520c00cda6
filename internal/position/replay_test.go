package position

import (
	"math/big"
	"reflect"
	"testing"

	"vaultScope/internal/model"
)

func deposit(block, logIndex uint64, shares, assets int64) model.Event {
	return model.Event{
		Kind:        model.KindDeposit,
		BlockNumber: block,
		LogIndex:    logIndex,
		Deposit:     &model.DepositData{Shares: big.NewInt(shares), Assets: big.NewInt(assets)},
	}
}

func withdraw(block, logIndex uint64, shares, assets int64) model.Event {
	return model.Event{
		Kind:        model.KindWithdraw,
		BlockNumber: block,
		LogIndex:    logIndex,
		Withdraw:    &model.WithdrawData{Shares: big.NewInt(shares), Assets: big.NewInt(assets)},
	}
}

func transferIn(block, logIndex uint64, value int64) model.Event {
	return model.Event{
		Kind:        model.KindTransferIn,
		BlockNumber: block,
		LogIndex:    logIndex,
		Transfer:    &model.TransferData{Value: big.NewInt(value)},
	}
}

func transferOut(block, logIndex uint64, value int64) model.Event {
	return model.Event{
		Kind:        model.KindTransferOut,
		BlockNumber: block,
		LogIndex:    logIndex,
		Transfer:    &model.TransferData{Value: big.NewInt(value)},
	}
}

func TestReplayRunningBalanceAndTotals(t *testing.T) {
	events := []model.Event{
		deposit(1, 0, 100, 100),
		transferIn(2, 0, 50),
		withdraw(3, 0, 30, 33),
		transferOut(4, 0, 40),
	}

	result := Replay(events)

	if result.CurrentShares.Cmp(big.NewInt(80)) != 0 {
		t.Fatalf("current shares: expected 80, got %s", result.CurrentShares)
	}
	if result.TotalDeposited.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("total deposited: expected 100, got %s", result.TotalDeposited)
	}
	if result.TotalWithdrawn.Cmp(big.NewInt(33)) != 0 {
		t.Fatalf("total withdrawn: expected 33, got %s", result.TotalWithdrawn)
	}

	// The running balance always equals the sum of deltas in order.
	sum := new(big.Int)
	for i, snapshot := range result.Snapshots {
		sum.Add(sum, snapshot.ShareDelta)
		if snapshot.ShareBalance.Cmp(sum) != 0 {
			t.Fatalf("snapshot %d: balance %s != delta sum %s", i, snapshot.ShareBalance, sum)
		}
	}
}

func TestReplayPeakTracking(t *testing.T) {
	// 0→100 (block 1), 100→150 (block 2), 150→120 (block 3), 120→160 (block 4)
	events := []model.Event{
		deposit(1, 0, 100, 100),
		transferIn(2, 0, 50),
		withdraw(3, 0, 30, 30),
		deposit(4, 0, 40, 40),
	}

	result := Replay(events)

	if result.PeakShares.Cmp(big.NewInt(160)) != 0 {
		t.Fatalf("peak shares: expected 160, got %s", result.PeakShares)
	}
	if result.PeakSharesBlock != 4 {
		t.Fatalf("peak block: expected 4, got %d", result.PeakSharesBlock)
	}
}

func TestReplayPeakIgnoresPlateau(t *testing.T) {
	events := []model.Event{
		deposit(1, 0, 100, 100),
		withdraw(2, 0, 50, 50),
		transferIn(3, 0, 50), // back to 100, not a new peak
	}

	result := Replay(events)

	if result.PeakShares.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("peak shares: expected 100, got %s", result.PeakShares)
	}
	if result.PeakSharesBlock != 1 {
		t.Fatalf("peak block: expected 1, got %d", result.PeakSharesBlock)
	}
}

func TestReplayDoesNotClampNegativeBalance(t *testing.T) {
	events := []model.Event{
		deposit(1, 0, 10, 10),
		withdraw(2, 0, 25, 25),
	}

	result := Replay(events)

	if result.CurrentShares.Cmp(big.NewInt(-15)) != 0 {
		t.Fatalf("expected negative balance to surface, got %s", result.CurrentShares)
	}
}

func TestReplayDeterminism(t *testing.T) {
	events := []model.Event{
		deposit(1, 0, 100, 100),
		withdraw(2, 1, 20, 22),
		transferOut(5, 0, 10),
	}

	first := Replay(events)
	second := Replay(events)

	if !reflect.DeepEqual(first, second) {
		t.Fatalf("replay is not deterministic: %+v != %+v", first, second)
	}
}

func TestReplayEmptyTimeline(t *testing.T) {
	result := Replay(nil)

	if len(result.Snapshots) != 0 {
		t.Fatalf("expected no snapshots, got %d", len(result.Snapshots))
	}
	if result.CurrentShares.Sign() != 0 || result.PeakShares.Sign() != 0 {
		t.Fatalf("expected zero state, got %+v", result)
	}
}
