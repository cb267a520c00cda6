package feecheck

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"reflect"
	"testing"
)

type fakeFeeOracle struct {
	performance map[uint64]uint64
	management  map[uint64]int64
}

func (f *fakeFeeOracle) PerformanceFeeBpsAt(_ context.Context, block uint64) (uint64, error) {
	bps, ok := f.performance[block]
	if !ok {
		return 0, fmt.Errorf("no fee config at block %d", block)
	}
	return bps, nil
}

func (f *fakeFeeOracle) ManagementFeeAt(_ context.Context, block uint64) (*big.Int, error) {
	return big.NewInt(f.management[block]), nil
}

func TestSampleBlocksEvenlySpaced(t *testing.T) {
	got := SampleBlocks(100, 200, 5)
	want := []uint64{100, 125, 150, 175, 200}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("sampled blocks mismatch: %v != %v", got, want)
	}
}

func TestSampleBlocksDegenerateRange(t *testing.T) {
	got := SampleBlocks(42, 42, 5)
	want := []uint64{42, 42, 42, 42, 42}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("sampled blocks mismatch: %v != %v", got, want)
	}

	if blocks := SampleBlocks(100, 200, 0); blocks != nil {
		t.Fatalf("expected nil for zero checks, got %v", blocks)
	}
	if got := SampleBlocks(100, 200, 1); !reflect.DeepEqual(got, []uint64{100}) {
		t.Fatalf("single check should sample the first block, got %v", got)
	}
}

func TestVerifyPerformanceFeeStable(t *testing.T) {
	oracle := &fakeFeeOracle{performance: map[uint64]uint64{
		100: 1000, 125: 1000, 150: 1000, 175: 1000, 200: 1000,
	}}

	blocks, err := VerifyPerformanceFee(context.Background(), oracle, 100, 200, 1000, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(blocks, []uint64{100, 125, 150, 175, 200}) {
		t.Fatalf("unexpected sampled blocks: %v", blocks)
	}
}

func TestVerifyPerformanceFeeMismatch(t *testing.T) {
	oracle := &fakeFeeOracle{performance: map[uint64]uint64{
		100: 1000, 125: 1000, 150: 1200, 175: 1000, 200: 1000,
	}}

	_, err := VerifyPerformanceFee(context.Background(), oracle, 100, 200, 1000, 5)
	if err == nil {
		t.Fatalf("expected mismatch error")
	}

	var mismatch *MismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("expected MismatchError, got %T", err)
	}
	if mismatch.ReferenceBps != 1000 {
		t.Fatalf("unexpected reference: %d", mismatch.ReferenceBps)
	}
	if mismatch.Observed[2].Block != 150 || mismatch.Observed[2].Bps != 1200 {
		t.Fatalf("expected offending observation at block 150 with 1200 bps, got %+v", mismatch.Observed[2])
	}
	// Every sampled block is reported, not just the offending one.
	if len(mismatch.Observed) != 5 {
		t.Fatalf("expected 5 observations, got %d", len(mismatch.Observed))
	}
}

func TestVerifyPerformanceFeeLookupFailureIsNotMismatch(t *testing.T) {
	oracle := &fakeFeeOracle{performance: map[uint64]uint64{100: 1000}}

	_, err := VerifyPerformanceFee(context.Background(), oracle, 100, 200, 1000, 5)
	if err == nil {
		t.Fatalf("expected lookup error")
	}
	var mismatch *MismatchError
	if errors.As(err, &mismatch) {
		t.Fatalf("lookup failure must not be reported as a mismatch")
	}
}

func TestVerifyManagementFeeZero(t *testing.T) {
	oracle := &fakeFeeOracle{management: map[uint64]int64{150: 25}}

	if err := VerifyManagementFeeZero(context.Background(), oracle, []uint64{100, 125}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err := VerifyManagementFeeZero(context.Background(), oracle, []uint64{100, 150})
	if err == nil {
		t.Fatalf("expected error for non-zero management fee")
	}
}
