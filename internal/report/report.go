package report

import (
	"fmt"
	"io"
	"math/big"
	"strings"
	"time"

	"vaultScope/internal/model"
)

// Data bundles everything the text report needs. All values are computed
// upstream; rendering performs no lookups.
type Data struct {
	ChainID          uint64
	ChainName        string
	VaultAddress     string
	DepositorAddress string
	AssetSymbol      string
	Decimals         uint8

	Position model.PositionResult
	Events   []model.Event

	CurrentValue         *big.Int
	WeightedEntryPPS     *big.Int
	CurrentPPS           *big.Int
	ProfitFees           model.ProfitFeeResult
	PerformanceBps       uint64
	FeeRateFallback      bool
	TransferAdjustedNet  *big.Int
	DepositCount         int
	WithdrawalCount      int
	TransferInCount      int
	TransferOutCount     int
	FirstInteractionTime *time.Time
	FirstInteractionBlk  uint64
	PeakValue            *big.Int
	PeakTime             *time.Time
}

const ruler = "--------------------------------------------------------------------------------"

// Render writes the depositor analysis report.
func Render(w io.Writer, d Data) {
	symbol := d.AssetSymbol
	decimals := d.Decimals

	netDeposited := new(big.Int).Sub(d.Position.TotalDeposited, d.Position.TotalWithdrawn)

	fmt.Fprintln(w)
	fmt.Fprintln(w, strings.Repeat("=", 80))
	fmt.Fprintln(w, "VAULT DEPOSITOR FEE & PROFIT ANALYSIS")
	fmt.Fprintln(w, strings.Repeat("=", 80))

	fmt.Fprintln(w, "\nDEPOSITOR INFORMATION")
	fmt.Fprintln(w, ruler)
	fmt.Fprintf(w, "Address: %s\n", d.DepositorAddress)
	fmt.Fprintf(w, "Vault:   %s\n", d.VaultAddress)
	fmt.Fprintf(w, "Asset:   %s (%d decimals)\n", symbol, decimals)
	fmt.Fprintf(w, "Chain:   %s (ID: %d)\n", d.ChainName, d.ChainID)
	if d.FirstInteractionBlk > 0 && d.FirstInteractionTime != nil {
		fmt.Fprintf(w, "First Interaction: Block %d (%s)\n", d.FirstInteractionBlk, formatDate(*d.FirstInteractionTime))
	}

	fmt.Fprintln(w, "\nPOSITION SUMMARY")
	fmt.Fprintln(w, ruler)
	fmt.Fprintf(w, "Current Shares:     %s shares\n", FormatUnitsDisplay(d.Position.CurrentShares, decimals))
	fmt.Fprintf(w, "Current Value:      %s %s\n", FormatUnitsDisplay(d.CurrentValue, decimals), symbol)
	fmt.Fprintf(w, "Total Deposited:    %s %s\n", FormatUnitsDisplay(d.Position.TotalDeposited, decimals), symbol)
	fmt.Fprintf(w, "Total Withdrawn:    %s %s\n", FormatUnitsDisplay(d.Position.TotalWithdrawn, decimals), symbol)
	fmt.Fprintf(w, "Net Deposited:      %s %s\n", FormatUnitsDisplay(netDeposited, decimals), symbol)

	if d.Position.PeakShares.Sign() > 0 {
		fmt.Fprintln(w, "\nPeak Position:")
		fmt.Fprintf(w, "   Highest Shares:  %s shares\n", FormatUnitsDisplay(d.Position.PeakShares, decimals))
		if d.PeakValue != nil {
			fmt.Fprintf(w, "   Peak Value:      %s %s\n", FormatUnitsDisplay(d.PeakValue, decimals), symbol)
		}
		if d.PeakTime != nil {
			fmt.Fprintf(w, "   Peak Date:       Block %d (%s)\n", d.Position.PeakSharesBlock, formatDate(*d.PeakTime))
		} else {
			fmt.Fprintf(w, "   Peak Block:      %d\n", d.Position.PeakSharesBlock)
		}

		sharesDiff := new(big.Int).Sub(d.Position.CurrentShares, d.Position.PeakShares)
		switch {
		case sharesDiff.Sign() < 0:
			pct := percentBps(new(big.Int).Neg(sharesDiff), d.Position.PeakShares)
			fmt.Fprintf(w, "   Change from peak: %s shares lower (%s)\n",
				FormatUnitsDisplay(new(big.Int).Neg(sharesDiff), decimals), FormatBps(pct))
		case sharesDiff.Sign() == 0:
			fmt.Fprintln(w, "   Change from peak: Currently at peak!")
		}
	}

	fmt.Fprintln(w, "\nPRICE PER SHARE ANALYSIS")
	fmt.Fprintln(w, ruler)
	fmt.Fprintf(w, "Weighted Avg Entry PPS: %s\n", FormatUnitsDisplay(d.WeightedEntryPPS, decimals))
	fmt.Fprintf(w, "Current PPS:            %s\n", FormatUnitsDisplay(d.CurrentPPS, decimals))
	ppsDiff := new(big.Int).Sub(d.CurrentPPS, d.WeightedEntryPPS)
	ppsSign := ""
	if ppsDiff.Sign() >= 0 {
		ppsSign = "+"
	}
	fmt.Fprintf(w, "PPS Change:             %s%s (%s%s)\n",
		ppsSign, FormatUnitsDisplay(ppsDiff, decimals),
		ppsSign, FormatBps(percentBps(ppsDiff, d.WeightedEntryPPS)))

	fmt.Fprintln(w, "\nPROFIT/LOSS (Price Per Share Method)")
	fmt.Fprintln(w, ruler)
	netSign := signPrefix(d.ProfitFees.NetProfit)
	grossSign := signPrefix(d.ProfitFees.GrossProfit)
	fmt.Fprintf(w, "Gross Profit (before fees): %s%s %s\n", grossSign, FormatUnitsDisplay(d.ProfitFees.GrossProfit, decimals), symbol)
	fmt.Fprintf(w, "Net Profit (after fees):    %s%s %s\n", netSign, FormatUnitsDisplay(d.ProfitFees.NetProfit, decimals), symbol)

	if netDeposited.Sign() > 0 {
		fmt.Fprintf(w, "Return on Investment (cash): %s%s\n", netSign, FormatBps(percentBps(d.ProfitFees.NetProfit, netDeposited)))
	}
	if d.TransferAdjustedNet != nil && d.TransferAdjustedNet.Sign() > 0 {
		fmt.Fprintf(w, "Return on Investment (xfer): %s%s\n", netSign, FormatBps(percentBps(d.ProfitFees.NetProfit, d.TransferAdjustedNet)))
	}

	fmt.Fprintln(w, "\nFEES PAID")
	fmt.Fprintln(w, ruler)
	feeRateNote := ""
	if d.FeeRateFallback {
		feeRateNote = " (assumed default, on-chain lookup failed)"
	}
	fmt.Fprintf(w, "Performance Fee Rate:   %s%s\n", FormatBps(int64(d.PerformanceBps)), feeRateNote)
	fmt.Fprintf(w, "Total Fees Paid:        %s %s\n", FormatUnitsDisplay(d.ProfitFees.TotalFees, decimals), symbol)
	if d.ProfitFees.GrossProfit.Sign() > 0 {
		fmt.Fprintf(w, "Fees as %% of Gross:     %s\n", FormatBps(percentBps(d.ProfitFees.TotalFees, d.ProfitFees.GrossProfit)))
	}

	fmt.Fprintln(w, "\nCalculation Method:")
	fmt.Fprintln(w, "  - Weighted average entry PPS from deposits and incoming transfers (transfers valued at the block PPS)")
	fmt.Fprintln(w, "  - Net profit accrues per price movement against the balance held during it")
	fmt.Fprintln(w, "  - Gross profit = Net profit / (1 - Fee Rate)")
	fmt.Fprintln(w, "  - Fees = Gross profit - Net profit")

	fmt.Fprintln(w, "\nUSER EVENTS")
	fmt.Fprintln(w, ruler)
	fmt.Fprintf(w, "Total Deposits:     %d\n", d.DepositCount)
	fmt.Fprintf(w, "Total Withdrawals:  %d\n", d.WithdrawalCount)
	fmt.Fprintf(w, "Total Transfers:    %d (excluding mint/burn)\n", d.TransferInCount+d.TransferOutCount)
	fmt.Fprintf(w, "  - Transfers IN:   %d\n", d.TransferInCount)
	fmt.Fprintf(w, "  - Transfers OUT:  %d\n", d.TransferOutCount)
	fmt.Fprintf(w, "Total Events Processed: %d\n", len(d.Events))

	if len(d.Events) > 0 {
		fmt.Fprintln(w, "\n  Events:")
		for i, event := range d.Events {
			fmt.Fprintf(w, "    %d. %s\n", i+1, describeEvent(event, decimals, symbol))
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, strings.Repeat("=", 80))
}

func describeEvent(event model.Event, decimals uint8, symbol string) string {
	switch event.Kind {
	case model.KindDeposit:
		return fmt.Sprintf("Block %d: Deposit %s %s -> %s shares",
			event.BlockNumber,
			FormatUnitsDisplay(event.Deposit.Assets, decimals), symbol,
			FormatUnitsDisplay(event.Deposit.Shares, decimals))
	case model.KindWithdraw:
		return fmt.Sprintf("Block %d: Withdraw %s shares -> %s %s",
			event.BlockNumber,
			FormatUnitsDisplay(event.Withdraw.Shares, decimals),
			FormatUnitsDisplay(event.Withdraw.Assets, decimals), symbol)
	case model.KindTransferIn:
		return fmt.Sprintf("Block %d: Transfer IN %s shares",
			event.BlockNumber, FormatUnitsDisplay(event.Transfer.Value, decimals))
	case model.KindTransferOut:
		return fmt.Sprintf("Block %d: Transfer OUT %s shares",
			event.BlockNumber, FormatUnitsDisplay(event.Transfer.Value, decimals))
	default:
		return fmt.Sprintf("Block %d: %s", event.BlockNumber, event.Kind)
	}
}

// percentBps returns value/base in basis points, zero when base is not
// positive.
func percentBps(value, base *big.Int) int64 {
	if base == nil || base.Sign() <= 0 {
		return 0
	}
	bps := new(big.Int).Mul(value, big.NewInt(10000))
	bps.Quo(bps, base)
	if !bps.IsInt64() {
		return 0
	}
	return bps.Int64()
}

func signPrefix(value *big.Int) string {
	if value.Sign() >= 0 {
		return "+"
	}
	return ""
}

func formatDate(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04:05 UTC")
}
