package model

// AnalysisRecord is the storable summary of one depositor analysis run.
// Big integer amounts are kept as decimal strings for storage.
type AnalysisRecord struct {
	ChainID          uint64
	VaultAddress     string
	DepositorAddress string
	AssetSymbol      string
	Decimals         uint8
	CurrentShares    string
	CurrentValue     string
	TotalDeposited   string
	TotalWithdrawn   string
	NetProfit        string
	GrossProfit      string
	TotalFees        string
	EntryPPS         string
	CurrentPPS       string
	PeakShares       string
	PeakSharesBlock  uint64
	PerformanceBps   uint64
	FeeRateFallback  bool
}
