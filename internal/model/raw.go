package model

// RawDeposit is a vault Deposit event as returned by the indexer.
// Amounts are decimal strings; the composite ID encodes (chain, block, log index).
type RawDeposit struct {
	ID     string `json:"id"`
	Sender string `json:"sender"`
	Owner  string `json:"owner"`
	Assets string `json:"assets"`
	Shares string `json:"shares"`
}

// RawWithdraw is a vault Withdraw event as returned by the indexer.
type RawWithdraw struct {
	ID       string `json:"id"`
	Sender   string `json:"sender"`
	Receiver string `json:"receiver"`
	Owner    string `json:"owner"`
	Assets   string `json:"assets"`
	Shares   string `json:"shares"`
}

// RawTransfer is a vault share Transfer event as returned by the indexer.
// Mint/burn transfers (zero address on either side) are excluded upstream.
type RawTransfer struct {
	ID       string `json:"id"`
	Sender   string `json:"sender"`
	Receiver string `json:"receiver"`
	Value    string `json:"value"`
}
