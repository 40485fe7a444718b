package domain

// AddressKind classifies a transfer recipient.
type AddressKind string

const (
	// AddressKindPrivate is a wallet with no attribution and no
	// contract-shaped address.
	AddressKindPrivate AddressKind = "PRIVATE"
	// AddressKindContract is an address with a long run of leading or
	// trailing zero hex digits.
	AddressKindContract AddressKind = "CONTRACT"
	// AddressKindLabeledEntity is an address the data provider has
	// tagged (exchange, bridge, fund, deployer).
	AddressKindLabeledEntity AddressKind = "LABELED_ENTITY"
)

// WalletCandidate is a wallet that received a qualifying deposit inside
// a scan window and still has to pass the freshness check.
type WalletCandidate struct {
	Address    string  // recipient address as reported upstream
	Chain      string
	Symbol     string  // token that was deposited
	DepositUSD float64 // USD value of the qualifying transfer
	Timestamp  int64   // transfer timestamp, unix ms
	TxHash     string
}

// FreshWallet is a confirmed detection: a wallet whose first visible
// activity is the deposit that surfaced it.
type FreshWallet struct {
	Wallet         string  `json:"wallet"`
	Chain          string  `json:"chain"`
	InitDepositUSD float64 `json:"initDepositUSD"`
}
