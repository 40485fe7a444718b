package detection

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"fresh-wallet-scout/internal/domain"
)

// LabelUnlabeled is the label the upstream assigns to addresses it has
// no attribution for.
const LabelUnlabeled = "unlabeled address"

// zeroRunMin is the number of leading or trailing zero hex digits that
// marks an address as a vanity deployment rather than a wallet.
const zeroRunMin = 10

// Classify buckets a transfer recipient. Only Private recipients can
// become fresh wallet candidates.
func Classify(address, label string) domain.AddressKind {
	if isZeroRunAddress(address) {
		return domain.AddressKindContract
	}

	label = strings.TrimSpace(label)
	if label != "" && !strings.EqualFold(label, LabelUnlabeled) {
		return domain.AddressKindLabeledEntity
	}
	return domain.AddressKindPrivate
}

func isZeroRunAddress(address string) bool {
	hex := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(address)), "0x")
	if hex == "" {
		return false
	}

	leading := 0
	for i := 0; i < len(hex) && hex[i] == '0'; i++ {
		leading++
	}
	if leading >= zeroRunMin {
		return true
	}

	trailing := 0
	for i := len(hex) - 1; i >= 0 && hex[i] == '0'; i-- {
		trailing++
	}
	return trailing >= zeroRunMin
}

// NormalizeAddress collapses the address to one canonical key. Valid
// hex addresses are routed through their parsed form so casing and a
// missing 0x prefix do not split the same wallet in two.
func NormalizeAddress(address string) string {
	address = strings.TrimSpace(address)
	if common.IsHexAddress(address) {
		return strings.ToLower(common.HexToAddress(address).Hex())
	}
	return strings.ToLower(address)
}
