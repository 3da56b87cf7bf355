package quest

import (
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/sha3"

	"questHubAPI/internal/apperr"
)

// NormalizeWalletAddress validates an EVM address and returns it in EIP-55
// checksum form. All-lowercase and all-uppercase hex is accepted as unchecked;
// mixed case must match the checksum exactly.
func NormalizeWalletAddress(addr string) (string, error) {
	addr = strings.TrimSpace(addr)
	if len(addr) != 42 || !strings.HasPrefix(addr, "0x") {
		return "", apperr.Invalid("wallet address must be 0x followed by 40 hex characters")
	}

	body := addr[2:]
	if _, err := hex.DecodeString(body); err != nil {
		return "", apperr.Invalid("wallet address must be 0x followed by 40 hex characters")
	}

	checksummed := checksumAddress(body)
	lower, upper := strings.ToLower(body), strings.ToUpper(body)
	if body != lower && body != upper && "0x"+body != checksummed {
		return "", apperr.Invalid("wallet address checksum mismatch")
	}

	return checksummed, nil
}

func checksumAddress(body string) string {
	lower := strings.ToLower(body)

	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(lower))
	digest := hex.EncodeToString(h.Sum(nil))

	out := []byte(lower)
	for i, c := range out {
		if c >= 'a' && c <= 'f' && digest[i] >= '8' {
			out[i] = c - 32
		}
	}
	return "0x" + string(out)
}
