package vault

import (
	"crypto/sha256"

	"github.com/iov-one/timevault"
)

const (
	extensionName = "vault"
	custodyType   = "custody"
)

// DeriveSeed returns the derivation seed of the custody account of given
// owner. It is the highest single byte nonce n for which
//   sha256("vault" | owner | n)
// starts with a byte lower than 0x80. The search is deterministic, so the
// seed can always be recomputed from the owner address alone.
func DeriveSeed(owner timevault.Address) []byte {
	buf := make([]byte, 0, len(extensionName)+len(owner)+1)
	buf = append(buf, extensionName...)
	buf = append(buf, owner...)
	buf = append(buf, 0)
	for n := 255; n >= 0; n-- {
		buf[len(buf)-1] = byte(n)
		if sum := sha256.Sum256(buf); sum[0] < 0x80 {
			return []byte{byte(n)}
		}
	}
	// Each attempt succeeds with 1/2 probability, reaching this line
	// requires 256 failures in a row.
	panic("no custody seed found")
}

// CustodyCondition returns the condition controlling the custody account
// of the vault owned by given address.
func CustodyCondition(owner timevault.Address, seed []byte) timevault.Condition {
	data := make([]byte, 0, len(owner)+len(seed))
	data = append(data, owner...)
	data = append(data, seed...)
	return timevault.NewCondition(extensionName, custodyType, data)
}

// CustodyAddress returns the address of the account holding the vault
// funds.
func CustodyAddress(owner timevault.Address, seed []byte) timevault.Address {
	return CustodyCondition(owner, seed).Address()
}
