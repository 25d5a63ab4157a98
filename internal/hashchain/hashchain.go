// Package hashchain computes the tamper-evident hash chain over account
// transactions and signs each link with the ledger signing key.
package hashchain

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
)

// Compute returns the hash of a transaction chained to the previous
// transaction of the same account.
//
// The canonical payload is the raw concatenation of the account number, the
// type code, the channel code, the business timestamp in UTC milliseconds
// and the minor-unit amount, each in its decimal string form with no
// separators. When previousHash is non-empty it is prepended to the payload
// before digesting. The digest is SHA-256 rendered as lowercase hex.
func Compute(previousHash, accountNo, txType, channel string, dateUTCMillis, amount int64) string {
	payload := accountNo + txType + channel +
		strconv.FormatInt(dateUTCMillis, 10) +
		strconv.FormatInt(amount, 10)

	sum := sha256.Sum256([]byte(previousHash + payload))

	return hex.EncodeToString(sum[:])
}
