package redis

import (
	"crypto/md5" // #nosec G501 -- key hashing only
	"encoding/hex"
)

const keyPrefix = "reviews:"

func hashKey(s string) string {
	sum := md5.Sum([]byte(s)) // #nosec G401
	return hex.EncodeToString(sum[:])
}

// idOrZero renders an absent id the way cache keys expect it.
func idOrZero(id string) string {
	if id == "" {
		return "0"
	}
	return id
}
