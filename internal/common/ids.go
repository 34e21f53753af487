package common

import (
	"strings"

	"github.com/oklog/ulid/v2"
)

// Record id prefixes.
const (
	PrefixWallet      = "wlt"
	PrefixTransaction = "wtx"
	PrefixTrade       = "trd"
	PrefixFunding     = "fr"
)

// NewID returns a prefixed, lexically time-ordered identifier such as
// "trd_01j9..." so that ids sort in creation order.
func NewID(prefix string) string {
	return prefix + "_" + strings.ToLower(ulid.Make().String())
}
