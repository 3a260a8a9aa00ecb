// Package txid generates and validates transaction correlation tokens.
//
// A token has four dash-separated fields: a fixed "tx" prefix, wall-clock
// milliseconds, sub-millisecond ticks, and 8 random bytes, each encoded in
// base36 and zero-padded to a fixed width. Validation is purely structural;
// the service does not guarantee at-most-once application of a token.
package txid

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Prefix is the fixed first field of every token.
const Prefix = "tx"

const (
	timeWidth   = 10 // base36 milliseconds
	tickWidth   = 4  // base36 microseconds within the current millisecond
	randomWidth = 13 // base36 uint64
	fieldCount  = 4
)

// New generates a fresh token. Collisions are made unlikely by the random
// field; global uniqueness is not claimed.
func New() string {
	now := time.Now()
	millis := strconv.FormatInt(now.UnixMilli(), 36)
	micros := strconv.FormatInt(int64(now.Nanosecond()/1e3%1e3), 36)

	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// crypto/rand never fails on supported platforms; fall back to the
		// clock so token shape stays valid regardless.
		binary.BigEndian.PutUint64(buf[:], uint64(now.UnixNano()))
	}
	random := strconv.FormatUint(binary.BigEndian.Uint64(buf[:]), 36)

	return fmt.Sprintf("%s-%s-%s-%s",
		Prefix,
		pad(millis, timeWidth),
		pad(micros, tickWidth),
		pad(random, randomWidth),
	)
}

// Valid reports whether token has the expected structure: the "tx" prefix
// and exactly four dash-separated fields. Field contents are not inspected.
func Valid(token string) bool {
	if !strings.HasPrefix(token, Prefix+"-") {
		return false
	}
	return strings.Count(token, "-") == fieldCount-1
}

func pad(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return strings.Repeat("0", width-len(s)) + s
}
