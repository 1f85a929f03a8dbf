// Package id mints the public identifiers of liquidations and treasury
// deposits.
package id

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// New returns a UUIDv7 as 32 lowercase hex characters. IDs minted later sort
// after earlier ones, which keeps liquidation and deposit indexes append-only.
func New() string {
	u, err := uuid.NewV7()
	if err != nil {
		// clock or entropy failure; a random v4 still gives a unique ID
		u = uuid.New()
	}
	return strings.ReplaceAll(u.String(), "-", "")
}

// Time extracts the mint time of an ID produced by New.
func Time(s string) (time.Time, bool) {
	u, err := uuid.Parse(s)
	if err != nil || u.Version() != 7 {
		return time.Time{}, false
	}
	sec, nsec := u.Time().UnixTime()
	return time.Unix(sec, nsec).UTC(), true
}
