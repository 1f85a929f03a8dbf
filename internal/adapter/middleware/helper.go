package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "cdp:idem:"

func fingerprint(b []byte) string { s := sha256.Sum256(b); return hex.EncodeToString(s[:]) }

var now = func() time.Time { return time.Now().UTC() }

// storeKey scopes a client key to the caller and the concrete request path,
// so one key reused against two loans never replays the wrong loan.
func storeKey(caller common.Address, method, path, key string) string {
	return keyPrefix + strings.ToLower(caller.Hex()) + ":" + strings.ToLower(method) + ":" + path + ":" + key
}

var reHex32 = regexp.MustCompile(`^[a-f0-9]{32}$`)

// validKey accepts a canonical lowercase UUID or 32 lowercase hex characters.
func validKey(k string) bool {
	if reHex32.MatchString(k) {
		return true
	}
	u, err := uuid.Parse(k)
	if err != nil || u.String() != k {
		return false
	}
	v := u.Version()
	return u.Variant() == uuid.RFC4122 && v >= 1 && v <= 8
}

// parseTimestamp accepts epoch seconds, epoch milliseconds or RFC 3339 with
// an explicit zone. Zoneless local times are rejected.
func parseTimestamp(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, errors.New("missing " + HeaderRequestTimestamp)
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		if n > 1e12 {
			return time.UnixMilli(n).UTC(), nil
		}
		return time.Unix(n, 0).UTC(), nil
	}
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, errors.New(HeaderRequestTimestamp + " must be epoch seconds, epoch milliseconds or RFC 3339 with zone")
}

func reserve(ctx context.Context, rdb redis.Cmdable, key string, r record) (bool, error) {
	payload, err := json.Marshal(r)
	if err != nil {
		return false, err
	}
	return rdb.SetNX(ctx, key, payload, pendingTTL).Result()
}

func lookup(ctx context.Context, rdb redis.Cmdable, key string) (record, error) {
	var r record
	v, err := rdb.Get(ctx, key).Bytes()
	if err != nil {
		return r, err
	}
	err = json.Unmarshal(v, &r)
	return r, err
}

func complete(ctx context.Context, rdb redis.Cmdable, key string, r record, ttl time.Duration) error {
	payload, err := json.Marshal(r)
	if err != nil {
		return err
	}
	return rdb.Set(ctx, key, payload, ttl).Err()
}

func release(ctx context.Context, rdb redis.Cmdable, key string) error {
	return rdb.Del(ctx, key).Err()
}
