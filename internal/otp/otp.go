// Package otp issues and checks the one-time codes used by the login
// and forgot-password flows. Codes live in Redis under a TTL; delivery
// is the notifier's problem.
package otp

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/redis/go-redis/v9"
)

const codeDigits = 6

// NewCode returns a random numeric code, zero-padded to six digits.
func NewCode() (string, error) {
	max := big.NewInt(1)
	for i := 0; i < codeDigits; i++ {
		max.Mul(max, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", codeDigits, n), nil
}

// checkAndConsumeScript deletes the code only when it matches, so a
// correct guess can be spent exactly once even under concurrent
// submissions.
var checkAndConsumeScript = redis.NewScript(`
-- KEYS[1] = code key
-- ARGV[1] = submitted code
local stored = redis.call('GET', KEYS[1])
if stored == false then
  return 0
end
if stored == ARGV[1] then
  redis.call('DEL', KEYS[1])
  return 1
end
return 0
`)

// Store keeps flow codes in Redis, keyed by purpose and principal.
type Store struct {
	rdb *redis.Client
}

func NewStore(rdb *redis.Client) *Store {
	return &Store{rdb: rdb}
}

func key(purpose, principalType, principalID string) string {
	return fmt.Sprintf("otp:%s:%s:%s", purpose, principalType, principalID)
}

// Put stores a code under ttl, replacing any outstanding code for the
// same purpose and principal.
func (s *Store) Put(ctx context.Context, purpose, principalType, principalID, code string, ttl time.Duration) error {
	return s.rdb.Set(ctx, key(purpose, principalType, principalID), code, ttl).Err()
}

// Check consumes the stored code when it matches. An absent, expired or
// wrong code all report false.
func (s *Store) Check(ctx context.Context, purpose, principalType, principalID, code string) (bool, error) {
	n, err := checkAndConsumeScript.Run(ctx, s.rdb, []string{key(purpose, principalType, principalID)}, code).Int()
	if err != nil {
		return false, fmt.Errorf("otp check: %w", err)
	}
	return n == 1, nil
}
