package redis

import (
	"fmt"

	"github.com/boardblitz/boardblitz/internal/model"
)

// Key prefix for all platform data
const keyPrefix = "bblitz"

// accountKey returns the Redis key for an Account
func accountKey(id model.AccountID) string {
	return fmt.Sprintf("%s:account:%d", keyPrefix, id)
}

// recordKey returns the Redis key for the win/loss/draw counter hash
func recordKey(id model.AccountID) string {
	return fmt.Sprintf("%s:account:%d:record", keyPrefix, id)
}

// emailIndexKey returns the Redis key for the email -> account_id index
func emailIndexKey(email string) string {
	return fmt.Sprintf("%s:idx:email:%s", keyPrefix, email)
}

// gameKey returns the Redis key for a completed GameRecord
func gameKey(id int64) string {
	return fmt.Sprintf("%s:game:%d", keyPrefix, id)
}

// gamesForAccountKey returns the Redis key for the LIST of an account's
// completed game ids, newest first
func gamesForAccountKey(id model.AccountID) string {
	return fmt.Sprintf("%s:idx:games_for_account:%d", keyPrefix, id)
}

// Sequence keys for id allocation
const (
	accountSeqKey = keyPrefix + ":seq:account"
	gameSeqKey    = keyPrefix + ":seq:game"
)
