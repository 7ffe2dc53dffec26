package redis

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/boardblitz/boardblitz/internal/model"
	"github.com/boardblitz/boardblitz/internal/storage"
)

// Store is a Redis-backed implementation of the storage interface.
// Accounts and completed games are stored as JSON values; win/loss/draw
// counters live in a per-account hash so they can be bumped atomically
// with HINCRBY instead of read-modify-write on the account blob.
type Store struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis store
func New(cfg Config) (*Store, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Store{client: client, cfg: cfg}, nil
}

// NewWithClient creates a Redis store with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Store {
	return &Store{client: client, cfg: cfg}
}

// Close closes the Redis connection
func (s *Store) Close() error {
	return s.client.Close()
}

// Ensure Store implements the interface
var _ storage.Store = (*Store)(nil)

// Account operations

func (s *Store) CreateAccount(ctx context.Context, acct *model.Account) error {
	email := normalizeEmail(acct.Email)

	id, err := s.client.Incr(ctx, accountSeqKey).Result()
	if err != nil {
		return err
	}
	acct.ID = model.AccountID(id)

	// Claim the email index first; SETNX makes uniqueness atomic
	claimed, err := s.client.SetNX(ctx, emailIndexKey(email), id, 0).Result()
	if err != nil {
		return err
	}
	if !claimed {
		return storage.ErrEmailTaken
	}

	data, err := json.Marshal(accountDoc(acct))
	if err != nil {
		return err
	}
	return s.client.Set(ctx, accountKey(acct.ID), data, 0).Err()
}

func (s *Store) GetAccount(ctx context.Context, id model.AccountID) (*model.Account, error) {
	data, err := s.client.Get(ctx, accountKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrAccountNotFound
		}
		return nil, err
	}

	var acct model.Account
	if err := json.Unmarshal(data, &acct); err != nil {
		return nil, err
	}
	if err := s.loadCounters(ctx, &acct); err != nil {
		return nil, err
	}
	return &acct, nil
}

func (s *Store) GetAccountByEmail(ctx context.Context, email string) (*model.Account, error) {
	raw, err := s.client.Get(ctx, emailIndexKey(normalizeEmail(email))).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrAccountNotFound
		}
		return nil, err
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, err
	}
	return s.GetAccount(ctx, model.AccountID(id))
}

// Completed game operations

func (s *Store) SaveCompletedGame(ctx context.Context, rec *model.GameRecord) error {
	id, err := s.client.Incr(ctx, gameSeqKey).Result()
	if err != nil {
		return err
	}
	rec.ID = id

	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, gameKey(rec.ID), data, 0)
	for _, acctID := range []model.AccountID{rec.WhiteAccount, rec.BlackAccount} {
		if acctID != 0 {
			pipe.LPush(ctx, gamesForAccountKey(acctID), rec.ID)
		}
	}
	queueCounters(ctx, pipe, rec)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Store) GetCompletedGame(ctx context.Context, id int64) (*model.GameRecord, error) {
	data, err := s.client.Get(ctx, gameKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrGameRecordNotFound
		}
		return nil, err
	}

	var rec model.GameRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *Store) ListGamesByAccount(ctx context.Context, id model.AccountID, limit int) ([]*model.GameRecord, error) {
	end := int64(-1)
	if limit > 0 {
		end = int64(limit) - 1
	}
	ids, err := s.client.LRange(ctx, gamesForAccountKey(id), 0, end).Result()
	if err != nil {
		return nil, err
	}

	out := make([]*model.GameRecord, 0, len(ids))
	for _, raw := range ids {
		gid, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			continue
		}
		rec, err := s.GetCompletedGame(ctx, gid)
		if err != nil {
			if errors.Is(err, model.ErrGameRecordNotFound) {
				continue
			}
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// accountDoc strips the counters before marshalling; the hash is the
// source of truth for them
func accountDoc(acct *model.Account) *model.Account {
	doc := *acct
	doc.Wins = 0
	doc.Losses = 0
	doc.Draws = 0
	return &doc
}

func (s *Store) loadCounters(ctx context.Context, acct *model.Account) error {
	fields, err := s.client.HGetAll(ctx, recordKey(acct.ID)).Result()
	if err != nil {
		return err
	}
	acct.Wins = atoiField(fields, "wins")
	acct.Losses = atoiField(fields, "losses")
	acct.Draws = atoiField(fields, "draws")
	return nil
}

func queueCounters(ctx context.Context, pipe redis.Pipeliner, rec *model.GameRecord) {
	bump := func(id model.AccountID, field string) {
		if id != 0 {
			pipe.HIncrBy(ctx, recordKey(id), field, 1)
		}
	}
	switch rec.Winner {
	case model.WinnerDraw:
		bump(rec.WhiteAccount, "draws")
		bump(rec.BlackAccount, "draws")
	case model.WinnerWhite:
		bump(rec.WhiteAccount, "wins")
		bump(rec.BlackAccount, "losses")
	case model.WinnerBlack:
		bump(rec.BlackAccount, "wins")
		bump(rec.WhiteAccount, "losses")
	}
}

func atoiField(fields map[string]string, name string) int {
	n, _ := strconv.Atoi(fields[name])
	return n
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
