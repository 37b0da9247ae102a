// Package feed publishes board snapshots over Redis pub/sub so spectators
// can follow a game without polling the input source.
package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/park285/cheese-board/internal/session"
	"github.com/park285/cheese-board/pkg/boarddto"
)

var (
	ErrNoGameID = errors.New("snapshot has no game id")
	ErrNoState  = errors.New("no snapshot stored for game")
)

// latest snapshots outlive an idle game for a day
const latestTTL = 24 * time.Hour

type Publisher struct {
	rdb    *redis.Client
	prefix string
	logger *zap.Logger
}

func NewPublisher(rdb *redis.Client, prefix string, logger *zap.Logger) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "cheese-board"
	}
	return &Publisher{rdb: rdb, prefix: prefix, logger: logger}
}

// Dial connects to the server named by a redis:// or rediss:// url and pings it.
func Dial(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := ParseRedisURL(redisURL)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

func ParseRedisURL(raw string) (*redis.Options, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	if u.Scheme != "redis" && u.Scheme != "rediss" {
		return nil, fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}
	db := 0
	if p := strings.TrimPrefix(u.Path, "/"); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("redis db %q: %w", p, err)
		}
		db = n
	}
	pass, _ := u.User.Password()
	return &redis.Options{Addr: u.Host, Username: u.User.Username(), Password: pass, DB: db}, nil
}

// Channel is the pub/sub channel carrying snapshots of one game.
func (p *Publisher) Channel(gameID string) string {
	return p.prefix + ":" + gameID
}

func (p *Publisher) latestKey(gameID string) string {
	return p.Channel(gameID) + ":latest"
}

// Latest returns the last published snapshot of a game, for spectators
// joining mid game.
func (p *Publisher) Latest(ctx context.Context, gameID string) (boarddto.Snapshot, error) {
	var snap boarddto.Snapshot
	raw, err := p.rdb.Get(ctx, p.latestKey(gameID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return snap, ErrNoState
	}
	if err != nil {
		return snap, fmt.Errorf("load snapshot: %w", err)
	}
	if err := json.Unmarshal(raw, &snap); err != nil {
		return snap, fmt.Errorf("decode snapshot: %w", err)
	}
	return snap, nil
}

// Notify publishes every session update.
func (p *Publisher) Notify(ctx context.Context, u session.Update) error {
	_, err := p.Publish(ctx, u.Snapshot)
	return err
}

// Publish sends snap to its game channel and reports how many subscribers
// received it.
func (p *Publisher) Publish(ctx context.Context, snap boarddto.Snapshot) (int64, error) {
	if strings.TrimSpace(snap.GameID) == "" {
		return 0, ErrNoGameID
	}
	raw, err := json.Marshal(snap)
	if err != nil {
		return 0, fmt.Errorf("marshal snapshot: %w", err)
	}
	pipe := p.rdb.TxPipeline()
	pipe.Set(ctx, p.latestKey(snap.GameID), raw, latestTTL)
	pub := pipe.Publish(ctx, p.Channel(snap.GameID), raw)
	if _, err := pipe.Exec(ctx); err != nil {
		p.logger.Warn("feed_publish_failed", zap.String("game_id", snap.GameID), zap.Error(err))
		return 0, fmt.Errorf("publish snapshot: %w", err)
	}
	n := pub.Val()
	p.logger.Debug("feed_published",
		zap.String("game_id", snap.GameID),
		zap.Int("plies", snap.Plies),
		zap.Int64("receivers", n),
	)
	return n, nil
}

// Subscription streams decoded snapshots of one game.
type Subscription struct {
	ps *redis.PubSub
	C  <-chan boarddto.Snapshot
}

func (s *Subscription) Close() error { return s.ps.Close() }

// Subscribe listens on the game's channel. The subscription is confirmed
// before it returns, so a following Publish is not lost.
func (p *Publisher) Subscribe(ctx context.Context, gameID string) (*Subscription, error) {
	ps := p.rdb.Subscribe(ctx, p.Channel(gameID))
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("subscribe %s: %w", gameID, err)
	}
	out := make(chan boarddto.Snapshot, 16)
	go func() {
		defer close(out)
		for msg := range ps.Channel() {
			var snap boarddto.Snapshot
			if err := json.Unmarshal([]byte(msg.Payload), &snap); err != nil {
				p.logger.Warn("feed_decode_failed", zap.String("channel", msg.Channel), zap.Error(err))
				continue
			}
			select {
			case out <- snap:
			case <-ctx.Done():
				return
			}
		}
	}()
	return &Subscription{ps: ps, C: out}, nil
}
