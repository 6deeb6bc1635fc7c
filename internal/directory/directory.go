// Package directory publishes open rooms to Redis so the room browser can
// list them. The coordinator works without it: a nil *Directory is a no-op,
// matching deployments that run without Redis.
package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultTTL = 2 * time.Hour

// Entry is the publicly visible summary of an open room.
type Entry struct {
	Code        string    `json:"code"`
	Creator     string    `json:"creator"`
	HasPassword bool      `json:"has_password"`
	Started     bool      `json:"started"`
	CreatedAt   time.Time `json:"created_at"`
}

type Directory struct {
	rdb *redis.Client
	ttl time.Duration
}

func New(redisURL string) (*Directory, error) {
	if strings.TrimSpace(redisURL) == "" {
		return nil, fmt.Errorf("REDIS_URL required for room directory")
	}
	opts, err := parseRedisURL(redisURL)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &Directory{rdb: rdb, ttl: defaultTTL}, nil
}

// NewWithClient wraps an existing client; used by tests.
func NewWithClient(rdb *redis.Client) *Directory {
	return &Directory{rdb: rdb, ttl: defaultTTL}
}

func (d *Directory) Close() error {
	if d == nil || d.rdb == nil {
		return nil
	}
	return d.rdb.Close()
}

func keyRoom(code string) string { return "room:" + strings.TrimSpace(code) }

const keyOpen = "room:open"

// Announce publishes an open room. Re-announcing the same code overwrites
// the previous entry (re-registration before start).
func (d *Directory) Announce(ctx context.Context, e *Entry) error {
	if d == nil || d.rdb == nil || e == nil {
		return nil
	}
	raw, err := json.Marshal(e)
	if err != nil {
		return err
	}
	if err := d.rdb.Set(ctx, keyRoom(e.Code), raw, d.ttl).Err(); err != nil {
		return err
	}
	if err := d.rdb.SAdd(ctx, keyOpen, e.Code).Err(); err != nil {
		return err
	}
	return d.rdb.Expire(ctx, keyOpen, d.ttl).Err()
}

// SetStarted marks a room in progress and drops it from the open listing.
func (d *Directory) SetStarted(ctx context.Context, code string) error {
	if d == nil || d.rdb == nil {
		return nil
	}
	e, err := d.get(ctx, code)
	if err != nil || e == nil {
		return err
	}
	e.Started = true
	raw, err := json.Marshal(e)
	if err != nil {
		return err
	}
	if err := d.rdb.Set(ctx, keyRoom(code), raw, d.ttl).Err(); err != nil {
		return err
	}
	return d.rdb.SRem(ctx, keyOpen, code).Err()
}

// Remove drops the room from the directory entirely; called on every
// room-destroy path.
func (d *Directory) Remove(ctx context.Context, code string) error {
	if d == nil || d.rdb == nil {
		return nil
	}
	if err := d.rdb.Del(ctx, keyRoom(code)).Err(); err != nil {
		return err
	}
	return d.rdb.SRem(ctx, keyOpen, code).Err()
}

// List returns open (not yet started) rooms. Entries whose room key expired
// are skipped and lazily pruned from the index.
func (d *Directory) List(ctx context.Context) ([]*Entry, error) {
	if d == nil || d.rdb == nil {
		return nil, nil
	}
	codes, err := d.rdb.SMembers(ctx, keyOpen).Result()
	if err != nil {
		return nil, err
	}
	var out []*Entry
	for _, c := range codes {
		e, err := d.get(ctx, c)
		if err != nil {
			return nil, err
		}
		if e == nil {
			_ = d.rdb.SRem(ctx, keyOpen, c).Err()
			continue
		}
		if e.Started {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (d *Directory) get(ctx context.Context, code string) (*Entry, error) {
	raw, err := d.rdb.Get(ctx, keyRoom(code)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var e Entry
	if err := json.Unmarshal(raw, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

func parseRedisURL(raw string) (*redis.Options, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "redis" && u.Scheme != "rediss" {
		return nil, fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}
	db := 0
	if p := strings.TrimPrefix(u.Path, "/"); p != "" {
		if n, err := strconv.Atoi(p); err == nil {
			db = n
		}
	}
	pass, _ := u.User.Password()
	return &redis.Options{Addr: u.Host, Password: pass, DB: db}, nil
}
