package directory

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestDirectory(t *testing.T) *Directory {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewWithClient(rdb)
}

func TestAnnounceAndList(t *testing.T) {
	d := newTestDirectory(t)
	ctx := context.Background()

	if err := d.Announce(ctx, &Entry{Code: "AB12", Creator: "alice", CreatedAt: time.Now()}); err != nil {
		t.Fatalf("Announce: %v", err)
	}
	if err := d.Announce(ctx, &Entry{Code: "CD34", Creator: "bob", HasPassword: true, CreatedAt: time.Now()}); err != nil {
		t.Fatalf("Announce: %v", err)
	}

	entries, err := d.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("want 2 open rooms, got %d", len(entries))
	}
}

func TestSetStartedHidesFromListing(t *testing.T) {
	d := newTestDirectory(t)
	ctx := context.Background()

	_ = d.Announce(ctx, &Entry{Code: "AB12", Creator: "alice", CreatedAt: time.Now()})
	if err := d.SetStarted(ctx, "AB12"); err != nil {
		t.Fatalf("SetStarted: %v", err)
	}

	entries, err := d.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("started room must not be listed, got %d entries", len(entries))
	}
}

func TestRemove(t *testing.T) {
	d := newTestDirectory(t)
	ctx := context.Background()

	_ = d.Announce(ctx, &Entry{Code: "AB12", Creator: "alice", CreatedAt: time.Now()})
	if err := d.Remove(ctx, "AB12"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	entries, _ := d.List(ctx)
	if len(entries) != 0 {
		t.Fatalf("removed room still listed: %v", entries)
	}
}

func TestReAnnounceOverwrites(t *testing.T) {
	d := newTestDirectory(t)
	ctx := context.Background()

	_ = d.Announce(ctx, &Entry{Code: "AB12", Creator: "alice", CreatedAt: time.Now()})
	_ = d.Announce(ctx, &Entry{Code: "AB12", Creator: "alice", HasPassword: true, CreatedAt: time.Now()})

	entries, err := d.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 1 || !entries[0].HasPassword {
		t.Fatalf("re-announce did not overwrite: %+v", entries)
	}
}

func TestNilDirectoryIsNoop(t *testing.T) {
	var d *Directory
	ctx := context.Background()
	if err := d.Announce(ctx, &Entry{Code: "X"}); err != nil {
		t.Fatalf("nil Announce: %v", err)
	}
	if err := d.Remove(ctx, "X"); err != nil {
		t.Fatalf("nil Remove: %v", err)
	}
	if entries, err := d.List(ctx); err != nil || entries != nil {
		t.Fatalf("nil List: %v %v", entries, err)
	}
}
