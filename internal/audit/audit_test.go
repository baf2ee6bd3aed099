package audit_test

import (
	"context"
	"testing"
	"time"

	"talentos/internal/audit"
	"talentos/internal/db"
	"talentos/internal/migrate"
)

func newTestTrail(t *testing.T) audit.Trail {
	t.Helper()
	conn, err := db.Open(db.Config{Workspace: t.TempDir()})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return audit.New(conn, func() time.Time {
		return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	})
}

func TestAppendAndForEntity(t *testing.T) {
	trail := newTestTrail(t)
	ctx := context.Background()

	if err := trail.Append(ctx, "talent", "t1", "created", "ops", "TL-AAAA", nil); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := trail.Append(ctx, "talent", "t1", "verification_verified", "ops", "", nil); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := trail.Append(ctx, "talent", "t2", "created", "ops", "", nil); err != nil {
		t.Fatalf("append: %v", err)
	}

	entries, err := trail.ForEntity(ctx, "talent", "t1", 0)
	if err != nil {
		t.Fatalf("for entity: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries", len(entries))
	}
	if entries[0].Action != "created" || entries[1].Action != "verification_verified" {
		t.Fatalf("order: %q then %q", entries[0].Action, entries[1].Action)
	}
	if entries[0].Seq >= entries[1].Seq {
		t.Fatalf("seq not monotonic: %d, %d", entries[0].Seq, entries[1].Seq)
	}
	if entries[0].Ref == "" || entries[0].Ref == entries[1].Ref {
		t.Fatalf("refs: %q, %q", entries[0].Ref, entries[1].Ref)
	}
	if entries[0].TS != "2024-03-01T12:00:00Z" {
		t.Fatalf("ts = %q", entries[0].TS)
	}
}

func TestAppendPayload(t *testing.T) {
	trail := newTestTrail(t)
	ctx := context.Background()
	if err := trail.Append(ctx, "consent", "c1", "revoked", "mgr", "", map[string]string{"reason": "request"}); err != nil {
		t.Fatalf("append: %v", err)
	}
	entries, err := trail.ForEntity(ctx, "consent", "c1", 0)
	if err != nil || len(entries) != 1 {
		t.Fatalf("read back: %v %d", err, len(entries))
	}
	if entries[0].Payload != `{"reason":"request"}` {
		t.Fatalf("payload = %q", entries[0].Payload)
	}
}

func TestRecentFilters(t *testing.T) {
	trail := newTestTrail(t)
	ctx := context.Background()
	seed := []struct{ kind, id, action, actor string }{
		{"talent", "t1", "created", "a"},
		{"task", "k1", "created", "b"},
		{"task", "k1", "status_completed", "a"},
	}
	for _, s := range seed {
		if err := trail.Append(ctx, s.kind, s.id, s.action, s.actor, "", nil); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	recent, err := trail.Recent(ctx, audit.Filters{Limit: 2})
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recent) != 2 || recent[0].Action != "status_completed" {
		t.Fatalf("recent = %+v", recent)
	}

	byActor, err := trail.Recent(ctx, audit.Filters{ActorID: "a"})
	if err != nil || len(byActor) != 2 {
		t.Fatalf("actor filter: %v %d", err, len(byActor))
	}
	byKind, err := trail.Recent(ctx, audit.Filters{EntityKind: "task", Action: "created"})
	if err != nil || len(byKind) != 1 || byKind[0].EntityID != "k1" {
		t.Fatalf("kind+action filter: %v %+v", err, byKind)
	}
}

func TestAfterAndLatestSeq(t *testing.T) {
	trail := newTestTrail(t)
	ctx := context.Background()

	latest, err := trail.LatestSeq(ctx)
	if err != nil || latest != 0 {
		t.Fatalf("empty latest: %v %d", err, latest)
	}

	for i := 0; i < 3; i++ {
		if err := trail.Append(ctx, "talent", "t1", "updated", "ops", "", nil); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	latest, err = trail.LatestSeq(ctx)
	if err != nil || latest == 0 {
		t.Fatalf("latest: %v %d", err, latest)
	}

	tail, err := trail.After(ctx, latest-1, 0)
	if err != nil || len(tail) != 1 || tail[0].Seq != latest {
		t.Fatalf("after: %v %+v", err, tail)
	}
	all, err := trail.After(ctx, 0, 2)
	if err != nil || len(all) != 2 {
		t.Fatalf("after with limit: %v %d", err, len(all))
	}
}
