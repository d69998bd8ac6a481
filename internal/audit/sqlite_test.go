package audit

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/nerrad567/hearth-core/internal/infrastructure/database"
	"github.com/nerrad567/hearth-core/migrations"
)

func newTestRecorder(t *testing.T) *SQLite {
	t.Helper()
	db, err := database.Open(database.Config{Path: database.MemoryPath})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.Migrate(context.Background(), migrations.FS); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	return NewSQLite(db)
}

func TestRecordFillsDefaults(t *testing.T) {
	r := newTestRecorder(t)
	ctx := context.Background()

	e := &Entry{Action: ActionSecurityMode, Entity: "security", Details: map[string]any{"mode": "AWAY"}}
	if err := r.Record(ctx, e); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if !strings.HasPrefix(e.ID, "aud-") {
		t.Errorf("ID = %q, want aud- prefix", e.ID)
	}
	if e.Subject != AnonymousSubject {
		t.Errorf("Subject = %q, want %q", e.Subject, AnonymousSubject)
	}

	page, err := r.List(ctx, Filter{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if page.Total != 1 || len(page.Entries) != 1 {
		t.Fatalf("page = %+v, want one entry", page)
	}
	got := page.Entries[0]
	if got.ID != e.ID || got.Details["mode"] != "AWAY" || got.EntityID != "" {
		t.Errorf("entry = %+v", got)
	}
	if page.Limit != DefaultLimit {
		t.Errorf("Limit = %d, want %d", page.Limit, DefaultLimit)
	}
}

func TestRecordRejectsIncomplete(t *testing.T) {
	r := newTestRecorder(t)
	tests := []Entry{
		{Entity: "schedule"},
		{Action: ActionScheduleSet},
	}
	for _, e := range tests {
		if err := r.Record(context.Background(), &e); !errors.Is(err, ErrInvalidEntry) {
			t.Errorf("Record(%+v) error = %v, want ErrInvalidEntry", e, err)
		}
	}
}

func TestListFiltersAndPages(t *testing.T) {
	r := newTestRecorder(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	entries := []Entry{
		{Action: ActionScheduleSet, Entity: "schedule", EntityID: "fan", Subject: "alice"},
		{Action: ActionScheduleToggle, Entity: "schedule", EntityID: "fan", Subject: "alice"},
		{Action: ActionScheduleSet, Entity: "schedule", EntityID: "light", Subject: "bob"},
		{Action: ActionDeviceControl, Entity: "device", EntityID: "fan", Subject: "bob"},
	}
	for i := range entries {
		entries[i].CreatedAt = base.Add(time.Duration(i) * time.Minute)
		if err := r.Record(ctx, &entries[i]); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}

	tests := []struct {
		name      string
		filter    Filter
		wantTotal int
		wantFirst string
		wantLen   int
	}{
		{"all newest first", Filter{}, 4, ActionDeviceControl, 4},
		{"by entity", Filter{Entity: "schedule"}, 3, ActionScheduleSet, 3},
		{"by action", Filter{Action: ActionScheduleSet}, 2, ActionScheduleSet, 2},
		{"by entity id", Filter{Entity: "schedule", EntityID: "fan"}, 2, ActionScheduleToggle, 2},
		{"paged", Filter{Limit: 1, Offset: 1}, 4, ActionScheduleSet, 1},
		{"limit clamped", Filter{Limit: 10000}, 4, ActionDeviceControl, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := r.List(ctx, tt.filter)
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if page.Total != tt.wantTotal || len(page.Entries) != tt.wantLen {
				t.Fatalf("total=%d len=%d, want %d/%d", page.Total, len(page.Entries), tt.wantTotal, tt.wantLen)
			}
			if page.Entries[0].Action != tt.wantFirst {
				t.Errorf("first action = %q, want %q", page.Entries[0].Action, tt.wantFirst)
			}
			if page.Limit > MaxLimit {
				t.Errorf("Limit = %d exceeds max", page.Limit)
			}
		})
	}
}
