package store

import (
	"context"
	"fmt"
	"time"

	"github.com/nerrad567/hearth-core/internal/device"
	"github.com/nerrad567/hearth-core/internal/hardware"
	"github.com/nerrad567/hearth-core/internal/infrastructure/database"
	"github.com/nerrad567/hearth-core/migrations"
)

const timestampLayout = time.RFC3339Nano

// SQLite implements Store on the Hearth SQLite database.
type SQLite struct {
	db *database.DB
}

// NewSQLite wraps an open database. Call Init before use.
func NewSQLite(db *database.DB) *SQLite {
	return &SQLite{db: db}
}

// Init applies pending migrations.
func (s *SQLite) Init(ctx context.Context) error {
	if err := s.db.Migrate(ctx, migrations.FS); err != nil {
		return fmt.Errorf("migrating store: %w", err)
	}
	return nil
}

// UpsertDeviceState inserts or replaces the row for name.
func (s *SQLite) UpsertDeviceState(ctx context.Context, name device.Name, state device.State) error {
	if !state.Valid() {
		return fmt.Errorf("%w: %q", device.ErrInvalidState, state)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO devices (name, state, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET state = excluded.state, updated_at = excluded.updated_at`,
		string(name), string(state), formatTime(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("upserting device %s: %w", name, err)
	}
	return nil
}

// DeviceStates returns all rows from the devices table. Rows naming
// unknown devices are skipped.
func (s *SQLite) DeviceStates(ctx context.Context) (map[device.Name]device.State, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT name, state FROM devices")
	if err != nil {
		return nil, fmt.Errorf("querying devices: %w", err)
	}
	defer rows.Close()

	out := make(map[device.Name]device.State)
	for rows.Next() {
		var name, state string
		if err := rows.Scan(&name, &state); err != nil {
			return nil, fmt.Errorf("scanning device row: %w", err)
		}
		n, err := device.ParseName(name)
		if err != nil {
			continue
		}
		st, err := device.ParseState(state)
		if err != nil {
			continue
		}
		out[n] = st
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating devices: %w", err)
	}
	return out, nil
}

// AppendEnergySample inserts one energy log row.
func (s *SQLite) AppendEnergySample(ctx context.Context, e EnergySample) error {
	if e.TotalWatts < 0 {
		return fmt.Errorf("%w: negative watts %v", ErrInvalidSample, e.TotalWatts)
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO energy_logs (timestamp, total_watts) VALUES (?, ?)",
		formatTime(e.Timestamp), e.TotalWatts,
	)
	if err != nil {
		return fmt.Errorf("appending energy sample: %w", err)
	}
	return nil
}

// AppendSensorSample inserts one sensor log row.
func (s *SQLite) AppendSensorSample(ctx context.Context, snap hardware.SensorSnapshot) error {
	if snap.Door != hardware.DoorOpen && snap.Door != hardware.DoorClosed {
		return fmt.Errorf("%w: door %q", ErrInvalidSample, snap.Door)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sensor_logs (timestamp, temperature, humidity, motion, door)
		 VALUES (?, ?, ?, ?, ?)`,
		formatTime(snap.Timestamp), snap.Temperature, snap.Humidity, boolToInt(snap.Motion), string(snap.Door),
	)
	if err != nil {
		return fmt.Errorf("appending sensor sample: %w", err)
	}
	return nil
}

// QueryRecentEnergy returns the latest energy samples, newest first.
func (s *SQLite) QueryRecentEnergy(ctx context.Context, limit int) ([]EnergySample, error) {
	limit = clampLimit(limit, DefaultEnergyLimit)

	rows, err := s.db.QueryContext(ctx,
		"SELECT timestamp, total_watts FROM energy_logs ORDER BY id DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("querying energy logs: %w", err)
	}
	defer rows.Close()

	out := make([]EnergySample, 0, limit)
	for rows.Next() {
		var (
			ts string
			e  EnergySample
		)
		if err := rows.Scan(&ts, &e.TotalWatts); err != nil {
			return nil, fmt.Errorf("scanning energy row: %w", err)
		}
		if e.Timestamp, err = parseTime(ts); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating energy logs: %w", err)
	}
	return out, nil
}

// QueryRecentSensors returns the latest sensor snapshots, newest first.
func (s *SQLite) QueryRecentSensors(ctx context.Context, limit int) ([]hardware.SensorSnapshot, error) {
	limit = clampLimit(limit, DefaultSensorLimit)

	rows, err := s.db.QueryContext(ctx,
		`SELECT timestamp, temperature, humidity, motion, door
		 FROM sensor_logs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying sensor logs: %w", err)
	}
	defer rows.Close()

	out := make([]hardware.SensorSnapshot, 0, limit)
	for rows.Next() {
		var (
			ts     string
			motion int
			door   string
			snap   hardware.SensorSnapshot
		)
		if err := rows.Scan(&ts, &snap.Temperature, &snap.Humidity, &motion, &door); err != nil {
			return nil, fmt.Errorf("scanning sensor row: %w", err)
		}
		if snap.Timestamp, err = parseTime(ts); err != nil {
			return nil, err
		}
		snap.Motion = motion != 0
		snap.Door = hardware.Door(door)
		out = append(out, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sensor logs: %w", err)
	}
	return out, nil
}

// RecordTransition appends a state_history row.
func (s *SQLite) RecordTransition(ctx context.Context, t device.Transition) error {
	if !t.Device.Valid() {
		return fmt.Errorf("%w: %q", device.ErrDeviceNotFound, t.Device)
	}
	if t.Source == "" {
		t.Source = device.SourceAPI
	}
	if t.Timestamp.IsZero() {
		t.Timestamp = time.Now()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO state_history (device, state, previous, source, power_watts, timestamp)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		string(t.Device), string(t.State), string(t.Previous), t.Source, t.PowerWatts, formatTime(t.Timestamp),
	)
	if err != nil {
		return fmt.Errorf("recording transition: %w", err)
	}
	return nil
}

// History returns recent transitions for a device, newest first.
func (s *SQLite) History(ctx context.Context, name device.Name, limit int) ([]device.Transition, error) {
	limit = clampLimit(limit, DefaultHistoryLimit)

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, device, state, previous, source, power_watts, timestamp
		 FROM state_history WHERE device = ? ORDER BY id DESC LIMIT ?`,
		string(name), limit)
	if err != nil {
		return nil, fmt.Errorf("querying state history: %w", err)
	}
	defer rows.Close()

	out := make([]device.Transition, 0, limit)
	for rows.Next() {
		var (
			t                    device.Transition
			dev, state, prev, ts string
		)
		if err := rows.Scan(&t.ID, &dev, &state, &prev, &t.Source, &t.PowerWatts, &ts); err != nil {
			return nil, fmt.Errorf("scanning state history: %w", err)
		}
		t.Device, t.State, t.Previous = device.Name(dev), device.State(state), device.State(prev)
		if t.Timestamp, err = parseTime(ts); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating state history: %w", err)
	}
	return out, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().Format(timestampLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timestampLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing timestamp %q: %w", s, err)
	}
	return t, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
