package store

import (
	"context"
	"time"

	"github.com/nerrad567/hearth-core/internal/device"
	"github.com/nerrad567/hearth-core/internal/hardware"
)

// SeriesWriter receives copies of appended samples. *influxdb.Client
// satisfies it.
type SeriesWriter interface {
	WriteEnergySample(ts time.Time, totalWatts float64)
	WriteSensorSnapshot(ts time.Time, temperature, humidity float64, motion bool, door string)
	WriteDeviceState(ts time.Time, device, state, source string, powerWatts float64)
}

// Mirror decorates a Store, copying every successfully appended sample
// and transition to a time series writer. Reads always come from the
// wrapped store.
type Mirror struct {
	Store
	series SeriesWriter
}

// NewMirror wraps primary. A nil series returns primary unchanged.
func NewMirror(primary Store, series SeriesWriter) Store {
	if series == nil {
		return primary
	}
	return &Mirror{Store: primary, series: series}
}

// AppendEnergySample appends to the primary store, then mirrors.
func (m *Mirror) AppendEnergySample(ctx context.Context, s EnergySample) error {
	if err := m.Store.AppendEnergySample(ctx, s); err != nil {
		return err
	}
	m.series.WriteEnergySample(s.Timestamp, s.TotalWatts)
	return nil
}

// AppendSensorSample appends to the primary store, then mirrors.
func (m *Mirror) AppendSensorSample(ctx context.Context, s hardware.SensorSnapshot) error {
	if err := m.Store.AppendSensorSample(ctx, s); err != nil {
		return err
	}
	m.series.WriteSensorSnapshot(s.Timestamp, s.Temperature, s.Humidity, s.Motion, string(s.Door))
	return nil
}

// RecordTransition appends to the primary store, then mirrors.
func (m *Mirror) RecordTransition(ctx context.Context, t device.Transition) error {
	if err := m.Store.RecordTransition(ctx, t); err != nil {
		return err
	}
	m.series.WriteDeviceState(t.Timestamp, string(t.Device), string(t.State), t.Source, t.PowerWatts)
	return nil
}
