package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurement names written by Hearth.
const (
	MeasurementEnergy      = "energy"
	MeasurementSensors     = "sensors"
	MeasurementDeviceState = "device_state"
)

// WriteEnergySample records total household draw in watts.
//
//	client.WriteEnergySample(time.Now(), 87.4)
func (c *Client) WriteEnergySample(ts time.Time, totalWatts float64) {
	c.writePoint(energyPoint(ts, totalWatts))
}

// WriteSensorSnapshot records one ambient sensor reading.
func (c *Client) WriteSensorSnapshot(ts time.Time, temperature, humidity float64, motion bool, door string) {
	c.writePoint(sensorPoint(ts, temperature, humidity, motion, door))
}

// WriteDeviceState records a device transition. The device and the source
// that caused the change are tags; state and power are fields.
func (c *Client) WriteDeviceState(ts time.Time, device, state, source string, powerWatts float64) {
	c.writePoint(deviceStatePoint(ts, device, state, source, powerWatts))
}

func (c *Client) writePoint(p *write.Point) {
	if !c.IsConnected() {
		return
	}
	c.sink.WritePoint(p)
}

func energyPoint(ts time.Time, totalWatts float64) *write.Point {
	return write.NewPoint(
		MeasurementEnergy,
		nil,
		map[string]any{"total_watts": totalWatts},
		ts,
	)
}

func sensorPoint(ts time.Time, temperature, humidity float64, motion bool, door string) *write.Point {
	return write.NewPoint(
		MeasurementSensors,
		map[string]string{"door": door},
		map[string]any{
			"temperature": temperature,
			"humidity":    humidity,
			"motion":      motion,
		},
		ts,
	)
}

func deviceStatePoint(ts time.Time, device, state, source string, powerWatts float64) *write.Point {
	on := 0
	if state == "ON" {
		on = 1
	}
	return write.NewPoint(
		MeasurementDeviceState,
		map[string]string{"device": device, "source": source},
		map[string]any{
			"state":       state,
			"on":          on,
			"power_watts": powerWatts,
		},
		ts,
	)
}
