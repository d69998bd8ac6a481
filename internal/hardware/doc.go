// Package hardware simulates the physical side of Hearth: the GPIO pins
// behind each device, their power draw, and the ambient sensors
// (temperature, humidity, motion, door contact).
package hardware
