// Package gps fuses NMEA-0183 sentences from a GNSS receiver into one state.
//
// A Service reads lines from a serial port, a gpsd NMEA watch, a raw TCP feed
// or a recorded log, parses them with package nmea and feeds them to an
// Interpreter. The Interpreter keeps the latest position, motion, fix and
// satellite data, gated by dilution of precision and optionally by fix.
package gps
