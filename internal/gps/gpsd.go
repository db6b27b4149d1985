package gps

import (
	"context"
	"io"
	"net"
	"time"
)

const gpsdDefaultAddr = "127.0.0.1:2947"

// gpsdWatchRequest asks gpsd to relay the receiver's raw NMEA. gpsd still
// interleaves its own JSON objects (VERSION, DEVICES, WATCH), which
// HandleLine drops because they do not start with '$'.
const gpsdWatchRequest = "?WATCH={\"enable\":true,\"nmea\":true}\n"

func dialTCP(ctx context.Context, addr string) (net.Conn, error) {
	d := &net.Dialer{Timeout: 2 * time.Second, KeepAlive: 30 * time.Second}
	return d.DialContext(ctx, "tcp", addr)
}

// gpsdWatchNMEA enables the raw NMEA stream on a fresh gpsd connection.
func gpsdWatchNMEA(w io.Writer) error {
	_, err := io.WriteString(w, gpsdWatchRequest)
	return err
}
