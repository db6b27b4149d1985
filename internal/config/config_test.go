package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeTempConfig(t *testing.T, contents string) string {
	t.Helper()
	tmp := t.TempDir()
	path := filepath.Join(tmp, "cfg.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("WriteFile() error: %v", err)
	}
	return path
}

func requireErrEq(t *testing.T, err error, want string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error %q, got nil", want)
	}
	if err.Error() != want {
		t.Fatalf("error=%q want %q", err.Error(), want)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("expected error")
	}
}

func TestLoad_DefaultsApplied(t *testing.T) {
	path := writeTempConfig(t, "gps: {}\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.GPS.Source != "serial" || cfg.GPS.Baud != 9600 {
		t.Fatalf("source=%q baud=%d", cfg.GPS.Source, cfg.GPS.Baud)
	}
	if cfg.GPS.MaxHDOP != 50 || cfg.GPS.MaxVDOP != 50 {
		t.Fatalf("dop limits=%v/%v want 50", cfg.GPS.MaxHDOP, cfg.GPS.MaxVDOP)
	}
	if cfg.GPS.TailLines != 50 || cfg.Replay.Speed != 1 {
		t.Fatalf("tail=%d speed=%v", cfg.GPS.TailLines, cfg.Replay.Speed)
	}
	if cfg.UDP.Interval != 1*time.Second || cfg.UDP.Talker != "GP" {
		t.Fatalf("udp=%+v", cfg.UDP)
	}
	if cfg.MQTT.Topic != "gpsfuse/state" || cfg.MQTT.ClientID != "gpsfuse" || cfg.MQTT.Interval != 1*time.Second {
		t.Fatalf("mqtt=%+v", cfg.MQTT)
	}
	if cfg.Web.Listen != ":8080" || cfg.Log.Level != "info" {
		t.Fatalf("web=%q log=%q", cfg.Web.Listen, cfg.Log.Level)
	}
}

func TestLoad_FullConfig(t *testing.T) {
	path := writeTempConfig(t, `
gps:
  source: GPSD
  fix_required: true
  max_hdop: 2.5
record:
  enable: true
  path: /tmp/gps.log
udp:
  enable: true
  dest: 192.168.10.255:10110
  interval: 200ms
  talker: GN
mqtt:
  enable: true
  broker: tcp://localhost:1883
web:
  listen: 127.0.0.1:9000
log:
  level: DEBUG
  development: true
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.GPS.Source != "gpsd" || cfg.GPS.GPSDAddr != "127.0.0.1:2947" {
		t.Fatalf("gps=%+v", cfg.GPS)
	}
	if !cfg.GPS.FixRequired || cfg.GPS.MaxHDOP != 2.5 || cfg.GPS.MaxVDOP != 50 {
		t.Fatalf("gps gating=%+v", cfg.GPS)
	}
	if cfg.UDP.Interval != 200*time.Millisecond || cfg.UDP.Talker != "GN" {
		t.Fatalf("udp=%+v", cfg.UDP)
	}
	if cfg.Log.Level != "debug" || !cfg.Log.Development {
		t.Fatalf("log=%+v", cfg.Log)
	}
}

func TestLoad_Validation(t *testing.T) {
	cases := []struct {
		name string
		yaml string
		want string
	}{
		{"bad source", "gps: {source: usb}\n", `gps.source must be serial, gpsd, tcp, replay or sim (got "usb")`},
		{"sim latitude", "gps: {source: sim}\nsim: {center_lat_deg: 90}\n", "sim.center_lat_deg must be within [-89, 89]"},
		{"sim longitude", "gps: {source: sim}\nsim: {center_lon_deg: -181}\n", "sim.center_lon_deg must be within [-180, 180]"},
		{"tcp needs addr", "gps: {source: tcp}\n", "gps.tcp_addr is required when gps.source=tcp"},
		{"replay needs path", "gps: {source: replay}\n", "replay.path is required when gps.source=replay"},
		{"negative baud", "gps: {baud: -1}\n", "gps.baud must be > 0"},
		{"hdop too big", "gps: {max_hdop: 51}\n", "gps.max_hdop must be in (0, 50]"},
		{"vdop negative", "gps: {max_vdop: -1}\n", "gps.max_vdop must be in (0, 50]"},
		{"replay speed", "gps: {source: replay}\nreplay: {path: x.log, speed: -2}\n", "replay.speed must be > 0"},
		{"record path", "record: {enable: true}\n", "record.path is required when record.enable is true"},
		{"record with replay", "gps: {source: replay}\nreplay: {path: x.log}\nrecord: {enable: true, path: y.log}\n", "record cannot be used with gps.source=replay"},
		{"udp dest", "udp: {enable: true}\n", "udp.dest is required when udp.enable is true"},
		{"udp talker", "udp: {talker: GPS}\n", "udp.talker must be two characters"},
		{"mqtt broker", "mqtt: {enable: true}\n", "mqtt.broker is required when mqtt.enable is true"},
		{"log level", "log: {level: loud}\n", `log.level must be debug, info, warn or error (got "loud")`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeTempConfig(t, tc.yaml))
			requireErrEq(t, err, tc.want)
		})
	}
}

func TestParse_InvalidYAML(t *testing.T) {
	if _, err := Parse([]byte("gps: [")); err == nil {
		t.Fatalf("expected yaml error")
	}
}

func TestLoad_ShippedExample(t *testing.T) {
	cfg, err := Load("../../gpsfuse.yaml")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.GPS.Source != "serial" || cfg.Sim.Period != 120*time.Second || cfg.MQTT.Broker != "tcp://127.0.0.1:1883" {
		t.Fatalf("cfg=%+v", cfg)
	}
}
