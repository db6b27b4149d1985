package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	GPS    GPSConfig    `yaml:"gps"`
	Record RecordConfig `yaml:"record"`
	Replay ReplayConfig `yaml:"replay"`
	Sim    SimConfig    `yaml:"sim"`
	UDP    UDPConfig    `yaml:"udp"`
	MQTT   MQTTConfig   `yaml:"mqtt"`
	Web    WebConfig    `yaml:"web"`
	Log    LogConfig    `yaml:"log"`
}

type GPSConfig struct {
	Source   string `yaml:"source"`
	Device   string `yaml:"device"`
	Baud     int    `yaml:"baud"`
	GPSDAddr string `yaml:"gpsd_addr"`
	TCPAddr  string `yaml:"tcp_addr"`

	FixRequired bool    `yaml:"fix_required"`
	MaxHDOP     float64 `yaml:"max_hdop"`
	MaxVDOP     float64 `yaml:"max_vdop"`

	// TailLines is how many raw lines /api/sentences keeps.
	TailLines int `yaml:"tail_lines"`
}

type RecordConfig struct {
	Enable bool   `yaml:"enable"`
	Path   string `yaml:"path"`
}

type ReplayConfig struct {
	Path  string  `yaml:"path"`
	Speed float64 `yaml:"speed"`
	Loop  bool    `yaml:"loop"`
}

// SimConfig drives gps.source=sim: a receiver flying a figure-eight around
// the center point.
type SimConfig struct {
	CenterLatDeg float64       `yaml:"center_lat_deg"`
	CenterLonDeg float64       `yaml:"center_lon_deg"`
	AltFeet      int           `yaml:"alt_feet"`
	RadiusNm     float64       `yaml:"radius_nm"`
	Period       time.Duration `yaml:"period"`
	Interval     time.Duration `yaml:"interval"`
	Talker       string        `yaml:"talker"`
}

// UDPConfig re-broadcasts the fused state as RMC/GGA sentences.
type UDPConfig struct {
	Enable   bool          `yaml:"enable"`
	Dest     string        `yaml:"dest"`
	Interval time.Duration `yaml:"interval"`
	Talker   string        `yaml:"talker"`
}

type MQTTConfig struct {
	Enable   bool          `yaml:"enable"`
	Broker   string        `yaml:"broker"`
	ClientID string        `yaml:"client_id"`
	Topic    string        `yaml:"topic"`
	Interval time.Duration `yaml:"interval"`
}

type WebConfig struct {
	Listen string `yaml:"listen"`
}

type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

const (
	maxDOP = 50

	sourceSerial = "serial"
	sourceGPSD   = "gpsd"
	sourceTCP    = "tcp"
	sourceReplay = "replay"
	sourceSim    = "sim"
)

func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	return Parse(b)
}

// Parse decodes YAML, applies defaults and validates.
func Parse(b []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, err
	}

	cfg.GPS.Source = strings.ToLower(strings.TrimSpace(cfg.GPS.Source))
	if cfg.GPS.Source == "" {
		cfg.GPS.Source = sourceSerial
	}
	switch cfg.GPS.Source {
	case sourceSerial:
		if cfg.GPS.Baud == 0 {
			cfg.GPS.Baud = 9600
		}
		if cfg.GPS.Baud < 0 {
			return Config{}, fmt.Errorf("gps.baud must be > 0")
		}
	case sourceGPSD:
		if cfg.GPS.GPSDAddr == "" {
			cfg.GPS.GPSDAddr = "127.0.0.1:2947"
		}
	case sourceTCP:
		if cfg.GPS.TCPAddr == "" {
			return Config{}, fmt.Errorf("gps.tcp_addr is required when gps.source=tcp")
		}
	case sourceReplay:
		if cfg.Replay.Path == "" {
			return Config{}, fmt.Errorf("replay.path is required when gps.source=replay")
		}
	case sourceSim:
		if cfg.Sim.CenterLatDeg < -89 || cfg.Sim.CenterLatDeg > 89 {
			return Config{}, fmt.Errorf("sim.center_lat_deg must be within [-89, 89]")
		}
		if cfg.Sim.CenterLonDeg < -180 || cfg.Sim.CenterLonDeg > 180 {
			return Config{}, fmt.Errorf("sim.center_lon_deg must be within [-180, 180]")
		}
		if cfg.Sim.Interval <= 0 {
			cfg.Sim.Interval = 1 * time.Second
		}
		if cfg.Sim.Talker == "" {
			cfg.Sim.Talker = "GP"
		}
	default:
		return Config{}, fmt.Errorf("gps.source must be serial, gpsd, tcp, replay or sim (got %q)", cfg.GPS.Source)
	}

	if cfg.GPS.MaxHDOP == 0 {
		cfg.GPS.MaxHDOP = maxDOP
	}
	if cfg.GPS.MaxVDOP == 0 {
		cfg.GPS.MaxVDOP = maxDOP
	}
	if cfg.GPS.MaxHDOP < 0 || cfg.GPS.MaxHDOP > maxDOP {
		return Config{}, fmt.Errorf("gps.max_hdop must be in (0, %d]", maxDOP)
	}
	if cfg.GPS.MaxVDOP < 0 || cfg.GPS.MaxVDOP > maxDOP {
		return Config{}, fmt.Errorf("gps.max_vdop must be in (0, %d]", maxDOP)
	}
	if cfg.GPS.TailLines <= 0 {
		cfg.GPS.TailLines = 50
	}

	if cfg.Replay.Speed == 0 {
		cfg.Replay.Speed = 1
	}
	if cfg.Replay.Speed < 0 {
		return Config{}, fmt.Errorf("replay.speed must be > 0")
	}

	if cfg.Record.Enable {
		if cfg.Record.Path == "" {
			return Config{}, fmt.Errorf("record.path is required when record.enable is true")
		}
		if cfg.GPS.Source == sourceReplay {
			return Config{}, fmt.Errorf("record cannot be used with gps.source=replay")
		}
	}

	if cfg.UDP.Enable && cfg.UDP.Dest == "" {
		return Config{}, fmt.Errorf("udp.dest is required when udp.enable is true")
	}
	if cfg.UDP.Interval <= 0 {
		cfg.UDP.Interval = 1 * time.Second
	}
	if cfg.UDP.Talker == "" {
		cfg.UDP.Talker = "GP"
	}
	if len(cfg.UDP.Talker) != 2 {
		return Config{}, fmt.Errorf("udp.talker must be two characters")
	}

	if cfg.MQTT.Enable && cfg.MQTT.Broker == "" {
		return Config{}, fmt.Errorf("mqtt.broker is required when mqtt.enable is true")
	}
	if cfg.MQTT.ClientID == "" {
		cfg.MQTT.ClientID = "gpsfuse"
	}
	if cfg.MQTT.Topic == "" {
		cfg.MQTT.Topic = "gpsfuse/state"
	}
	if cfg.MQTT.Interval <= 0 {
		cfg.MQTT.Interval = 1 * time.Second
	}

	if cfg.Web.Listen == "" {
		cfg.Web.Listen = ":8080"
	}

	cfg.Log.Level = strings.ToLower(strings.TrimSpace(cfg.Log.Level))
	switch cfg.Log.Level {
	case "":
		cfg.Log.Level = "info"
	case "debug", "info", "warn", "error":
	default:
		return Config{}, fmt.Errorf("log.level must be debug, info, warn or error (got %q)", cfg.Log.Level)
	}

	return cfg, nil
}
