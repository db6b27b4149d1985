package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"gpsfuse/internal/config"
	"gpsfuse/internal/gps"
	"gpsfuse/internal/mqtt"
	"gpsfuse/internal/nmea"
	"gpsfuse/internal/sim"
	"gpsfuse/internal/udp"
	"gpsfuse/internal/web"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "./gpsfuse.yaml", "Path to YAML config")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	logs := web.NewLogBuffer(500)
	logger, err := newLogger(cfg.Log, os.Stderr, logs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger.Info("gpsfuse starting", zap.String("config", configPath), zap.String("source", cfg.GPS.Source))
	if err := run(ctx, cfg, logger, logs); err != nil {
		logger.Error("gpsfuse stopped", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
	logger.Info("gpsfuse stopping")
}

// newLogger writes console-encoded entries to out and to the in-memory
// buffer served at /api/logs.
func newLogger(cfg config.LogConfig, out io.Writer, buf *web.LogBuffer) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		return nil, err
	}
	encCfg := zap.NewProductionEncoderConfig()
	if cfg.Development {
		encCfg = zap.NewDevelopmentEncoderConfig()
	}
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(out), level),
	}
	if buf != nil {
		cores = append(cores, zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), buf, level))
	}
	opts := []zap.Option{zap.AddCaller()}
	if cfg.Development {
		opts = append(opts, zap.Development())
	}
	return zap.New(zapcore.NewTee(cores...), opts...), nil
}

func serviceConfig(cfg config.Config) gps.Config {
	out := gps.Config{
		Enable:      true,
		Source:      cfg.GPS.Source,
		Device:      cfg.GPS.Device,
		Baud:        cfg.GPS.Baud,
		GPSDAddr:    cfg.GPS.GPSDAddr,
		TCPAddr:     cfg.GPS.TCPAddr,
		ReplayPath:  cfg.Replay.Path,
		ReplaySpeed: cfg.Replay.Speed,
		ReplayLoop:  cfg.Replay.Loop,
		TailLines:   cfg.GPS.TailLines,
		Interpreter: gps.InterpreterConfig{
			FixRequired: cfg.GPS.FixRequired,
			MaxHDOP:     nmea.DilutionOfPrecision(cfg.GPS.MaxHDOP),
			MaxVDOP:     nmea.DilutionOfPrecision(cfg.GPS.MaxVDOP),
		},
	}
	if cfg.GPS.Source == gps.SourceSim {
		out.Sim = sim.Receiver{
			CenterLatDeg: cfg.Sim.CenterLatDeg,
			CenterLonDeg: cfg.Sim.CenterLonDeg,
			AltFeet:      cfg.Sim.AltFeet,
			RadiusNm:     cfg.Sim.RadiusNm,
			Period:       cfg.Sim.Period,
			Talker:       cfg.Sim.Talker,
		}
		out.SimInterval = cfg.Sim.Interval
	}
	if cfg.Record.Enable {
		out.RecordPath = cfg.Record.Path
	}
	return out
}

func outputs(cfg config.Config) map[string]any {
	out := map[string]any{"web": cfg.Web.Listen}
	if cfg.UDP.Enable {
		out["udp"] = cfg.UDP.Dest
	}
	if cfg.MQTT.Enable {
		out["mqtt"] = cfg.MQTT.Broker + " " + cfg.MQTT.Topic
	}
	if cfg.Record.Enable {
		out["record"] = cfg.Record.Path
	}
	return out
}

// run starts the GPS service and every enabled output, and blocks until ctx
// is done or one of them fails.
func run(ctx context.Context, cfg config.Config, logger *zap.Logger, logs *web.LogBuffer) error {
	var (
		udpOut  *udp.Broadcaster
		mqttOut *mqtt.Publisher
		err     error
	)
	if cfg.UDP.Enable {
		if udpOut, err = udp.NewBroadcaster(cfg.UDP.Dest); err != nil {
			return fmt.Errorf("udp broadcaster init: %w", err)
		}
		defer udpOut.Close()
	}
	if cfg.MQTT.Enable {
		mqttOut, err = mqtt.NewPublisher(mqtt.Config{
			Broker:   cfg.MQTT.Broker,
			ClientID: cfg.MQTT.ClientID,
			Topic:    cfg.MQTT.Topic,
			Interval: cfg.MQTT.Interval,
		}, logger)
		if err != nil {
			return fmt.Errorf("mqtt init: %w", err)
		}
	}

	svc := gps.New(serviceConfig(cfg), logger)
	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("gps start: %w", err)
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.Warn("gps close failed", zap.Error(err))
		}
	}()

	status := web.NewStatus(svc)
	status.SetOutputs(outputs(cfg))
	stream := web.NewBroadcaster()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		stream.Run(gctx, time.Second, svc.Snapshot)
		return nil
	})
	g.Go(func() error {
		logger.Info("web listening", zap.String("listen", cfg.Web.Listen))
		return web.Serve(gctx, cfg.Web.Listen, web.Handler(status, logs, stream, logger))
	})

	if udpOut != nil {
		interp := svc.Interpreter()
		talker := cfg.UDP.Talker
		g.Go(func() error {
			logger.Info("udp streaming", zap.String("dest", cfg.UDP.Dest), zap.Duration("interval", cfg.UDP.Interval))
			return udpOut.Stream(gctx, cfg.UDP.Interval, func() [][]byte {
				st := interp.State()
				if st.Position.IsInvalid() {
					return nil
				}
				return gps.Frames(st, talker)
			}, logger.Named("udp"))
		})
	}
	if mqttOut != nil {
		g.Go(func() error {
			return mqttOut.Run(gctx, svc.Snapshot)
		})
	}

	return g.Wait()
}
