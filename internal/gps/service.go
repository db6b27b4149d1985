package gps

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"gpsfuse/internal/nmea"
	"gpsfuse/internal/replay"
	"gpsfuse/internal/sim"
)

// Sources understood by Config.Source.
const (
	SourceSerial = "serial"
	SourceGPSD   = "gpsd"
	SourceTCP    = "tcp"
	SourceReplay = "replay"
	SourceSim    = "sim"
)

// Config controls where NMEA lines come from and how they are fused.
//
// Device may be empty to auto-detect a /dev/ttyACM* or /dev/ttyUSB* port.
// Baud defaults to 9600. RecordPath, when set, receives every line read from
// a live source in the replay log format.
type Config struct {
	Enable bool

	// Source is one of "serial" (default), "gpsd", "tcp", "replay" or "sim".
	Source string

	Device string
	Baud   int

	// GPSDAddr is host:port for Source=="gpsd"; TCPAddr for Source=="tcp".
	GPSDAddr       string
	TCPAddr        string
	ReconnectDelay time.Duration

	ReplayPath  string
	ReplaySpeed float64
	ReplayLoop  bool

	// Sim drives Source=="sim", emitting one epoch per SimInterval.
	Sim         sim.Receiver
	SimInterval time.Duration

	RecordPath string
	TailLines  int

	Interpreter InterpreterConfig
}

// Service reads lines from one source on a background goroutine and feeds
// them through the parser into an Interpreter.
type Service struct {
	cfg    Config
	log    *zap.Logger
	interp *Interpreter
	recent *receivedRing
	lines  atomic.Uint64

	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	closer  io.Closer
	device  string
	baud    int
	link    string
	lastErr string

	// recMu guards the recorder and subscribers, independently of the
	// interpreter's state lock.
	recMu    sync.Mutex
	recorder *replay.Writer
	subs     map[int]func(*nmea.Sentence)
	nextSub  int
}

func New(cfg Config, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg.Source = strings.ToLower(strings.TrimSpace(cfg.Source))
	if cfg.Source == "" {
		cfg.Source = SourceSerial
	}
	if cfg.Baud == 0 {
		cfg.Baud = 9600
	}
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = 250 * time.Millisecond
	}
	if cfg.ReplaySpeed <= 0 {
		cfg.ReplaySpeed = 1
	}
	if cfg.TailLines <= 0 {
		cfg.TailLines = 50
	}
	if cfg.SimInterval <= 0 {
		cfg.SimInterval = time.Second
	}
	return &Service{
		cfg:    cfg,
		log:    logger.Named("gps"),
		interp: NewInterpreter(cfg.Interpreter),
		recent: newReceivedRing(cfg.TailLines, 256),
		device: strings.TrimSpace(cfg.Device),
		baud:   cfg.Baud,
		link:   "stopped",
		subs:   make(map[int]func(*nmea.Sentence)),
	}
}

// Interpreter exposes the fused state.
func (s *Service) Interpreter() *Interpreter {
	return s.interp
}

func (s *Service) Start(ctx context.Context) error {
	if s == nil {
		return fmt.Errorf("gps service is nil")
	}
	if !s.cfg.Enable {
		return nil
	}
	if ctx == nil {
		return fmt.Errorf("ctx is nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return nil
	}

	if s.cfg.RecordPath != "" && s.cfg.Source != SourceReplay {
		w, err := replay.CreateWriter(s.cfg.RecordPath)
		if err != nil {
			return fmt.Errorf("gps record open failed path=%s: %w", s.cfg.RecordPath, err)
		}
		s.recMu.Lock()
		s.recorder = w
		s.recMu.Unlock()
		s.log.Info("recording nmea", zap.String("path", s.cfg.RecordPath))
	}

	var err error
	switch s.cfg.Source {
	case SourceSerial:
		err = s.startSerialLocked(ctx)
	case SourceGPSD:
		addr := strings.TrimSpace(s.cfg.GPSDAddr)
		if addr == "" {
			addr = gpsdDefaultAddr
		}
		s.device = addr
		err = s.startNetworkLocked(ctx, addr, gpsdWatchNMEA)
	case SourceTCP:
		addr := strings.TrimSpace(s.cfg.TCPAddr)
		if addr == "" {
			err = fmt.Errorf("gps tcp source requires an address")
			break
		}
		s.device = addr
		err = s.startNetworkLocked(ctx, addr, nil)
	case SourceReplay:
		err = s.startReplayLocked(ctx)
	case SourceSim:
		err = s.startSimLocked(ctx)
	default:
		err = fmt.Errorf("unknown gps source %q", s.cfg.Source)
	}
	if err != nil {
		s.closeRecorder()
		return err
	}
	s.interp.Start()
	return nil
}

func (s *Service) startSerialLocked(ctx context.Context) error {
	device := s.device
	if device == "" {
		device = autoDetectDevice()
		if device == "" {
			s.lastErr = "gps auto-detect failed: no /dev/ttyACM* or /dev/ttyUSB* found"
			return fmt.Errorf("gps auto-detect failed")
		}
	}
	s.device = device

	port, err := openSerial(device, s.baud)
	if err != nil {
		s.lastErr = fmt.Sprintf("gps open failed device=%s baud=%d: %v", device, s.baud, err)
		return err
	}
	s.closer = port
	s.link = "open"

	childCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			_ = port.Close()
		}()

		s.log.Info("gps enabled", zap.String("device", device), zap.Int("baud", s.baud))
		if err := s.readLines(childCtx, port); err != nil {
			s.setError(fmt.Sprintf("gps read stopped: %v", err))
		}
		s.setLink("closed")
	}()
	return nil
}

// startNetworkLocked keeps a TCP connection to addr open, reconnecting with
// backoff. hello, when set, is written once per connection.
func (s *Service) startNetworkLocked(ctx context.Context, addr string, hello func(io.Writer) error) error {
	childCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		s.log.Info("gps enabled", zap.String("source", s.cfg.Source), zap.String("addr", addr))
		backoff := s.cfg.ReconnectDelay
		maxBackoff := 10 * time.Second

		for {
			select {
			case <-childCtx.Done():
				s.setLink("stopped")
				return
			default:
			}

			s.setLink("connecting")
			conn, err := dialTCP(childCtx, addr)
			if err != nil {
				s.setError(fmt.Sprintf("%s dial failed addr=%s: %v", s.cfg.Source, addr, err))
				if !sleepCtx(childCtx, backoff) {
					s.setLink("stopped")
					return
				}
				if backoff < maxBackoff {
					backoff *= 2
				}
				if backoff > maxBackoff {
					backoff = maxBackoff
				}
				continue
			}
			backoff = s.cfg.ReconnectDelay
			s.setLink("connected")

			func() {
				// Unblock the read when ctx ends.
				stop := context.AfterFunc(childCtx, func() { _ = conn.Close() })
				defer stop()
				defer func() { _ = conn.Close() }()
				if hello != nil {
					if err := hello(conn); err != nil {
						s.setError(fmt.Sprintf("%s hello failed: %v", s.cfg.Source, err))
						return
					}
				}
				if err := s.readLines(childCtx, conn); err != nil {
					s.setError(fmt.Sprintf("%s read stopped: %v", s.cfg.Source, err))
				}
			}()
			s.setLink("disconnected")

			if !sleepCtx(childCtx, s.cfg.ReconnectDelay) {
				s.setLink("stopped")
				return
			}
		}
	}()
	return nil
}

func (s *Service) startReplayLocked(ctx context.Context) error {
	recs, err := replay.ReadFile(s.cfg.ReplayPath)
	if err != nil {
		s.lastErr = fmt.Sprintf("gps replay load failed path=%s: %v", s.cfg.ReplayPath, err)
		return err
	}
	s.device = s.cfg.ReplayPath
	s.link = "playing"

	childCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.log.Info("gps replay", zap.String("path", s.cfg.ReplayPath),
			zap.Int("records", len(recs)), zap.Float64("speed", s.cfg.ReplaySpeed), zap.Bool("loop", s.cfg.ReplayLoop))
		err := replay.Play(childCtx, recs, s.cfg.ReplaySpeed, s.cfg.ReplayLoop, nil, func(line string) error {
			s.HandleLine(time.Now().UTC(), line)
			return nil
		})
		if err != nil && childCtx.Err() == nil {
			s.setError(fmt.Sprintf("gps replay stopped: %v", err))
		}
		s.setLink("finished")
	}()
	return nil
}

func (s *Service) startSimLocked(ctx context.Context) error {
	s.device = "sim"
	s.link = "playing"

	childCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.log.Info("gps simulator", zap.Float64("lat", s.cfg.Sim.CenterLatDeg), zap.Float64("lon", s.cfg.Sim.CenterLonDeg),
			zap.Duration("interval", s.cfg.SimInterval))
		t := time.NewTicker(s.cfg.SimInterval)
		defer t.Stop()
		for {
			now := time.Now().UTC()
			for _, sent := range s.cfg.Sim.Sentences(now) {
				s.HandleLine(now, sent.Text)
			}
			select {
			case <-childCtx.Done():
				s.setLink("stopped")
				return
			case <-t.C:
			}
		}
	}()
	return nil
}

// maxLineBytes bounds one received line. NMEA caps sentences at 82 bytes;
// longer lines are noise (often a baud mismatch) and are dropped whole.
const maxLineBytes = 4096

// readLines feeds newline-delimited lines from r until EOF, error or ctx done.
// It returns nil when ctx ends the loop. Oversize lines are skipped up to the
// next newline.
func (s *Service) readLines(ctx context.Context, r io.Reader) error {
	br := bufio.NewReaderSize(r, maxLineBytes)
	oversize := false
	for {
		if ctx.Err() != nil {
			return nil
		}

		chunk, err := br.ReadSlice('\n')
		if errors.Is(err, bufio.ErrBufferFull) {
			if !oversize {
				s.log.Debug("nmea line too long, dropping", zap.Int("max_bytes", maxLineBytes))
				s.setError(fmt.Sprintf("nmea: line longer than %d bytes dropped", maxLineBytes))
			}
			oversize = true
			continue
		}
		if !oversize && len(chunk) > 0 {
			s.HandleLine(time.Now().UTC(), string(chunk))
		}
		oversize = false

		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
	}
}

// HandleLine parses one received line, fuses it and records it. Lines that do
// not start with '$' (gpsd JSON, receiver chatter) are ignored and nil is
// returned.
func (s *Service) HandleLine(now time.Time, line string) *nmea.Sentence {
	line = strings.TrimSpace(line)
	if line == "" || !strings.HasPrefix(line, "$") {
		return nil
	}
	s.lines.Add(1)
	s.recent.add(now, line)

	sent := nmea.Parse(line)
	switch {
	case sent.Err() != nil:
		// Avoid spamming on bad noise; keep the last error.
		s.log.Debug("nmea decode failed", zap.String("line", line), zap.Error(sent.Err()))
		s.setError(sent.Err().Error())
	case sent.Kind != nmea.KindUnknown && !sent.Valid:
		s.log.Debug("nmea checksum mismatch", zap.String("line", line),
			zap.String("want", sent.CorrectChecksum), zap.String("got", sent.ExistingChecksum))
		s.setError(fmt.Sprintf("nmea: checksum mismatch on %s", sent.CommandWord))
	}

	s.interp.Parse(sent)
	s.publish(now, sent)
	return sent
}

func (s *Service) publish(now time.Time, sent *nmea.Sentence) {
	s.recMu.Lock()
	defer s.recMu.Unlock()
	if s.recorder != nil {
		if err := s.recorder.WriteLine(now, sent.Text); err != nil {
			s.log.Warn("nmea record failed", zap.Error(err))
		}
	}
	for _, fn := range s.subs {
		fn(sent)
	}
}

// Subscribe registers fn to be called with every received sentence, after it
// has been fused and recorded. fn runs on the reader goroutine and must not
// block. The returned func removes the subscription.
func (s *Service) Subscribe(fn func(*nmea.Sentence)) func() {
	s.recMu.Lock()
	defer s.recMu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	return func() {
		s.recMu.Lock()
		defer s.recMu.Unlock()
		delete(s.subs, id)
	}
}

// RecentLines returns the most recent raw lines with their receive time,
// oldest first.
func (s *Service) RecentLines() []Received {
	return s.recent.list()
}

func (s *Service) Close() error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	cancel := s.cancel
	closer := s.closer
	s.cancel = nil
	s.closer = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	var err error
	if closer != nil {
		// The reader goroutine may have closed it already.
		_ = closer.Close()
	}
	s.wg.Wait()
	err = multierr.Append(err, s.closeRecorder())
	s.interp.Stop()
	return err
}

func (s *Service) closeRecorder() error {
	s.recMu.Lock()
	defer s.recMu.Unlock()
	if s.recorder == nil {
		return nil
	}
	err := s.recorder.Close()
	s.recorder = nil
	return err
}

func (s *Service) Snapshot() Snapshot {
	if s == nil {
		return Snapshot{}
	}
	out := s.interp.State().Snapshot()
	out.Enabled = s.cfg.Enable
	out.Running = s.interp.Running()
	out.Source = s.cfg.Source
	out.Lines = s.lines.Load()
	out.Fused, out.Skipped = s.interp.Counts()

	s.mu.Lock()
	out.Device = s.device
	if s.cfg.Source == SourceSerial {
		out.Baud = s.baud
	}
	out.Link = s.link
	out.LastError = s.lastErr
	s.mu.Unlock()
	return out
}

func (s *Service) setError(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	// Do not touch the fused state; transient parse issues shouldn't flip validity.
	s.lastErr = msg
}

func (s *Service) setLink(state string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.link = state
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func autoDetectDevice() string {
	// Keep it intentionally tiny and predictable.
	candidates := []string{}
	for i := 0; i < 10; i++ {
		candidates = append(candidates, fmt.Sprintf("/dev/ttyACM%d", i))
	}
	for i := 0; i < 10; i++ {
		candidates = append(candidates, fmt.Sprintf("/dev/ttyUSB%d", i))
	}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
