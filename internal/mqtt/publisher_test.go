package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"gpsfuse/internal/gps"
)

type fakeToken struct {
	err  error
	done chan struct{}
}

func newToken(err error) *fakeToken {
	t := &fakeToken{err: err, done: make(chan struct{})}
	close(t.done)
	return t
}

func (t *fakeToken) Wait() bool                     { <-t.done; return true }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t *fakeToken) Done() <-chan struct{}          { return t.done }
func (t *fakeToken) Error() error                   { return t.err }

type message struct {
	topic    string
	retained bool
	payload  []byte
}

type fakeClient struct {
	mu           sync.Mutex
	connectErr   error
	publishErr   error
	msgs         []message
	disconnected bool
}

func (c *fakeClient) Connect() paho.Token { return newToken(c.connectErr) }

func (c *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.publishErr == nil {
		c.msgs = append(c.msgs, message{topic: topic, retained: retained, payload: payload.([]byte)})
	}
	return newToken(c.publishErr)
}

func (c *fakeClient) Disconnect(uint) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.disconnected = true
}

func (c *fakeClient) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.msgs)
}

func TestPublisher_PublishesSnapshots(t *testing.T) {
	fc := &fakeClient{}
	p, err := newPublisher(Config{Topic: "gpsfuse/state", Interval: time.Millisecond}, fc, zap.NewNop())
	if err != nil {
		t.Fatalf("newPublisher: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- p.Run(ctx, func() gps.Snapshot { return gps.Snapshot{Source: "serial", Fixed: true, Lines: 7} })
	}()

	deadline := time.Now().Add(3 * time.Second)
	for fc.count() < 2 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run: %v", err)
	}

	fc.mu.Lock()
	defer fc.mu.Unlock()
	if len(fc.msgs) < 2 || !fc.disconnected {
		t.Fatalf("msgs=%d disconnected=%v", len(fc.msgs), fc.disconnected)
	}
	m := fc.msgs[0]
	if m.topic != "gpsfuse/state" || !m.retained {
		t.Fatalf("topic=%q retained=%v", m.topic, m.retained)
	}
	var snap gps.Snapshot
	if err := json.Unmarshal(m.payload, &snap); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if snap.Source != "serial" || !snap.Fixed || snap.Lines != 7 {
		t.Fatalf("snapshot=%+v", snap)
	}
}

func TestPublisher_ConnectError(t *testing.T) {
	boom := errors.New("refused")
	p, err := newPublisher(Config{Broker: "tcp://x:1883", Topic: "t"}, &fakeClient{connectErr: boom}, nil)
	if err != nil {
		t.Fatalf("newPublisher: %v", err)
	}
	if err := p.Run(context.Background(), func() gps.Snapshot { return gps.Snapshot{} }); !errors.Is(err, boom) {
		t.Fatalf("err=%v want %v", err, boom)
	}
}

func TestPublisher_PublishErrorsCounted(t *testing.T) {
	fc := &fakeClient{publishErr: errors.New("not connected")}
	p, err := newPublisher(Config{Topic: "t", Interval: time.Millisecond}, fc, nil)
	if err != nil {
		t.Fatalf("newPublisher: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err = p.Run(ctx, func() gps.Snapshot {
		calls++
		if calls == 3 {
			cancel()
		}
		return gps.Snapshot{}
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	published, failed := p.Counts()
	if published != 0 || failed != 3 {
		t.Fatalf("published=%d failed=%d", published, failed)
	}
}

func TestNewPublisher_Validation(t *testing.T) {
	if _, err := NewPublisher(Config{Topic: "t"}, nil); err == nil {
		t.Fatalf("expected broker error")
	}
	if _, err := newPublisher(Config{}, &fakeClient{}, nil); err == nil {
		t.Fatalf("expected topic error")
	}
}
