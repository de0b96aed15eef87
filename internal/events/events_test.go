package events

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus/hooks/test"
	otellog "go.opentelemetry.io/otel/log"
)

type fakeWriter struct {
	mu     sync.Mutex
	msgs   []kafka.Message
	err    error
	closed int
}

func (w *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.msgs = append(w.msgs, msgs...)
	return w.err
}

func (w *fakeWriter) Close() error {
	w.closed++
	return nil
}

func TestKafkaPublisher_Publish(t *testing.T) {
	w := &fakeWriter{}
	p := &KafkaPublisher{writer: w}
	e := New(TypeOTPIssued).WithAccount("acc-1", "+911").WithAttr("trigger", "signup")

	if err := p.Publish(context.Background(), e); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if len(w.msgs) != 1 {
		t.Fatalf("messages = %d, want 1", len(w.msgs))
	}
	msg := w.msgs[0]
	if string(msg.Key) != "+911" {
		t.Errorf("key = %q, want phone", msg.Key)
	}
	var got Event
	if err := json.Unmarshal(msg.Value, &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got.Type != TypeOTPIssued || got.AccountID != "acc-1" || got.Attrs["trigger"] != "signup" {
		t.Errorf("decoded event = %+v", got)
	}
	if len(msg.Headers) != 1 || string(msg.Headers[0].Value) != TypeOTPIssued {
		t.Errorf("headers = %+v", msg.Headers)
	}
	if err := p.Close(); err != nil || w.closed != 1 {
		t.Errorf("Close err=%v closed=%d", err, w.closed)
	}
}

func TestNewKafkaPublisher_Unconfigured(t *testing.T) {
	if p := NewKafkaPublisher(nil, "topic"); p != nil {
		t.Error("no brokers should yield nil")
	}
	if p := NewKafkaPublisher([]string{"localhost:9092"}, ""); p != nil {
		t.Error("no topic should yield nil")
	}
	var p *KafkaPublisher
	if err := p.Publish(context.Background(), New(TypeRPCRequest)); err != nil {
		t.Errorf("nil publisher Publish: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Errorf("nil publisher Close: %v", err)
	}
}

type fakeNSQ struct {
	topic   string
	body    []byte
	stopped int
}

func (f *fakeNSQ) Publish(topic string, body []byte) error {
	f.topic, f.body = topic, body
	return nil
}

func (f *fakeNSQ) Stop() { f.stopped++ }

func TestNSQPublisher(t *testing.T) {
	f := &fakeNSQ{}
	p := &NSQPublisher{producer: f, topic: "otp-events"}
	if err := p.Publish(context.Background(), New(TypeAccountVerified).WithAccount("acc-1", "+911")); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if f.topic != "otp-events" || !strings.Contains(string(f.body), `"event_type":"account.verified"`) {
		t.Errorf("published %s to %q", f.body, f.topic)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := p.Publish(ctx, New(TypeRPCRequest)); !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled ctx err = %v", err)
	}

	_ = p.Close()
	_ = p.Close()
	if f.stopped != 1 {
		t.Errorf("Stop called %d times, want 1", f.stopped)
	}
}

type recordCapture struct {
	mu   sync.Mutex
	recs []otellog.Record
}

func (r *recordCapture) Emit(ctx context.Context, rec otellog.Record) {
	r.mu.Lock()
	r.recs = append(r.recs, rec)
	r.mu.Unlock()
}

func TestOTelPublisher_Mapping(t *testing.T) {
	capture := &recordCapture{}
	p := &OTelPublisher{logger: capture}
	e := New(TypeOTPVerifyFailed).WithAccount("acc-1", "+911").WithAttr("method", "VerifyOTP")
	e.Reason = "mismatch"

	if err := p.Publish(context.Background(), e); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if len(capture.recs) != 1 {
		t.Fatalf("records = %d", len(capture.recs))
	}
	rec := capture.recs[0]
	if rec.EventName() != TypeOTPVerifyFailed {
		t.Errorf("event name = %q", rec.EventName())
	}
	if !rec.Timestamp().Equal(e.CreatedAt) {
		t.Errorf("timestamp = %v, want %v", rec.Timestamp(), e.CreatedAt)
	}
	if got := string(rec.Body().AsBytes()); got != `{"method":"VerifyOTP"}` {
		t.Errorf("body = %q", got)
	}
	attrs := map[string]string{}
	rec.WalkAttributes(func(kv otellog.KeyValue) bool {
		attrs[kv.Key] = kv.Value.AsString()
		return true
	})
	for k, want := range map[string]string{"event_type": TypeOTPVerifyFailed, "account_id": "acc-1", "phone": "+911", "reason": "mismatch", "source": Source} {
		if attrs[k] != want {
			t.Errorf("attr %s = %q, want %q", k, attrs[k], want)
		}
	}
	if _, ok := attrs["outcome"]; ok {
		t.Error("empty outcome should not be set")
	}
}

func TestNewOTelPublisher_NilProvider(t *testing.T) {
	if _, ok := NewOTelPublisher(nil).(Noop); !ok {
		t.Error("nil provider should give Noop")
	}
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []Event
	err    error
	done   chan struct{}
}

func (r *recordingPublisher) Publish(ctx context.Context, e Event) error {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
	if r.done != nil {
		r.done <- struct{}{}
	}
	return r.err
}

func (r *recordingPublisher) Close() error { return r.err }

func TestFanout(t *testing.T) {
	boom := errors.New("boom")
	a := &recordingPublisher{}
	b := &recordingPublisher{err: boom}
	f := Fanout{a, b}

	err := f.Publish(context.Background(), New(TypeLoginSucceeded))
	if !errors.Is(err, boom) {
		t.Errorf("err = %v, want boom", err)
	}
	if len(a.events) != 1 || len(b.events) != 1 {
		t.Errorf("each publisher should see the event: %d, %d", len(a.events), len(b.events))
	}
	if err := f.Close(); !errors.Is(err, boom) {
		t.Errorf("Close err = %v", err)
	}
}

func TestPublishAsync_LogsFailure(t *testing.T) {
	logger, hook := test.NewNullLogger()
	pub := &recordingPublisher{err: errors.New("broker down"), done: make(chan struct{}, 1)}

	PublishAsync(pub, logger, New(TypeAccountCreated))

	select {
	case <-pub.done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish did not run")
	}
	deadline := time.Now().Add(2 * time.Second)
	for len(hook.AllEntries()) == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if e := hook.LastEntry(); e == nil || e.Data["event_type"] != TypeAccountCreated {
		t.Errorf("expected a warning for the failed publish, got %+v", e)
	}
}

func TestPublishAsync_NilAndNoop(t *testing.T) {
	PublishAsync(nil, nil, New(TypeRPCRequest))
	PublishAsync(Noop{}, nil, New(TypeRPCRequest))
}

func TestEvent_WithAttrDoesNotAlias(t *testing.T) {
	base := New(TypeRPCRequest).WithAttr("a", "1")
	derived := base.WithAttr("b", "2")
	if _, ok := base.Attrs["b"]; ok {
		t.Error("WithAttr must not mutate the receiver's map")
	}
	if derived.Attrs["a"] != "1" || derived.Attrs["b"] != "2" {
		t.Errorf("derived attrs = %v", derived.Attrs)
	}
	if base.Key() != nil {
		t.Error("event without phone has no key")
	}
}
