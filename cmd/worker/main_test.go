package main

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
)

type fakeReader struct {
	mu        sync.Mutex
	msgs      []kafka.Message
	committed []int64
	cancel    context.CancelFunc
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.msgs) == 0 {
		r.cancel()
		return kafka.Message{}, ctx.Err()
	}
	m := r.msgs[0]
	r.msgs = r.msgs[1:]
	return m, nil
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

type fakePusher struct {
	got  []string
	fail map[string]bool
}

func (p *fakePusher) PushEventJSON(_ context.Context, raw []byte) error {
	p.got = append(p.got, string(raw))
	if p.fail[string(raw)] {
		return errors.New("loki down")
	}
	return nil
}

func TestConsume_PushesAndCommitsEveryMessage(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r := &fakeReader{cancel: cancel, msgs: []kafka.Message{
		{Offset: 1, Value: []byte(`{"event_type":"otp.issued"}`)},
		{Offset: 2, Value: []byte(`{"event_type":"account.verified"}`)},
		{Offset: 3, Value: []byte(`bad`)},
	}}
	p := &fakePusher{fail: map[string]bool{"bad": true}}
	log, hook := test.NewNullLogger()

	consume(ctx, r, p, log)

	assert.Equal(t, []string{`{"event_type":"otp.issued"}`, `{"event_type":"account.verified"}`, "bad"}, p.got)
	assert.Equal(t, []int64{1, 2, 3}, r.committed)
	if assert.Len(t, hook.AllEntries(), 1) {
		assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
		assert.Equal(t, "loki push failed", hook.LastEntry().Message)
	}
}
