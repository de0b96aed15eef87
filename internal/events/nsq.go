package events

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/nsqio/go-nsq"
)

type nsqProducer interface {
	Publish(topic string, body []byte) error
	Stop()
}

// NSQPublisher publishes events as JSON to an nsqd topic.
type NSQPublisher struct {
	producer nsqProducer
	topic    string
	stop     sync.Once
}

// NewNSQPublisher connects a producer to the nsqd at addr.
func NewNSQPublisher(addr, topic string) (*NSQPublisher, error) {
	cfg := nsq.NewConfig()
	producer, err := nsq.NewProducer(addr, cfg)
	if err != nil {
		return nil, err
	}
	return &NSQPublisher{producer: producer, topic: topic}, nil
}

// Publish blocks until nsqd acknowledges. go-nsq has no context support, so ctx is only checked up front.
func (p *NSQPublisher) Publish(ctx context.Context, e Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	body, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return p.producer.Publish(p.topic, body)
}

func (p *NSQPublisher) Close() error {
	p.stop.Do(p.producer.Stop)
	return nil
}
