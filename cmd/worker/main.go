// worker consumes verification events from Kafka and pushes them to Loki.
// Set KAFKA_BROKERS, EVENTS_KAFKA_TOPIC, KAFKA_GROUP_ID, and LOKI_URL.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"

	"agrovision-auth/internal/config"
	"agrovision-auth/internal/logging"
	"agrovision-auth/internal/telemetry/loki"
)

const pushTimeout = 10 * time.Second

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
}

type pusher interface {
	PushEventJSON(ctx context.Context, raw []byte) error
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	log := logging.New(cfg.LogLevel, os.Stdout).WithField("component", "event-worker")

	brokers := cfg.KafkaBrokersList()
	if len(brokers) == 0 {
		log.Fatal("KAFKA_BROKERS is required")
	}
	lc, err := loki.NewClient(cfg.LokiURL, nil)
	if err != nil {
		log.WithError(err).Fatal("LOKI_URL is required")
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    cfg.EventsKafkaTopic,
		GroupID:  cfg.KafkaGroupID,
		MinBytes: 1,
		MaxBytes: 10e6,
		MaxWait:  time.Second,
	})
	defer reader.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.WithFields(logrus.Fields{
		"topic": cfg.EventsKafkaTopic,
		"group": cfg.KafkaGroupID,
		"loki":  cfg.LokiURL,
	}).Info("consuming events")
	consume(ctx, reader, lc, log)
	log.Info("stopped")
}

// consume forwards messages until ctx is done. Every fetched message is committed; a failed
// push is logged and the event is dropped.
func consume(ctx context.Context, r messageReader, p pusher, log logrus.FieldLogger) {
	for {
		msg, err := r.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.WithError(err).Warn("kafka fetch")
			continue
		}
		pushCtx, cancel := context.WithTimeout(ctx, pushTimeout)
		err = p.PushEventJSON(pushCtx, msg.Value)
		cancel()
		if err != nil {
			log.WithError(err).WithField("offset", msg.Offset).Warn("loki push failed")
		}
		if err := r.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
			log.WithError(err).WithField("offset", msg.Offset).Warn("kafka commit")
		}
	}
}
