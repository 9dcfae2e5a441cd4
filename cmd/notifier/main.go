package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/ovenbird/cakeshop-reviews/internal/config"
	"github.com/ovenbird/cakeshop-reviews/internal/delivery/events"
	"github.com/ovenbird/cakeshop-reviews/internal/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger := logger.New(cfg.Env)
	appLogger.Info("Starting notifier service...")

	nc, err := nats.Connect(cfg.NATS.URL)
	if err != nil {
		appLogger.Fatal("Failed to connect to NATS", err)
	}
	defer nc.Close()

	appLogger.Infof("Connected to NATS at %s", cfg.NATS.URL)

	js, err := nc.JetStream()
	if err != nil {
		appLogger.Fatal("Failed to get JetStream context", err)
	}

	streamCfg := events.NewStreamConfig(js, appLogger)
	if err := streamCfg.EnsureStream(); err != nil {
		appLogger.Fatal("Failed to ensure JetStream stream", err)
	}
	if err := streamCfg.EnsureConsumer(); err != nil {
		appLogger.Fatal("Failed to ensure JetStream consumer", err)
	}

	sub, err := js.PullSubscribe(events.SubjectReviewCreated, events.ConsumerName, nats.ManualAck())
	if err != nil {
		appLogger.Fatal("Failed to create pull subscription", err)
	}
	defer func() {
		if err := sub.Unsubscribe(); err != nil {
			appLogger.Warnf("Failed to unsubscribe from NATS: %v", err)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		consumeLoop(ctx, sub, events.LoggingHandler(appLogger), appLogger)
	}()

	appLogger.Info("Notifier service started and consuming review events...")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down notifier service...")
	cancel()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		appLogger.Info("Notifier service stopped")
	case <-time.After(30 * time.Second):
		appLogger.Warn("Notifier shutdown timed out")
	}
}

// consumeLoop fetches batches from the durable consumer until the context is
// cancelled. A failed message is negatively acknowledged and redelivered on
// the consumer's backoff schedule; after the last attempt it is discarded.
func consumeLoop(ctx context.Context, sub *nats.Subscription, handler func(data []byte) error, log *logger.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		msgs, err := sub.Fetch(10, nats.MaxWait(5*time.Second))
		if err != nil {
			if err == nats.ErrTimeout {
				continue
			}
			log.Warnf("Failed to fetch messages: %v", err)
			time.Sleep(5 * time.Second)
			continue
		}

		for _, msg := range msgs {
			if err := handler(msg.Data); err != nil {
				log.Errorf(err, "Failed to handle review event")
				if err := msg.Nak(); err != nil {
					log.Warnf("Failed to nak message: %v", err)
				}
				continue
			}
			if err := msg.Ack(); err != nil {
				log.Warnf("Failed to ack message: %v", err)
			}
		}
	}
}
