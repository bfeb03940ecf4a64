package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/pavitra93/go-multi-tenant-cmms/shared/metrics"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/utils"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

// ErrQueueFull is returned when the producer buffer cannot take another event
var ErrQueueFull = errors.New("event queue full, event dropped")

// messageWriter is the subset of *kafka.Writer the producer needs
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// ProducerConfig sizes the producer worker pool
type ProducerConfig struct {
	Broker       string
	Topic        string
	QueueSize    int
	WorkerCount  int
	WriteTimeout time.Duration
}

// KafkaProducer publishes events through a buffered channel drained by a worker pool
type KafkaProducer struct {
	writer       messageWriter
	topic        string
	events       chan WorkOrderEvent
	workerCount  int
	writeTimeout time.Duration
	breaker      *utils.CircuitBreaker
	shutdownChan chan struct{}
	wg           sync.WaitGroup
	closeOnce    sync.Once
}

// NewKafkaProducer creates a producer writing to cfg.Broker and starts its workers
func NewKafkaProducer(cfg ProducerConfig) *KafkaProducer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Broker),
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
		BatchSize:    100,
		RequiredAcks: kafka.RequireOne,
	}
	return newProducer(writer, cfg)
}

func newProducer(writer messageWriter, cfg ProducerConfig) *KafkaProducer {
	if cfg.Topic == "" {
		cfg.Topic = Topic
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 1000
	}
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 4
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 5 * time.Second
	}

	kp := &KafkaProducer{
		writer:       writer,
		topic:        cfg.Topic,
		events:       make(chan WorkOrderEvent, cfg.QueueSize),
		workerCount:  cfg.WorkerCount,
		writeTimeout: cfg.WriteTimeout,
		breaker:      utils.NewCircuitBreaker("kafka-producer", 5, 30*time.Second),
		shutdownChan: make(chan struct{}),
	}
	kp.startWorkers()
	return kp
}

func (kp *KafkaProducer) startWorkers() {
	for i := 0; i < kp.workerCount; i++ {
		kp.wg.Add(1)
		go kp.worker(i)
	}
	logrus.Infof("[Kafka] Started %d event workers", kp.workerCount)
}

func (kp *KafkaProducer) worker(id int) {
	defer kp.wg.Done()

	for {
		select {
		case event := <-kp.events:
			kp.deliver(id, event)
		case <-kp.shutdownChan:
			// drain whatever is already queued before exiting
			for {
				select {
				case event := <-kp.events:
					kp.deliver(id, event)
				default:
					return
				}
			}
		}
	}
}

func (kp *KafkaProducer) deliver(worker int, event WorkOrderEvent) {
	err := kp.breaker.Call(func() error { return kp.send(event) })
	metrics.EventsPublished.WithLabelValues(metrics.OutcomeOf(err)).Inc()
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"worker":        worker,
			"event_id":      event.ID,
			"tenant_id":     event.TenantID,
			"work_order_id": event.WorkOrderID,
			"error":         err.Error(),
		}).Warn("Failed to publish work order event")
	}
}

// Publish queues event without blocking
func (kp *KafkaProducer) Publish(ctx context.Context, event WorkOrderEvent) error {
	select {
	case <-kp.shutdownChan:
		return errors.New("producer closed")
	default:
	}

	select {
	case kp.events <- event:
		return nil
	default:
		return ErrQueueFull
	}
}

func (kp *KafkaProducer) send(event WorkOrderEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	tenant := event.TenantID.String()
	msg := kafka.Message{
		Topic: kp.topic,
		Key:   []byte(tenant),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte("work_order." + event.Transition)},
			{Key: "tenant_id", Value: []byte(tenant)},
		},
	}

	ctx, cancel := context.WithTimeout(context.Background(), kp.writeTimeout)
	defer cancel()

	if err := kp.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write event to Kafka: %w", err)
	}
	return nil
}

// Close stops accepting events, flushes the queue and closes the writer
func (kp *KafkaProducer) Close() error {
	var err error
	kp.closeOnce.Do(func() {
		logrus.Info("[Kafka] Initiating graceful shutdown...")
		close(kp.shutdownChan)
		kp.wg.Wait()
		if cerr := kp.writer.Close(); cerr != nil {
			err = fmt.Errorf("failed to close Kafka writer: %w", cerr)
		}
	})
	return err
}
