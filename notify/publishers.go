package notify

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/twmb/franz-go/pkg/kgo"
	"go.uber.org/zap"
)

// LogPublisher writes each message to the logger. It is the default backend.
type LogPublisher struct {
	logger *zap.Logger
}

func NewLogPublisher(logger *zap.Logger) *LogPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(_ context.Context, msg Message) error {
	p.logger.Info("workflow event",
		zap.String("message_id", msg.ID),
		zap.String("topic", msg.Topic),
		zap.String("key", msg.Key),
		zap.ByteString("payload", msg.Payload),
	)
	return nil
}

type redisClient interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// RedisPublisher sends messages over Redis pub/sub, one channel per topic.
type RedisPublisher struct {
	client redisClient
	prefix string
}

func NewRedisPublisher(client redisClient, channelPrefix string) *RedisPublisher {
	return &RedisPublisher{client: client, prefix: channelPrefix}
}

func (p *RedisPublisher) Publish(ctx context.Context, msg Message) error {
	channel := p.prefix + msg.Topic
	if err := p.client.Publish(ctx, channel, []byte(msg.Payload)).Err(); err != nil {
		return fmt.Errorf("%w: redis %s: %v", ErrPublish, channel, err)
	}
	return nil
}

type kafkaProducer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
}

// KafkaPublisher produces messages to Kafka keyed by request id. The outbox
// hands one request's events over in commit order and the shared key keeps
// them on one partition.
type KafkaPublisher struct {
	producer kafkaProducer
}

func NewKafkaPublisher(producer kafkaProducer) *KafkaPublisher {
	return &KafkaPublisher{producer: producer}
}

func (p *KafkaPublisher) Publish(ctx context.Context, msg Message) error {
	rec := &kgo.Record{
		Topic: msg.Topic,
		Value: msg.Payload,
		Headers: []kgo.RecordHeader{
			{Key: "message_id", Value: []byte(msg.ID)},
		},
	}
	if msg.Key != "" {
		rec.Key = []byte(msg.Key)
	}
	if err := p.producer.ProduceSync(ctx, rec).FirstErr(); err != nil {
		return fmt.Errorf("%w: kafka %s: %v", ErrPublish, msg.Topic, err)
	}
	return nil
}

// NewKafkaClient connects a franz-go client to the given seed brokers.
func NewKafkaClient(brokers []string) (*kgo.Client, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.RequiredAcks(kgo.AllISRAcks()),
	)
	if err != nil {
		return nil, fmt.Errorf("notify: kafka client: %w", err)
	}
	return client, nil
}

// NewRedisClient parses url and returns a connected client.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("notify: parse redis URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("notify: redis ping: %w", err)
	}
	return client, nil
}
