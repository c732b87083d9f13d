// Package kafka provides the Kafka-backed lifecycle channel for
// multi-process deployments.
package kafka

import (
	"errors"

	"github.com/IBM/sarama"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-kafka/v3/pkg/kafka"
)

const defaultConsumerGroup = "vetflow-lifecycle"

// Config carries the broker list and consumer group for the lifecycle
// channel. Brokers is required; ConsumerGroup falls back to a shared
// vetflow group so every API replica sees the full lifecycle stream.
type Config struct {
	Brokers       []string
	ConsumerGroup string
}

func (c Config) validate() error {
	if len(c.Brokers) == 0 || c.Brokers[0] == "" {
		return errors.New("kafka channel requires at least one broker address")
	}

	return nil
}

// CreateChannel builds the publisher/subscriber pair used to fan out
// workflow lifecycle events across processes. The subscriber starts from the
// oldest offset so a replica joining late still replays cleanup and audit
// events it missed.
func CreateChannel(logger watermill.LoggerAdapter, cfg Config) (*kafka.Publisher, *kafka.Subscriber, error) {
	if err := cfg.validate(); err != nil {
		return nil, nil, err
	}

	group := cfg.ConsumerGroup
	if group == "" {
		group = defaultConsumerGroup
	}

	subscriberConfig := kafka.DefaultSaramaSubscriberConfig()
	subscriberConfig.Consumer.Offsets.Initial = sarama.OffsetOldest

	subscriber, err := kafka.NewSubscriber(
		kafka.SubscriberConfig{
			Brokers:               cfg.Brokers,
			Unmarshaler:           kafka.DefaultMarshaler{},
			OverwriteSaramaConfig: subscriberConfig,
			ConsumerGroup:         group,
			OTELEnabled:           true,
		},
		logger,
	)
	if err != nil {
		return nil, nil, err
	}

	publisherConfig := sarama.NewConfig()
	publisherConfig.Producer.Return.Successes = true

	publisher, err := kafka.NewPublisher(
		kafka.PublisherConfig{
			Brokers:               cfg.Brokers,
			Marshaler:             kafka.DefaultMarshaler{},
			OverwriteSaramaConfig: publisherConfig,
			OTELEnabled:           true,
		},
		logger,
	)
	if err != nil {
		return nil, nil, err
	}

	return publisher, subscriber, nil
}
