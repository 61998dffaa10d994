// Copyright 2024 Open E-Line Contributors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package internal

import (
	"github.com/IBM/sarama"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
)

// KafkaBus publishes user-interface events to a Kafka cluster, one topic per
// event name under a fixed prefix (e.g. ui.setNotification).
type KafkaBus struct {
	producer    sarama.SyncProducer
	topicPrefix string
}

// The broker regularly comes up later than the panel, give it a while.
const kafkaConnectAttempts = 10

// NewKafkaBus connects the producer and returns the bus. Connecting is
// retried with backoff, startup fails hard once the attempts are exhausted.
func NewKafkaBus(kafkaBootstrapServer, topicPrefix string) *KafkaBus {

	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Return.Successes = true

	var producer sarama.SyncProducer
	var err error
	for attempt := int64(0); attempt < kafkaConnectAttempts; attempt++ {
		producer, err = sarama.NewSyncProducer([]string{kafkaBootstrapServer}, config)
		if err == nil {
			break
		}
		zap.S().Warnf("Kafka broker not reachable (attempt %d): %s", attempt, err)
		SleepBackedOff(attempt+1, OneSecond, TenSeconds)
	}
	if err != nil {
		zap.S().Fatalf("Failed to create kafka producer: %s", err)
	}

	zap.S().Infof("Kafka producer connected (%s)", kafkaBootstrapServer)

	return &KafkaBus{producer: producer, topicPrefix: topicPrefix}
}

// Publish sends one event and waits for the broker acknowledgement. It
// reports failures to the caller, it never retries on its own.
func (b *KafkaBus) Publish(eventName string, payload interface{}) error {
	data, err := jsoniter.Marshal(payload)
	if err != nil {
		return err
	}

	_, _, err = b.producer.SendMessage(&sarama.ProducerMessage{
		Topic: b.topicPrefix + "." + eventName,
		Value: sarama.ByteEncoder(data),
	})
	return err
}

func (b *KafkaBus) Close() error {
	return b.producer.Close()
}
