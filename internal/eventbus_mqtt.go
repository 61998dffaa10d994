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
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"

	MQTT "github.com/eclipse/paho.mqtt.golang"
	"github.com/heptiolabs/healthcheck"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
)

// MQTTBus publishes user-interface events to an MQTT broker, one topic per
// event name under a fixed prefix (e.g. ui/setNotification).
type MQTTBus struct {
	client      MQTT.Client
	topicPrefix string
}

// newTLSConfig returns the TLS config for the MQTT connection, built from
// the mounted certificate files.
func newTLSConfig() *tls.Config {

	// Import trusted certificates from CAfile.pem.
	// Alternatively, manually add CA certificates to
	// default openssl CA bundle.
	certpool := x509.NewCertPool()
	pemCerts, err := os.ReadFile("/SSL_certs/mqtt/ca.crt")
	if err == nil {
		ok := certpool.AppendCertsFromPEM(pemCerts)
		if !ok {
			zap.S().Errorf("Failed to parse root certificate")
		}
	} else {
		zap.S().Errorf("Error reading CA certificate: %s", err)
	}

	// Import client certificate/key pair
	cert, err := tls.LoadX509KeyPair("/SSL_certs/mqtt/tls.crt", "/SSL_certs/mqtt/tls.key")
	if err != nil {
		zap.S().Fatalf("Error reading client certificate: %s", err)
	}

	cert.Leaf, err = x509.ParseCertificate(cert.Certificate[0])
	if err != nil {
		zap.S().Fatalf("Error parsing client certificate: %s", err)
	}

	skipVerify := os.Getenv("INSECURE_SKIP_VERIFY") == "true"

	/* #nosec G402 -- Remote verification is not yet implemented*/
	return &tls.Config{
		RootCAs:            certpool,
		InsecureSkipVerify: skipVerify,
		Certificates:       []tls.Certificate{cert},
		ClientAuth:         tls.RequireAndVerifyClientCert,
	}
}

// onBusConnect is called once the connection is established, also after an
// automatic reconnect.
func onBusConnect(c MQTT.Client) {
	optionsReader := c.OptionsReader()
	zap.S().Infof("Connected to MQTT broker (%s)", optionsReader.ClientID())
}

// onBusConnectionLost outputs a warn message. The paho client reconnects on
// its own, events published in between fail and are reported to the caller.
func onBusConnectionLost(c MQTT.Client, err error) {
	optionsReader := c.OptionsReader()
	zap.S().Warnf("Connection to MQTT broker lost (%v) (%s)", err, optionsReader.ClientID())
}

// NewMQTTBus connects to the broker and returns the bus. Startup fails hard
// when the broker is unreachable.
func NewMQTTBus(mqttBrokerURL, clientID, password, topicPrefix, certificateName string) *MQTTBus {

	opts := MQTT.NewClientOptions()
	opts.AddBroker(mqttBrokerURL)
	opts.SetUsername("EVC_PANEL")
	if password != "" {
		opts.SetPassword(password)
	}
	if certificateName == "NO_CERT" {
		opts.SetClientID(clientID)
		zap.S().Infof("Running in Kubernetes mode (%s)", clientID)
	} else {
		tlsconfig := newTLSConfig()
		opts.SetClientID(clientID).SetTLSConfig(tlsconfig)
		zap.S().Infof("Running in normal mode (%s) (%s)", certificateName, clientID)
	}
	opts.SetAutoReconnect(true)
	opts.SetOnConnectHandler(onBusConnect)
	opts.SetConnectionLostHandler(onBusConnectionLost)
	opts.SetOrderMatters(false)

	zap.S().Debugf("Broker configured (%s) (%s)", mqttBrokerURL, clientID)

	client := MQTT.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		zap.S().Fatalf("Failed to connect: %s", token.Error())
	}

	return &MQTTBus{client: client, topicPrefix: topicPrefix}
}

// Publish sends one event with QoS 1. It waits for the broker confirmation
// and reports failures to the caller, it never retries on its own.
func (b *MQTTBus) Publish(eventName string, payload interface{}) error {
	data, err := jsoniter.Marshal(payload)
	if err != nil {
		return err
	}

	topic := b.topicPrefix + "/" + eventName
	token := b.client.Publish(topic, 1, false, data)
	if !token.WaitTimeout(TenSeconds) {
		return fmt.Errorf("publish to %s timed out", topic)
	}
	return token.Error()
}

// HealthCheck reports broker connectivity for the readiness probe.
func (b *MQTTBus) HealthCheck() healthcheck.Check {
	return func() error {
		if b.client.IsConnected() {
			return nil
		}
		return fmt.Errorf("not connected")
	}
}

func (b *MQTTBus) Close() error {
	b.client.Disconnect(250)
	return nil
}
