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

package main

/*
evc-panel is the backend of the operator panel for requesting Ethernet
Virtual Circuits. It keeps no state of its own beyond the live form
sessions: circuits live in the provisioning engine, outcomes leave through
the event bus.

Incoming REST call --> http.go
1. Form sessions are held in cmd/evc-panel/form
2. A submission snapshots the form, builds the request (cmd/evc-panel/request)
   and POSTs it to the engine (cmd/evc-panel/engine)
3. The outcome is rendered for the operator by cmd/evc-panel/notify and
   published on the event bus (internal)
*/

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.elastic.co/ecszap"
	"go.uber.org/zap/zapcore"

	"github.com/heptiolabs/healthcheck"
	"github.com/open-eline/evc-console/cmd/evc-panel/engine"
	"github.com/open-eline/evc-console/cmd/evc-panel/form"
	"github.com/open-eline/evc-console/cmd/evc-panel/notify"
	"github.com/open-eline/evc-console/internal"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

var buildtime string
var shutdownEnabled bool

// Wiring shared by the HTTP handlers
var formStore *form.Store
var engineClient *engine.Client
var eventBus internal.Bus
var notifier *notify.Notifier
var panelLauncher *notify.PanelLauncher

func main() {
	InitLogging()

	zap.S().Infof("This is evc-panel build date: %s", buildtime)

	internal.Initfgtrace()

	engineBaseURL, engineBaseURLEnvSet := os.LookupEnv("ENGINE_BASE_URL")
	if !engineBaseURLEnvSet {
		zap.S().Fatal("Engine base URL (ENGINE_BASE_URL) must be set")
	}

	// Cache for the circuit list proxy
	redisURI := os.Getenv("REDIS_URI")
	redisURI2 := os.Getenv("REDIS_URI2")
	redisURI3 := os.Getenv("REDIS_URI3")
	redisPassword := os.Getenv("REDIS_PASSWORD")
	redisDB := 0 // default database

	dryRun := os.Getenv("DRY_RUN")
	redisEnabled := redisURI != "" && dryRun != "True" && dryRun != "true"
	if redisURI != "" {
		internal.InitCache(redisURI, redisURI2, redisURI3, redisPassword, redisDB, dryRun)
		zap.S().Debugf("Cache initialized (%s)", redisURI)
	} else {
		internal.InitMemcache()
		zap.S().Debugf("Cache initialized (memory only)")
	}

	health := healthcheck.NewHandler()
	shutdownEnabled = false
	health.AddLivenessCheck("goroutine-threshold", healthcheck.GoroutineCountCheck(100))
	health.AddReadinessCheck("shutdownEnabled", isShutdownEnabled())
	if redisEnabled {
		health.AddReadinessCheck("redis-check", isRedisAvailable())
	}

	eventBus = setupEventBus(health)

	formStore = form.NewStore()
	engineClient = engine.NewClient(engineBaseURL)
	notifier = notify.NewNotifier(eventBus)
	panelLauncher = notify.NewPanelLauncher(eventBus)

	go func() {
		/* #nosec G114 */
		err := http.ListenAndServe("0.0.0.0:8086", health)
		if err != nil {
			zap.S().Errorf("Error starting healthcheck: %s", err)
		}
	}()

	InitPrometheus()

	go SetupRestAPI()
	zap.S().Infof("Ready to take circuit requests (%s)", engineBaseURL)

	// Allow graceful shutdown
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGTERM)

	go func() {
		// Kubernetes sends SIGTERM 30 seconds before
		// shutting down the pod.

		sig := <-sigs

		// Log the received signal
		zap.S().Infof("Received SIGTERM (%v)", sig)

		ShutdownApplicationGraceful()

	}()

	select {} // block forever
}

// InitLogging sets up the global zap logger with the elastic encoder.
func InitLogging() {
	var logLevel = os.Getenv("LOGGING_LEVEL")
	encoderConfig := ecszap.NewDefaultEncoderConfig()
	var core zapcore.Core
	switch logLevel {
	case "DEVELOPMENT":
		core = ecszap.NewCore(encoderConfig, os.Stdout, zap.DebugLevel)
	default:
		core = ecszap.NewCore(encoderConfig, os.Stdout, zap.InfoLevel)
	}
	logger := zap.New(core, zap.AddCaller())
	zap.ReplaceGlobals(logger)
}

func InitPrometheus() {
	metricsPath := "/metrics"
	metricsPort := ":2112"
	zap.S().Debugf("Setting up metrics %s %v", metricsPath, metricsPort)

	http.Handle(metricsPath, promhttp.Handler())
	go func() {
		/* #nosec G114 */
		err := http.ListenAndServe(metricsPort, nil)
		if err != nil {
			zap.S().Errorf("Error starting metrics: %s", err)
		}
	}()
}

// setupEventBus selects the bus backend from EVENT_BUS. The MQTT backend
// contributes a readiness check, losing the broker makes the pod unready.
func setupEventBus(health healthcheck.Handler) internal.Bus {
	busKind, busKindEnvSet := os.LookupEnv("EVENT_BUS")
	if !busKindEnvSet {
		zap.S().Fatal("Event bus backend (EVENT_BUS) must be set (memory, mqtt or kafka)")
	}

	switch busKind {
	case "memory":
		zap.S().Infof("Using the in-memory event bus")
		return internal.NewInMemoryBus()

	case "mqtt":
		mqttBrokerURL, mqttBrokerURLEnvSet := os.LookupEnv("MQTT_BROKER_URL")
		if !mqttBrokerURLEnvSet {
			zap.S().Fatal("MQTT broker URL (MQTT_BROKER_URL) must be set")
		}
		podName, podNameEnvSet := os.LookupEnv("MY_POD_NAME")
		if !podNameEnvSet {
			zap.S().Fatal("Pod name (MY_POD_NAME) must be set")
		}
		certificateName, certificateNameEnvSet := os.LookupEnv("CERTIFICATE_NAME")
		if !certificateNameEnvSet {
			zap.S().Fatal("Certificate name (CERTIFICATE_NAME) must be set (NO_CERT to opt out of TLS)")
		}
		mqttPassword := os.Getenv("MQTT_PASSWORD")
		topicPrefix := os.Getenv("MQTT_TOPIC_PREFIX")
		if topicPrefix == "" {
			topicPrefix = "ui"
		}

		bus := internal.NewMQTTBus(mqttBrokerURL, podName, mqttPassword, topicPrefix, certificateName)
		health.AddReadinessCheck("mqtt-check", bus.HealthCheck())
		return bus

	case "kafka":
		kafkaBootstrapServer, kafkaBootstrapServerEnvSet := os.LookupEnv("KAFKA_BOOTSTRAP_SERVER")
		if !kafkaBootstrapServerEnvSet {
			zap.S().Fatal("Kafka bootstrap server (KAFKA_BOOTSTRAP_SERVER) must be set")
		}
		topicPrefix := os.Getenv("KAFKA_TOPIC_PREFIX")
		if topicPrefix == "" {
			topicPrefix = "ui"
		}
		return internal.NewKafkaBus(kafkaBootstrapServer, topicPrefix)

	default:
		zap.S().Fatalf("Unknown event bus backend: %s", busKind)
	}
	return nil
}

func isShutdownEnabled() healthcheck.Check {
	return func() error {
		if shutdownEnabled {
			return fmt.Errorf("shutdown")
		}
		return nil
	}
}

func isRedisAvailable() healthcheck.Check {
	return func() error {
		if internal.IsRedisAvailable() {
			return nil
		}
		return fmt.Errorf("redis not available")
	}
}

// ShutdownApplicationGraceful stops advertising readiness, gives in-flight
// submissions time to reach their notification and closes the bus.
func ShutdownApplicationGraceful() {
	zap.S().Infof("Shutting down application")
	shutdownEnabled = true

	time.Sleep(1 * time.Minute) // Wait until remaining submissions are notified

	if eventBus != nil {
		err := eventBus.Close()
		if err != nil {
			zap.S().Errorf("Failed to close event bus: %s", err)
		}
	}

	zap.S().Infof("Successful shutdown. Exiting.")
	os.Exit(0)
}
