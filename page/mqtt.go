/* Copyright 2019 Comcast Cable Communications Management, LLC
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 * http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package page

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"
)

// MQTTConfig follows mosquitto_sub's options.
type MQTTConfig struct {
	Broker    string        `yaml:"broker" json:"broker"`
	ClientID  string        `yaml:"clientId" json:"clientId"`
	Username  string        `yaml:"username" json:"username"`
	Password  string        `yaml:"password" json:"password"`
	KeepAlive time.Duration `yaml:"keepAlive" json:"keepAlive"`
	Reconnect bool          `yaml:"reconnect" json:"reconnect"`
	Clean     bool          `yaml:"clean" json:"clean"`
	Insecure  bool          `yaml:"insecure" json:"insecure"`

	// Quiesce is the disconnection quiescence in milliseconds.
	Quiesce uint `yaml:"quiesce" json:"quiesce"`

	// SubTopics are subscriptions, each optionally of the form
	// TOPIC:QOS.
	SubTopics []string `yaml:"subTopics" json:"subTopics"`

	// PubTopic (optionally TOPIC:QOS) receives Results.
	PubTopic string `yaml:"pubTopic" json:"pubTopic"`

	// InTimeout limits how long an incoming message waits for the
	// page.
	InTimeout time.Duration `yaml:"inTimeout" json:"inTimeout"`
}

// DefaultMQTTConfig returns a configuration for a local broker.
func DefaultMQTTConfig() *MQTTConfig {
	return &MQTTConfig{
		Broker:    "tcp://localhost:1883",
		KeepAlive: 10 * time.Second,
		Clean:     true,
		Quiesce:   100,
		SubTopics: []string{"gojs/in"},
		PubTopic:  "gojs/out",
		InTimeout: time.Second,
	}
}

// MQTT is a Couplings for an MQTT client.  Messages arrive on the
// subscribed topics, and Results are published to PubTopic.
type MQTT struct {
	Client mqtt.Client
	Conf   *MQTTConfig
	Logger *zerolog.Logger

	incoming chan interface{}
	outbound chan *Result
	done     chan bool
	once     sync.Once
	wg       sync.WaitGroup
}

// NewMQTT makes an MQTT with a Paho client.  Incoming messages are
// dropped once ctx is done.
func NewMQTT(ctx context.Context, conf *MQTTConfig, logger *zerolog.Logger) *MQTT {
	if conf == nil {
		conf = DefaultMQTTConfig()
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	c := &MQTT{
		Conf:     conf,
		Logger:   logger,
		incoming: make(chan interface{}),
		outbound: make(chan *Result),
		done:     make(chan bool),
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(conf.Broker)
	opts.SetClientID(conf.ClientID)
	opts.SetKeepAlive(conf.KeepAlive)
	opts.Username = conf.Username
	opts.Password = conf.Password
	opts.AutoReconnect = conf.Reconnect
	opts.CleanSession = conf.Clean
	opts.SetTLSConfig(&tls.Config{
		InsecureSkipVerify: conf.Insecure,
	})

	opts.OnConnectionLost = func(client mqtt.Client, err error) {
		logger.Warn().Err(err).Msg("MQTT connection lost")
	}

	opts.DefaultPublishHandler = func(client mqtt.Client, msg mqtt.Message) {
		c.inHandler(ctx, msg)
	}

	c.Client = mqtt.NewClient(opts)

	return c
}

// inHandler forwards a message from the broker to the page.
//
// A payload that isn't JSON is passed along as a string, which the
// page will try to decode as a message.
func (c *MQTT) inHandler(ctx context.Context, msg mqtt.Message) {
	var (
		x       interface{}
		payload = msg.Payload()
	)

	c.Logger.Debug().Str("topic", msg.Topic()).Bytes("payload", payload).Msg("incoming")

	if err := json.Unmarshal(payload, &x); err != nil {
		c.Logger.Warn().Err(err).Bytes("payload", payload).Msg("Couldn't JSON-parse payload")
		x = string(payload)
	}

	timeout := c.Conf.InTimeout
	if timeout <= 0 {
		timeout = time.Second
	}
	to := time.NewTimer(timeout)
	defer to.Stop()

	select {
	case <-ctx.Done():
		c.Logger.Warn().Msg("not forwarding due to ctx.Done()")
	case <-c.done:
	case c.incoming <- x:
	case <-to.C:
		c.Logger.Warn().Str("topic", msg.Topic()).Msg("not forwarding due to stall")
	}
}

// Start connects to the broker, subscribes, and starts publishing.
func (c *MQTT) Start(ctx context.Context) error {
	c.Logger.Info().Str("broker", c.Conf.Broker).Msg("connecting")
	if token := c.Client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}

	for _, topic := range c.Conf.SubTopics {
		topic, qos := parseTopic(topic)
		if topic == "" {
			continue
		}
		c.Logger.Info().Str("topic", topic).Uint8("qos", qos).Msg("subscribing")
		if t := c.Client.Subscribe(topic, qos, nil); t.Wait() && t.Error() != nil {
			return t.Error()
		}
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		if err := c.outLoop(ctx); err != nil {
			c.Logger.Error().Err(err).Msg("outLoop")
		}
	}()

	return nil
}

// IO returns the channels.
func (c *MQTT) IO(ctx context.Context) (chan interface{}, chan *Result, chan bool, error) {
	return c.incoming, c.outbound, c.done, nil
}

// outLoop publishes Results.
func (c *MQTT) outLoop(ctx context.Context) error {
	topic, qos := parseTopic(c.Conf.PubTopic)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-c.done:
			return nil
		case r := <-c.outbound:
			if r == nil {
				continue
			}
			js, err := json.Marshal(r)
			if err != nil {
				c.Logger.Warn().Err(err).Msg("marshal result")
				continue
			}
			token := c.Client.Publish(topic, qos, false, js)
			token.Wait()
			if err := token.Error(); err != nil {
				return fmt.Errorf("publish to %s: %w", topic, err)
			}
		}
	}
}

// Stop terminates the MQTT session.
func (c *MQTT) Stop(ctx context.Context) error {
	c.Logger.Info().Msg("disconnecting")
	c.once.Do(func() {
		close(c.done)
	})
	c.wg.Wait()
	if c.Client.IsConnected() {
		c.Client.Disconnect(c.Conf.Quiesce)
	}
	return nil
}

// parseTopic can extract QoS from a topic name of the form TOPIC:QOS.
func parseTopic(s string) (string, byte) {
	s = strings.TrimSpace(s)
	i := strings.LastIndex(s, ":")
	if i < 0 {
		return s, 0
	}
	qos, err := strconv.ParseUint(s[i+1:], 10, 8)
	if err != nil || 2 < qos {
		return s, 0
	}
	return s[:i], byte(qos)
}
