// Package controlmqtt is the inbound control boundary: it subscribes to the
// per-light command topics, parses the JSON payloads and forwards them as
// Commands, and publishes retained state topics back to the broker.
package controlmqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"mqtt2dmx/internal/logger"
)

const (
	topicPrefix  = "dmx"
	setSuffix    = "set"
	stateSuffix  = "state"
	commandTopic = topicPrefix + "/+/+/" + setSuffix
)

// Client is the MQTT side of the control plane.
type Client struct {
	ctx       context.Context
	log       logger.Logger
	cfgClient MQTTConf
	client    mqtt.Client
	opts      *mqtt.ClientOptions
	cmdCh     chan<- Command
}

// NewClient builds an unconnected client.
func NewClient(log logger.Logger, cfgClient MQTTConf) *Client {
	if cfgClient.ClientID == "" {
		cfgClient.ClientID = "mqtt2dmx-" + uuid.NewString()[:8]
	}
	if cfgClient.Schema == "" {
		cfgClient.Schema = "tcp"
	}
	return &Client{
		log:       log,
		cfgClient: cfgClient,
	}
}

// Start connects to the broker and subscribes to the command topics.
// Parsed commands are delivered on cmdCh.
func (c *Client) Start(ctx context.Context, cmdCh chan<- Command) error {
	if c.log.GetLevel() == "debug" {
		mqtt.ERROR = log.New(os.Stdout, "[ERROR] ", 0)
		mqtt.CRITICAL = log.New(os.Stdout, "[CRIT] ", 0)
		mqtt.WARN = log.New(os.Stdout, "[WARN]  ", 0)
	}

	c.ctx = ctx
	c.cmdCh = cmdCh

	c.opts = mqtt.NewClientOptions().
		AddBroker(fmt.Sprintf("%s://%s:%s", c.cfgClient.Schema, c.cfgClient.Host, c.cfgClient.Port)).
		SetUsername(c.cfgClient.User).
		SetPassword(c.cfgClient.Password).
		SetDefaultPublishHandler(c.messageHandler).
		SetOnConnectHandler(c.connectHandler).
		SetConnectionLostHandler(c.connectLostHandler).
		SetClientID(c.cfgClient.ClientID).
		SetOrderMatters(false).
		SetCleanSession(false).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetMaxReconnectInterval(5 * time.Second).
		SetKeepAlive(30 * time.Second)

	c.client = mqtt.NewClient(c.opts)

	token := c.client.Connect()
	select {
	case <-token.Done():
		if token.Error() != nil {
			return token.Error()
		}
	case <-c.ctx.Done():
		return errors.New("context canceled")
	}

	c.log.With(logger.Fields{"module": "mqtt"}).Infof("Status: %v", c.client.IsConnected())
	return nil
}

func (c *Client) Stop() error {
	if c.client != nil && c.client.IsConnected() {
		c.client.Disconnect(500)
	}
	return nil
}

func (c *Client) connectHandler(client mqtt.Client) {
	c.log.With(logger.Fields{"module": "mqtt"}).Info("client connected to server")
	token := client.Subscribe(commandTopic, c.cfgClient.Qos, nil)
	go func() {
		select {
		case <-c.ctx.Done():
			return
		case <-token.Done():
			if token.Error() != nil {
				c.log.With(logger.Fields{"module": "mqtt"}).Errorf("topic %s subscription error. %v", commandTopic, token.Error())
				return
			}
		}
		c.log.With(logger.Fields{"module": "mqtt"}).Debugf("topic %s subscribed", commandTopic)
	}()
}

func (c *Client) connectLostHandler(_ mqtt.Client, err error) {
	c.log.With(logger.Fields{"module": "mqtt"}).Errorf("server connect lost: %v", err)
}

func (c *Client) messageHandler(_ mqtt.Client, msg mqtt.Message) {
	c.log.With(logger.Fields{"module": "mqtt"}).Debugf("received message: %s from topic: %s", msg.Payload(), msg.Topic())
	go c.forward(msg)
}

func (c *Client) forward(msg mqtt.Message) {
	universeID, lightName, err := parseCommandTopic(msg.Topic())
	if err != nil {
		c.log.With(logger.Fields{"module": "mqtt"}).Errorf("ignoring message on topic %s: %v", msg.Topic(), err)
		return
	}

	var payload CommandPayload
	if err := json.Unmarshal(msg.Payload(), &payload); err != nil {
		c.log.With(logger.Fields{"module": "mqtt"}).Errorf("message could not be parsed (%s): %v", msg.Payload(), err)
		return
	}

	select {
	case c.cmdCh <- Command{Universe: universeID, Light: lightName, Payload: payload}:
	case <-c.ctx.Done():
	}
}

// parseCommandTopic extracts the universe id and light name from
// dmx/<universe>/<light>/set.
func parseCommandTopic(topic string) (uint16, string, error) {
	parts := strings.Split(topic, "/")
	if len(parts) != 4 || parts[0] != topicPrefix || parts[3] != setSuffix {
		return 0, "", fmt.Errorf("unexpected topic layout %q", topic)
	}
	u, err := strconv.ParseUint(parts[1], 10, 16)
	if err != nil {
		return 0, "", fmt.Errorf("bad universe id %q: %w", parts[1], err)
	}
	return uint16(u), parts[2], nil
}

// PublishState publishes the light's state retained so late subscribers see
// the current value immediately.
func (c *Client) PublishState(universeID uint16, lightName string, state StatePayload) {
	topic := fmt.Sprintf("%s/%d/%s/%s", topicPrefix, universeID, lightName, stateSuffix)
	msg, err := json.Marshal(state)
	if err != nil {
		c.log.With(logger.Fields{"module": "mqtt"}).Errorf("state payload for %s: %v", topic, err)
		return
	}
	token := c.client.Publish(topic, c.cfgClient.Qos, true, msg)
	go func() {
		select {
		case <-c.ctx.Done():
			return
		case <-token.Done():
			if token.Error() != nil {
				c.log.With(logger.Fields{"module": "mqtt"}).Errorf("error publish topic %s. %v", topic, token.Error())
			}
		}
	}()
}
