// Package telemetry publishes stimulator state snapshots over MQTT so an
// operator UI can watch amplitudes and limits without touching the serial
// session.
package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/denisbrodbeck/machineid"
	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/golang/glog"

	"github.com/openfes/fes.go/pkg/run"
	"github.com/openfes/fes.go/pkg/stim"
)

// ClientID derives a stable MQTT client id from the machine identity,
// falling back to a time-based id when the machine id is unavailable.
func ClientID(prefix string) string {
	if id, err := machineid.ID(); err == nil {
		return prefix + "-" + id
	}
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}

// State is one published snapshot of a stimulator session.
type State struct {
	Name           string   `json:"name"`
	Channels       []string `json:"channels"`
	Amplitudes     []int    `json:"amplitudes"`
	PulseWidths    []int    `json:"pulse_widths"`
	MaxAmplitudes  []int    `json:"max_amplitudes"`
	MaxPulseWidths []int    `json:"max_pulse_widths"`
}

// StateOf captures the staged values and limits of a stimulator.
func StateOf(s *stim.Stimulator) State {
	amps, pws, maxAmps, maxPWs := s.Snapshot()
	channels := s.Channels()
	names := make([]string, len(channels))
	for i, ch := range channels {
		names[i] = ch.Name()
	}
	return State{
		Name:           s.Name(),
		Channels:       names,
		Amplitudes:     amps,
		PulseWidths:    pws,
		MaxAmplitudes:  maxAmps,
		MaxPulseWidths: maxPWs,
	}
}

// Source supplies the current snapshot.
type Source func() State

// Publisher wraps the MQTT client. Publishing is fire-and-forget.
type Publisher struct {
	TopicPrefix string

	client paho.Client
}

// NewPublisher creates a Publisher from a broker URL of the form
// mqtt://host:port/topic-prefix.
func NewPublisher(brokerURL, clientID string) (*Publisher, error) {
	u, err := url.Parse(brokerURL)
	if err != nil {
		return nil, fmt.Errorf("invalid broker URL: %w", err)
	}
	server := u.Scheme
	if server == "" || server == "mqtt" {
		server = "tcp"
	}
	server += "://" + u.Host

	topicPrefix := strings.TrimPrefix(u.Path, "/")
	if topicPrefix != "" && !strings.HasSuffix(topicPrefix, "/") {
		topicPrefix += "/"
	}

	opts := paho.NewClientOptions()
	opts.AddBroker(server).
		SetAutoReconnect(true).
		SetCleanSession(true).
		SetClientID(clientID)
	if u.User != nil {
		opts.SetUsername(u.User.Username())
		if pwd, ok := u.User.Password(); ok {
			opts.SetPassword(pwd)
		}
	}
	opts.SetOnConnectHandler(func(paho.Client) {
		glog.Info("telemetry connected")
	})
	opts.SetConnectionLostHandler(func(_ paho.Client, err error) {
		glog.Warningf("telemetry connection lost: %v", err)
	})

	return &Publisher{
		TopicPrefix: topicPrefix,
		client:      paho.NewClient(opts),
	}, nil
}

// Connect connects to the broker.
func (p *Publisher) Connect() error {
	token := p.client.Connect()
	token.Wait()
	return token.Error()
}

// Close implements io.Closer.
func (p *Publisher) Close() error {
	p.client.Disconnect(0)
	return nil
}

// Publish publishes the snapshot to <prefix><name>/state, retained so a
// late subscriber sees the last known state.
func (p *Publisher) Publish(st State) error {
	payload, err := json.Marshal(&st)
	if err != nil {
		return err
	}
	topic := p.TopicPrefix + st.Name + "/state"
	if glog.V(2) {
		glog.Infof("PUB %q", topic)
	}
	p.client.Publish(topic, 0, true, payload)
	return nil
}

// Periodic returns a Runnable that publishes src's snapshot at the given
// interval.
func (p *Publisher) Periodic(interval time.Duration, src Source) run.Runnable {
	return &run.Periodic{
		Interval: interval,
		Tick: func(context.Context) error {
			return p.Publish(src())
		},
	}
}
