package reporting

import (
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"

	"deauthwatch/internal/analysis"
	"deauthwatch/internal/log"
)

// Publisher is the part of *nats.Conn the sink needs.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// NATSSink publishes every snapshot as JSON on a NATS subject.
type NATSSink struct {
	pub     Publisher
	nc      *nats.Conn
	subject string
}

// NewNATSSink connects to the NATS server at url.
func NewNATSSink(url, subject string) (*NATSSink, error) {
	nc, err := nats.Connect(url, nats.Name("deauthwatch"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS at %s: %w", url, err)
	}
	log.WithComponent("reporting").Infof("Connected to NATS server at %s", url)
	return &NATSSink{pub: nc, nc: nc, subject: subject}, nil
}

// NewNATSSinkWithPublisher creates a sink on an existing publisher.
func NewNATSSinkWithPublisher(pub Publisher, subject string) *NATSSink {
	return &NATSSink{pub: pub, subject: subject}
}

// Report serializes the snapshot and publishes it.
func (n *NATSSink) Report(s analysis.Snapshot) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	if err := n.pub.Publish(n.subject, data); err != nil {
		return fmt.Errorf("failed to publish snapshot: %w", err)
	}
	return nil
}

// Close drains and closes the NATS connection, if the sink owns one.
func (n *NATSSink) Close() {
	if n.nc != nil {
		if err := n.nc.Drain(); err != nil {
			log.WithComponent("reporting").WithError(err).Warn("NATS drain failed")
		}
	}
}
