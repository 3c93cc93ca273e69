package api

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/herdfence/simulator/internal/channel"
	"github.com/herdfence/simulator/internal/model/core"
)

// Notifier forwards fence crossing alerts to the dashboard from its own
// goroutine, so a slow or unreachable dashboard never delays a tick.
type Notifier struct {
	client *Client
	log    zerolog.Logger
	alerts *channel.Buffered[core.Alert]

	closeOnce sync.Once
	done      chan struct{}
}

// NewNotifier starts the forwarding goroutine.
func NewNotifier(client *Client, log zerolog.Logger, bufferSize int) *Notifier {
	n := &Notifier{
		client: client,
		log:    log,
		alerts: channel.NewBuffered[core.Alert](bufferSize),
		done:   make(chan struct{}),
	}
	go n.loop()
	return n
}

// Send queues an alert for delivery, dropping it when the buffer is
// full.
func (n *Notifier) Send(alert core.Alert) bool {
	ok := n.alerts.Send(alert)
	if !ok {
		n.log.Warn().Uint("animalId", alert.AnimalID).
			Msg("Alert notifier buffer full, alert dropped")
	}
	return ok
}

func (n *Notifier) loop() {
	defer close(n.done)
	for alert := range n.alerts.Receive() {
		if err := n.client.PostAlert(alert); err != nil {
			n.log.Error().Err(err).Uint("animalId", alert.AnimalID).
				Msg("Failed to deliver alert to dashboard")
		}
	}
}

// Close drains the buffer and stops the goroutine.
func (n *Notifier) Close() {
	n.closeOnce.Do(func() { n.alerts.Close() })
	<-n.done
}
