package delivery

import (
	"context"
	"fmt"
	"time"

	"fintrack/internal/domain/notify"

	"github.com/sirupsen/logrus"
)

// ErrNoProviderConfigured is returned in Result.Err when every provider of
// a channel was skipped for missing credentials (or none is registered).
var ErrNoProviderConfigured = fmt.Errorf("no delivery provider configured for channel")

// Result is the outcome of one Send call, including the full attempt trail
// in call order.
type Result struct {
	Success           bool
	ProviderUsed      string
	ProviderMessageID string
	Err               error
	Attempts          []notify.Attempt
}

// Sender routes a message to the ordered provider list of its channel,
// falling back provider by provider until one succeeds. It holds no mutable
// state and is safe for concurrent use.
type Sender struct {
	providers map[notify.Channel][]Provider
	log       *logrus.Logger
}

func NewSender(log *logrus.Logger) *Sender {
	return &Sender{providers: make(map[notify.Channel][]Provider), log: log}
}

// Register appends a provider to the channel's fallback chain. Registration
// order is priority order.
func (s *Sender) Register(ch notify.Channel, p Provider) {
	s.providers[ch] = append(s.providers[ch], p)
}

// Send attempts delivery through the channel's providers in priority order.
// Every attempt, including configuration skips, lands in Result.Attempts.
func (s *Sender) Send(ctx context.Context, ch notify.Channel, recipient, subject, body string) Result {
	res := Result{}
	msg := Message{Recipient: recipient, Subject: subject, Body: body}

	for _, p := range s.providers[ch] {
		if !p.Configured() {
			s.log.Debugf("delivery: provider %s skipped, not configured", p.Name())
			res.Attempts = append(res.Attempts, notify.Attempt{
				Provider: p.Name(),
				At:       time.Now(),
				Skipped:  true,
				Err:      "provider not configured",
			})
			continue
		}

		id, err := p.Attempt(ctx, msg)
		if err != nil {
			s.log.Warnf("delivery: provider %s failed for %s on %s: %v", p.Name(), recipient, ch, err)
			res.Attempts = append(res.Attempts, notify.Attempt{
				Provider: p.Name(),
				At:       time.Now(),
				Err:      err.Error(),
			})
			res.Err = err
			continue
		}

		s.log.Infof("delivery: sent via %s to %s on %s", p.Name(), recipient, ch)
		res.Attempts = append(res.Attempts, notify.Attempt{
			Provider:  p.Name(),
			At:        time.Now(),
			OK:        true,
			MessageID: id,
		})
		res.Success = true
		res.ProviderUsed = p.Name()
		res.ProviderMessageID = id
		res.Err = nil
		return res
	}

	if res.Err == nil {
		res.Err = fmt.Errorf("%w %s", ErrNoProviderConfigured, ch)
	}
	return res
}
