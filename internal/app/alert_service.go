package app

import (
	"context"
	"fmt"

	"fintrack/internal/delivery"
	"fintrack/internal/domain/template"
	"fintrack/internal/domain/user"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Comparator names the relation checked between a metric and its threshold.
type Comparator string

const (
	CompareGT  Comparator = "gt"
	CompareGTE Comparator = "gte"
	CompareLT  Comparator = "lt"
	CompareLTE Comparator = "lte"
	CompareEQ  Comparator = "eq"
)

// Severity ranks how urgent a breached threshold is.
type Severity string

const (
	SeverityInfo     Severity = "INFO"
	SeverityWarning  Severity = "WARNING"
	SeverityCritical Severity = "CRITICAL"
)

// Threshold is a static rule checked against computed metric values.
// UserID 0 marks a global threshold with no specific recipient.
type Threshold struct {
	Metric     string
	Comparator Comparator
	Value      decimal.Decimal
	Severity   Severity
	UserID     int64
}

// Metric is one computed value under evaluation.
type Metric struct {
	Name   string
	Value  decimal.Decimal
	UserID int64
}

// Alert is a breached threshold, ready for routing.
type Alert struct {
	Threshold Threshold
	Metric    Metric
	Message   string
}

// Gauge computes a global metric value on demand, usually from the store.
type Gauge struct {
	Name    string
	Collect func(ctx context.Context) (decimal.Decimal, error)
}

// AlertService checks metric values against static thresholds. Global
// alerts go to the log and the operator channel; user-scoped alerts ride
// the same delivery path the dispatcher uses.
type AlertService struct {
	thresholds []Threshold
	gauges     []Gauge
	users      user.Directory
	sender     MessageSender
	ops        *delivery.OpsChannel
	logger     *logrus.Logger
}

func NewAlertService(users user.Directory, sender MessageSender, ops *delivery.OpsChannel, logger *logrus.Logger) *AlertService {
	return &AlertService{users: users, sender: sender, ops: ops, logger: logger}
}

// AddThreshold registers a rule. Thresholds are checked in registration
// order; the first breach for a metric wins.
func (s *AlertService) AddThreshold(t Threshold) {
	s.thresholds = append(s.thresholds, t)
}

// AddGauge registers a metric collector for RunChecks.
func (s *AlertService) AddGauge(g Gauge) {
	s.gauges = append(s.gauges, g)
}

// Evaluate compares a metric against the registered thresholds and returns
// an Alert on breach, nil otherwise. Pure with respect to service state.
func (s *AlertService) Evaluate(m Metric) *Alert {
	for _, t := range s.thresholds {
		if t.Metric != m.Name || t.UserID != m.UserID {
			continue
		}
		if !breached(m.Value, t.Comparator, t.Value) {
			continue
		}
		msg := template.Render(mustTemplate("alert"), map[string]any{
			"severity":   string(t.Severity),
			"metric":     m.Name,
			"value":      m.Value,
			"comparator": comparatorLabel(t.Comparator),
			"threshold":  t.Value,
		})
		return &Alert{Threshold: t, Metric: m, Message: msg}
	}
	return nil
}

// Dispatch routes a breached alert. Failures are logged, not returned: an
// alert must never take down the check cycle that raised it.
func (s *AlertService) Dispatch(ctx context.Context, a *Alert) {
	if a.Threshold.UserID == 0 {
		s.logger.WithFields(logrus.Fields{
			"metric":   a.Metric.Name,
			"value":    a.Metric.Value.String(),
			"severity": string(a.Threshold.Severity),
		}).Warn("global alert breached")
		s.ops.Notify(a.Message)
		return
	}

	u, err := s.users.FindByID(ctx, a.Threshold.UserID)
	if err != nil {
		s.logger.Errorf("alert: could not resolve user %d: %v", a.Threshold.UserID, err)
		return
	}
	ch, recipient, ok := chooseChannel(u)
	if !ok {
		s.logger.Warnf("alert: user %d has no deliverable address, alert logged only: %s", u.ID, a.Message)
		return
	}
	subject := fmt.Sprintf("%s alert: %s", a.Threshold.Severity, a.Metric.Name)
	res := s.sender.Send(ctx, ch, recipient, subject, a.Message)
	if !res.Success {
		s.logger.Errorf("alert: delivery to user %d failed: %v", u.ID, res.Err)
	}
}

// RunChecks collects every registered gauge and dispatches the alerts that
// breach. Gauge failures are isolated per gauge.
func (s *AlertService) RunChecks(ctx context.Context) error {
	var firstErr error
	for _, g := range s.gauges {
		value, err := g.Collect(ctx)
		if err != nil {
			s.logger.Errorf("alert: gauge %s failed: %v", g.Name, err)
			if firstErr == nil {
				firstErr = fmt.Errorf("gauge %s: %w", g.Name, err)
			}
			continue
		}
		if a := s.Evaluate(Metric{Name: g.Name, Value: value}); a != nil {
			s.Dispatch(ctx, a)
		}
	}
	return firstErr
}

func breached(value decimal.Decimal, c Comparator, threshold decimal.Decimal) bool {
	switch c {
	case CompareGT:
		return value.GreaterThan(threshold)
	case CompareGTE:
		return value.GreaterThanOrEqual(threshold)
	case CompareLT:
		return value.LessThan(threshold)
	case CompareLTE:
		return value.LessThanOrEqual(threshold)
	case CompareEQ:
		return value.Equal(threshold)
	default:
		return false
	}
}

func comparatorLabel(c Comparator) string {
	switch c {
	case CompareGT:
		return ">"
	case CompareGTE:
		return ">="
	case CompareLT:
		return "<"
	case CompareLTE:
		return "<="
	case CompareEQ:
		return "="
	default:
		return string(c)
	}
}

func mustTemplate(id string) string {
	body, ok := template.Lookup(id)
	if !ok {
		return ""
	}
	return body
}
