package app

import (
	"context"
	"errors"
	"strings"
	"testing"

	"fintrack/internal/delivery"

	"github.com/shopspring/decimal"
)

func newAlertFixture() (*AlertService, *fakeDirectory, *fakeMessageSender) {
	users := &fakeDirectory{}
	sender := newFakeMessageSender()
	log := testLogger()
	svc := NewAlertService(users, sender, delivery.NewOpsChannel(nil, 0, log), log)
	return svc, users, sender
}

func TestEvaluateComparators(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name       string
		comparator Comparator
		threshold  int64
		value      int64
		breach     bool
	}{
		{"gt breach", CompareGT, 50, 51, true},
		{"gt no breach at boundary", CompareGT, 50, 50, false},
		{"gte breach at boundary", CompareGTE, 50, 50, true},
		{"lt breach", CompareLT, 10, 9, true},
		{"lt no breach", CompareLT, 10, 10, false},
		{"lte breach at boundary", CompareLTE, 10, 10, true},
		{"eq breach", CompareEQ, 0, 0, true},
		{"eq no breach", CompareEQ, 0, 1, false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _ := newAlertFixture()
			svc.AddThreshold(Threshold{
				Metric:     "m",
				Comparator: tt.comparator,
				Value:      decimal.NewFromInt(tt.threshold),
				Severity:   SeverityWarning,
			})
			got := svc.Evaluate(Metric{Name: "m", Value: decimal.NewFromInt(tt.value)})
			if (got != nil) != tt.breach {
				t.Fatalf("Evaluate breach = %v, want %v", got != nil, tt.breach)
			}
		})
	}
}

func TestEvaluateIgnoresOtherMetricsAndScopes(t *testing.T) {
	t.Parallel()
	svc, _, _ := newAlertFixture()
	svc.AddThreshold(Threshold{Metric: "a", Comparator: CompareGT, Value: decimal.Zero, Severity: SeverityInfo})
	svc.AddThreshold(Threshold{Metric: "b", Comparator: CompareGT, Value: decimal.Zero, Severity: SeverityInfo, UserID: 7})

	if svc.Evaluate(Metric{Name: "c", Value: decimal.NewFromInt(1)}) != nil {
		t.Fatal("unrelated metric must not breach")
	}
	if svc.Evaluate(Metric{Name: "b", Value: decimal.NewFromInt(1)}) != nil {
		t.Fatal("user-scoped threshold must not match a global metric")
	}
	if svc.Evaluate(Metric{Name: "b", Value: decimal.NewFromInt(1), UserID: 7}) == nil {
		t.Fatal("user-scoped threshold must match its user's metric")
	}
}

func TestEvaluateMessageRendering(t *testing.T) {
	t.Parallel()
	svc, _, _ := newAlertFixture()
	svc.AddThreshold(Threshold{
		Metric:     "overdue_expense_count",
		Comparator: CompareGTE,
		Value:      decimal.NewFromInt(50),
		Severity:   SeverityCritical,
	})
	a := svc.Evaluate(Metric{Name: "overdue_expense_count", Value: decimal.NewFromInt(63)})
	if a == nil {
		t.Fatal("expected breach")
	}
	if !strings.Contains(a.Message, "CRITICAL") || !strings.Contains(a.Message, "overdue_expense_count") {
		t.Fatalf("message = %q", a.Message)
	}
}

func TestDispatchUserScopedAlertUsesSendPath(t *testing.T) {
	t.Parallel()
	svc, users, sender := newAlertFixture()
	users.users = append(users.users, activeUser(7, "u7@example.com"))
	svc.AddThreshold(Threshold{
		Metric: "budget_used_pct", Comparator: CompareGT,
		Value: decimal.NewFromInt(90), Severity: SeverityWarning, UserID: 7,
	})

	a := svc.Evaluate(Metric{Name: "budget_used_pct", Value: decimal.NewFromInt(95), UserID: 7})
	if a == nil {
		t.Fatal("expected breach")
	}
	svc.Dispatch(context.Background(), a)
	if len(sender.sent) != 1 || sender.sent[0] != "u7@example.com" {
		t.Fatalf("sent = %v, want the user's email", sender.sent)
	}
}

func TestDispatchGlobalAlertIsLogOnly(t *testing.T) {
	t.Parallel()
	svc, _, sender := newAlertFixture()
	svc.AddThreshold(Threshold{
		Metric: "failed_delivery_ratio", Comparator: CompareGT,
		Value: decimal.NewFromFloat(0.5), Severity: SeverityCritical,
	})
	a := svc.Evaluate(Metric{Name: "failed_delivery_ratio", Value: decimal.NewFromFloat(0.8)})
	if a == nil {
		t.Fatal("expected breach")
	}
	svc.Dispatch(context.Background(), a)
	if len(sender.sent) != 0 {
		t.Fatal("global alerts must not use the user delivery path")
	}
}

func TestRunChecksIsolatesGaugeFailures(t *testing.T) {
	t.Parallel()
	svc, _, sender := newAlertFixture()
	svc.AddThreshold(Threshold{
		Metric: "ok_metric", Comparator: CompareGT,
		Value: decimal.NewFromInt(10), Severity: SeverityWarning, UserID: 1,
	})
	svc.AddGauge(Gauge{Name: "broken", Collect: func(ctx context.Context) (decimal.Decimal, error) {
		return decimal.Zero, errors.New("query failed")
	}})
	collected := false
	svc.AddGauge(Gauge{Name: "ok_metric", Collect: func(ctx context.Context) (decimal.Decimal, error) {
		collected = true
		return decimal.NewFromInt(5), nil
	}})

	err := svc.RunChecks(context.Background())
	if err == nil {
		t.Fatal("expected the broken gauge's error to surface")
	}
	if !collected {
		t.Fatal("later gauges must still run after a gauge failure")
	}
	if len(sender.sent) != 0 {
		t.Fatal("no alert should have been sent")
	}
}
