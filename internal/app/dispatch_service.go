package app

import (
	"context"
	"fmt"
	"time"

	"fintrack/internal/delivery"
	"fintrack/internal/domain/goal"
	"fintrack/internal/domain/investment"
	"fintrack/internal/domain/notify"
	"fintrack/internal/domain/obligation"
	"fintrack/internal/domain/template"
	"fintrack/internal/domain/user"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// Cycle names, one per scheduled concern.
const (
	CycleOverdue       = "overdue-obligations"
	CycleDueToday      = "due-today"
	CycleMaturing      = "maturing-investments"
	CycleGoalProgress  = "goal-progress"
	CycleMonthlyReport = "monthly-report"
	CycleAchievements  = "achievement-check"
)

// MessageSender is the delivery port used by the dispatch and alert
// services. *delivery.Sender satisfies it; tests substitute fakes.
type MessageSender interface {
	Send(ctx context.Context, ch notify.Channel, recipient, subject, body string) delivery.Result
}

// JobFailure describes one job that could not be delivered during a cycle.
type JobFailure struct {
	UserID    int64
	Recipient string
	Channel   notify.Channel
	Err       string
}

// CycleReport summarizes one dispatch cycle. Failed jobs never abort the
// cycle; they are counted here instead.
type CycleReport struct {
	Cycle      string
	StartedAt  time.Time
	FinishedAt time.Time
	Total      int
	Succeeded  int
	Failed     int
	Skipped    int // deduplicated or unaddressable, no job was built
	Failures   []JobFailure
}

// outbound is one fully built notification waiting in the send queue of the
// current cycle.
type outbound struct {
	user       *user.User
	templateID string
	subject    string
	payload    map[string]any
	// dedupScope/dedupItem select the notified-marker written after a
	// successful send; empty scope means the cycle does not deduplicate.
	dedupScope string
	dedupItem  int64
}

// DispatchConfig is the tuning surface of the dispatcher.
type DispatchConfig struct {
	SendDelay          time.Duration
	MaturityWindowDays int
	GoalProgressStep   int
}

// DispatchService runs the scheduled notification cycles: scan the store
// for the cycle's condition, build one job per recipient, then send the
// jobs strictly sequentially with a fixed inter-message delay. It holds no
// mutable state across calls, so a manual cycle and a scheduled cycle may
// run concurrently.
type DispatchService struct {
	obligations obligation.Repository
	investments investment.Repository
	goals       goal.Repository
	users       user.Directory
	audit       notify.AuditRepository
	sender      MessageSender
	ops         *delivery.OpsChannel
	logger      *logrus.Logger
	cfg         DispatchConfig
	limit       rate.Limit
	now         func() time.Time
}

func NewDispatchService(
	obligations obligation.Repository,
	investments investment.Repository,
	goals goal.Repository,
	users user.Directory,
	audit notify.AuditRepository,
	sender MessageSender,
	ops *delivery.OpsChannel,
	logger *logrus.Logger,
	cfg DispatchConfig,
) *DispatchService {
	limit := rate.Inf
	if cfg.SendDelay > 0 {
		limit = rate.Every(cfg.SendDelay)
	}
	return &DispatchService{
		obligations: obligations,
		investments: investments,
		goals:       goals,
		users:       users,
		audit:       audit,
		sender:      sender,
		ops:         ops,
		logger:      logger,
		cfg:         cfg,
		limit:       limit,
		now:         time.Now,
	}
}

// RunCycle executes one named cycle to completion. A scan-phase store
// failure aborts the whole cycle and is returned; the next scheduled
// trigger is the retry. Per-job send failures are isolated, recorded and
// counted in the report.
func (s *DispatchService) RunCycle(ctx context.Context, name string) (CycleReport, error) {
	report := CycleReport{Cycle: name, StartedAt: s.now()}
	s.logger.Infof("dispatch [%s]: scanning", name)

	queue, skipped, err := s.scanAndBuild(ctx, name)
	if err != nil {
		report.FinishedAt = s.now()
		s.ops.Notify(fmt.Sprintf("dispatch cycle %s aborted: %v", name, err))
		return report, fmt.Errorf("cycle %s aborted during scan: %w", name, err)
	}
	report.Skipped = skipped
	report.Total = len(queue)
	if len(queue) == 0 {
		s.logger.Infof("dispatch [%s]: nothing to send (%d skipped)", name, skipped)
		report.FinishedAt = s.now()
		return report, nil
	}

	s.logger.Infof("dispatch [%s]: sending %d jobs", name, len(queue))
	// Sends are strictly sequential; the limiter enforces the configured
	// gap between consecutive provider calls. A cycle therefore takes
	// O(n × delay), which is the documented scaling limit.
	limiter := rate.NewLimiter(s.limit, 1)
	for _, out := range queue {
		if err := limiter.Wait(ctx); err != nil {
			report.FinishedAt = s.now()
			return report, fmt.Errorf("cycle %s interrupted: %w", name, err)
		}
		s.sendOne(ctx, out, &report)
	}

	report.FinishedAt = s.now()
	s.logger.Infof("dispatch [%s]: done, total=%d succeeded=%d failed=%d skipped=%d",
		name, report.Total, report.Succeeded, report.Failed, report.Skipped)
	return report, nil
}

// sendOne delivers a single outbound job, recording the audit trail and the
// explicit send duration. Failures are appended to the report, never
// propagated.
func (s *DispatchService) sendOne(ctx context.Context, out outbound, report *CycleReport) {
	ch, recipient, ok := chooseChannel(out.user)
	if !ok {
		// Built jobs always have an address (scanAndBuild filters), but a
		// concurrent profile edit can race us here.
		report.Failed++
		report.Failures = append(report.Failures, JobFailure{
			UserID: out.user.ID, Err: "user has no deliverable address",
		})
		return
	}

	body, ok := template.Lookup(out.templateID)
	if !ok {
		report.Failed++
		report.Failures = append(report.Failures, JobFailure{
			UserID: out.user.ID, Recipient: recipient, Channel: ch,
			Err: fmt.Sprintf("unknown template %q", out.templateID),
		})
		return
	}
	rendered := template.Render(body, out.payload)

	job := &notify.Job{
		UserID:     out.user.ID,
		Recipient:  recipient,
		Channel:    ch,
		TemplateID: out.templateID,
		Payload:    out.payload,
		Status:     notify.JobPending,
	}
	if err := s.audit.RecordJob(ctx, job); err != nil {
		s.logger.Errorf("dispatch: failed to record job for user %d: %v", out.user.ID, err)
		report.Failed++
		report.Failures = append(report.Failures, JobFailure{
			UserID: out.user.ID, Recipient: recipient, Channel: ch, Err: err.Error(),
		})
		return
	}

	// Explicit instrumentation around the send call.
	started := s.now()
	res := s.sender.Send(ctx, ch, recipient, out.subject, rendered)
	durationMS := time.Since(started).Milliseconds()

	if err := s.audit.RecordAttempts(ctx, job.ID, res.Attempts); err != nil {
		s.logger.Errorf("dispatch: failed to record attempts for job %d: %v", job.ID, err)
	}

	if res.Success {
		report.Succeeded++
		if err := s.audit.UpdateStatus(ctx, job.ID, notify.JobSent, s.now(), durationMS); err != nil {
			s.logger.Errorf("dispatch: failed to mark job %d sent: %v", job.ID, err)
		}
		if out.dedupScope != "" {
			if err := s.audit.MarkNotified(ctx, out.dedupScope, out.dedupItem, s.now()); err != nil {
				s.logger.Errorf("dispatch: failed to write notified marker for %s/%d: %v",
					out.dedupScope, out.dedupItem, err)
			}
		}
		return
	}

	errText := "delivery failed"
	if res.Err != nil {
		errText = res.Err.Error()
	}
	s.logger.Warnf("dispatch: job %d to %s failed: %s", job.ID, recipient, errText)
	report.Failed++
	report.Failures = append(report.Failures, JobFailure{
		UserID: out.user.ID, Recipient: recipient, Channel: ch, Err: errText,
	})
	if err := s.audit.UpdateStatus(ctx, job.ID, notify.JobFailed, s.now(), durationMS); err != nil {
		s.logger.Errorf("dispatch: failed to mark job %d failed: %v", job.ID, err)
	}
}

// scanAndBuild runs the cycle's due-condition query and assembles the send
// queue in query order. The skipped count covers items suppressed by a
// notified marker or lacking a deliverable recipient.
func (s *DispatchService) scanAndBuild(ctx context.Context, name string) ([]outbound, int, error) {
	activeUsers, err := s.users.FindActiveUsers(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list active users: %w", err)
	}
	byID := make(map[int64]*user.User, len(activeUsers))
	for _, u := range activeUsers {
		byID[u.ID] = u
	}

	switch name {
	case CycleOverdue:
		return s.buildObligationJobs(ctx, byID, "obligation_overdue", "Overdue obligation", "", s.obligations.FindOverdue)
	case CycleDueToday:
		today := s.now()
		return s.buildObligationJobs(ctx, byID, "obligation_due_today", "Obligation due today", CycleDueToday,
			func(ctx context.Context, kind obligation.Kind) ([]*obligation.Obligation, error) {
				return s.obligations.FindDueToday(ctx, kind, today)
			})
	case CycleMaturing:
		return s.buildMaturingJobs(ctx, byID)
	case CycleGoalProgress:
		return s.buildGoalJobs(ctx, byID, false)
	case CycleAchievements:
		return s.buildGoalJobs(ctx, byID, true)
	case CycleMonthlyReport:
		return s.buildMonthlyReportJobs(ctx, byID)
	default:
		return nil, 0, fmt.Errorf("unknown cycle %q", name)
	}
}

func (s *DispatchService) buildObligationJobs(
	ctx context.Context,
	users map[int64]*user.User,
	templateID, subject, dedupScope string,
	find func(ctx context.Context, kind obligation.Kind) ([]*obligation.Obligation, error),
) ([]outbound, int, error) {
	var queue []outbound
	skipped := 0
	for _, kind := range []obligation.Kind{obligation.KindExpense, obligation.KindRevenue} {
		items, err := find(ctx, kind)
		if err != nil {
			return nil, 0, fmt.Errorf("scan failed for kind %s: %w", kind, err)
		}
		for _, o := range items {
			u, ok := users[o.UserID]
			if !ok || !addressable(u) {
				s.logger.Debugf("dispatch: obligation %d skipped, user %d inactive or unaddressable", o.ID, o.UserID)
				skipped++
				continue
			}
			if dedupScope != "" {
				seen, err := s.audit.WasNotified(ctx, dedupScope, o.ID, s.now())
				if err != nil {
					return nil, 0, fmt.Errorf("dedup check failed for obligation %d: %w", o.ID, err)
				}
				if seen {
					s.logger.Debugf("dispatch: obligation %d already notified today, skipping", o.ID)
					skipped++
					continue
				}
			}
			queue = append(queue, outbound{
				user:       u,
				templateID: templateID,
				subject:    subject,
				payload: map[string]any{
					"name":         u.FirstName,
					"title":        o.Title,
					"kind":         kindLabel(o.Kind),
					"amount":       o.Amount,
					"due_date":     o.DueDate.Format("2006-01-02"),
					"frequency":    frequencyLabel(o.Frequency),
					"recurring":    o.Frequency != obligation.FrequencyNone,
					"has_interest": !o.InterestRate.IsZero() || !o.PenaltyRate.IsZero(),
				},
				dedupScope: dedupScope,
				dedupItem:  o.ID,
			})
		}
	}
	return queue, skipped, nil
}

func (s *DispatchService) buildMaturingJobs(ctx context.Context, users map[int64]*user.User) ([]outbound, int, error) {
	items, err := s.investments.FindMaturingWithin(ctx, s.now(), s.cfg.MaturityWindowDays)
	if err != nil {
		return nil, 0, fmt.Errorf("scan failed for maturing investments: %w", err)
	}
	var queue []outbound
	skipped := 0
	for _, inv := range items {
		u, ok := users[inv.UserID]
		if !ok || !addressable(u) {
			skipped++
			continue
		}
		seen, err := s.audit.WasNotified(ctx, CycleMaturing, inv.ID, s.now())
		if err != nil {
			return nil, 0, fmt.Errorf("dedup check failed for investment %d: %w", inv.ID, err)
		}
		if seen {
			skipped++
			continue
		}
		queue = append(queue, outbound{
			user:       u,
			templateID: "investment_maturing",
			subject:    "Investment maturing soon",
			payload: map[string]any{
				"name":          u.FirstName,
				"title":         inv.Name,
				"amount":        inv.Amount,
				"maturity_date": inv.MaturityDate.Format("2006-01-02"),
			},
			dedupScope: CycleMaturing,
			dedupItem:  inv.ID,
		})
	}
	return queue, skipped, nil
}

func (s *DispatchService) buildGoalJobs(ctx context.Context, users map[int64]*user.User, completed bool) ([]outbound, int, error) {
	var (
		items []*goal.Goal
		err   error
	)
	templateID, subject, scope := "goal_progress", "Goal progress", CycleGoalProgress
	if completed {
		items, err = s.goals.FindCompleted(ctx)
		templateID, subject, scope = "goal_achieved", "Goal achieved!", CycleAchievements
	} else {
		items, err = s.goals.FindInProgress(ctx, s.cfg.GoalProgressStep)
	}
	if err != nil {
		return nil, 0, fmt.Errorf("scan failed for goals: %w", err)
	}

	var queue []outbound
	skipped := 0
	for _, g := range items {
		u, ok := users[g.UserID]
		if !ok || !addressable(u) {
			skipped++
			continue
		}
		seen, err := s.audit.WasNotified(ctx, scope, g.ID, s.now())
		if err != nil {
			return nil, 0, fmt.Errorf("dedup check failed for goal %d: %w", g.ID, err)
		}
		if seen {
			skipped++
			continue
		}
		payload := map[string]any{
			"name":     u.FirstName,
			"title":    g.Name,
			"amount":   g.TargetAmount,
			"progress": g.ProgressPercent(),
		}
		if g.Deadline.Valid {
			payload["deadline"] = g.Deadline.Time.Format("2006-01-02")
		}
		queue = append(queue, outbound{
			user:       u,
			templateID: templateID,
			subject:    subject,
			payload:    payload,
			dedupScope: scope,
			dedupItem:  g.ID,
		})
	}
	return queue, skipped, nil
}

func (s *DispatchService) buildMonthlyReportJobs(ctx context.Context, users map[int64]*user.User) ([]outbound, int, error) {
	now := s.now()
	prev := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).AddDate(0, -1, 0)
	summaries, err := s.obligations.SummarizeMonth(ctx, prev.Year(), prev.Month())
	if err != nil {
		return nil, 0, fmt.Errorf("scan failed for monthly summary: %w", err)
	}

	var queue []outbound
	skipped := 0
	for _, sum := range summaries {
		u, ok := users[sum.UserID]
		if !ok || !addressable(u) {
			skipped++
			continue
		}
		queue = append(queue, outbound{
			user:       u,
			templateID: "monthly_report",
			subject:    fmt.Sprintf("Your %s summary", prev.Format("January 2006")),
			payload: map[string]any{
				"name":          u.FirstName,
				"month":         prev.Format("January 2006"),
				"expense_total": sum.ExpenseTotal,
				"revenue_total": sum.RevenueTotal,
				"balance":       sum.RevenueTotal.Sub(sum.ExpenseTotal),
			},
		})
	}
	return queue, skipped, nil
}

// chooseChannel resolves the delivery channel and address for a user: the
// preferred channel when set and addressable, else email, else SMS.
func chooseChannel(u *user.User) (notify.Channel, string, bool) {
	if u.PreferredChannel.Valid {
		switch notify.Channel(u.PreferredChannel.String) {
		case notify.ChannelEmail:
			if u.Email.Valid && u.Email.String != "" {
				return notify.ChannelEmail, u.Email.String, true
			}
		case notify.ChannelSMS:
			if u.Phone.Valid && u.Phone.String != "" {
				return notify.ChannelSMS, u.Phone.String, true
			}
		}
	}
	if u.Email.Valid && u.Email.String != "" {
		return notify.ChannelEmail, u.Email.String, true
	}
	if u.Phone.Valid && u.Phone.String != "" {
		return notify.ChannelSMS, u.Phone.String, true
	}
	return "", "", false
}

func addressable(u *user.User) bool {
	_, _, ok := chooseChannel(u)
	return ok
}

func kindLabel(k obligation.Kind) string {
	if k == obligation.KindRevenue {
		return "revenue"
	}
	return "expense"
}

func frequencyLabel(f obligation.Frequency) string {
	switch f {
	case obligation.FrequencyDaily:
		return "daily"
	case obligation.FrequencyWeekly:
		return "weekly"
	case obligation.FrequencyBiweekly:
		return "every two weeks"
	case obligation.FrequencyMonthly:
		return "monthly"
	case obligation.FrequencyBimonthly:
		return "every two months"
	case obligation.FrequencyQuarterly:
		return "quarterly"
	case obligation.FrequencySemiannual:
		return "every six months"
	case obligation.FrequencyAnnual:
		return "yearly"
	default:
		return ""
	}
}
