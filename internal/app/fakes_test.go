package app

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"fintrack/internal/delivery"
	"fintrack/internal/domain/goal"
	"fintrack/internal/domain/investment"
	"fintrack/internal/domain/notify"
	"fintrack/internal/domain/obligation"
	"fintrack/internal/domain/user"
	idb "fintrack/internal/infra/database"

	"github.com/sirupsen/logrus"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// fakeObligationRepo is an in-memory obligation.Repository.
type fakeObligationRepo struct {
	mu        sync.Mutex
	nextID    int64
	items     map[int64]*obligation.Obligation
	insertErr error
	scanErr   error
	summaries []obligation.MonthSummary
	overdue   int64
}

func newFakeObligationRepo() *fakeObligationRepo {
	return &fakeObligationRepo{items: make(map[int64]*obligation.Obligation)}
}

func (r *fakeObligationRepo) add(o *obligation.Obligation) *obligation.Obligation {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	o.ID = r.nextID
	cp := *o
	r.items[o.ID] = &cp
	return o
}

func (r *fakeObligationRepo) FindByID(ctx context.Context, id int64) (*obligation.Obligation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.items[id]
	if !ok {
		return nil, idb.ErrObligationNotFound
	}
	cp := *o
	return &cp, nil
}

func (r *fakeObligationRepo) Insert(ctx context.Context, o *obligation.Obligation) error {
	if r.insertErr != nil {
		return r.insertErr
	}
	r.add(o)
	return nil
}

func (r *fakeObligationRepo) Settle(ctx context.Context, id int64) (*obligation.Obligation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.items[id]
	if !ok {
		return nil, idb.ErrObligationNotFound
	}
	if o.Status == obligation.StatusSettled {
		cp := *o
		return &cp, idb.ErrObligationAlreadySettled
	}
	o.Status = obligation.StatusSettled
	o.UpdatedAt = time.Now()
	cp := *o
	return &cp, nil
}

func (r *fakeObligationRepo) FindByPredecessor(ctx context.Context, predecessorID int64) (*obligation.Obligation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.items {
		if o.PredecessorID.Valid && o.PredecessorID.Int64 == predecessorID {
			cp := *o
			return &cp, nil
		}
	}
	return nil, idb.ErrObligationNotFound
}

func (r *fakeObligationRepo) FindDueToday(ctx context.Context, kind obligation.Kind, day time.Time) ([]*obligation.Obligation, error) {
	if r.scanErr != nil {
		return nil, r.scanErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*obligation.Obligation
	for id := int64(1); id <= r.nextID; id++ {
		o, ok := r.items[id]
		if !ok || o.Kind != kind || o.Status != obligation.StatusPending {
			continue
		}
		if o.DueDate.Year() == day.Year() && o.DueDate.YearDay() == day.YearDay() {
			cp := *o
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeObligationRepo) FindOverdue(ctx context.Context, kind obligation.Kind) ([]*obligation.Obligation, error) {
	if r.scanErr != nil {
		return nil, r.scanErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	var out []*obligation.Obligation
	for id := int64(1); id <= r.nextID; id++ {
		o, ok := r.items[id]
		if !ok || o.Kind != kind || o.Status != obligation.StatusPending {
			continue
		}
		if o.DueDate.Before(now.Truncate(24 * time.Hour)) {
			cp := *o
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeObligationRepo) SummarizeMonth(ctx context.Context, year int, month time.Month) ([]obligation.MonthSummary, error) {
	if r.scanErr != nil {
		return nil, r.scanErr
	}
	return r.summaries, nil
}

func (r *fakeObligationRepo) CountOverdue(ctx context.Context, kind obligation.Kind) (int64, error) {
	return r.overdue, nil
}

// fakeInvestmentRepo is an in-memory investment.Repository.
type fakeInvestmentRepo struct {
	items []*investment.Investment
	err   error
}

func (r *fakeInvestmentRepo) FindMaturingWithin(ctx context.Context, day time.Time, days int) ([]*investment.Investment, error) {
	return r.items, r.err
}

// fakeGoalRepo is an in-memory goal.Repository.
type fakeGoalRepo struct {
	inProgress []*goal.Goal
	completed  []*goal.Goal
	err        error
}

func (r *fakeGoalRepo) FindInProgress(ctx context.Context, minPct int) ([]*goal.Goal, error) {
	return r.inProgress, r.err
}

func (r *fakeGoalRepo) FindCompleted(ctx context.Context) ([]*goal.Goal, error) {
	return r.completed, r.err
}

// fakeDirectory is an in-memory user.Directory.
type fakeDirectory struct {
	users []*user.User
	err   error
}

func (d *fakeDirectory) FindByID(ctx context.Context, id int64) (*user.User, error) {
	for _, u := range d.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, idb.ErrUserNotFound
}

func (d *fakeDirectory) FindActiveUsers(ctx context.Context) ([]*user.User, error) {
	if d.err != nil {
		return nil, d.err
	}
	var out []*user.User
	for _, u := range d.users {
		if u.IsActive {
			out = append(out, u)
		}
	}
	return out, nil
}

// fakeAudit is an in-memory notify.AuditRepository.
type fakeAudit struct {
	mu       sync.Mutex
	nextID   int64
	jobs     []*notify.Job
	statuses map[int64]notify.JobStatus
	attempts map[int64][]notify.Attempt
	markers  map[string]bool
	err      error
}

func newFakeAudit() *fakeAudit {
	return &fakeAudit{
		statuses: make(map[int64]notify.JobStatus),
		attempts: make(map[int64][]notify.Attempt),
		markers:  make(map[string]bool),
	}
}

func markerKey(scope string, itemID int64, day time.Time) string {
	return fmt.Sprintf("%s/%d/%s", scope, itemID, day.Format("2006-01-02"))
}

func (a *fakeAudit) RecordJob(ctx context.Context, job *notify.Job) error {
	if a.err != nil {
		return a.err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.nextID++
	job.ID = a.nextID
	job.CreatedAt = time.Now()
	a.jobs = append(a.jobs, job)
	a.statuses[job.ID] = job.Status
	return nil
}

func (a *fakeAudit) UpdateStatus(ctx context.Context, jobID int64, status notify.JobStatus, sentAt time.Time, durationMS int64) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.statuses[jobID] = status
	return nil
}

func (a *fakeAudit) RecordAttempts(ctx context.Context, jobID int64, attempts []notify.Attempt) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.attempts[jobID] = append(a.attempts[jobID], attempts...)
	return nil
}

func (a *fakeAudit) WasNotified(ctx context.Context, scope string, itemID int64, day time.Time) (bool, error) {
	if a.err != nil {
		return false, a.err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.markers[markerKey(scope, itemID, day)], nil
}

func (a *fakeAudit) MarkNotified(ctx context.Context, scope string, itemID int64, day time.Time) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.markers[markerKey(scope, itemID, day)] = true
	return nil
}

// fakeMessageSender records sends and fails for selected recipients.
type fakeMessageSender struct {
	mu      sync.Mutex
	sent    []string // recipients in call order
	failFor map[string]error
}

func newFakeMessageSender() *fakeMessageSender {
	return &fakeMessageSender{failFor: make(map[string]error)}
}

func (f *fakeMessageSender) Send(ctx context.Context, ch notify.Channel, recipient, subject, body string) delivery.Result {
	f.mu.Lock()
	f.sent = append(f.sent, recipient)
	f.mu.Unlock()
	if err, ok := f.failFor[recipient]; ok {
		return delivery.Result{
			Success:  false,
			Err:      err,
			Attempts: []notify.Attempt{{Provider: "fake", At: time.Now(), Err: err.Error()}},
		}
	}
	return delivery.Result{
		Success:      true,
		ProviderUsed: "fake",
		Attempts:     []notify.Attempt{{Provider: "fake", At: time.Now(), OK: true}},
	}
}
