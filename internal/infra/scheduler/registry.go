package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

const jobTimeout = 10 * time.Minute

// JobFunc is one scheduled unit of work. Errors are logged by the registry;
// the next trigger is the retry.
type JobFunc func(ctx context.Context) error

type job struct {
	spec    string
	run     JobFunc
	entryID cron.EntryID
	started bool
}

// JobRegistry owns the cron engine and the named trigger table. It is
// constructed once at startup by the application root; there is no ambient
// singleton. Each named job can be started and stopped independently, which
// also gives diagnostic entry points a way to pause a single concern.
type JobRegistry struct {
	mu   sync.Mutex
	cron *cron.Cron
	jobs map[string]*job
	log  *logrus.Logger
}

func NewJobRegistry(loc *time.Location, log *logrus.Logger) *JobRegistry {
	return &JobRegistry{
		cron: cron.New(cron.WithLocation(loc)),
		jobs: make(map[string]*job),
		log:  log,
	}
}

// Register records a named job without scheduling it. Start activates it.
func (r *JobRegistry) Register(name, spec string, run JobFunc) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.jobs[name]; exists {
		return fmt.Errorf("job %q already registered", name)
	}
	r.jobs[name] = &job{spec: spec, run: run}
	return nil
}

// Start schedules one named job on its cron spec.
func (r *JobRegistry) Start(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[name]
	if !ok {
		return fmt.Errorf("job %q is not registered", name)
	}
	if j.started {
		return nil
	}

	entryID, err := r.cron.AddFunc(j.spec, func() {
		r.log.Infof("scheduler: trigger fired for job %q", name)
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()
		started := time.Now()
		if err := j.run(ctx); err != nil {
			r.log.Errorf("scheduler: job %q failed after %s: %v", name, time.Since(started).Round(time.Millisecond), err)
			return
		}
		r.log.Infof("scheduler: job %q completed in %s", name, time.Since(started).Round(time.Millisecond))
	})
	if err != nil {
		return fmt.Errorf("could not schedule job %q with spec %q: %w", name, j.spec, err)
	}
	j.entryID = entryID
	j.started = true
	return nil
}

// Stop deactivates one named job. The registration survives, so it can be
// started again.
func (r *JobRegistry) Stop(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[name]
	if !ok {
		return fmt.Errorf("job %q is not registered", name)
	}
	if !j.started {
		return nil
	}
	r.cron.Remove(j.entryID)
	j.started = false
	return nil
}

// StartAll schedules every registered job and starts the cron engine.
func (r *JobRegistry) StartAll() error {
	r.mu.Lock()
	names := make([]string, 0, len(r.jobs))
	for name := range r.jobs {
		names = append(names, name)
	}
	r.mu.Unlock()

	for _, name := range names {
		if err := r.Start(name); err != nil {
			return err
		}
	}
	r.cron.Start()
	r.log.Infof("scheduler: started with %d jobs", len(names))
	return nil
}

// Shutdown stops the engine and waits for running jobs to finish.
func (r *JobRegistry) Shutdown() {
	r.log.Info("scheduler: stopping...")
	ctx := r.cron.Stop()
	<-ctx.Done() // Wait for graceful shutdown
	r.log.Info("scheduler: gracefully stopped")
}
