// Package scheduler provides the gocron-backed scheduler runtime. Instances
// are constructed from a resolved property set and bind themselves into the
// registry as part of their own startup.
package scheduler

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/altafino/schedkit/internal/properties"
	"github.com/altafino/schedkit/internal/registry"
	"github.com/altafino/schedkit/internal/types"
)

// StdScheduler is the standard runtime behind the types.Scheduler handle.
type StdScheduler struct {
	name       string
	instanceID string
	scheduler  *gocron.Scheduler
	logger     *slog.Logger
	jobs       map[string]*gocron.Job
	mu         sync.RWMutex
	started    bool
	shutdown   bool
}

// Instantiate builds a scheduler from the resolved property set and binds it
// into reg before returning. On a name collision the fresh instance is
// discarded and the bind error returned; the registered instance stays
// untouched.
func Instantiate(set *properties.Set, reg *registry.Registry, logger *slog.Logger) (types.Scheduler, error) {
	name := set.GetString(types.PropSchedInstanceName, types.DefaultInstanceName)

	id, err := instanceID(set)
	if err != nil {
		return nil, err
	}

	pool := set.Group(types.PropThreadPoolPrefix)
	threadCount := pool.GetInt("threadCount", types.DefaultThreadCount)
	if threadCount <= 0 {
		return nil, &types.SchedulerError{
			Msg: fmt.Sprintf("thread pool thread count must be positive, got %d", threadCount),
		}
	}

	if store := set.GetString(types.PropJobStoreType, "memory"); store != "memory" {
		return nil, &types.SchedulerError{
			Msg: fmt.Sprintf("unsupported job store type %q", store),
		}
	}

	gs := gocron.NewScheduler(time.UTC)
	gs.SetMaxConcurrentJobs(threadCount, gocron.WaitMode)

	sched := &StdScheduler{
		name:       name,
		instanceID: id,
		scheduler:  gs,
		logger:     logger,
		jobs:       make(map[string]*gocron.Job),
	}

	if err := reg.Bind(sched); err != nil {
		return nil, err
	}

	logger.Info("scheduler created",
		"name", name,
		"instance_id", id,
		"thread_count", threadCount,
	)
	return sched, nil
}

// instanceID derives the instance id from configuration. AUTO picks the
// configured generator, anything else is used verbatim.
func instanceID(set *properties.Set) (string, error) {
	id := set.GetString(types.PropSchedInstanceID, types.DefaultInstanceID)
	switch id {
	case types.InstanceIDAuto:
		gen := set.GetString(types.PropSchedInstanceIDGenerator, "uuid")
		return generateInstanceID(gen)
	case types.InstanceIDHostname:
		return generateInstanceID("hostname")
	default:
		return id, nil
	}
}

// Name returns the scheduler's logical name.
func (s *StdScheduler) Name() string { return s.name }

// InstanceID returns this instance's identifier.
func (s *StdScheduler) InstanceID() string { return s.instanceID }

// IsShutdown reports whether Shutdown has been called.
func (s *StdScheduler) IsShutdown() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.shutdown
}

// Start begins firing scheduled jobs. Calling Start on a started or shut-down
// scheduler is a no-op.
func (s *StdScheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started || s.shutdown {
		return
	}
	s.scheduler.StartAsync()
	s.started = true
	s.logger.Info("scheduler started", "name", s.name)
}

// Shutdown permanently stops the scheduler. Idempotent. The registry entry is
// left in place; the factory reclaims the name on the next GetScheduler.
func (s *StdScheduler) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.shutdown {
		return
	}
	s.scheduler.Stop()
	s.shutdown = true
	s.logger.Info("scheduler shut down", "name", s.name)
}

// ScheduleJob schedules or replaces the job named in def. Disabled jobs are
// skipped. The task's error return is logged, not propagated.
func (s *StdScheduler) ScheduleJob(def types.JobDefinition, task func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.shutdown {
		return &types.SchedulerError{Msg: fmt.Sprintf("scheduler %q is shut down", s.name)}
	}

	// Replace any existing job under the same name.
	if job, exists := s.jobs[def.Name]; exists {
		s.scheduler.RemoveByReference(job)
		delete(s.jobs, def.Name)
	}

	if !def.Enabled {
		s.logger.Info("job disabled, not scheduling", "job", def.Name)
		return nil
	}

	var stopAt time.Time
	if def.Schedule.StopAt != "" {
		var err error
		stopAt, err = time.Parse(time.RFC3339, def.Schedule.StopAt)
		if err != nil {
			return fmt.Errorf("invalid stop time for job %q: %w", def.Name, err)
		}
		if stopAt.Before(time.Now().UTC()) {
			s.logger.Warn("skipping job, stop time is in the past",
				"job", def.Name,
				"stop_at", def.Schedule.StopAt,
			)
			return nil
		}
	}

	jobFunc := func() {
		if !stopAt.IsZero() && time.Now().UTC().After(stopAt) {
			s.logger.Info("job reached stop time, removing", "job", def.Name)
			// Detached so an immediate run can't deadlock on the scheduler lock.
			go s.RemoveJob(def.Name)
			return
		}
		s.logger.Info("executing scheduled job", "job", def.Name)
		if err := task(); err != nil {
			s.logger.Error("scheduled job failed",
				"job", def.Name,
				"error", err,
			)
		}
	}

	job := s.scheduler.Every(def.Schedule.FrequencyAmount)

	switch def.Schedule.FrequencyEvery {
	case "minute":
		job = job.Minutes()
	case "hour":
		job = job.Hours()
	case "day":
		job = job.Days()
	case "week":
		job = job.Weeks()
	case "month":
		job = job.Months()
	default:
		return fmt.Errorf("invalid frequency for job %q: %s", def.Name, def.Schedule.FrequencyEvery)
	}

	if def.Schedule.StartAt != "" {
		startTime, err := time.Parse(time.RFC3339, def.Schedule.StartAt)
		if err != nil {
			return fmt.Errorf("invalid start time for job %q: %w", def.Name, err)
		}
		job = job.StartAt(startTime)
	}

	if def.Schedule.StartNow {
		s.logger.Info("running job immediately", "job", def.Name)
		jobFunc()
	}

	scheduledJob, err := job.Do(jobFunc)
	if err != nil {
		return fmt.Errorf("failed to schedule job %q: %w", def.Name, err)
	}
	s.jobs[def.Name] = scheduledJob

	s.logger.Info("job scheduled",
		"job", def.Name,
		"frequency", fmt.Sprintf("every %d %s", def.Schedule.FrequencyAmount, def.Schedule.FrequencyEvery),
		"start_now", def.Schedule.StartNow,
		"start_at", def.Schedule.StartAt,
		"stop_at", def.Schedule.StopAt,
	)
	return nil
}

// RemoveJob unschedules the named job, reporting whether it existed.
func (s *StdScheduler) RemoveJob(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, exists := s.jobs[name]
	if !exists {
		return false
	}
	s.scheduler.RemoveByReference(job)
	delete(s.jobs, name)
	return true
}

// Jobs returns the names of all currently scheduled jobs, sorted.
func (s *StdScheduler) Jobs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.jobs))
	for name := range s.jobs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
