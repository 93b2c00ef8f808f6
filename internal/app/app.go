package app

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/altafino/schedkit/internal/factory"
	"github.com/altafino/schedkit/internal/jobs"
	"github.com/altafino/schedkit/internal/properties"
	"github.com/altafino/schedkit/internal/types"
)

// App wires the factory, scheduler and job definitions into the daemon.
type App struct {
	logger    *slog.Logger
	factory   *factory.Factory
	scheduler types.Scheduler
	jobsDir   string
	watcher   *jobs.Watcher
	wg        sync.WaitGroup

	mu   sync.Mutex
	defs []*types.JobDefinition
}

// New creates an application instance. When propsFile is non-empty the
// factory is initialized from that file; otherwise the default resolution
// cascade runs on first use.
func New(logger *slog.Logger, propsFile, jobsDir string) (*App, error) {
	app := &App{
		logger:  logger,
		jobsDir: jobsDir,
	}

	if propsFile != "" {
		f, err := factory.NewFromFile(propsFile, factory.WithLogger(logger))
		if err != nil {
			return nil, fmt.Errorf("failed to initialize factory: %w", err)
		}
		app.factory = f
	} else {
		app.factory = factory.New(
			factory.WithLogger(logger),
			factory.WithResolver(properties.NewResolver(properties.WithLogger(logger))),
		)
	}

	defs, err := jobs.LoadDefinitions(jobsDir, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to load job definitions: %w", err)
	}
	app.defs = defs

	return app, nil
}

// Start resolves configuration, obtains the scheduler handle, schedules all
// enabled jobs and begins watching the jobs directory for changes.
func (a *App) Start() error {
	sched, err := a.factory.GetScheduler()
	if err != nil {
		return fmt.Errorf("failed to get scheduler: %w", err)
	}
	a.scheduler = sched

	a.logger.Info("configuration resolved",
		"source", a.factory.Source(),
		"scheduler", sched.Name(),
		"instance_id", sched.InstanceID(),
	)

	for _, reg := range a.factory.Registry().LookupAll() {
		a.logger.Debug("scheduler registered in process",
			"name", reg.Name(),
			"shutdown", reg.IsShutdown(),
		)
	}

	a.mu.Lock()
	defs := a.defs
	a.mu.Unlock()
	for _, def := range defs {
		if err := a.scheduleJob(def); err != nil {
			return err
		}
	}

	a.scheduler.Start()

	watcher, err := jobs.StartWatcher(a.jobsDir, a.logger)
	if err != nil {
		return fmt.Errorf("failed to start jobs watcher: %w", err)
	}
	a.watcher = watcher

	a.wg.Add(1)
	go a.watchJobs()

	return nil
}

// Stop gracefully stops the watcher and shuts the scheduler down.
func (a *App) Stop() {
	if a.watcher != nil {
		a.watcher.Stop()
	}
	if a.scheduler != nil {
		a.scheduler.Shutdown()
	}
	a.wg.Wait()
}

func (a *App) scheduleJob(def *types.JobDefinition) error {
	if err := a.scheduler.ScheduleJob(*def, jobs.CommandTask(def, a.logger)); err != nil {
		a.logger.Error("failed to schedule job",
			"error", err,
			"job", def.Name,
		)
		return err
	}
	return nil
}

func (a *App) watchJobs() {
	defer a.wg.Done()

	for range a.watcher.ReloadChan() {
		a.logger.Info("reloading job definitions")

		newDefs, err := jobs.LoadDefinitions(a.jobsDir, a.logger)
		if err != nil {
			a.logger.Error("failed to reload job definitions", "error", err)
			continue
		}

		a.mu.Lock()
		oldDefs := a.defs
		a.defs = newDefs
		a.mu.Unlock()

		// Unschedule jobs that disappeared from the directory
		current := make(map[string]bool, len(newDefs))
		for _, def := range newDefs {
			current[def.Name] = true
		}
		for _, def := range oldDefs {
			if !current[def.Name] && a.scheduler.RemoveJob(def.Name) {
				a.logger.Info("removed job no longer defined", "job", def.Name)
			}
		}

		for _, def := range newDefs {
			if err := a.scheduleJob(def); err != nil {
				a.logger.Error("failed to update job",
					"job", def.Name,
					"error", err,
				)
			}
		}
	}
}
