package types

// Scheduler is the handle contract the factory and registry operate on. The
// concrete runtime lives in internal/scheduler; everything here only needs a
// logical name and a liveness flag, plus the job surface the daemon drives.
type Scheduler interface {
	// Name returns the scheduler's logical name, unique within the process
	// while the instance is registered.
	Name() string

	// InstanceID identifies this particular instance (relevant when several
	// processes share one logical name).
	InstanceID() string

	// IsShutdown reports whether the scheduler has been permanently stopped.
	// A shut-down scheduler occupying a registry slot is eligible for
	// replacement by the factory.
	IsShutdown() bool

	Start()
	Shutdown()

	ScheduleJob(def JobDefinition, task func() error) error
	RemoveJob(name string) bool
	Jobs() []string
}
