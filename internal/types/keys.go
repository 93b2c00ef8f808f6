package types

// Property keys understood by the factory and runtime. Keys are dot-qualified
// and flattened; components receive their own slice of the namespace via
// prefix extraction.
const (
	PropSchedInstanceName = "schedkit.scheduler.instanceName"

	PropSchedInstanceID = "schedkit.scheduler.instanceId"

	PropSchedInstanceIDGenerator = "schedkit.scheduler.instanceIdGenerator.type"

	PropSchedThreadName = "schedkit.scheduler.threadName"

	PropSchedIdleWaitTime = "schedkit.scheduler.idleWaitTime"

	PropSchedBatchTimeWindow = "schedkit.scheduler.batchTriggerAcquisitionFireAheadTimeWindow"

	PropSchedMaxBatchSize = "schedkit.scheduler.batchTriggerAcquisitionMaxCount"

	PropThreadPoolPrefix = "schedkit.threadPool"

	PropThreadPoolThreadCount = "schedkit.threadPool.threadCount"

	PropJobStorePrefix = "schedkit.jobStore"

	PropJobStoreType = "schedkit.jobStore.type"
)

// Defaults applied when the corresponding key is absent from the resolved
// property set.
const (
	DefaultInstanceName = "SchedkitScheduler"

	DefaultInstanceID = "NON_CLUSTERED"

	DefaultThreadCount = 10
)

// Recognized values for PropSchedInstanceID. Anything else is used verbatim.
const (
	InstanceIDAuto     = "AUTO"
	InstanceIDHostname = "HOSTNAME"
)
