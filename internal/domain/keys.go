package domain

// Node configuration keys.
const (
	KeyFriendlyID    = "devfid"
	KeyUniqueID      = "hwuid"
	KeySocketPort    = "socport"
	KeyTimerIRQ      = "timirq"
	KeyTimerPeriod   = "timirqseq"
	KeyTimerCallback = "timirqcbf"
	KeyCron          = "cron"
	KeyCronTasks     = "crontasks"
	KeyEventIRQ      = "extirq"
	KeyEventCallback = "extirqcbf"
	KeyIRQBuffer     = "irqmembuf"
	KeyIRQMemReq     = "irqmreq"
	KeyVersion       = "version"
	KeyNetworkMode   = "nwmd"
	KeyDeviceIP      = "devip"
)
