package eventbus

import "time"

// Dispatch event types.
const (
	DispatchStarted      = "dispatch.started"
	DispatchTargetSent   = "dispatch.target.sent"
	DispatchTargetFailed = "dispatch.target.failed"
	DispatchFinished     = "dispatch.finished"
	ConfigReloaded       = "config.reloaded"
)

// Started is the Data of DispatchStarted.
type Started struct {
	ID       string
	Mode     string
	Selected int
	Total    int
}

// TargetResult is the Data of DispatchTargetSent and DispatchTargetFailed.
type TargetResult struct {
	ID      string
	URL     string
	Kind    string
	Sent    int
	Failed  int
	Elapsed time.Duration
	Err     string
}

// Finished is the Data of DispatchFinished.
type Finished struct {
	ID        string
	Outcome   string
	Delivered int
	Failed    int
	Elapsed   time.Duration
}

// Reloaded is the Data of ConfigReloaded.
type Reloaded struct {
	Targets int
	Hash    string
}
