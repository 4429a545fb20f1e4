package council

// State is a member's lifecycle state as recorded in status.json.
type State string

const (
	StateQueued     State = "queued"
	StateRunning    State = "running"
	StateDone       State = "done"
	StateError      State = "error"
	StateMissingCLI State = "missing_cli"
	StateTimedOut   State = "timed_out"
	StateCanceled   State = "canceled"
)

// Terminal reports whether no further transition can follow s.
func (s State) Terminal() bool {
	switch s {
	case StateDone, StateError, StateMissingCLI, StateTimedOut, StateCanceled:
		return true
	}
	return false
}

// StatusRecord is the content of members/<slug>/status.json.
type StatusRecord struct {
	Member     string  `json:"member"`
	State      State   `json:"state"`
	QueuedAt   string  `json:"queuedAt,omitempty"`
	StartedAt  string  `json:"startedAt,omitempty"`
	FinishedAt string  `json:"finishedAt,omitempty"`
	Command    string  `json:"command"`
	PID        *int    `json:"pid"`
	ExitCode   *int    `json:"exitCode"`
	Signal     *string `json:"signal"`
	Message    *string `json:"message"`
}

// Member is one resolved participant of a job.
type Member struct {
	Name    string  `json:"name"`
	Command string  `json:"command"`
	Emoji   *string `json:"emoji"`
	Color   *string `json:"color"`
}

// JobSettings are the effective settings snapshotted at dispatch time.
type JobSettings struct {
	ExcludeChairmanFromMembers bool `json:"excludeChairmanFromMembers"`
	TimeoutSec                 *int `json:"timeoutSec"`
}

// JobMeta is the content of job.json. It is written once by Dispatch.
type JobMeta struct {
	ID           string      `json:"id"`
	CreatedAt    string      `json:"createdAt"`
	ConfigPath   string      `json:"configPath"`
	HostRole     string      `json:"hostRole"`
	ChairmanRole string      `json:"chairmanRole"`
	PromptHash   string      `json:"promptHash,omitempty"`
	Settings     JobSettings `json:"settings"`
	Members      []Member    `json:"members"`
}

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }
