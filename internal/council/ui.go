package council

// Step statuses understood by both agent hosts.
const (
	StepPending    = "pending"
	StepInProgress = "in_progress"
	StepCompleted  = "completed"
)

const (
	stepDispatch   = "[Council] Prompt dispatch"
	stepSynthesize = "[Council] Synthesize"
)

type UIProgress struct {
	Done         int   `json:"done"`
	Total        int   `json:"total"`
	OverallState State `json:"overallState"`
}

type PlanStep struct {
	Step   string `json:"step"`
	Status string `json:"status"`
}

type TodoItem struct {
	Content    string `json:"content"`
	Status     string `json:"status"`
	ActiveForm string `json:"activeForm"`
}

// UIPayload mirrors job progress into the plan/todo shapes agent hosts
// render natively.
type UIPayload struct {
	Progress UIProgress `json:"progress"`
	Codex    struct {
		UpdatePlan struct {
			Plan []PlanStep `json:"plan"`
		} `json:"update_plan"`
	} `json:"codex"`
	Claude struct {
		TodoWrite struct {
			Todos []TodoItem `json:"todos"`
		} `json:"todo_write"`
	} `json:"claude"`
}

// BuildUI derives the progress checklist for a status payload. At most one
// member step is in progress at a time; synthesis becomes active once every
// member is terminal.
func BuildUI(payload *StatusPayload) UIPayload {
	isDone := payload.OverallState == StateDone

	dispatch := StepCompleted
	if !isDone && payload.Counts.Queued > 0 {
		dispatch = StepInProgress
	}
	hasInProgress := dispatch == StepInProgress

	type memberStep struct{ label, status string }
	steps := make([]memberStep, 0, len(payload.Members))
	for _, m := range payload.Members {
		if m.Member == "" {
			continue
		}
		status := StepPending
		switch {
		case m.State.Terminal():
			status = StepCompleted
		case !hasInProgress && m.State == StateRunning:
			status = StepInProgress
			hasInProgress = true
		}
		steps = append(steps, memberStep{label: "[Council] Ask " + m.Member, status: status})
	}

	synth := StepPending
	if isDone && !hasInProgress {
		synth = StepInProgress
	}

	var ui UIPayload
	ui.Progress = UIProgress{
		Done:         payload.Counts.TerminalCount(),
		Total:        payload.Counts.Total,
		OverallState: payload.OverallState,
	}

	plan := []PlanStep{{Step: stepDispatch, Status: dispatch}}
	todos := []TodoItem{{Content: stepDispatch, Status: dispatch, ActiveForm: dispatchActiveForm(dispatch)}}
	for _, s := range steps {
		plan = append(plan, PlanStep{Step: s.label, Status: s.status})
		form := "Awaiting response"
		if s.status == StepCompleted {
			form = "Finished"
		}
		todos = append(todos, TodoItem{Content: s.label, Status: s.status, ActiveForm: form})
	}
	plan = append(plan, PlanStep{Step: stepSynthesize, Status: synth})
	todos = append(todos, TodoItem{Content: stepSynthesize, Status: synth, ActiveForm: synthActiveForm(synth)})

	ui.Codex.UpdatePlan.Plan = plan
	ui.Claude.TodoWrite.Todos = todos
	return ui
}

func dispatchActiveForm(status string) string {
	if status == StepCompleted {
		return "Dispatched council prompts"
	}
	return "Dispatching council prompts"
}

func synthActiveForm(status string) string {
	switch status {
	case StepCompleted:
		return "Council results ready"
	case StepInProgress:
		return "Ready to synthesize"
	}
	return "Waiting to synthesize"
}
