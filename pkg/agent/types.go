package agent

import (
	"time"

	"github.com/goliatone/go-marketinsight/pkg/insights"
)

// Impact grades the projected effect of an intervention.
type Impact string

const (
	ImpactHigh   Impact = "high"
	ImpactMedium Impact = "medium"
	ImpactLow    Impact = "low"
)

// Status is the lifecycle state of an intervention.
type Status string

const (
	StatusPending   Status = "pending"
	StatusExecuting Status = "executing"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Terminal reports whether no further transition is possible.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Intervention is an action the agent proposes and the user approves.
type Intervention struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Impact      Impact `json:"impact"`
	Channel     string `json:"channel"`
	Status      Status `json:"status"`
}

// LogKind classifies activity log lines.
type LogKind string

const (
	LogAnalysis LogKind = "analysis"
	LogSuccess  LogKind = "success"
	LogAlert    LogKind = "alert"
	LogAction   LogKind = "action"
)

// LogEntry is one append-only activity line.
type LogEntry struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Kind      LogKind   `json:"type"`
	Message   string    `json:"message"`
}

// State is a copy of the workflow at a point in time.
type State struct {
	Goal          string              `json:"goal"`
	Interventions []Intervention      `json:"interventions"`
	Logs          []LogEntry          `json:"logs"`
	Thinking      bool                `json:"thinking"`
	Strategy      *insights.Narrative `json:"strategy,omitempty"`
}

// Intervention returns the intervention with id from the state copy.
func (s State) Intervention(id string) (Intervention, bool) {
	for _, item := range s.Interventions {
		if item.ID == id {
			return item, true
		}
	}
	return Intervention{}, false
}

// ChangeKind names what a Change reports.
type ChangeKind string

const (
	ChangeStatus    ChangeKind = "status"
	ChangeReasoning ChangeKind = "reasoning"
	ChangeStrategy  ChangeKind = "strategy"
)

// Change describes a single transition together with the log line it appended.
type Change struct {
	Kind           ChangeKind `json:"kind"`
	InterventionID string     `json:"intervention_id,omitempty"`
	Status         Status     `json:"status,omitempty"`
	Log            LogEntry   `json:"log"`
}

// Listener observes workflow changes. Changes arrive in log order.
// Implementations must not call Approve or Reason from Change.
type Listener interface {
	Change(Change)
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(Change)

// Change implements Listener.
func (f ListenerFunc) Change(c Change) { f(c) }

type noopListener struct{}

func (noopListener) Change(Change) {}

// DefaultGoal is the goal handed to deep reasoning when none is configured.
const DefaultGoal = "Optimize for 20% ROAS increase across all channels while maintaining spend."

// DefaultInterventions returns the interventions a fresh workflow proposes.
func DefaultInterventions() []Intervention {
	return []Intervention{
		{
			ID:          "i1",
			Title:       "Creative Swap",
			Description: "Replace low-performing video in Facebook Ads with static carousel based on current sentiment.",
			Impact:      ImpactHigh,
			Channel:     "Facebook",
			Status:      StatusPending,
		},
		{
			ID:          "i2",
			Title:       "Bid Adjustment",
			Description: "Increase Google Search bids for \"marketing automation\" by 12% to capture rising evening intent.",
			Impact:      ImpactMedium,
			Channel:     "Google",
			Status:      StatusPending,
		},
	}
}

// initialLogs returns the boot lines, timestamped on the day of now.
func initialLogs(now time.Time) []LogEntry {
	at := func(h, m, s int) time.Time {
		return time.Date(now.Year(), now.Month(), now.Day(), h, m, s, 0, now.Location())
	}
	return []LogEntry{
		{ID: "1", Timestamp: at(10, 0, 1), Kind: LogAnalysis, Message: "Initialized global market scan..."},
		{ID: "2", Timestamp: at(10, 0, 5), Kind: LogSuccess, Message: "Neural link established with Google Ads API."},
		{ID: "3", Timestamp: at(10, 5, 12), Kind: LogAlert, Message: "Detected 14% ROAS volatility in Facebook campaign \"Summer Alpha\"."},
	}
}
