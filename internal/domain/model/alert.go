package model

// AlertSeverity controls how prominently an alert is presented.
type AlertSeverity string

const (
	AlertSeverityInfo    AlertSeverity = "info"
	AlertSeverityWarning AlertSeverity = "warning"
)

// AlertAction is the choice a user made on a presented alert.
type AlertAction string

const (
	AlertActionNone          AlertAction = ""
	AlertActionOpenExternal  AlertAction = "open_external"
	AlertActionOpenDashboard AlertAction = "open_dashboard"
)

// Alert is a user-facing notification built from a ChangeEvent.
type Alert struct {
	ID       string
	Kind     ChangeKind
	Severity AlertSeverity
	Message  string
	Item     PullRequestItem
	Actions  []AlertAction
}
