package model

// PRState represents the lifecycle state of a pull request.
type PRState string

const (
	PRStateOpen   PRState = "open"
	PRStateClosed PRState = "closed"
	PRStateMerged PRState = "merged"
)

// ReviewDecision represents GitHub's aggregate review decision for a pull request.
type ReviewDecision string

const (
	ReviewDecisionApproved         ReviewDecision = "approved"
	ReviewDecisionChangesRequested ReviewDecision = "changes_requested"
	ReviewDecisionReviewRequired   ReviewDecision = "review_required"
	ReviewDecisionNone             ReviewDecision = "none"
)

// ChangeKind identifies the kind of transition detected between two snapshots.
type ChangeKind string

const (
	ChangeReviewRequested  ChangeKind = "review_requested"
	ChangeChangesRequested ChangeKind = "changes_requested"
	ChangeApproved         ChangeKind = "approved"
)
