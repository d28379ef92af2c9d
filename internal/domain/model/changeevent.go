package model

// ChangeEvent is a single semantically meaningful transition detected between
// two snapshots.
type ChangeEvent struct {
	Kind ChangeKind
	Item PullRequestItem
}
