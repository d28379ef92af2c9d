package model

import "time"

// Actor is a GitHub user as shown on the dashboard.
type Actor struct {
	Login     string `json:"login"`
	AvatarURL string `json:"avatarUrl"`
}

// RepoRef identifies the repository that owns a pull request.
type RepoRef struct {
	Owner string `json:"owner"`
	Name  string `json:"name"`
}

// FullName returns the "owner/name" form of the repository.
func (r RepoRef) FullName() string {
	return r.Owner + "/" + r.Name
}

// PullRequestItem is one observed pull request within a Snapshot. ID is the
// GraphQL node ID: unique within a list and stable across polls, so it is the
// key the diff engine compares on.
type PullRequestItem struct {
	ID                string         `json:"id"`
	Number            int            `json:"number"`
	Title             string         `json:"title"`
	Author            Actor          `json:"author"`
	Repository        RepoRef        `json:"repository"`
	State             PRState        `json:"state"`
	IsDraft           bool           `json:"isDraft"`
	CreatedAt         time.Time      `json:"createdAt"`
	UpdatedAt         time.Time      `json:"updatedAt"`
	URL               string         `json:"url"`
	ReviewDecision    ReviewDecision `json:"reviewDecision"`
	Reviewers         []Actor        `json:"reviewers"`
	CommentCount      int            `json:"commentCount"`
	ReviewThreadCount int            `json:"reviewThreadCount"`
}

// clone returns a copy of the item that shares no slices with the receiver.
func (pr PullRequestItem) clone() PullRequestItem {
	if pr.Reviewers != nil {
		pr.Reviewers = append([]Actor(nil), pr.Reviewers...)
	}
	return pr
}
