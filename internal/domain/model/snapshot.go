package model

import "time"

// Snapshot is one categorized view of pull request state produced by a single
// poll. Membership in each list is decided at fetch time. A PR may appear in
// more than one list (e.g. both MyPRs and ReturnedToYou).
type Snapshot struct {
	NeedsReview      []PullRequestItem `json:"needsReview"`
	ReturnedToYou    []PullRequestItem `json:"returnedToYou"`
	MyPRs            []PullRequestItem `json:"myPRs"`
	ReviewedAwaiting []PullRequestItem `json:"reviewedAwaiting"`
	LastUpdated      time.Time         `json:"lastUpdated"`
}

// Clone returns a deep copy of the snapshot. Surfaces each receive their own
// clone so that none of them can observe another's mutations.
func (s Snapshot) Clone() Snapshot {
	return Snapshot{
		NeedsReview:      cloneItems(s.NeedsReview),
		ReturnedToYou:    cloneItems(s.ReturnedToYou),
		MyPRs:            cloneItems(s.MyPRs),
		ReviewedAwaiting: cloneItems(s.ReviewedAwaiting),
		LastUpdated:      s.LastUpdated,
	}
}

// Total returns the number of entries across all lists, counting a PR once
// per list it appears in.
func (s Snapshot) Total() int {
	return len(s.NeedsReview) + len(s.ReturnedToYou) + len(s.MyPRs) + len(s.ReviewedAwaiting)
}

func cloneItems(items []PullRequestItem) []PullRequestItem {
	out := make([]PullRequestItem, len(items))
	for i, item := range items {
		out[i] = item.clone()
	}
	return out
}
