package application

import "github.com/ericfisherdev/codeflow/internal/domain/model"

// Diff compares two snapshots and returns the change events between them.
// It is pure: no history is consulted, so an item re-appearing after it left a
// list is reported again.
//
// Events are grouped by kind (review requests, then changes requested, then
// approvals); within a kind they follow the order of the current snapshot.
func Diff(previous, current model.Snapshot) []model.ChangeEvent {
	var events []model.ChangeEvent

	for _, pr := range newItems(previous.NeedsReview, current.NeedsReview) {
		events = append(events, model.ChangeEvent{Kind: model.ChangeReviewRequested, Item: pr})
	}

	for _, pr := range newItems(previous.ReturnedToYou, current.ReturnedToYou) {
		events = append(events, model.ChangeEvent{Kind: model.ChangeChangesRequested, Item: pr})
	}

	for _, pr := range newlyDecided(previous.MyPRs, current.MyPRs, model.ReviewDecisionApproved) {
		events = append(events, model.ChangeEvent{Kind: model.ChangeApproved, Item: pr})
	}

	return events
}

// newItems returns the items of newList whose ID does not occur in oldList.
func newItems(oldList, newList []model.PullRequestItem) []model.PullRequestItem {
	oldIDs := make(map[string]struct{}, len(oldList))
	for _, pr := range oldList {
		oldIDs[pr.ID] = struct{}{}
	}

	var added []model.PullRequestItem
	for _, pr := range newList {
		if _, seen := oldIDs[pr.ID]; !seen {
			added = append(added, pr)
		}
	}
	return added
}

// newlyDecided returns the items of newList that were present in oldList with
// a different review decision and now carry decision. Items absent from
// oldList are not transitions and are skipped.
func newlyDecided(oldList, newList []model.PullRequestItem, decision model.ReviewDecision) []model.PullRequestItem {
	oldByID := make(map[string]model.PullRequestItem, len(oldList))
	for _, pr := range oldList {
		oldByID[pr.ID] = pr
	}

	var changed []model.PullRequestItem
	for _, pr := range newList {
		old, ok := oldByID[pr.ID]
		if ok && old.ReviewDecision != decision && pr.ReviewDecision == decision {
			changed = append(changed, pr)
		}
	}
	return changed
}
