package web

import (
	"fmt"
	"time"

	vm "github.com/ericfisherdev/codeflow/internal/adapter/driving/web/viewmodel"
	"github.com/ericfisherdev/codeflow/internal/domain/model"
)

// toDashboardViewModel converts the latest snapshot into the dashboard view
// model. ok is false before the first successful poll.
func toDashboardViewModel(snapshot model.Snapshot, ok bool, now time.Time) vm.DashboardViewModel {
	if !ok {
		return vm.DashboardViewModel{Sections: emptySections()}
	}

	return vm.DashboardViewModel{
		Sections: []vm.SectionViewModel{
			toSection("needs-review", "Needs your review", "Nothing is waiting on you.", snapshot.NeedsReview, now),
			toSection("returned", "Returned to you", "No changes requested.", snapshot.ReturnedToYou, now),
			toSection("mine", "Your pull requests", "You have no open pull requests.", snapshot.MyPRs, now),
			toSection("reviewed", "Reviewed, awaiting others", "Nothing you reviewed is still open.", snapshot.ReviewedAwaiting, now),
		},
		Total:       snapshot.Total(),
		HasData:     true,
		LastUpdated: snapshot.LastUpdated.UTC().Format(time.RFC3339),
		UpdatedAgo:  relativeTime(snapshot.LastUpdated, now),
	}
}

func emptySections() []vm.SectionViewModel {
	return []vm.SectionViewModel{
		{Key: "needs-review", Title: "Needs your review"},
		{Key: "returned", Title: "Returned to you"},
		{Key: "mine", Title: "Your pull requests"},
		{Key: "reviewed", Title: "Reviewed, awaiting others"},
	}
}

func toSection(key, title, emptyText string, items []model.PullRequestItem, now time.Time) vm.SectionViewModel {
	cards := make([]vm.PRCardViewModel, 0, len(items))
	for _, pr := range items {
		cards = append(cards, toPRCardViewModel(pr, now))
	}
	return vm.SectionViewModel{Key: key, Title: title, EmptyText: emptyText, Items: cards}
}

// toPRCardViewModel converts a single domain item to a PRCardViewModel.
func toPRCardViewModel(pr model.PullRequestItem, now time.Time) vm.PRCardViewModel {
	reviewers := make([]string, 0, len(pr.Reviewers))
	for _, r := range pr.Reviewers {
		reviewers = append(reviewers, r.Login)
	}

	label, class := decisionBadge(pr.ReviewDecision)

	return vm.PRCardViewModel{
		ID:            pr.ID,
		Number:        pr.Number,
		Repository:    pr.Repository.FullName(),
		TitleHTML:     RenderTitle(pr.Title),
		Author:        pr.Author.Login,
		AuthorAvatar:  pr.Author.AvatarURL,
		IsDraft:       pr.IsDraft,
		DecisionLabel: label,
		DecisionClass: class,
		Reviewers:     reviewers,
		CommentCount:  pr.CommentCount,
		ThreadCount:   pr.ReviewThreadCount,
		URL:           pr.URL,
		UpdatedAgo:    relativeTime(pr.UpdatedAt, now),
		OpenedAgo:     relativeTime(pr.CreatedAt, now),
	}
}

func decisionBadge(d model.ReviewDecision) (label, class string) {
	switch d {
	case model.ReviewDecisionApproved:
		return "Approved", "badge-approved"
	case model.ReviewDecisionChangesRequested:
		return "Changes requested", "badge-changes"
	case model.ReviewDecisionReviewRequired:
		return "Review required", "badge-pending"
	default:
		return "", ""
	}
}

// relativeTime formats the distance between t and now in the coarsest
// sensible unit.
func relativeTime(t, now time.Time) string {
	if t.IsZero() {
		return ""
	}

	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}
