// Package viewmodel defines presentation-ready structs for templ components.
// View models decouple template rendering from domain model types.
package viewmodel

// DashboardViewModel holds everything the dashboard page renders.
type DashboardViewModel struct {
	Sections    []SectionViewModel
	Total       int
	HasData     bool
	LastUpdated string // RFC3339, for the <time> element
	UpdatedAgo  string // "3m ago"
}

// SectionViewModel is one titled list of pull requests.
type SectionViewModel struct {
	Key       string
	Title     string
	EmptyText string
	Items     []PRCardViewModel
}

// PRCardViewModel holds presentation-ready data for one PR row.
type PRCardViewModel struct {
	ID            string
	Number        int
	Repository    string
	TitleHTML     string // sanitized, safe to emit unescaped
	Author        string
	AuthorAvatar  string
	IsDraft       bool
	DecisionLabel string
	DecisionClass string
	Reviewers     []string
	CommentCount  int
	ThreadCount   int
	URL           string
	UpdatedAgo    string
	OpenedAgo     string
}
