package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ericfisherdev/codeflow/internal/domain/model"
	"github.com/ericfisherdev/codeflow/internal/domain/port/driven"
)

// searchPageSize caps each dashboard search. Results beyond it are not paged.
const searchPageSize = 20

const searchQuery = `query($q: String!, $first: Int!) {
	search(query: $q, type: ISSUE, first: $first) {
		issueCount
		nodes {
			... on PullRequest {
				id
				number
				title
				createdAt
				updatedAt
				url
				isDraft
				state
				author {
					login
					avatarUrl
				}
				repository {
					owner {
						login
					}
					name
				}
				reviewDecision
				reviewRequests(first: 10) {
					nodes {
						requestedReviewer {
							... on User {
								login
								avatarUrl
							}
						}
					}
				}
				reviews(first: 10) {
					nodes {
						author {
							login
							avatarUrl
						}
					}
				}
				comments {
					totalCount
				}
				reviewThreads {
					totalCount
				}
			}
		}
	}
}`

// graphqlRequest is the JSON body sent to the GitHub GraphQL API.
type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

type actorNode struct {
	Login     string `json:"login"`
	AvatarURL string `json:"avatarUrl"`
}

type pullRequestNode struct {
	ID         string     `json:"id"`
	Number     int        `json:"number"`
	Title      string     `json:"title"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
	URL        string     `json:"url"`
	IsDraft    bool       `json:"isDraft"`
	State      string     `json:"state"`
	Author     *actorNode `json:"author"`
	Repository struct {
		Owner struct {
			Login string `json:"login"`
		} `json:"owner"`
		Name string `json:"name"`
	} `json:"repository"`
	ReviewDecision *string `json:"reviewDecision"`
	ReviewRequests struct {
		Nodes []struct {
			RequestedReviewer *actorNode `json:"requestedReviewer"`
		} `json:"nodes"`
	} `json:"reviewRequests"`
	Reviews struct {
		Nodes []struct {
			Author *actorNode `json:"author"`
		} `json:"nodes"`
	} `json:"reviews"`
	Comments struct {
		TotalCount int `json:"totalCount"`
	} `json:"comments"`
	ReviewThreads struct {
		TotalCount int `json:"totalCount"`
	} `json:"reviewThreads"`
}

// searchResponse represents the expected shape of a GitHub GraphQL search response.
type searchResponse struct {
	Data struct {
		Search struct {
			IssueCount int               `json:"issueCount"`
			Nodes      []pullRequestNode `json:"nodes"`
		} `json:"search"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// fetchDashboard runs the three dashboard searches concurrently and assembles
// the snapshot. ReturnedToYou is derived from MyPRs rather than searched.
func (c *Client) fetchDashboard(ctx context.Context, login string) (model.Snapshot, error) {
	var needsReview, myPRs, reviewedAwaiting []model.PullRequestItem

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		needsReview, err = c.search(gctx, fmt.Sprintf("type:pr state:open review-requested:%s", login))
		return err
	})
	g.Go(func() (err error) {
		myPRs, err = c.search(gctx, fmt.Sprintf("type:pr state:open author:%s", login))
		return err
	})
	g.Go(func() (err error) {
		reviewedAwaiting, err = c.search(gctx, fmt.Sprintf("type:pr state:open reviewed-by:%s -author:%s", login, login))
		return err
	})
	if err := g.Wait(); err != nil {
		return model.Snapshot{}, err
	}

	var returnedToYou []model.PullRequestItem
	for _, pr := range myPRs {
		if pr.ReviewDecision == model.ReviewDecisionChangesRequested {
			returnedToYou = append(returnedToYou, pr)
		}
	}

	return model.Snapshot{
		NeedsReview:      nonNil(needsReview),
		ReturnedToYou:    nonNil(returnedToYou),
		MyPRs:            nonNil(myPRs),
		ReviewedAwaiting: nonNil(reviewedAwaiting),
		LastUpdated:      c.now().UTC(),
	}, nil
}

// search executes one GraphQL search and maps the pull request nodes.
func (c *Client) search(ctx context.Context, query string) ([]model.PullRequestItem, error) {
	reqBody := graphqlRequest{
		Query: searchQuery,
		Variables: map[string]any{
			"q":     query,
			"first": searchPageSize,
		},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling search request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.graphqlURL, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("creating search request: %w", err)
	}
	httpReq.Header.Set("Authorization", fmt.Sprintf("bearer %s", c.token))
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.graphql.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, fmt.Errorf("search %q: %w", query, driven.ErrNotAuthenticated)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("search %q: HTTP %d", query, resp.StatusCode)
	}

	var gqlResp searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&gqlResp); err != nil {
		return nil, fmt.Errorf("decoding search response for %q: %w", query, err)
	}

	if len(gqlResp.Errors) > 0 {
		return nil, fmt.Errorf("search %q: %s", query, gqlResp.Errors[0].Message)
	}

	result := gqlResp.Data.Search
	if result.IssueCount > len(result.Nodes) {
		slog.Debug("graphql: search truncated",
			"query", query,
			"total", result.IssueCount,
			"returned", len(result.Nodes),
		)
	}

	items := make([]model.PullRequestItem, 0, len(result.Nodes))
	for _, node := range result.Nodes {
		// Non-PullRequest search hits decode as empty nodes.
		if node.ID == "" {
			continue
		}
		items = append(items, mapPullRequestNode(node))
	}
	return items, nil
}

// mapPullRequestNode converts a GraphQL pull request node to a domain item.
func mapPullRequestNode(node pullRequestNode) model.PullRequestItem {
	author := model.Actor{Login: "unknown"}
	if node.Author != nil && node.Author.Login != "" {
		author = model.Actor{Login: node.Author.Login, AvatarURL: node.Author.AvatarURL}
	}

	return model.PullRequestItem{
		ID:     node.ID,
		Number: node.Number,
		Title:  node.Title,
		Author: author,
		Repository: model.RepoRef{
			Owner: node.Repository.Owner.Login,
			Name:  node.Repository.Name,
		},
		State:             mapState(node.State),
		IsDraft:           node.IsDraft,
		CreatedAt:         node.CreatedAt,
		UpdatedAt:         node.UpdatedAt,
		URL:               node.URL,
		ReviewDecision:    mapReviewDecision(node.ReviewDecision),
		Reviewers:         mapReviewers(node),
		CommentCount:      node.Comments.TotalCount,
		ReviewThreadCount: node.ReviewThreads.TotalCount,
	}
}

// mapReviewers prefers pending review requests and falls back to review
// authors. Teams and deleted accounts have no login and are skipped.
func mapReviewers(node pullRequestNode) []model.Actor {
	var candidates []*actorNode
	for _, rr := range node.ReviewRequests.Nodes {
		candidates = append(candidates, rr.RequestedReviewer)
	}
	if len(candidates) == 0 {
		for _, r := range node.Reviews.Nodes {
			candidates = append(candidates, r.Author)
		}
	}

	seen := make(map[string]struct{}, len(candidates))
	reviewers := []model.Actor{}
	for _, a := range candidates {
		if a == nil || a.Login == "" {
			continue
		}
		if _, dup := seen[a.Login]; dup {
			continue
		}
		seen[a.Login] = struct{}{}
		reviewers = append(reviewers, model.Actor{Login: a.Login, AvatarURL: a.AvatarURL})
	}
	return reviewers
}

func mapState(state string) model.PRState {
	switch strings.ToUpper(state) {
	case "MERGED":
		return model.PRStateMerged
	case "CLOSED":
		return model.PRStateClosed
	default:
		return model.PRStateOpen
	}
}

func mapReviewDecision(decision *string) model.ReviewDecision {
	if decision == nil {
		return model.ReviewDecisionNone
	}
	switch *decision {
	case "APPROVED":
		return model.ReviewDecisionApproved
	case "CHANGES_REQUESTED":
		return model.ReviewDecisionChangesRequested
	case "REVIEW_REQUIRED":
		return model.ReviewDecisionReviewRequired
	default:
		return model.ReviewDecisionNone
	}
}

func nonNil(items []model.PullRequestItem) []model.PullRequestItem {
	if items == nil {
		return []model.PullRequestItem{}
	}
	return items
}
