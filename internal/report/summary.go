package report

import (
	"cmp"
	"slices"
	"time"

	"github.com/nao1215/friendcrawl/internal/model"
)

// DefaultTopN is the number of rows shown in ranking tables.
const DefaultTopN = 10

// UserCount pairs a user with a count used for ranking.
type UserCount struct {
	ID    model.EntityID
	Name  string
	Count int
}

// Summary holds the numbers shown by the summary writers.
type Summary struct {
	// HasRun is false when the summary was built from a graph file alone,
	// in which case the run fields are zero.
	HasRun bool

	Seed              model.EntityID
	Status            string
	Steps             int
	BudgetUsed        int
	Visited           int
	FrontierRemaining int
	Elapsed           time.Duration
	Cancelled         bool
	BudgetExhausted   bool
	Error             string

	Users int
	Edges int

	// MultipleFriends and SingleOrNone count users by FriendCountLabel.
	MultipleFriends int
	SingleOrNone    int

	// TopUsers ranks collected users by friend count.
	TopUsers []UserCount

	// TopUncollected ranks friends that were never collected by how many
	// collected users list them. They are the most promising next seeds.
	TopUncollected []UserCount
}

// NewSummary builds a summary of a crawl run.
func NewSummary(report *model.CrawlReport, top int) *Summary {
	s := NewGraphSummary(report.Graph, top)
	s.HasRun = true
	s.Seed = report.Seed
	s.Status = report.Status()
	s.Steps = report.Steps
	s.BudgetUsed = report.BudgetUsed
	s.Visited = report.Visited.Len()
	s.FrontierRemaining = report.FrontierRemaining
	s.Elapsed = report.Elapsed()
	s.Cancelled = report.Cancelled
	s.BudgetExhausted = report.BudgetExhausted
	s.Error = report.ErrorMessage
	return s
}

// NewGraphSummary builds a summary from a graph alone.
func NewGraphSummary(g model.Graph, top int) *Summary {
	if top <= 0 {
		top = DefaultTopN
	}

	s := &Summary{
		Users: g.Len(),
		Edges: g.EdgeCount(),
	}

	users := make([]UserCount, 0, g.Len())
	refs := make(map[model.EntityID]*UserCount)
	for id, entry := range g {
		n := entry.FriendCount()
		if model.FriendCountLabel(n) == model.LabelMultipleFriends {
			s.MultipleFriends++
		} else {
			s.SingleOrNone++
		}
		users = append(users, UserCount{ID: id, Name: entry.UserInfo.Name, Count: n})

		for _, f := range entry.Friends {
			if _, collected := g[f.ID]; collected {
				continue
			}
			uc, ok := refs[f.ID]
			if !ok {
				uc = &UserCount{ID: f.ID, Name: f.Name}
				refs[f.ID] = uc
			}
			uc.Count++
		}
	}

	uncollected := make([]UserCount, 0, len(refs))
	for _, uc := range refs {
		uncollected = append(uncollected, *uc)
	}

	s.TopUsers = topByCount(users, top)
	s.TopUncollected = topByCount(uncollected, top)
	return s
}

// topByCount sorts by count descending, then ID ascending, and keeps n.
func topByCount(list []UserCount, n int) []UserCount {
	slices.SortFunc(list, func(a, b UserCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	if len(list) > n {
		list = list[:n]
	}
	return list
}
