package model

// Labels used in the HasMultipleFriends column of the edge list.
const (
	LabelMultipleFriends = "Multiple Friends"
	LabelSingleOrNone    = "Single/No Friends"
)

// EdgeRow is one row of the tabular edge list fed to community detection.
// Each row carries the friend count of the source user so that downstream
// tools can weight or filter edges without re-reading the graph.
type EdgeRow struct {
	UserID             EntityID
	FriendID           EntityID
	FriendCount        int
	HasMultipleFriends string
}

// FriendCountLabel classifies a user by its number of friends.
func FriendCountLabel(count int) string {
	if count > 1 {
		return LabelMultipleFriends
	}
	return LabelSingleOrNone
}

// Edges converts the graph into one row per (user, friend) pair.
// Users without friends produce no rows. Rows are ordered by user ID and
// then by the friend order recorded for that user, so the output is stable.
func (g Graph) Edges() []EdgeRow {
	rows := make([]EdgeRow, 0, g.EdgeCount())
	for _, id := range g.IDs() {
		entry := g[id]
		count := len(entry.Friends)
		if count == 0 {
			continue
		}
		label := FriendCountLabel(count)
		for _, f := range entry.Friends {
			rows = append(rows, EdgeRow{
				UserID:             id,
				FriendID:           f.ID,
				FriendCount:        count,
				HasMultipleFriends: label,
			})
		}
	}
	return rows
}
