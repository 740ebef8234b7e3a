package crawler

import (
	"context"
	"sync"
	"testing"

	"github.com/nao1215/friendcrawl/internal/model"
)

// fakeUser is one user in an in-memory friend graph.
type fakeUser struct {
	banned  bool
	friends []model.EntityID
}

// fakeAccessor serves an in-memory friend graph and counts fetches.
type fakeAccessor struct {
	mu            sync.Mutex
	users         map[model.EntityID]fakeUser
	metadataCalls map[model.EntityID]int
	neighborCalls map[model.EntityID]int
	failOn        map[model.EntityID]error

	// beforeMetadata runs before the context check of a Metadata call.
	beforeMetadata func(id model.EntityID)
	// afterNeighbors runs after a successful Neighbors call.
	afterNeighbors func(id model.EntityID)
}

func newFakeAccessor(users map[model.EntityID]fakeUser) *fakeAccessor {
	return &fakeAccessor{
		users:         users,
		metadataCalls: make(map[model.EntityID]int),
		neighborCalls: make(map[model.EntityID]int),
		failOn:        make(map[model.EntityID]error),
	}
}

func (f *fakeAccessor) Metadata(ctx context.Context, id model.EntityID) (*model.Metadata, error) {
	if f.beforeMetadata != nil {
		f.beforeMetadata(id)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.metadataCalls[id]++
	if err, ok := f.failOn[id]; ok {
		return nil, err
	}
	u, ok := f.users[id]
	if !ok {
		return nil, nil
	}
	return &model.Metadata{ID: id, Name: "user" + id.String(), IsBanned: u.banned}, nil
}

func (f *fakeAccessor) Neighbors(ctx context.Context, id model.EntityID) ([]model.NeighborRef, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f.mu.Lock()
	f.neighborCalls[id]++
	u := f.users[id]
	refs := make([]model.NeighborRef, 0, len(u.friends))
	for _, fid := range u.friends {
		refs = append(refs, model.NeighborRef{ID: fid, Name: "user" + fid.String()})
	}
	f.mu.Unlock()

	if f.afterNeighbors != nil {
		f.afterNeighbors(id)
	}
	return refs, nil
}

// maxMetadataCalls returns the highest fetch count for any single ID.
func (f *fakeAccessor) maxMetadataCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	highest := 0
	for _, n := range f.metadataCalls {
		highest = max(highest, n)
	}
	return highest
}

// metadataCallCount returns the fetch count for id.
func (f *fakeAccessor) metadataCallCount(id model.EntityID) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.metadataCalls[id]
}

// scenarioA is the graph 1->{2,3}, 2->{1}, 3->{}.
func scenarioA() map[model.EntityID]fakeUser {
	return map[model.EntityID]fakeUser{
		1: {friends: []model.EntityID{2, 3}},
		2: {friends: []model.EntityID{1}},
		3: {},
	}
}

// chainGraph links every user i in [1, n] to i+1, i+2 and i-1.
func chainGraph(n int) map[model.EntityID]fakeUser {
	users := make(map[model.EntityID]fakeUser, n)
	for i := 1; i <= n; i++ {
		var friends []model.EntityID
		for _, j := range []int{i + 1, i + 2, i - 1} {
			if j >= 1 && j <= n {
				friends = append(friends, model.EntityID(j))
			}
		}
		users[model.EntityID(i)] = fakeUser{friends: friends}
	}
	return users
}

// assertGraphInvariants checks that every graph key was visited.
func assertGraphInvariants(t testing.TB, r *model.CrawlReport) {
	t.Helper()

	if r.Visited.Len() < r.Graph.Len() {
		t.Errorf("visited (%d) smaller than graph (%d)", r.Visited.Len(), r.Graph.Len())
	}
	for id := range r.Graph {
		if !r.Visited.Has(id) {
			t.Errorf("graph key %s not in visited set", id)
		}
	}
}
