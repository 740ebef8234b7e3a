package api

import (
	"context"
	"fmt"
	"strings"

	"github.com/nao1215/friendcrawl/internal/model"
)

// Default upstream base URLs.
const (
	DefaultUsersBaseURL   = "https://users.roblox.com/v1"
	DefaultFriendsBaseURL = "https://friends.roblox.com/v1"
)

// Fetcher retrieves one JSON document. *Client implements it.
type Fetcher interface {
	FetchJSON(ctx context.Context, url string, dst any) (bool, error)
}

// Accessor exposes the two upstream lookups the crawler needs.
type Accessor struct {
	fetcher        Fetcher
	usersBaseURL   string
	friendsBaseURL string
}

// AccessorOption configures an Accessor.
type AccessorOption func(*Accessor)

// WithUsersBaseURL overrides the users endpoint base, e.g. "https://users.roblox.com/v1".
func WithUsersBaseURL(u string) AccessorOption {
	return func(a *Accessor) {
		a.usersBaseURL = strings.TrimRight(u, "/")
	}
}

// WithFriendsBaseURL overrides the friends endpoint base.
func WithFriendsBaseURL(u string) AccessorOption {
	return func(a *Accessor) {
		a.friendsBaseURL = strings.TrimRight(u, "/")
	}
}

// NewAccessor creates an Accessor on top of f.
func NewAccessor(f Fetcher, opts ...AccessorOption) *Accessor {
	a := &Accessor{
		fetcher:        f,
		usersBaseURL:   DefaultUsersBaseURL,
		friendsBaseURL: DefaultFriendsBaseURL,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Metadata returns the user's metadata, or nil when the user is absent.
// A null or empty payload counts as absent.
func (a *Accessor) Metadata(ctx context.Context, id model.EntityID) (*model.Metadata, error) {
	var md model.Metadata
	found, err := a.fetcher.FetchJSON(ctx, a.usersURL(id), &md)
	if err != nil {
		return nil, fmt.Errorf("fetch user %s: %w", id, err)
	}
	if !found || md.Empty() {
		return nil, nil
	}
	return &md, nil
}

// friendsResponse is the friends endpoint payload.
type friendsResponse struct {
	Data []model.NeighborRef `json:"data"`
}

// Neighbors returns the user's friends. An absent user and a user without
// friends both yield an empty, non-nil slice.
func (a *Accessor) Neighbors(ctx context.Context, id model.EntityID) ([]model.NeighborRef, error) {
	var resp friendsResponse
	found, err := a.fetcher.FetchJSON(ctx, a.friendsURL(id), &resp)
	if err != nil {
		return nil, fmt.Errorf("fetch friends of %s: %w", id, err)
	}
	if !found || resp.Data == nil {
		return []model.NeighborRef{}, nil
	}
	return resp.Data, nil
}

func (a *Accessor) usersURL(id model.EntityID) string {
	return a.usersBaseURL + "/users/" + id.String()
}

func (a *Accessor) friendsURL(id model.EntityID) string {
	return a.friendsBaseURL + "/users/" + id.String() + "/friends"
}
