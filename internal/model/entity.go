package model

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// EntityID identifies a user in the remote system.
// IDs are densely but not contiguously populated; some IDs are invalid
// or deleted and produce no metadata.
type EntityID uint64

// String returns the decimal representation used for map keys and URLs.
func (id EntityID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// ParseEntityID parses the decimal representation of an EntityID.
func ParseEntityID(s string) (EntityID, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid entity id %q: %w", s, err)
	}
	return EntityID(v), nil
}

// Metadata is the payload returned by the lookup endpoint for an existing user.
//
// Only the fields the crawler reasons about are decoded. The full payload is
// kept in raw so that the serialized graph is lossless: fields the remote
// system adds later still reach the output file.
type Metadata struct {
	// ID is the user's identifier as reported by the remote system.
	ID EntityID `json:"id"`

	// Name is the unique account name.
	Name string `json:"name"`

	// DisplayName is the user-chosen display name.
	DisplayName string `json:"displayName,omitempty"`

	// IsBanned marks inactive or banned accounts. Banned users are never
	// selected as a crawl seed.
	IsBanned bool `json:"isBanned"`

	// raw is the undecoded payload, re-emitted verbatim by MarshalJSON.
	raw json.RawMessage
}

// metadataFields avoids recursion into Metadata's own (Un)MarshalJSON.
type metadataFields struct {
	ID          EntityID `json:"id"`
	Name        string   `json:"name"`
	DisplayName string   `json:"displayName,omitempty"`
	IsBanned    bool     `json:"isBanned"`
}

// UnmarshalJSON decodes the known fields and keeps the raw payload.
func (m *Metadata) UnmarshalJSON(data []byte) error {
	var f metadataFields
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	m.ID = f.ID
	m.Name = f.Name
	m.DisplayName = f.DisplayName
	m.IsBanned = f.IsBanned
	m.raw = append(json.RawMessage(nil), data...)
	return nil
}

// MarshalJSON emits the original payload when one was decoded, otherwise
// the known fields.
func (m Metadata) MarshalJSON() ([]byte, error) {
	if len(m.raw) > 0 {
		return m.raw, nil
	}
	return json.Marshal(metadataFields{
		ID:          m.ID,
		Name:        m.Name,
		DisplayName: m.DisplayName,
		IsBanned:    m.IsBanned,
	})
}

// Empty reports whether the decoded payload was null or an object without
// fields. The remote system answers some invalid IDs that way.
func (m Metadata) Empty() bool {
	if len(m.raw) == 0 {
		return false
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(m.raw, &fields); err != nil {
		return false
	}
	return len(fields) == 0
}

// Raw returns the undecoded payload, or nil for metadata built in code.
func (m Metadata) Raw() json.RawMessage {
	return m.raw
}

// NeighborRef is the minimal identity of a related user as returned inline
// by the neighbor-list endpoint. No separate fetch is needed to learn it.
type NeighborRef struct {
	ID          EntityID `json:"id"`
	Name        string   `json:"name"`
	DisplayName string   `json:"displayName,omitempty"`
}

// Entry is what the crawler records for one visited user.
type Entry struct {
	// UserInfo is the user's metadata.
	UserInfo Metadata `json:"user_info"`

	// Friends is the user's neighbor list in the order the API returned it.
	// Always serialized as an array, never null.
	Friends []NeighborRef `json:"friends"`
}

// MarshalJSON guarantees that Friends is written as [] rather than null.
func (e Entry) MarshalJSON() ([]byte, error) {
	type plain Entry
	p := plain(e)
	if p.Friends == nil {
		p.Friends = []NeighborRef{}
	}
	return json.Marshal(p)
}

// FriendCount returns the number of neighbors recorded for the entry.
func (e Entry) FriendCount() int {
	return len(e.Friends)
}
