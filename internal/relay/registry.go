// Package relay implements channel membership and best-effort fan-out of opaque payloads.
package relay

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Errors returned by the relay and its endpoints.
var (
	ErrChannelUnavailable = errors.New("channel unavailable")
	ErrEndpointClosed     = errors.New("endpoint closed")
	ErrQueueFull          = errors.New("endpoint send queue full")
	ErrAlreadyMember      = errors.New("endpoint already connected to a channel")
)

// Role describes what an endpoint may do on its channel.
type Role uint8

const (
	// RoleSend endpoints only originate payloads.
	RoleSend Role = 1 << iota
	// RoleReceive endpoints only get payloads from others.
	RoleReceive
	// RoleBoth endpoints send and receive (symmetric topology).
	RoleBoth = RoleSend | RoleReceive
)

// CanSend reports whether the role may originate payloads.
func (r Role) CanSend() bool { return r&RoleSend != 0 }

// CanReceive reports whether the role gets broadcasts.
func (r Role) CanReceive() bool { return r&RoleReceive != 0 }

// String returns the string representation of the role.
func (r Role) String() string {
	switch r {
	case RoleSend:
		return "send"
	case RoleReceive:
		return "receive"
	case RoleBoth:
		return "both"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", r)
	}
}

type member struct {
	endpoint Endpoint
	role     Role
}

// Channel is the member set of one logical channel.
// Thread-safe for concurrent access.
type Channel struct {
	id      string
	mu      sync.RWMutex
	members map[string]member
}

func newChannel(id string) *Channel {
	return &Channel{
		id:      id,
		members: make(map[string]member),
	}
}

// ID returns the channel identifier.
func (c *Channel) ID() string {
	return c.id
}

// Len returns the number of current members.
func (c *Channel) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.members)
}

// Members returns the ids of current members in sorted order.
func (c *Channel) Members() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ids := make([]string, 0, len(c.members))
	for id := range c.members {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (c *Channel) add(ep Endpoint, role Role) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.members[ep.ID()]; ok {
		return false
	}
	c.members[ep.ID()] = member{endpoint: ep, role: role}
	return true
}

// remove deletes a member and returns it; ok is false if it was already gone.
func (c *Channel) remove(endpointId string) (member, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	m, ok := c.members[endpointId]
	if ok {
		delete(c.members, endpointId)
	}
	return m, ok
}

// receivers snapshots receive-capable members other than exclude.
func (c *Channel) receivers(exclude string) []member {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]member, 0, len(c.members))
	for id, m := range c.members {
		if id == exclude || !m.role.CanReceive() {
			continue
		}
		out = append(out, m)
	}
	return out
}

// Registry tracks the member sets of every known channel.
// Channel identifiers are fixed at construction; member sets are created lazily.
type Registry struct {
	mu       sync.RWMutex
	known    map[string]struct{}
	channels map[string]*Channel
	// endpoint id -> channel id, enforcing one channel per endpoint
	owners map[string]string
}

// NewRegistry creates a registry that accepts the given channel identifiers.
func NewRegistry(channelIds ...string) *Registry {
	known := make(map[string]struct{}, len(channelIds))
	for _, id := range channelIds {
		known[id] = struct{}{}
	}
	return &Registry{
		known:    known,
		channels: make(map[string]*Channel),
		owners:   make(map[string]string),
	}
}

// Known reports whether channelId is a recognized channel identifier.
func (r *Registry) Known(channelId string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.known[channelId]
	return ok
}

// Lookup returns the existing member set for channelId, if any.
func (r *Registry) Lookup(channelId string) (*Channel, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ch, ok := r.channels[channelId]
	return ch, ok
}

// Add registers ep as a member of channelId, creating the member set if needed.
// It reports false without error when ep is already a member of channelId.
func (r *Registry) Add(channelId string, ep Endpoint, role Role) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.known[channelId]; !ok {
		return false, fmt.Errorf("%w: %q", ErrChannelUnavailable, channelId)
	}
	if owner, ok := r.owners[ep.ID()]; ok {
		if owner == channelId {
			return false, nil
		}
		return false, fmt.Errorf("%w: %s is in %q", ErrAlreadyMember, ep.ID(), owner)
	}
	ch, ok := r.channels[channelId]
	if !ok {
		ch = newChannel(channelId)
		r.channels[channelId] = ch
	}
	ch.add(ep, role)
	r.owners[ep.ID()] = channelId
	return true, nil
}

// Remove drops endpointId from channelId. It reports whether a member was removed.
func (r *Registry) Remove(channelId, endpointId string) (Endpoint, Role, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ch, ok := r.channels[channelId]
	if !ok {
		return nil, 0, false
	}
	m, ok := ch.remove(endpointId)
	if !ok {
		return nil, 0, false
	}
	if r.owners[endpointId] == channelId {
		delete(r.owners, endpointId)
	}
	return m.endpoint, m.role, true
}

// Prune drops member sets that have no members and returns how many were removed.
func (r *Registry) Prune() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, ch := range r.channels {
		if ch.Len() == 0 {
			delete(r.channels, id)
			n++
		}
	}
	return n
}

// Stats returns the member count per live channel.
func (r *Registry) Stats() map[string]int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]int, len(r.channels))
	for id, ch := range r.channels {
		out[id] = ch.Len()
	}
	return out
}
