package push

import (
	"context"
	"log"
	"sync"

	"supportdesk/internal/role"
)

// SnapshotFunc supplies the catch-up events replayed to a channel right
// after registration (e.g. currently-active announcements). The replay is
// best-effort and not transactionally consistent with live broadcasts: an
// event firing between snapshot read and replay completion may be delivered
// twice. Consumers must tolerate that.
type SnapshotFunc func(r role.Role, subscriberID string) []Event

// Registry partitions push channels by role and fans events out to them.
// It is the sole owner and mutator of the partition tables; callers interact
// only through the operations below. Every delivery primitive tries once and
// prunes the channel on failure — a silently dead subscriber just stops
// receiving events until it reconnects.
type Registry struct {
	mu         sync.RWMutex
	partitions map[role.Role]map[string]Channel

	snapshot SnapshotFunc
	metrics  *metrics
}

// NewRegistry returns an empty registry. snapshot may be nil to disable the
// catch-up replay on registration.
func NewRegistry(snapshot SnapshotFunc) *Registry {
	parts := make(map[role.Role]map[string]Channel, len(role.Roles()))
	for _, r := range role.Roles() {
		parts[r] = make(map[string]Channel)
	}
	return &Registry{
		partitions: parts,
		snapshot:   snapshot,
		metrics:    newMetrics(),
	}
}

// Register files ch under the subscriber's role partition, overwriting and
// closing any previous channel for the same subscriber (last-writer-wins; a
// reconnecting subscriber displaces its stale connection). After filing, the
// catch-up snapshot is replayed to the new channel, best-effort.
func (g *Registry) Register(r role.Role, subscriberID string, ch Channel) {
	g.mu.Lock()
	part, ok := g.partitions[r]
	if !ok {
		g.mu.Unlock()
		log.Printf("push: register dropped for unknown role %q", r)
		ch.Close()
		return
	}
	prev := part[subscriberID]
	part[subscriberID] = ch
	g.mu.Unlock()

	if prev != nil {
		prev.Close()
	}
	if g.snapshot == nil {
		return
	}
	for _, ev := range g.snapshot(r, subscriberID) {
		if err := ch.Send(ev); err != nil {
			log.Printf("push: catch-up send to %s/%s failed: %v", r, subscriberID, err)
			g.prune(r, subscriberID, ch)
			return
		}
	}
}

// Unregister removes the subscriber's channel. Idempotent: completion,
// timeout, and error signals from the transport all converge here, and a
// second call is a no-op. Removal takes effect for every subsequent
// broadcast, unicast, and heartbeat pass; an in-flight send already handed
// to the transport is not interrupted.
func (g *Registry) Unregister(r role.Role, subscriberID string) {
	g.mu.Lock()
	part := g.partitions[r]
	ch, ok := part[subscriberID]
	if ok {
		delete(part, subscriberID)
	}
	g.mu.Unlock()
	if ok {
		ch.Close()
	}
}

// Unicast delivers the event to the single channel registered for the
// subscriber, if any. On delivery failure the channel is pruned and the
// event is dropped; the caller always returns normally.
func (g *Registry) Unicast(ctx context.Context, r role.Role, subscriberID string, ev Event) {
	g.mu.RLock()
	ch, ok := g.partitions[r][subscriberID]
	g.mu.RUnlock()
	if !ok {
		return
	}
	if err := ch.Send(ev); err != nil {
		log.Printf("push: unicast %q to %s/%s failed, pruning: %v", ev.Name, r, subscriberID, err)
		g.metrics.addFailed(ctx, r.String())
		g.prune(r, subscriberID, ch)
		return
	}
	g.metrics.addDelivered(ctx, r.String())
}

// BroadcastToRole delivers the event to every channel currently in the
// role's partition. Iteration runs over a snapshot, so concurrent register
// and unregister calls never corrupt the pass; channels whose send fails are
// pruned in the same pass. Producers never observe delivery failures.
func (g *Registry) BroadcastToRole(ctx context.Context, r role.Role, ev Event) {
	for _, sub := range g.partitionSnapshot(r) {
		if err := sub.ch.Send(ev); err != nil {
			log.Printf("push: broadcast %q to %s/%s failed, pruning: %v", ev.Name, r, sub.id, err)
			g.metrics.addFailed(ctx, r.String())
			g.prune(r, sub.id, sub.ch)
			continue
		}
		g.metrics.addDelivered(ctx, r.String())
	}
}

// BroadcastToAll delivers the event to every known role partition.
func (g *Registry) BroadcastToAll(ctx context.Context, ev Event) {
	for _, r := range role.Roles() {
		g.BroadcastToRole(ctx, r, ev)
	}
}

// Heartbeat sends the no-op ping to every channel in every partition with
// the same failure-prunes rule as broadcast. This is how connections that
// died without emitting a terminal signal are eventually reclaimed.
func (g *Registry) Heartbeat(ctx context.Context) {
	g.metrics.addHeartbeat(ctx)
	g.BroadcastToAll(ctx, PingEvent)
}

// Subscribers returns the subscriber ids currently registered in the role's
// partition. A snapshot for diagnostics; the backing table is never exposed.
func (g *Registry) Subscribers(r role.Role) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	part := g.partitions[r]
	out := make([]string, 0, len(part))
	for id := range part {
		out = append(out, id)
	}
	return out
}

// Len returns the total number of registered channels across all partitions.
func (g *Registry) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	n := 0
	for _, part := range g.partitions {
		n += len(part)
	}
	return n
}

type subscriber struct {
	id string
	ch Channel
}

// partitionSnapshot copies the partition under the read lock so no lock is
// held across an individual send.
func (g *Registry) partitionSnapshot(r role.Role) []subscriber {
	g.mu.RLock()
	defer g.mu.RUnlock()
	part := g.partitions[r]
	out := make([]subscriber, 0, len(part))
	for id, ch := range part {
		out = append(out, subscriber{id: id, ch: ch})
	}
	return out
}

// prune removes the channel only if the partition still holds this exact
// channel; a subscriber that reconnected mid-pass keeps its fresh channel.
func (g *Registry) prune(r role.Role, subscriberID string, ch Channel) {
	g.mu.Lock()
	part := g.partitions[r]
	current, ok := part[subscriberID]
	if ok && current == ch {
		delete(part, subscriberID)
	} else {
		ok = false
	}
	g.mu.Unlock()
	if ok {
		g.metrics.addPruned(context.Background(), r.String())
		ch.Close()
	}
}
