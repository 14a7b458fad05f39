package realtime

import (
	"sync"

	"healthpulse/utils"
)

// GlobalIdentity is the implicit scope every attached connection belongs to.
const GlobalIdentity = "global"

const defaultShards = 32

type bucket struct {
	mu      sync.RWMutex
	members map[string]map[string]Conn // identity -> conn id -> conn
}

// connState tracks the identities a single conn joined. Its lock makes Leave
// atomic with respect to Join for the same conn.
type connState struct {
	mu         sync.Mutex
	conn       Conn
	identities map[string]struct{}
	left       bool
}

type stateBucket struct {
	mu     sync.Mutex
	states map[string]*connState
}

// Registry maps identities to the live connections joined under them.
type Registry struct {
	buckets []bucket
	states  []stateBucket
}

func NewRegistry(shards int) *Registry {
	if shards <= 0 {
		shards = defaultShards
	}
	r := &Registry{
		buckets: make([]bucket, shards),
		states:  make([]stateBucket, shards),
	}
	for i := range r.buckets {
		r.buckets[i].members = make(map[string]map[string]Conn)
		r.states[i].states = make(map[string]*connState)
	}
	return r
}

func (r *Registry) bucketFor(identity string) *bucket {
	return &r.buckets[utils.ShardIndex(identity, len(r.buckets))]
}

func (r *Registry) stateBucketFor(connID string) *stateBucket {
	return &r.states[utils.ShardIndex(connID, len(r.states))]
}

// stateFor returns the live state for conn, creating it on first use.
func (r *Registry) stateFor(conn Conn) *connState {
	sb := r.stateBucketFor(conn.ID())
	sb.mu.Lock()
	defer sb.mu.Unlock()
	st, ok := sb.states[conn.ID()]
	if !ok {
		st = &connState{conn: conn, identities: make(map[string]struct{})}
		sb.states[conn.ID()] = st
	}
	return st
}

func (r *Registry) add(identity string, conn Conn) {
	b := r.bucketFor(identity)
	b.mu.Lock()
	set, ok := b.members[identity]
	if !ok {
		set = make(map[string]Conn)
		b.members[identity] = set
	}
	set[conn.ID()] = conn
	b.mu.Unlock()
}

func (r *Registry) remove(identity string, connID string) {
	b := r.bucketFor(identity)
	b.mu.Lock()
	if set, ok := b.members[identity]; ok {
		delete(set, connID)
		if len(set) == 0 {
			delete(b.members, identity)
		}
	}
	b.mu.Unlock()
}

// Attach registers conn in the global scope only.
func (r *Registry) Attach(conn Conn) {
	_ = r.Join(GlobalIdentity, conn)
}

// Join registers conn under identity, attaching it globally if needed.
// Joining the same identity twice is a no-op.
func (r *Registry) Join(identity string, conn Conn) error {
	if identity == "" {
		return ErrEmptyID
	}
	for {
		st := r.stateFor(conn)
		st.mu.Lock()
		if st.left {
			// Lost a race with Leave; the next stateFor sees a fresh entry.
			st.mu.Unlock()
			continue
		}
		if _, ok := st.identities[GlobalIdentity]; !ok {
			r.add(GlobalIdentity, conn)
			st.identities[GlobalIdentity] = struct{}{}
		}
		if _, ok := st.identities[identity]; !ok {
			r.add(identity, conn)
			st.identities[identity] = struct{}{}
		}
		st.mu.Unlock()
		return nil
	}
}

// Leave removes conn from every identity and the global scope. It reports
// whether conn was registered.
func (r *Registry) Leave(conn Conn) bool {
	sb := r.stateBucketFor(conn.ID())
	sb.mu.Lock()
	st, ok := sb.states[conn.ID()]
	if ok {
		delete(sb.states, conn.ID())
	}
	sb.mu.Unlock()
	if !ok {
		return false
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	st.left = true
	for identity := range st.identities {
		r.remove(identity, conn.ID())
	}
	st.identities = nil
	return true
}

// ConnectionsFor returns a snapshot of the conns joined under identity.
func (r *Registry) ConnectionsFor(identity string) []Conn {
	b := r.bucketFor(identity)
	b.mu.RLock()
	defer b.mu.RUnlock()
	set := b.members[identity]
	out := make([]Conn, 0, len(set))
	for _, c := range set {
		out = append(out, c)
	}
	return out
}

// All returns every attached conn.
func (r *Registry) All() []Conn {
	return r.ConnectionsFor(GlobalIdentity)
}

func (r *Registry) Len() int {
	b := r.bucketFor(GlobalIdentity)
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.members[GlobalIdentity])
}
