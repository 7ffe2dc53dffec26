package registry

import (
	"log/slog"
	"sync"

	"github.com/boardblitz/boardblitz/internal/dependencies/random"
	"github.com/boardblitz/boardblitz/internal/model"
)

const (
	// DefaultCodeLength is the length of generated session codes
	DefaultCodeLength = 6
	// DefaultCodeAlphabet is the characters used in session codes (avoid confusing chars)
	DefaultCodeAlphabet = "abcdefghjkmnpqrstuvwxyz23456789"
	// DefaultCodeAttempts is the collision-retry budget for code generation
	DefaultCodeAttempts = 16
)

// Config holds code-generation settings for the registry
type Config struct {
	CodeLength   int
	CodeAlphabet string
	CodeAttempts int
}

// DefaultConfig returns the default registry configuration
func DefaultConfig() Config {
	return Config{
		CodeLength:   DefaultCodeLength,
		CodeAlphabet: DefaultCodeAlphabet,
		CodeAttempts: DefaultCodeAttempts,
	}
}

// entry pairs a live session with its lane lock. All events for one code
// are serialized through the lane; events for different codes run in parallel.
type entry struct {
	mu      sync.Mutex
	session *model.Session
}

// Registry is the in-memory collection of active sessions, keyed by join
// code, with a secondary index from participant identity to code.
//
// The secondary index serves identity reconciliation and login-time game
// recovery. Lookups by participant are O(1); SubstituteIdentity is
// O(affected sessions). Both take the narrow global lock and are
// login-frequency operations, never on the move hot path.
type Registry struct {
	cfg    Config
	random random.Random
	logger *slog.Logger

	mu            sync.RWMutex
	sessions      map[model.GameCode]*entry
	byParticipant map[model.ParticipantKey]map[model.GameCode]struct{}
}

// New creates a Registry
func New(cfg Config, rnd random.Random, logger *slog.Logger) *Registry {
	if cfg.CodeLength == 0 {
		cfg = DefaultConfig()
	}
	return &Registry{
		cfg:           cfg,
		random:        rnd,
		logger:        logger.With(slog.String("component", "registry")),
		sessions:      make(map[model.GameCode]*entry),
		byParticipant: make(map[model.ParticipantKey]map[model.GameCode]struct{}),
	}
}

// Create allocates a fresh collision-free code, assigns it to the session
// and inserts it into the active set, indexing every occupied slot.
// Fails with ErrCodeExhausted only when the retry budget is exceeded.
func (r *Registry) Create(s *model.Session) (model.GameCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for attempt := 0; attempt < r.cfg.CodeAttempts; attempt++ {
		code := model.GameCode(r.random.String(r.cfg.CodeLength, r.cfg.CodeAlphabet))
		if _, exists := r.sessions[code]; exists {
			continue
		}
		s.Code = code
		r.sessions[code] = &entry{session: s}
		for _, key := range s.ParticipantKeys() {
			r.indexLocked(key, code)
		}
		return code, nil
	}

	r.logger.Error("session code space exhausted",
		slog.Int("attempts", r.cfg.CodeAttempts),
		slog.Int("active_sessions", len(r.sessions)))
	return "", model.ErrCodeExhausted
}

// WithSession runs fn on the session for the given code while holding its
// lane lock. Every event for a code goes through here, which is what
// serializes per-session mutations. Returns ErrSessionNotFound if the code
// is not active.
func (r *Registry) WithSession(code model.GameCode, fn func(s *model.Session) error) error {
	r.mu.RLock()
	e, ok := r.sessions[code]
	r.mu.RUnlock()
	if !ok {
		return model.ErrSessionNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	// The session may have been removed while we waited on the lane
	r.mu.RLock()
	current, live := r.sessions[code]
	r.mu.RUnlock()
	if !live || current != e {
		return model.ErrSessionNotFound
	}

	return fn(e.session)
}

// Snapshot returns a deep copy of the session for the given code
func (r *Registry) Snapshot(code model.GameCode) (*model.Session, error) {
	var snap *model.Session
	err := r.WithSession(code, func(s *model.Session) error {
		snap = s.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// FindByParticipant returns the code of a session containing the given
// identity, or false if none does. When the identity somehow appears in
// several sessions, an arbitrary one is returned; callers treat membership
// in more than one session as a non-fatal anomaly.
func (r *Registry) FindByParticipant(key model.ParticipantKey) (model.GameCode, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for code := range r.byParticipant[key] {
		return code, true
	}
	return "", false
}

// Remove deletes the session from the active set and drops its index
// entries. Idempotent. Callers invoke this from within the session's lane
// (via WithSession) so the membership read is not racing a mutation.
func (r *Registry) Remove(code model.GameCode) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[code]
	if !ok {
		return
	}
	for _, key := range e.session.ParticipantKeys() {
		r.unindexLocked(key, code)
	}
	delete(r.sessions, code)
}

// IndexParticipant records that an identity occupies a slot in the session.
// Called by the coordinator after a join-type mutation.
func (r *Registry) IndexParticipant(key model.ParticipantKey, code model.GameCode) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.indexLocked(key, code)
}

// UnindexParticipant removes an identity's membership record for the code.
// Called by the coordinator after a slot is vacated.
func (r *Registry) UnindexParticipant(key model.ParticipantKey, code model.GameCode) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.unindexLocked(key, code)
}

// SubstituteIdentity replaces oldKey's identity with newIdentity in every
// slot of every session that references it, preserving slot kind,
// connection state and list position. Returns the affected codes so the
// caller can broadcast.
//
// Candidate codes are snapshotted under the global read lock, then each
// lane is taken one at a time; the global lock is never held while waiting
// on a lane.
func (r *Registry) SubstituteIdentity(oldKey model.ParticipantKey, newIdentity model.Identity) []model.GameCode {
	r.mu.RLock()
	candidates := make([]model.GameCode, 0, len(r.byParticipant[oldKey]))
	for code := range r.byParticipant[oldKey] {
		candidates = append(candidates, code)
	}
	r.mu.RUnlock()

	var affected []model.GameCode
	for _, code := range candidates {
		err := r.WithSession(code, func(s *model.Session) error {
			if !substituteInSession(s, oldKey, newIdentity) {
				return model.ErrNotInSession
			}
			return nil
		})
		if err != nil {
			continue
		}
		r.mu.Lock()
		r.unindexLocked(oldKey, code)
		r.indexLocked(newIdentity.Key(), code)
		r.mu.Unlock()
		affected = append(affected, code)
	}

	if len(affected) > 0 {
		r.logger.Info("identity substituted",
			slog.String("old_key", string(oldKey)),
			slog.String("new_key", string(newIdentity.Key())),
			slog.Int("sessions", len(affected)))
	}
	return affected
}

// ListPublic returns deep copies of active, listed, non-terminal sessions
// for discovery. O(active sessions); acceptable at single-process scale.
func (r *Registry) ListPublic() []*model.Session {
	r.mu.RLock()
	codes := make([]model.GameCode, 0, len(r.sessions))
	for code := range r.sessions {
		codes = append(codes, code)
	}
	r.mu.RUnlock()

	var out []*model.Session
	for _, code := range codes {
		_ = r.WithSession(code, func(s *model.Session) error {
			if !s.Unlisted && !s.IsTerminal() {
				out = append(out, s.Clone())
			}
			return nil
		})
	}
	return out
}

// Len returns the number of active sessions
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Codes returns the codes of all active sessions
func (r *Registry) Codes() []model.GameCode {
	r.mu.RLock()
	defer r.mu.RUnlock()
	codes := make([]model.GameCode, 0, len(r.sessions))
	for code := range r.sessions {
		codes = append(codes, code)
	}
	return codes
}

func (r *Registry) indexLocked(key model.ParticipantKey, code model.GameCode) {
	set, ok := r.byParticipant[key]
	if !ok {
		set = make(map[model.GameCode]struct{})
		r.byParticipant[key] = set
	}
	set[code] = struct{}{}
}

func (r *Registry) unindexLocked(key model.ParticipantKey, code model.GameCode) {
	set, ok := r.byParticipant[key]
	if !ok {
		return
	}
	delete(set, code)
	if len(set) == 0 {
		delete(r.byParticipant, key)
	}
}

// substituteInSession swaps the identity in place across every slot kind.
// Returns false when the session no longer references oldKey.
func substituteInSession(s *model.Session, oldKey model.ParticipantKey, newIdentity model.Identity) bool {
	replaced := false
	swap := func(p *model.Participant) {
		if p != nil && p.Identity.Key() == oldKey {
			p.Identity = newIdentity
			replaced = true
		}
	}
	swap(s.Host)
	swap(s.White)
	swap(s.Black)
	for i := range s.Observers {
		swap(&s.Observers[i])
	}
	return replaced
}
