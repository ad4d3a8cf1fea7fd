// Package reconcile keeps a client-held set of selected opportunity IDs in
// agreement with the server.
//
// The server is authoritative. Mutations go to the server first and touch
// the local set only after the server accepts them. Failures leave the set
// alone, surface as a transient Notice, and are never retried. After every
// accepted mutation a follow-up Load is scheduled to absorb read-after-write
// staleness on the server side.
package reconcile

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/haymanh/success/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// DefaultRefreshDelay is the pause before the follow-up Load.
const DefaultRefreshDelay = time.Second

// ErrInvalidID is returned for an ID that is not a 24-character hex ObjectID.
var ErrInvalidID = errors.New("invalid opportunity ID")

// Backend is the server surface the reconciler needs.
type Backend interface {
	Selections(ctx context.Context) ([]models.OpportunityRef, error)
	SelectOpportunity(ctx context.Context, id string) (already bool, err error)
	RemoveSelection(ctx context.Context, id string) error
}

// NoticeLevel distinguishes success toasts from failures.
type NoticeLevel string

const (
	NoticeInfo  NoticeLevel = "info"
	NoticeError NoticeLevel = "error"
)

// Notice is a transient, user-facing message.
type Notice struct {
	Level   NoticeLevel
	Message string
	At      time.Time
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithRefreshDelay overrides DefaultRefreshDelay. A delay <= 0 disables the
// follow-up Load.
func WithRefreshDelay(d time.Duration) Option {
	return func(r *Reconciler) { r.delay = d }
}

// WithNotifier receives every notice as it is emitted, in addition to the
// buffer returned by Notices.
func WithNotifier(fn func(Notice)) Option {
	return func(r *Reconciler) { r.notify = fn }
}

// WithLogger sets the logger; the default is zap.L().
func WithLogger(l *zap.Logger) Option {
	return func(r *Reconciler) { r.log = l }
}

// WithLoadTimeout bounds the background follow-up Load.
func WithLoadTimeout(d time.Duration) Option {
	return func(r *Reconciler) { r.loadTimeout = d }
}

// Reconciler is safe for concurrent use.
type Reconciler struct {
	backend     Backend
	delay       time.Duration
	loadTimeout time.Duration
	notify      func(Notice)
	log         *zap.Logger

	mu      sync.Mutex
	ids     []string // insertion order
	set     map[string]struct{}
	gen     uint64 // bumped by every local mutation
	notices []Notice
	timer   *time.Timer
	closed  bool
	loads   sync.WaitGroup
}

// New returns a reconciler with an empty set.
func New(b Backend, opts ...Option) *Reconciler {
	r := &Reconciler{
		backend:     b,
		delay:       DefaultRefreshDelay,
		loadTimeout: 10 * time.Second,
		log:         zap.L(),
		set:         map[string]struct{}{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Load replaces the local set with the server's list. References are
// normalized to bare IDs and malformed IDs are dropped. On failure the set
// is unchanged, a notice is emitted, and the error is returned for callers
// that want it.
//
// A Load that overlaps a local mutation is discarded; the mutation schedules
// its own follow-up.
func (r *Reconciler) Load(ctx context.Context) error {
	r.mu.Lock()
	startGen := r.gen
	r.mu.Unlock()

	refs, err := r.backend.Selections(ctx)
	if err != nil {
		r.log.Warn("load selections failed", zap.Error(err))
		r.emit(NoticeError, "Could not load your selections")
		return err
	}

	ids := Normalize(refs)

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.gen != startGen {
		r.log.Debug("stale selection load discarded")
		return nil
	}
	r.ids = ids
	r.set = make(map[string]struct{}, len(ids))
	for _, id := range ids {
		r.set[id] = struct{}{}
	}
	return nil
}

// Add selects id on the server and, once accepted, adds it locally. The
// server's duplicate answer counts as accepted.
func (r *Reconciler) Add(ctx context.Context, id string) error {
	id, ok := CanonicalID(id)
	if !ok {
		r.emit(NoticeError, "Invalid opportunity ID")
		return ErrInvalidID
	}
	already, err := r.backend.SelectOpportunity(ctx, id)
	if err != nil {
		r.log.Warn("add selection failed", zap.String("opportunity_id", id), zap.Error(err))
		r.emit(NoticeError, "Could not add opportunity")
		return err
	}

	r.mu.Lock()
	r.gen++
	if _, ok := r.set[id]; !ok {
		r.set[id] = struct{}{}
		r.ids = append(r.ids, id)
	}
	r.mu.Unlock()

	if already {
		r.emit(NoticeInfo, "Opportunity already selected")
	} else {
		r.emit(NoticeInfo, "Opportunity added")
	}
	r.scheduleRefresh()
	return nil
}

// Remove deselects id on the server and, once accepted, drops it locally.
func (r *Reconciler) Remove(ctx context.Context, id string) error {
	id, ok := CanonicalID(id)
	if !ok {
		r.emit(NoticeError, "Invalid opportunity ID")
		return ErrInvalidID
	}
	if err := r.backend.RemoveSelection(ctx, id); err != nil {
		r.log.Warn("remove selection failed", zap.String("opportunity_id", id), zap.Error(err))
		r.emit(NoticeError, "Could not remove opportunity")
		return err
	}

	r.mu.Lock()
	r.gen++
	if _, ok := r.set[id]; ok {
		delete(r.set, id)
		for i, v := range r.ids {
			if v == id {
				r.ids = append(r.ids[:i:i], r.ids[i+1:]...)
				break
			}
		}
	}
	r.mu.Unlock()

	r.emit(NoticeInfo, "Opportunity removed")
	r.scheduleRefresh()
	return nil
}

// Toggle adds id when it is not selected and removes it otherwise.
func (r *Reconciler) Toggle(ctx context.Context, id string) error {
	if r.Has(id) {
		return r.Remove(ctx, id)
	}
	return r.Add(ctx, id)
}

// Has reports whether id is in the local set.
func (r *Reconciler) Has(id string) bool {
	id, ok := CanonicalID(id)
	if !ok {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok = r.set[id]
	return ok
}

// IDs returns a copy of the local set in server order, with local additions
// appended.
func (r *Reconciler) IDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.ids))
	copy(out, r.ids)
	return out
}

// Notices drains the buffered notices.
func (r *Reconciler) Notices() []Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.notices
	r.notices = nil
	return out
}

// Wait blocks until any pending follow-up Load has fired and finished.
func (r *Reconciler) Wait() {
	r.loads.Wait()
}

// Close cancels a pending follow-up Load. It does not wait for one that is
// already running.
func (r *Reconciler) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	if r.timer != nil && r.timer.Stop() {
		r.loads.Done()
	}
	r.timer = nil
}

// scheduleRefresh (re)arms the follow-up Load. Mutations in quick
// succession collapse into one Load.
func (r *Reconciler) scheduleRefresh() {
	if r.delay <= 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	if r.timer != nil && r.timer.Stop() {
		r.loads.Done()
	}
	r.loads.Add(1)
	r.timer = time.AfterFunc(r.delay, func() {
		defer r.loads.Done()
		ctx, cancel := context.WithTimeout(context.Background(), r.loadTimeout)
		defer cancel()
		_ = r.Load(ctx)
	})
}

func (r *Reconciler) emit(level NoticeLevel, msg string) {
	n := Notice{Level: level, Message: msg, At: time.Now()}
	r.mu.Lock()
	r.notices = append(r.notices, n)
	notify := r.notify
	r.mu.Unlock()
	if notify != nil {
		notify(n)
	}
}

// Normalize reduces references to bare, well-formed IDs in canonical
// lowercase form, keeping the first occurrence of each.
func Normalize(refs []models.OpportunityRef) []string {
	out := make([]string, 0, len(refs))
	seen := make(map[string]struct{}, len(refs))
	for _, ref := range refs {
		id, ok := CanonicalID(ref.Normalize().ID)
		if !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// CanonicalID trims id and returns its lowercase hex form. ok is false when
// id is not a well-formed ObjectID.
func CanonicalID(id string) (canonical string, ok bool) {
	oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(id))
	if err != nil {
		return "", false
	}
	return oid.Hex(), true
}
