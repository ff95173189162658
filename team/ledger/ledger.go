// team/ledger/ledger.go
package ledger

import (
	"fmt"
	"sync"
	"time"

	"github.com/gakkoucraft/team-service/shared/models"
)

// Custom errors for clear communication to the command/API layer.
var (
	ErrInviteNotFound        = fmt.Errorf("invite not found")
	ErrInviteAlreadyAccepted = fmt.Errorf("invite already accepted")
	ErrInviteExpired         = fmt.Errorf("invite has expired")
)

// Ledger is the in-memory, insertion-ordered collection of all invite
// records. It exclusively owns them: callers get copies, never pointers into
// the list. IDs come from a monotonically increasing counter so that two
// invites created back to back can never collide.
//
// The ledger is process-lifetime only and does not survive a restart.
type Ledger struct {
	mu      sync.Mutex
	nextID  int64
	invites []models.Invite
	ttl     time.Duration
}

// New creates an empty Ledger whose invites expire after ttl.
func New(ttl time.Duration) *Ledger {
	return &Ledger{
		nextID: 1,
		ttl:    ttl,
	}
}

// TTL returns the expiry window applied to pending invites.
func (l *Ledger) TTL() time.Duration {
	return l.ttl
}

// Create appends a new pending invite stamped with now and returns a copy of
// it. It always succeeds; preventing duplicate invites to the same target is
// the caller's policy, not a ledger invariant.
func (l *Ledger) Create(teamID, teamName, inviter, target string, now time.Time) models.Invite {
	l.mu.Lock()
	defer l.mu.Unlock()

	inv := models.Invite{
		ID:         l.nextID,
		TeamID:     teamID,
		TeamName:   teamName,
		Inviter:    inviter,
		PlayerName: target,
		CreatedAt:  now,
		Accepted:   false,
	}
	l.nextID++
	l.invites = append(l.invites, inv)
	return inv
}

// Get returns a copy of the invite with the given ID, or ErrInviteNotFound.
func (l *Ledger) Get(id int64) (models.Invite, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, inv := range l.invites {
		if inv.ID == id {
			return inv, nil
		}
	}
	return models.Invite{}, ErrInviteNotFound
}

// Accept resolves the pending invite with the given ID. It fails with
// ErrInviteNotFound, ErrInviteAlreadyAccepted, or ErrInviteExpired (an
// expired invite is removed from the ledger as a side effect of the lookup).
// If precheck is non-nil it runs against the still-pending invite; a
// precheck error aborts the accept and leaves the invite pending. On success
// the pending record is replaced by an accepted copy and that copy returned.
func (l *Ledger) Accept(id int64, now time.Time, precheck func(models.Invite) error) (models.Invite, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	idx, err := l.lookupLocked(id, now)
	if err != nil {
		return models.Invite{}, err
	}

	inv := l.invites[idx]
	if precheck != nil {
		if err := precheck(inv); err != nil {
			return models.Invite{}, err
		}
	}

	// Replace rather than mutate: records are treated as immutable.
	accepted := inv
	accepted.Accepted = true
	l.invites = append(l.invites[:idx], l.invites[idx+1:]...)
	l.invites = append(l.invites, accepted)
	return accepted, nil
}

// Decline removes the pending invite with the given ID, applying the same
// NotFound/AlreadyAccepted/Expired checks as Accept. If precheck is non-nil
// it runs against the still-pending invite after those checks; a precheck
// error aborts the decline and leaves the invite pending. Returns a copy of
// the removed invite so the caller can notify the inviter.
func (l *Ledger) Decline(id int64, now time.Time, precheck func(models.Invite) error) (models.Invite, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	idx, err := l.lookupLocked(id, now)
	if err != nil {
		return models.Invite{}, err
	}

	inv := l.invites[idx]
	if precheck != nil {
		if err := precheck(inv); err != nil {
			return models.Invite{}, err
		}
	}
	l.invites = append(l.invites[:idx], l.invites[idx+1:]...)
	return inv, nil
}

// lookupLocked finds a pending invite by ID and enforces the accepted/expiry
// checks. The caller must hold l.mu.
func (l *Ledger) lookupLocked(id int64, now time.Time) (int, error) {
	for i, inv := range l.invites {
		if inv.ID != id {
			continue
		}
		if inv.Accepted {
			return 0, ErrInviteAlreadyAccepted
		}
		if now.Sub(inv.CreatedAt) > l.ttl {
			// Expired invites are pruned on lookup.
			l.invites = append(l.invites[:i], l.invites[i+1:]...)
			return 0, ErrInviteExpired
		}
		return i, nil
	}
	return 0, ErrInviteNotFound
}

// PendingFor returns copies of all pending invites addressed to the given
// player, oldest first.
func (l *Ledger) PendingFor(target string) []models.Invite {
	l.mu.Lock()
	defer l.mu.Unlock()

	var pending []models.Invite
	for _, inv := range l.invites {
		if !inv.Accepted && inv.PlayerName == target {
			pending = append(pending, inv)
		}
	}
	return pending
}

// PendingCount returns the number of pending (not accepted) invites.
func (l *Ledger) PendingCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	count := 0
	for _, inv := range l.invites {
		if !inv.Accepted {
			count++
		}
	}
	return count
}

// RemoveForTeam drops every invite referencing the given team ID, for when a
// team is deleted while invites to it are still pending.
func (l *Ledger) RemoveForTeam(teamID string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	kept := l.invites[:0]
	removed := 0
	for _, inv := range l.invites {
		if inv.TeamID == teamID {
			removed++
			continue
		}
		kept = append(kept, inv)
	}
	l.invites = kept
	return removed
}

// SweepExpired removes every pending invite older than the expiry window and
// every resolved (accepted) record, returning how many were dropped. Called
// periodically by the sweeper so invites nobody revisits cannot pile up.
func (l *Ledger) SweepExpired(now time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	kept := l.invites[:0]
	removed := 0
	for _, inv := range l.invites {
		if inv.Accepted || now.Sub(inv.CreatedAt) > l.ttl {
			removed++
			continue
		}
		kept = append(kept, inv)
	}
	l.invites = kept
	return removed
}
