package sweeper

import (
	"context"
	"log"
	"time"

	"github.com/gakkoucraft/team-service/team/ledger"
)

// InviteSweeper periodically drops expired invites from the ledger so stale
// entries do not pile up between accept/decline lookups.
type InviteSweeper struct {
	ledger   *ledger.Ledger
	interval time.Duration
	ctx      context.Context
	cancel   context.CancelFunc
}

// NewInviteSweeper creates a new InviteSweeper instance.
func NewInviteSweeper(l *ledger.Ledger, interval time.Duration) *InviteSweeper {
	ctx, cancel := context.WithCancel(context.Background())
	return &InviteSweeper{
		ledger:   l,
		interval: interval,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start initiates the sweep loop. This should be run in a goroutine.
func (is *InviteSweeper) Start() {
	log.Printf("Invite Sweeper starting with sweep interval: %v", is.interval)
	ticker := time.NewTicker(is.interval)
	defer ticker.Stop()

	for {
		select {
		case <-is.ctx.Done():
			log.Println("Invite Sweeper shutting down.")
			return
		case <-ticker.C:
			if swept := is.ledger.SweepExpired(time.Now()); swept > 0 {
				log.Printf("INFO: Invite sweeper removed %d expired invite(s). %d still pending.", swept, is.ledger.PendingCount())
			}
		}
	}
}

// Stop gracefully stops the sweep loop.
func (is *InviteSweeper) Stop() {
	is.cancel()
}
