package client

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/LusX0117/itemsharing/domain"
)

// Poller keeps one session view fresh by fetching the session and its
// messages on a fixed interval. Each view owns its own Poller; there is no
// shared timer state. Ticks are skipped while the view is hidden, and
// Close cancels any in-flight fetch so a disposed view is never updated.
type Poller struct {
	client    *Client
	sessionID string
	userID    string
	interval  time.Duration
	log       zerolog.Logger

	onUpdate func(View)

	mu      sync.Mutex
	visible bool
	hasView bool
	view    View
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewPoller creates a poller for one session view. onUpdate is called with
// the freshly built view after every successful fetch; it runs on the
// poller goroutine.
func NewPoller(c *Client, sessionID, userID string, interval time.Duration, log zerolog.Logger, onUpdate func(View)) *Poller {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &Poller{
		client:    c,
		sessionID: sessionID,
		userID:    userID,
		interval:  interval,
		log:       log,
		onUpdate:  onUpdate,
		visible:   true,
	}
}

// Start begins the polling loop. It fetches once immediately, then on every
// tick while the view is visible.
func (p *Poller) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.done != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.done = make(chan struct{})
	go p.run(ctx, p.done)
}

// SetVisible gates fetching. A hidden view skips ticks entirely instead of
// fetching and discarding.
func (p *Poller) SetVisible(visible bool) {
	p.mu.Lock()
	p.visible = visible
	p.mu.Unlock()
}

// Close stops the loop and cancels any in-flight fetch. It blocks until the
// poller goroutine has exited, so callers can dispose the view afterwards.
func (p *Poller) Close() {
	p.mu.Lock()
	cancel := p.cancel
	done := p.done
	p.cancel = nil
	p.done = nil
	p.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

// View returns the last successfully fetched view.
func (p *Poller) View() (View, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.view, p.hasView
}

func (p *Poller) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	p.poll(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.mu.Lock()
			visible := p.visible
			p.mu.Unlock()
			if !visible {
				continue
			}
			p.poll(ctx)
		}
	}
}

// poll fetches the session and message log, rebuilds the view and advances
// the read cursor when the latest id grew. Failures are logged at debug and
// leave the last good view untouched.
func (p *Poller) poll(ctx context.Context) {
	session, err := p.client.GetSession(ctx, p.sessionID)
	if err != nil {
		p.log.Debug().Err(err).Str("session_id", p.sessionID).Msg("poll session fetch failed")
		return
	}
	if session == nil {
		return
	}

	messages, err := p.client.ListMessages(ctx, p.sessionID, 0)
	if err != nil {
		p.log.Debug().Err(err).Str("session_id", p.sessionID).Msg("poll message fetch failed")
		return
	}

	hasRated := false
	if session.Status == domain.StatusCompleted {
		rating, err := p.client.GetRating(ctx, p.sessionID, p.userID)
		if err != nil {
			p.log.Debug().Err(err).Str("session_id", p.sessionID).Msg("poll rating fetch failed")
			return
		}
		hasRated = rating != nil
	}

	next := BuildView(*session, messages, p.userID, hasRated)

	p.mu.Lock()
	prevLatest := int64(0)
	if p.hasView {
		prevLatest = p.view.LatestID
	}
	p.view = next
	p.hasView = true
	p.mu.Unlock()

	if p.onUpdate != nil {
		p.onUpdate(next)
	}

	if next.LatestID > prevLatest {
		if err := p.client.MarkRead(ctx, p.sessionID, p.userID, next.LatestID); err != nil {
			p.log.Debug().Err(err).Str("session_id", p.sessionID).Msg("read cursor advance failed")
		}
	}
}
