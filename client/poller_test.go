package client

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/LusX0117/itemsharing/domain"
)

// fakeServer serves a single session and tracks poll traffic.
type fakeServer struct {
	mu        sync.Mutex
	session   domain.Session
	messages  []domain.Message
	fetches   int
	readCalls []int64

	server *httptest.Server
}

func newFakeServer(t *testing.T) *fakeServer {
	t.Helper()
	now := time.Now()
	f := &fakeServer{
		session: domain.Session{
			ID:             "session_test",
			ItemID:         1,
			ItemTitle:      "吉他",
			LenderUserID:   "lender",
			BorrowerUserID: "borrower",
			Status:         domain.StatusPendingLenderApproval,
			BeforePhotos:   []string{},
			AfterPhotos:    []string{},
			CreatedAt:      now,
			UpdatedAt:      now,
		},
		messages: []domain.Message{
			{ID: 1, SessionID: "session_test", SenderUserID: domain.SystemSenderID, Text: "借用申请已发起，等待出借者同意。", Time: now},
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/chat/session", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.fetches++
		json.NewEncoder(w).Encode(map[string]interface{}{"session": f.session})
	})
	mux.HandleFunc("/api/chat/messages", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		json.NewEncoder(w).Encode(map[string]interface{}{"messages": f.messages})
	})
	mux.HandleFunc("/api/chat/session/read", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			LastReadMessageID int64 `json:"lastReadMessageId"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		f.mu.Lock()
		f.readCalls = append(f.readCalls, req.LastReadMessageID)
		f.mu.Unlock()
		json.NewEncoder(w).Encode(map[string]interface{}{"ok": true})
	})
	mux.HandleFunc("/api/chat/session/rating", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"rating": nil})
	})

	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeServer) appendMessage(sender, text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	next := f.messages[len(f.messages)-1].ID + 1
	f.messages = append(f.messages, domain.Message{
		ID: next, SessionID: "session_test", SenderUserID: sender, Text: text, Time: time.Now(),
	})
}

func (f *fakeServer) fetchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetches
}

func (f *fakeServer) reads() []int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int64(nil), f.readCalls...)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met in time")
}

func TestPollerAdvancesReadCursor(t *testing.T) {
	f := newFakeServer(t)
	c := New(f.server.URL)

	var mu sync.Mutex
	var latest View
	p := NewPoller(c, "session_test", "lender", 10*time.Millisecond, zerolog.Nop(), func(v View) {
		mu.Lock()
		latest = v
		mu.Unlock()
	})
	p.Start()
	defer p.Close()

	waitFor(t, func() bool {
		reads := f.reads()
		return len(reads) > 0 && reads[len(reads)-1] == 1
	})

	f.appendMessage("borrower", "吉他还在吗")
	waitFor(t, func() bool {
		reads := f.reads()
		return len(reads) > 0 && reads[len(reads)-1] == 2
	})

	// Without new messages the cursor is not re-reported.
	count := len(f.reads())
	time.Sleep(50 * time.Millisecond)
	if got := len(f.reads()); got != count {
		t.Fatalf("cursor must only advance when the latest id grows: %d -> %d", count, got)
	}

	mu.Lock()
	defer mu.Unlock()
	if latest.LatestID != 2 || !latest.CanApproveBorrow {
		t.Fatalf("unexpected view: %+v", latest)
	}
}

func TestPollerVisibilityGating(t *testing.T) {
	f := newFakeServer(t)
	c := New(f.server.URL)

	p := NewPoller(c, "session_test", "lender", 10*time.Millisecond, zerolog.Nop(), nil)
	p.Start()
	defer p.Close()

	waitFor(t, func() bool { return f.fetchCount() >= 2 })

	p.SetVisible(false)
	settled := f.fetchCount()
	time.Sleep(60 * time.Millisecond)
	// One in-flight tick may land after hiding, nothing more.
	if got := f.fetchCount(); got > settled+1 {
		t.Fatalf("hidden view must not keep fetching: %d -> %d", settled, got)
	}

	p.SetVisible(true)
	waitFor(t, func() bool { return f.fetchCount() > settled+1 })
}

func TestPollerCloseStopsFetching(t *testing.T) {
	f := newFakeServer(t)
	c := New(f.server.URL)

	p := NewPoller(c, "session_test", "lender", 10*time.Millisecond, zerolog.Nop(), nil)
	p.Start()
	waitFor(t, func() bool { return f.fetchCount() >= 1 })

	p.Close()
	settled := f.fetchCount()
	time.Sleep(60 * time.Millisecond)
	if got := f.fetchCount(); got != settled {
		t.Fatalf("closed poller must not fetch: %d -> %d", settled, got)
	}

	// Closing twice is safe.
	p.Close()

	if _, ok := p.View(); !ok {
		t.Fatalf("last good view must survive Close")
	}
}

func TestPollerKeepsLastGoodViewOnFailure(t *testing.T) {
	f := newFakeServer(t)
	c := New(f.server.URL)

	p := NewPoller(c, "session_test", "lender", 10*time.Millisecond, zerolog.Nop(), nil)
	p.Start()
	defer p.Close()

	waitFor(t, func() bool {
		_, ok := p.View()
		return ok
	})

	// Kill the backend; the view must stay at its last good state.
	f.server.Close()
	time.Sleep(50 * time.Millisecond)

	v, ok := p.View()
	if !ok || v.Session.ID != "session_test" {
		t.Fatalf("expected last good view to survive failures, got %+v ok=%v", v, ok)
	}
}
