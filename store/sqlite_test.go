package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/LusX0117/itemsharing/domain"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func newStoredSession(t *testing.T, s *SQLiteStore, id string, status domain.SessionStatus) *domain.Session {
	t.Helper()
	now := time.Now()
	session := &domain.Session{
		ID:             id,
		ItemID:         1,
		ItemTitle:      "吉他",
		LenderUserID:   "lender",
		LenderName:     "出借者",
		BorrowerUserID: "borrower",
		BorrowerName:   "借用者",
		Status:         status,
		BeforePhotos:   []string{},
		AfterPhotos:    []string{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.CreateSession(context.Background(), session, "借用申请已发起，等待出借者同意。"); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	return session
}

func TestCreateSessionWritesInitialSystemMessage(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	newStoredSession(t, store, "s1", domain.StatusPendingLenderApproval)

	got, err := store.GetSession(ctx, "s1")
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if got == nil || got.Status != domain.StatusPendingLenderApproval {
		t.Fatalf("unexpected session: %+v", got)
	}

	messages, err := store.ListMessages(ctx, "s1", 0)
	if err != nil {
		t.Fatalf("ListMessages failed: %v", err)
	}
	if len(messages) != 1 {
		t.Fatalf("expected 1 initial message, got %d", len(messages))
	}
	if !messages[0].IsSystem() {
		t.Fatalf("initial message must be a system message: %+v", messages[0])
	}
}

func TestGetSessionMissing(t *testing.T) {
	store := newTestStore(t)
	got, err := store.GetSession(context.Background(), "nope")
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil for missing session, got %+v", got)
	}
}

func TestFindActiveSessionSkipsTerminal(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	newStoredSession(t, store, "s1", domain.StatusPendingLenderApproval)

	got, err := store.FindActiveSession(ctx, 1, "lender", "borrower")
	if err != nil {
		t.Fatalf("FindActiveSession failed: %v", err)
	}
	if got == nil || got.ID != "s1" {
		t.Fatalf("expected s1, got %+v", got)
	}

	if _, _, err := store.ApplyTransition(ctx, "s1",
		[]domain.SessionStatus{domain.StatusPendingLenderApproval},
		domain.StatusCancelled, "借用者已取消本次借用。原因：不需要了"); err != nil {
		t.Fatalf("ApplyTransition failed: %v", err)
	}

	got, err = store.FindActiveSession(ctx, 1, "lender", "borrower")
	if err != nil {
		t.Fatalf("FindActiveSession failed: %v", err)
	}
	if got != nil {
		t.Fatalf("terminal session must not be reused: %+v", got)
	}

	// A different borrower never matches.
	got, err = store.FindActiveSession(ctx, 1, "lender", "someone_else")
	if err != nil {
		t.Fatalf("FindActiveSession failed: %v", err)
	}
	if got != nil {
		t.Fatalf("expected no session for other borrower, got %+v", got)
	}
}

func TestApplyTransitionCommitsStatusAndSystemMessage(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	newStoredSession(t, store, "s1", domain.StatusPendingLenderApproval)

	updated, msg, err := store.ApplyTransition(ctx, "s1",
		[]domain.SessionStatus{domain.StatusPendingLenderApproval, domain.StatusNegotiating},
		domain.StatusActive, "出借者已同意借用申请，借用单进入借用中。")
	if err != nil {
		t.Fatalf("ApplyTransition failed: %v", err)
	}
	if updated.Status != domain.StatusActive {
		t.Fatalf("expected active, got %s", updated.Status)
	}
	if msg == nil || !msg.IsSystem() || msg.ID == 0 {
		t.Fatalf("expected a stored system message, got %+v", msg)
	}

	messages, err := store.ListMessages(ctx, "s1", 0)
	if err != nil {
		t.Fatalf("ListMessages failed: %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("expected initial + transition message, got %d", len(messages))
	}
}

func TestApplyTransitionRejectsStaleStatus(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	newStoredSession(t, store, "s1", domain.StatusPendingLenderApproval)

	// First writer wins.
	if _, _, err := store.ApplyTransition(ctx, "s1",
		[]domain.SessionStatus{domain.StatusPendingLenderApproval},
		domain.StatusRejected, "出借者已拒绝借用申请。原因：物品已借出"); err != nil {
		t.Fatalf("ApplyTransition failed: %v", err)
	}

	// Second writer validated against the old status and must lose.
	_, _, err := store.ApplyTransition(ctx, "s1",
		[]domain.SessionStatus{domain.StatusPendingLenderApproval},
		domain.StatusActive, "出借者已同意借用申请，借用单进入借用中。")
	if !errors.Is(err, domain.ErrInvalidStatusTransition) {
		t.Fatalf("expected invalid_status_transition, got %v", err)
	}

	// The losing transition must not have appended its system message.
	messages, err := store.ListMessages(ctx, "s1", 0)
	if err != nil {
		t.Fatalf("ListMessages failed: %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("expected 2 messages after one committed transition, got %d", len(messages))
	}
	got, err := store.GetSession(ctx, "s1")
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if got.Status != domain.StatusRejected {
		t.Fatalf("status must stay rejected, got %s", got.Status)
	}
}

func TestAppendAndListMessagesOrdering(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	newStoredSession(t, store, "s1", domain.StatusActive)

	for _, text := range []string{"你好", "吉他还在吗", "在的"} {
		sender := "borrower"
		if text == "在的" {
			sender = "lender"
		}
		msg := &domain.Message{
			SessionID:    "s1",
			SenderUserID: sender,
			SenderName:   sender,
			Text:         text,
			Time:         time.Now(),
		}
		if err := store.AppendMessage(ctx, msg); err != nil {
			t.Fatalf("AppendMessage failed: %v", err)
		}
		if msg.ID == 0 {
			t.Fatalf("AppendMessage must assign the id")
		}
	}

	messages, err := store.ListMessages(ctx, "s1", 0)
	if err != nil {
		t.Fatalf("ListMessages failed: %v", err)
	}
	if len(messages) != 4 {
		t.Fatalf("expected 4 messages, got %d", len(messages))
	}
	for i := 1; i < len(messages); i++ {
		if messages[i].ID <= messages[i-1].ID {
			t.Fatalf("ids must be strictly increasing: %d then %d", messages[i-1].ID, messages[i].ID)
		}
	}

	// Incremental fetch after the second message.
	tail, err := store.ListMessages(ctx, "s1", messages[1].ID)
	if err != nil {
		t.Fatalf("ListMessages failed: %v", err)
	}
	if len(tail) != 2 {
		t.Fatalf("expected 2 messages after id %d, got %d", messages[1].ID, len(tail))
	}
}

func TestMarkReadMonotonicAndUnread(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	newStoredSession(t, store, "s1", domain.StatusActive)

	var lastID int64
	for i := 0; i < 3; i++ {
		msg := &domain.Message{
			SessionID:    "s1",
			SenderUserID: "borrower",
			SenderName:   "借用者",
			Text:         "消息",
			Time:         time.Now(),
		}
		if err := store.AppendMessage(ctx, msg); err != nil {
			t.Fatalf("AppendMessage failed: %v", err)
		}
		lastID = msg.ID
	}

	// Lender has read nothing: unread counts the borrower's 3 messages but
	// not the initial system message.
	n, err := store.UnreadCount(ctx, "s1", "lender")
	if err != nil {
		t.Fatalf("UnreadCount failed: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected 3 unread, got %d", n)
	}

	// The borrower's own messages never count as unread for them.
	n, err = store.UnreadCount(ctx, "s1", "borrower")
	if err != nil {
		t.Fatalf("UnreadCount failed: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected 0 unread for sender, got %d", n)
	}

	if err := store.MarkRead(ctx, "s1", "lender", lastID); err != nil {
		t.Fatalf("MarkRead failed: %v", err)
	}
	cursor, err := store.GetReadCursor(ctx, "s1", "lender")
	if err != nil {
		t.Fatalf("GetReadCursor failed: %v", err)
	}
	if cursor != lastID {
		t.Fatalf("expected cursor %d, got %d", lastID, cursor)
	}

	// A stale update is a no-op.
	if err := store.MarkRead(ctx, "s1", "lender", lastID-2); err != nil {
		t.Fatalf("MarkRead failed: %v", err)
	}
	cursor, err = store.GetReadCursor(ctx, "s1", "lender")
	if err != nil {
		t.Fatalf("GetReadCursor failed: %v", err)
	}
	if cursor != lastID {
		t.Fatalf("stale update must not move the cursor: got %d", cursor)
	}

	n, err = store.UnreadCount(ctx, "s1", "lender")
	if err != nil {
		t.Fatalf("UnreadCount failed: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected 0 unread after mark read, got %d", n)
	}
}

func TestRatingExclusivityAndSummary(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	newStoredSession(t, store, "s1", domain.StatusCompleted)
	newStoredSession(t, store, "s2", domain.StatusCompleted)

	first := &domain.Rating{
		SessionID:    "s1",
		RaterUserID:  "borrower",
		TargetUserID: "lender",
		Score:        5,
		Comment:      "非常好",
		CreatedAt:    time.Now(),
	}
	if err := store.CreateRating(ctx, first); err != nil {
		t.Fatalf("CreateRating failed: %v", err)
	}

	dup := *first
	dup.Score = 1
	if err := store.CreateRating(ctx, &dup); !errors.Is(err, domain.ErrRatingAlreadySubmitted) {
		t.Fatalf("expected rating_already_submitted, got %v", err)
	}

	second := &domain.Rating{
		SessionID:    "s2",
		RaterUserID:  "borrower",
		TargetUserID: "lender",
		Score:        4,
		CreatedAt:    time.Now(),
	}
	if err := store.CreateRating(ctx, second); err != nil {
		t.Fatalf("CreateRating failed: %v", err)
	}

	got, err := store.GetRating(ctx, "s1", "borrower")
	if err != nil {
		t.Fatalf("GetRating failed: %v", err)
	}
	if got == nil || got.Score != 5 {
		t.Fatalf("unexpected rating: %+v", got)
	}

	summary, err := store.RatingSummary(ctx, "lender")
	if err != nil {
		t.Fatalf("RatingSummary failed: %v", err)
	}
	if summary.RatingCount != 2 || summary.AverageScore != 4.5 {
		t.Fatalf("unexpected summary: %+v", summary)
	}

	// No ratings yet for the borrower.
	empty, err := store.RatingSummary(ctx, "borrower")
	if err != nil {
		t.Fatalf("RatingSummary failed: %v", err)
	}
	if empty.RatingCount != 0 || empty.AverageScore != 0 {
		t.Fatalf("unexpected empty summary: %+v", empty)
	}
}

func TestUpdateSessionPhotos(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	newStoredSession(t, store, "s1", domain.StatusActive)

	updated, err := store.UpdateSessionPhotos(ctx, "s1",
		[]string{"/media/before.jpg"}, []string{"/media/after.jpg"})
	if err != nil {
		t.Fatalf("UpdateSessionPhotos failed: %v", err)
	}
	if len(updated.BeforePhotos) != 1 || len(updated.AfterPhotos) != 1 {
		t.Fatalf("unexpected photos: %+v", updated)
	}

	got, err := store.GetSession(ctx, "s1")
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if got.BeforePhotos[0] != "/media/before.jpg" || got.AfterPhotos[0] != "/media/after.jpg" {
		t.Fatalf("photos not persisted: %+v", got)
	}
}

func TestUsersRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	user := &domain.User{ID: "u_1", Phone: "19900000001", Nickname: "小明"}
	if err := store.CreateUser(ctx, user, "salt:hash"); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	got, hash, err := store.GetUserByPhone(ctx, "19900000001")
	if err != nil {
		t.Fatalf("GetUserByPhone failed: %v", err)
	}
	if got == nil || got.Nickname != "小明" || hash != "salt:hash" {
		t.Fatalf("unexpected user: %+v hash=%q", got, hash)
	}

	got, _, err = store.GetUserByPhone(ctx, "19900000099")
	if err != nil {
		t.Fatalf("GetUserByPhone failed: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil for unknown phone, got %+v", got)
	}

	user.Nickname = "小明同学"
	if err := store.UpsertUser(ctx, user, "salt:hash2"); err != nil {
		t.Fatalf("UpsertUser failed: %v", err)
	}
	byID, err := store.GetUser(ctx, "u_1")
	if err != nil {
		t.Fatalf("GetUser failed: %v", err)
	}
	if byID == nil || byID.Nickname != "小明同学" {
		t.Fatalf("upsert did not apply: %+v", byID)
	}
}
