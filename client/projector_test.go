package client

import (
	"testing"
	"time"

	"github.com/LusX0117/itemsharing/domain"
)

func viewSession(status domain.SessionStatus) domain.Session {
	now := time.Now()
	return domain.Session{
		ID:             "session_test",
		ItemID:         1,
		ItemTitle:      "吉他",
		LenderUserID:   "lender",
		BorrowerUserID: "borrower",
		Status:         status,
		BeforePhotos:   []string{"/media/a.jpg"},
		AfterPhotos:    []string{"/media/b.jpg"},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func approveMessage(id int64) domain.Message {
	return domain.Message{
		ID:           id,
		SessionID:    "session_test",
		SenderUserID: domain.SystemSenderID,
		SenderName:   domain.SystemSenderName,
		Text:         "出借者已同意借用申请，借用单进入借用中。",
		Time:         time.Now(),
	}
}

func TestBuildViewCapabilityFlags(t *testing.T) {
	tests := []struct {
		name   string
		status domain.SessionStatus
		user   string
		want   map[string]bool
	}{
		{
			"lender pending", domain.StatusPendingLenderApproval, "lender",
			map[string]bool{"approve": true, "rejectBorrow": true},
		},
		{
			"borrower pending", domain.StatusPendingLenderApproval, "borrower",
			map[string]bool{"cancel": true},
		},
		{
			"borrower active", domain.StatusActive, "borrower",
			map[string]bool{"cancel": true, "requestReturn": true},
		},
		{
			"lender pending return", domain.StatusPendingReturnConfirmation, "lender",
			map[string]bool{"confirmReturn": true, "rejectReturn": true},
		},
		{
			"borrower pending return", domain.StatusPendingReturnConfirmation, "borrower",
			map[string]bool{"cancel": true},
		},
		{
			"lender completed", domain.StatusCompleted, "lender",
			map[string]bool{"rate": true},
		},
		{
			"stranger active", domain.StatusActive, "stranger",
			map[string]bool{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			messages := []domain.Message{approveMessage(1)}
			v := BuildView(viewSession(tt.status), messages, tt.user, false)
			got := map[string]bool{
				"approve":       v.CanApproveBorrow,
				"rejectBorrow":  v.CanRejectBorrow,
				"cancel":        v.CanCancelBorrow,
				"requestReturn": v.CanRequestReturn,
				"confirmReturn": v.CanConfirmReturn,
				"rejectReturn":  v.CanRejectReturn,
				"rate":          v.CanRate,
			}
			for flag, val := range got {
				if val != tt.want[flag] {
					t.Fatalf("%s: expected %v, got %v (view %+v)", flag, tt.want[flag], val, v)
				}
			}
		})
	}
}

func TestBuildViewStage(t *testing.T) {
	tests := []struct {
		status domain.SessionStatus
		want   int
	}{
		{domain.StatusPendingLenderApproval, StagePending},
		{domain.StatusNegotiating, StagePending},
		{domain.StatusActive, StageActive},
		{domain.StatusPendingReturnConfirmation, StagePendingReturn},
		{domain.StatusCompleted, StageCompleted},
		{domain.StatusRejected, StageNone},
		{domain.StatusCancelled, StageNone},
	}
	for _, tt := range tests {
		messages := []domain.Message{approveMessage(1)}
		v := BuildView(viewSession(tt.status), messages, "lender", false)
		if v.Stage != tt.want {
			t.Fatalf("%s: expected stage %d, got %d", tt.status, tt.want, v.Stage)
		}
	}
}

func TestBuildViewRatedUserCannotRateAgain(t *testing.T) {
	v := BuildView(viewSession(domain.StatusCompleted), nil, "borrower", true)
	if v.CanRate {
		t.Fatalf("a user who already rated must not see canRate")
	}
}

func TestResolveStatusFallsBackToPending(t *testing.T) {
	// Active without an approval system message displays as pending.
	noApproval := []domain.Message{
		{ID: 1, SenderUserID: domain.SystemSenderID, Text: "借用申请已发起，等待出借者同意。", Time: time.Now()},
		{ID: 2, SenderUserID: "borrower", Text: "同意借用这四个字出现在用户消息里不算数", Time: time.Now()},
	}
	if got := ResolveStatus(domain.StatusActive, noApproval); got != domain.StatusPendingLenderApproval {
		t.Fatalf("expected pending fallback, got %s", got)
	}

	withApproval := append(noApproval, approveMessage(3))
	if got := ResolveStatus(domain.StatusActive, withApproval); got != domain.StatusActive {
		t.Fatalf("expected active, got %s", got)
	}

	// Other statuses pass through untouched.
	if got := ResolveStatus(domain.StatusCompleted, noApproval); got != domain.StatusCompleted {
		t.Fatalf("expected completed, got %s", got)
	}
}

func TestBuildCompareRowsPadsShorterList(t *testing.T) {
	rows := BuildCompareRows([]string{"b1", "b2"}, []string{"a1"})
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].Before != "b1" || rows[0].After != "a1" {
		t.Fatalf("unexpected row 0: %+v", rows[0])
	}
	if rows[1].Before != "b2" || rows[1].After != "" {
		t.Fatalf("unexpected row 1: %+v", rows[1])
	}
}

func TestTimelineMarkersAndDecoration(t *testing.T) {
	day1 := time.Date(2026, 3, 1, 9, 30, 0, 0, time.Local)
	day2 := time.Date(2026, 3, 2, 8, 0, 0, 0, time.Local)
	messages := []domain.Message{
		{ID: 1, SenderUserID: domain.SystemSenderID, Text: "借用申请已发起，等待出借者同意。", Time: day1},
		{ID: 2, SenderUserID: "borrower", Text: "你好", Time: day1.Add(time.Minute)},
		{ID: 3, SenderUserID: "lender", Text: "在的", Time: day2},
	}

	v := BuildView(viewSession(domain.StatusPendingLenderApproval), messages, "borrower", false)
	if v.LatestID != 3 {
		t.Fatalf("expected latest id 3, got %d", v.LatestID)
	}

	// Two day markers plus three messages.
	if len(v.Timeline) != 5 {
		t.Fatalf("expected 5 records, got %d: %+v", len(v.Timeline), v.Timeline)
	}
	if v.Timeline[0].Kind != "marker" || v.Timeline[0].Label != "2026-03-01" {
		t.Fatalf("unexpected first marker: %+v", v.Timeline[0])
	}
	if v.Timeline[3].Kind != "marker" || v.Timeline[3].Label != "2026-03-02" {
		t.Fatalf("unexpected second marker: %+v", v.Timeline[3])
	}

	system := v.Timeline[1]
	if system.Sender != "system" || system.Mine {
		t.Fatalf("unexpected system record: %+v", system)
	}
	mine := v.Timeline[2]
	if mine.Sender != "user" || !mine.Mine || mine.RowKey != "msg-2" {
		t.Fatalf("unexpected own record: %+v", mine)
	}
	if mine.TimeText != "03-01 09:31" {
		t.Fatalf("unexpected time text: %q", mine.TimeText)
	}
}

func TestCountUnread(t *testing.T) {
	messages := []domain.Message{
		{ID: 1, SenderUserID: domain.SystemSenderID},
		{ID: 2, SenderUserID: "borrower"},
		{ID: 3, SenderUserID: "lender"},
		{ID: 4, SenderUserID: "borrower"},
	}

	if n := CountUnread(messages, "lender", 0); n != 2 {
		t.Fatalf("expected 2 unread for lender, got %d", n)
	}
	if n := CountUnread(messages, "lender", 2); n != 1 {
		t.Fatalf("expected 1 unread past cursor, got %d", n)
	}
	if n := CountUnread(messages, "borrower", 0); n != 1 {
		t.Fatalf("expected 1 unread for borrower, got %d", n)
	}
	if n := CountUnread(messages, "lender", 4); n != 0 {
		t.Fatalf("expected 0 unread at tip, got %d", n)
	}
}
