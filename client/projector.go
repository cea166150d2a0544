package client

import (
	"strconv"
	"strings"
	"time"

	"github.com/LusX0117/itemsharing/domain"
)

// Stage indexes for the session progress bar. Terminal-negative statuses
// (rejected, cancelled) map to StageNone.
const (
	StageNone          = -1
	StagePending       = 0
	StageActive        = 1
	StagePendingReturn = 2
	StageCompleted     = 3
)

// View is the role-aware rendering of a session for one user. It is
// recomputed from scratch on every fetch since the server may have moved
// the session under us.
type View struct {
	Session domain.Session

	IsLender   bool
	IsBorrower bool
	Stage      int

	CanApproveBorrow bool
	CanRejectBorrow  bool
	CanCancelBorrow  bool
	CanRequestReturn bool
	CanConfirmReturn bool
	CanRejectReturn  bool
	CanRate          bool

	CompareRows []CompareRow
	Timeline    []TimelineRecord
	LatestID    int64
}

// CompareRow pairs the i-th before photo with the i-th after photo so both
// lists render side by side even when their lengths differ.
type CompareRow struct {
	Index  int    `json:"index"`
	Before string `json:"before"`
	After  string `json:"after"`
}

// TimelineRecord is one rendered row of the chat timeline: either a
// message or a derived date-separator marker. Markers are never persisted.
type TimelineRecord struct {
	Kind     string `json:"kind"` // "message" or "marker"
	RowKey   string `json:"rowKey"`
	Label    string `json:"label,omitempty"`
	Message  *domain.Message
	Sender   string `json:"sender,omitempty"` // "system" or "user"
	Mine     bool   `json:"mine,omitempty"`
	TimeText string `json:"timeText,omitempty"`
	DayText  string `json:"dayText,omitempty"`
}

// BuildView projects a session and its message log into the view for
// currentUserID. hasRated is whether this user already submitted a rating
// for the session; it gates CanRate together with the completed status.
func BuildView(session domain.Session, messages []domain.Message, currentUserID string, hasRated bool) View {
	session.Status = ResolveStatus(session.Status, messages)

	isLender := currentUserID != "" && currentUserID == session.LenderUserID
	isBorrower := currentUserID != "" && currentUserID == session.BorrowerUserID
	pendingApproval := session.Status.IsPendingLenderApproval()
	active := session.Status == domain.StatusActive
	pendingReturn := session.Status == domain.StatusPendingReturnConfirmation

	v := View{
		Session:    session,
		IsLender:   isLender,
		IsBorrower: isBorrower,
		Stage:      stageOf(session.Status),

		CanApproveBorrow: isLender && pendingApproval,
		CanRejectBorrow:  isLender && pendingApproval,
		CanCancelBorrow:  isBorrower && !session.Status.IsTerminal(),
		CanRequestReturn: isBorrower && active,
		CanConfirmReturn: isLender && pendingReturn,
		CanRejectReturn:  isLender && pendingReturn,
		CanRate:          session.Status == domain.StatusCompleted && !hasRated && (isLender || isBorrower),

		CompareRows: BuildCompareRows(session.BeforePhotos, session.AfterPhotos),
	}

	v.Timeline = buildTimeline(messages, currentUserID)
	for i := range messages {
		if messages[i].ID > v.LatestID {
			v.LatestID = messages[i].ID
		}
	}
	return v
}

// ResolveStatus re-derives the display status from the message log. A
// transport status of active without the approval system message means the
// log has not caught up with the approval yet, so the view stays pending.
// Server-side the two commit atomically; this is a defensive fallback.
func ResolveStatus(status domain.SessionStatus, messages []domain.Message) domain.SessionStatus {
	if status != domain.StatusActive {
		return status
	}
	for i := range messages {
		if messages[i].IsSystem() && strings.Contains(messages[i].Text, domain.ApproveMarker) {
			return domain.StatusActive
		}
	}
	return domain.StatusPendingLenderApproval
}

func stageOf(status domain.SessionStatus) int {
	switch {
	case status.IsPendingLenderApproval():
		return StagePending
	case status == domain.StatusActive:
		return StageActive
	case status == domain.StatusPendingReturnConfirmation:
		return StagePendingReturn
	case status == domain.StatusCompleted:
		return StageCompleted
	}
	return StageNone
}

// BuildCompareRows zips the before/after photo lists into display rows,
// padding the shorter list with empty slots.
func BuildCompareRows(beforePhotos, afterPhotos []string) []CompareRow {
	n := len(beforePhotos)
	if len(afterPhotos) > n {
		n = len(afterPhotos)
	}
	rows := make([]CompareRow, 0, n)
	for i := 0; i < n; i++ {
		row := CompareRow{Index: i}
		if i < len(beforePhotos) {
			row.Before = beforePhotos[i]
		}
		if i < len(afterPhotos) {
			row.After = afterPhotos[i]
		}
		rows = append(rows, row)
	}
	return rows
}

// buildTimeline decorates messages with sender tags and time text and
// inserts a date marker whenever the day changes.
func buildTimeline(messages []domain.Message, currentUserID string) []TimelineRecord {
	records := make([]TimelineRecord, 0, len(messages))
	lastDay := ""
	for i := range messages {
		msg := &messages[i]
		day := msg.Time.Format("2006-01-02")
		if day != lastDay {
			records = append(records, TimelineRecord{
				Kind:   "marker",
				RowKey: "day-" + day,
				Label:  day,
			})
			lastDay = day
		}
		sender := "user"
		if msg.IsSystem() {
			sender = "system"
		}
		records = append(records, TimelineRecord{
			Kind:     "message",
			RowKey:   "msg-" + formatID(msg.ID),
			Message:  msg,
			Sender:   sender,
			Mine:     msg.SenderUserID == currentUserID,
			TimeText: formatTime(msg.Time),
			DayText:  day,
		})
	}
	return records
}

// CountUnread counts messages newer than the read cursor, excluding the
// viewer's own messages and system messages.
func CountUnread(messages []domain.Message, currentUserID string, lastReadID int64) int {
	n := 0
	for i := range messages {
		msg := &messages[i]
		if msg.ID <= lastReadID || msg.IsSystem() || msg.SenderUserID == currentUserID {
			continue
		}
		n++
	}
	return n
}

func formatTime(t time.Time) string {
	return t.Format("01-02 15:04")
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
