package domain

import (
	"fmt"
	"strings"
)

// Action is one of the closed set of borrow-session actions. Each action
// carries its payload in TransitionRequest; reject and cancel actions
// require a non-empty reason.
type Action string

const (
	ActionApproveBorrow Action = "approve_borrow"
	ActionRejectBorrow  Action = "reject_borrow"
	ActionRequestReturn Action = "request_return"
	ActionConfirmReturn Action = "confirm_return"
	ActionRejectReturn  Action = "reject_return"
	ActionCancelBorrow  Action = "cancel_borrow"
)

// RequiresReason reports whether the action must carry a trimmed non-empty
// reason.
func (a Action) RequiresReason() bool {
	switch a {
	case ActionRejectBorrow, ActionRejectReturn, ActionCancelBorrow:
		return true
	}
	return false
}

// TransitionRequest is a participant's attempt to move a session forward.
type TransitionRequest struct {
	ActorUserID string
	Action      Action
	Reason      string
}

// TransitionResult is the outcome of a permitted transition. The caller
// commits NextStatus and appends exactly one system message with SystemText
// as a single atomic unit.
type TransitionResult struct {
	NextStatus SessionStatus
	SystemText string
}

// ApproveMarker appears only in the system message emitted by a successful
// approve_borrow. The client projector uses it as a defensive fallback to
// re-derive status when a replicated message log lags the status field.
const ApproveMarker = "同意借用"

// Transition validates req against the session and returns the next status
// and the system message text. It is pure: no store access, no mutation.
//
// Guard order: participant, reason payload, then role+state. A
// non-participant fails with forbidden_actor; a participant acting with the
// wrong role or in the wrong state fails with invalid_status_transition.
func Transition(s *Session, req TransitionRequest) (TransitionResult, error) {
	if !s.IsParticipant(req.ActorUserID) {
		return TransitionResult{}, ErrForbiddenActor
	}

	reason := strings.TrimSpace(req.Reason)
	if req.Action.RequiresReason() && reason == "" {
		return TransitionResult{}, ErrMissingActionReason
	}

	isLender := req.ActorUserID == s.LenderUserID
	isBorrower := req.ActorUserID == s.BorrowerUserID

	switch req.Action {
	case ActionApproveBorrow:
		if !isLender || !s.Status.IsPendingLenderApproval() {
			return TransitionResult{}, ErrInvalidStatusTransition
		}
		return TransitionResult{
			NextStatus: StatusActive,
			SystemText: "出借者已同意借用申请，借用单进入借用中。",
		}, nil

	case ActionRejectBorrow:
		if !isLender || !s.Status.IsPendingLenderApproval() {
			return TransitionResult{}, ErrInvalidStatusTransition
		}
		return TransitionResult{
			NextStatus: StatusRejected,
			SystemText: fmt.Sprintf("出借者已拒绝借用申请。原因：%s", reason),
		}, nil

	case ActionRequestReturn:
		if !isBorrower || s.Status != StatusActive {
			return TransitionResult{}, ErrInvalidStatusTransition
		}
		if len(s.BeforePhotos) == 0 || len(s.AfterPhotos) == 0 {
			return TransitionResult{}, ErrMissingComparePhotos
		}
		return TransitionResult{
			NextStatus: StatusPendingReturnConfirmation,
			SystemText: "借用者已发起归还确认，等待出借者确认。",
		}, nil

	case ActionConfirmReturn:
		if !isLender || s.Status != StatusPendingReturnConfirmation {
			return TransitionResult{}, ErrInvalidStatusTransition
		}
		return TransitionResult{
			NextStatus: StatusCompleted,
			SystemText: "出借者已确认归还，本次借用已完成。",
		}, nil

	case ActionRejectReturn:
		if !isLender || s.Status != StatusPendingReturnConfirmation {
			return TransitionResult{}, ErrInvalidStatusTransition
		}
		return TransitionResult{
			NextStatus: StatusActive,
			SystemText: fmt.Sprintf("出借者退回了归还确认，借用状态恢复为借用中。原因：%s", reason),
		}, nil

	case ActionCancelBorrow:
		// Borrower-unilateral from any non-terminal state, including
		// pending_return_confirmation. Whether that last stage should need
		// lender consent is an open product question.
		if !isBorrower || s.Status.IsTerminal() {
			return TransitionResult{}, ErrInvalidStatusTransition
		}
		return TransitionResult{
			NextStatus: StatusCancelled,
			SystemText: fmt.Sprintf("借用者已取消本次借用。原因：%s", reason),
		}, nil
	}

	return TransitionResult{}, ErrUnsupportedAction
}
