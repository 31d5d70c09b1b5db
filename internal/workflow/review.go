package workflow

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"estatehub/internal/model"
	"estatehub/internal/permission"

	"github.com/google/uuid"
)

var (
	ErrInvalidTransition    = errors.New("invalid review transition")
	ErrMissingJustification = errors.New("a reason is required for this action")
	ErrUnknownAction        = errors.New("unknown review action")
)

// Action is a moderation decision an admin can submit.
type Action string

const (
	ActionApprove   Action = "approve"
	ActionReject    Action = "reject"
	ActionNeedsEdit Action = "needs_edit"
	ActionRevert    Action = "revert_to_pending"
)

func ParseAction(s string) (Action, error) {
	switch a := Action(s); a {
	case ActionApprove, ActionReject, ActionNeedsEdit, ActionRevert:
		return a, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownAction, s)
}

// RequiredCapability is the properties capability the acting admin must hold.
func (a Action) RequiredCapability() permission.Capability {
	switch a {
	case ActionApprove, ActionReject:
		return permission.Approve
	case ActionNeedsEdit:
		return permission.Edit
	}
	return permission.View
}

// RequiresJustification reports whether the action needs a non-empty reason.
func (a Action) RequiresJustification() bool {
	return a == ActionReject || a == ActionNeedsEdit
}

// ActivityName is the audit action recorded for a decision.
func (a Action) ActivityName() string {
	switch a {
	case ActionApprove:
		return model.ActionApproveProperty
	case ActionReject:
		return model.ActionRejectProperty
	case ActionNeedsEdit:
		return model.ActionRequestEdit
	}
	return model.ActionRevertProperty
}

// Target returns the status the action leads to from the given state.
// Only PENDING may move to a terminal state and only a terminal state may
// revert.
func Target(from model.ReviewStatus, a Action) (model.ReviewStatus, error) {
	switch a {
	case ActionApprove, ActionReject, ActionNeedsEdit:
		if from != model.ReviewPending {
			return "", fmt.Errorf("%w: cannot %s a listing in %s", ErrInvalidTransition, a, from)
		}
		return terminal[a], nil
	case ActionRevert:
		if from == model.ReviewPending || !from.Valid() {
			return "", fmt.Errorf("%w: cannot %s a listing in %s", ErrInvalidTransition, a, from)
		}
		return model.ReviewPending, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownAction, string(a))
}

var terminal = map[Action]model.ReviewStatus{
	ActionApprove:   model.ReviewApproved,
	ActionReject:    model.ReviewRejected,
	ActionNeedsEdit: model.ReviewNeedsEdit,
}

// Decide applies an action to the current review state and returns the new
// state. It never mutates cur. The returned value keeps the invariant that
// rejectionReason is non-empty for REJECTED and NEEDS_EDIT.
func Decide(cur model.Review, a Action, actor uuid.UUID, reason string, now time.Time) (model.Review, error) {
	reason = strings.TrimSpace(reason)
	if a.RequiresJustification() && reason == "" {
		return cur, ErrMissingJustification
	}

	to, err := Target(cur.ReviewStatus, a)
	if err != nil {
		return cur, err
	}

	next := model.Review{ReviewStatus: to}
	switch a {
	case ActionApprove:
		next.ReviewedBy, next.ReviewedAt = &actor, &now
	case ActionReject, ActionNeedsEdit:
		next.ReviewedBy, next.ReviewedAt = &actor, &now
		next.RejectionReason = reason
	case ActionRevert:
		// reason kept for history
		next.RejectionReason = cur.RejectionReason
	}
	return next, nil
}

// Resubmit returns a listing to PENDING after the owner edits it.
func Resubmit(cur model.Review) model.Review {
	if cur.ReviewStatus == model.ReviewPending {
		return cur
	}
	return model.Review{ReviewStatus: model.ReviewPending, RejectionReason: cur.RejectionReason}
}
