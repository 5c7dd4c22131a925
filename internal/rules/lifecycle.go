package rules

import (
	"fmt"
	"time"

	"github.com/noah-isme/maintenance-api/internal/models"
)

// GuardResult represents the outcome of a guard evaluation.
type GuardResult struct {
	Allowed bool
	Reason  string
}

// Error converts the guard result to an error if not allowed.
func (r GuardResult) Error() error {
	if r.Allowed {
		return nil
	}
	return fmt.Errorf("%s", r.Reason)
}

// TransitionContext provides context for status transition guards.
type TransitionContext struct {
	RequestID string
	From      models.RequestStatus
	To        models.RequestStatus
	Force     bool
}

// CanTransition evaluates whether a request may move to a new status.
// Rules:
// - Target must be a known status
// - Repaired and Scrap are terminal unless Force is set
func CanTransition(ctx TransitionContext) GuardResult {
	if !ctx.To.Valid() {
		return GuardResult{Reason: fmt.Sprintf("invalid status %q", ctx.To)}
	}
	if ctx.From.Terminal() && !ctx.Force {
		return GuardResult{
			Reason: fmt.Sprintf("request %s is %s; set force to override", ctx.RequestID, ctx.From),
		}
	}
	return GuardResult{Allowed: true}
}

// Transition describes one status change and its optional side inputs.
type Transition struct {
	Status     models.RequestStatus
	AssigneeID *string
	Duration   *float64
	Note       string
	Force      bool
}

// ApplyTransition mutates req for t at instant now.
// Rules:
// - In Progress stamps startDate once
// - Repaired stamps completionDate every time and takes an explicit duration
// - Scrap leaves dates untouched
// - notes are appended, never replaced
func ApplyTransition(req *models.MaintenanceRequest, t Transition, now time.Time) {
	stamp := now.UTC()
	req.Status = t.Status

	switch t.Status {
	case models.StatusInProgress:
		if req.StartDate == nil {
			req.StartDate = &stamp
		}
	case models.StatusRepaired:
		req.CompletionDate = &stamp
		if t.Duration != nil {
			req.Duration = *t.Duration
		}
	}

	if t.AssigneeID != nil {
		id := *t.AssigneeID
		req.AssignedToID = &id
	}
	req.Notes = AppendNote(req.Notes, t.Note, now)
}

// AssignTransition is the transition performed by the assign route: set the
// assignee and start work.
func AssignTransition(assigneeID, note string) Transition {
	return Transition{Status: models.StatusInProgress, AssigneeID: &assigneeID, Note: note}
}
