package rules

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/maintenance-api/internal/models"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name    string
		ctx     TransitionContext
		allowed bool
	}{
		{"new to in progress", TransitionContext{From: models.StatusNew, To: models.StatusInProgress}, true},
		{"on hold to repaired", TransitionContext{From: models.StatusOnHold, To: models.StatusRepaired}, true},
		{"unknown target", TransitionContext{From: models.StatusNew, To: "Done"}, false},
		{"repaired is terminal", TransitionContext{RequestID: "r1", From: models.StatusRepaired, To: models.StatusNew}, false},
		{"scrap is terminal", TransitionContext{From: models.StatusScrap, To: models.StatusInProgress}, false},
		{"force overrides terminal", TransitionContext{From: models.StatusRepaired, To: models.StatusInProgress, Force: true}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CanTransition(tt.ctx)
			assert.Equal(t, tt.allowed, result.Allowed)
			if tt.allowed {
				assert.NoError(t, result.Error())
			} else {
				assert.Error(t, result.Error())
			}
		})
	}
}

func TestApplyTransitionStartDateStampedOnce(t *testing.T) {
	first := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	req := models.MaintenanceRequest{Status: models.StatusNew}

	ApplyTransition(&req, Transition{Status: models.StatusInProgress}, first)
	require.NotNil(t, req.StartDate)
	assert.Equal(t, first, *req.StartDate)

	ApplyTransition(&req, Transition{Status: models.StatusOnHold}, first.Add(time.Hour))
	ApplyTransition(&req, Transition{Status: models.StatusInProgress}, first.Add(2*time.Hour))

	assert.Equal(t, first, *req.StartDate)
	assert.Equal(t, models.StatusInProgress, req.Status)
}

func TestApplyTransitionRepairedStampsCompletion(t *testing.T) {
	at := time.Date(2024, 1, 2, 17, 30, 0, 0, time.UTC)
	duration := 3.0
	req := models.MaintenanceRequest{Status: models.StatusInProgress, Duration: 1}

	ApplyTransition(&req, Transition{Status: models.StatusRepaired, Duration: &duration, Note: "done"}, at)

	require.NotNil(t, req.CompletionDate)
	assert.Equal(t, at, *req.CompletionDate)
	assert.Equal(t, 3.0, req.Duration)
	assert.Contains(t, req.Notes, "] done")
}

func TestApplyTransitionRepairedKeepsDurationWhenAbsent(t *testing.T) {
	req := models.MaintenanceRequest{Status: models.StatusInProgress, Duration: 2}

	ApplyTransition(&req, Transition{Status: models.StatusRepaired}, time.Now())

	assert.Equal(t, 2.0, req.Duration)
	assert.NotNil(t, req.CompletionDate)
}

func TestApplyTransitionScrapLeavesDates(t *testing.T) {
	req := models.MaintenanceRequest{Status: models.StatusNew}

	ApplyTransition(&req, Transition{Status: models.StatusScrap}, time.Now())

	assert.Nil(t, req.StartDate)
	assert.Nil(t, req.CompletionDate)
	assert.Equal(t, models.StatusScrap, req.Status)
}

func TestAssignTransition(t *testing.T) {
	at := time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC)
	req := models.MaintenanceRequest{Status: models.StatusNew}

	ApplyTransition(&req, AssignTransition("u7", ""), at)

	require.NotNil(t, req.AssignedToID)
	assert.Equal(t, "u7", *req.AssignedToID)
	assert.Equal(t, models.StatusInProgress, req.Status)
	assert.Equal(t, at, *req.StartDate)
	assert.Empty(t, req.Notes)
}
