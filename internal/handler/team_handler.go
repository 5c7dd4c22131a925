package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/maintenance-api/internal/models"
	"github.com/noah-isme/maintenance-api/internal/service"
	"github.com/noah-isme/maintenance-api/pkg/response"
)

// TeamHandler exposes team CRUD and membership endpoints.
type TeamHandler struct {
	service *service.TeamService
}

// NewTeamHandler constructs a team handler.
func NewTeamHandler(svc *service.TeamService) *TeamHandler {
	return &TeamHandler{service: svc}
}

// List godoc
// @Summary List teams
// @Description Active teams only unless includeInactive is set
// @Tags Teams
// @Produce json
// @Param includeInactive query bool false "Include deactivated teams"
// @Param specialization query string false "Specialization filter"
// @Param department query string false "Department filter"
// @Success 200 {object} response.Envelope
// @Router /teams [get]
func (h *TeamHandler) List(c *gin.Context) {
	var filter models.TeamFilter
	var ok bool
	if filter.Specialization, ok = queryEnum[models.TeamSpecialization](c, "specialization"); !ok {
		return
	}
	if filter.Department, ok = queryEnum[models.Department](c, "department"); !ok {
		return
	}
	include, ok := queryBool(c, "includeInactive")
	if !ok {
		return
	}
	filter.IncludeInactive = include != nil && *include

	teams, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, teams, len(teams))
}

// Get godoc
// @Summary Get team
// @Tags Teams
// @Produce json
// @Param id path string true "Team ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /teams/{id} [get]
func (h *TeamHandler) Get(c *gin.Context) {
	team, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, team)
}

// Create godoc
// @Summary Create team
// @Tags Teams
// @Accept json
// @Produce json
// @Param payload body service.CreateTeamRequest true "Team payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /teams [post]
func (h *TeamHandler) Create(c *gin.Context) {
	var req service.CreateTeamRequest
	if !bindJSON(c, &req) {
		return
	}
	team, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, team)
}

// Update godoc
// @Summary Update team
// @Tags Teams
// @Accept json
// @Produce json
// @Param id path string true "Team ID"
// @Param payload body service.UpdateTeamRequest true "Team payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /teams/{id} [put]
func (h *TeamHandler) Update(c *gin.Context) {
	var req service.UpdateTeamRequest
	if !bindJSON(c, &req) {
		return
	}
	team, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, team)
}

// Delete godoc
// @Summary Deactivate team
// @Tags Teams
// @Param id path string true "Team ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /teams/{id} [delete]
func (h *TeamHandler) Delete(c *gin.Context) {
	if err := h.service.Deactivate(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, "team deactivated")
}

// AddMember godoc
// @Summary Add a member to a team
// @Tags Teams
// @Accept json
// @Produce json
// @Param id path string true "Team ID"
// @Param payload body service.AddMemberRequest true "Member"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /teams/{id}/members [post]
func (h *TeamHandler) AddMember(c *gin.Context) {
	var req service.AddMemberRequest
	if !bindJSON(c, &req) {
		return
	}
	team, err := h.service.AddMember(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, team)
}

// RemoveMember godoc
// @Summary Remove a member from a team
// @Description The user id comes from the path or a {"userId"} body
// @Tags Teams
// @Produce json
// @Param id path string true "Team ID"
// @Param userId path string false "User ID"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /teams/{id}/members/{userId} [delete]
func (h *TeamHandler) RemoveMember(c *gin.Context) {
	userID := c.Param("userId")
	if userID == "" {
		var body struct {
			UserID string `json:"userId"`
		}
		if !bindJSON(c, &body) {
			return
		}
		userID = body.UserID
	}
	team, err := h.service.RemoveMember(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, team)
}
