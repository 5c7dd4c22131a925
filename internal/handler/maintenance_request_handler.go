package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/maintenance-api/internal/models"
	"github.com/noah-isme/maintenance-api/internal/service"
	"github.com/noah-isme/maintenance-api/pkg/response"
)

// MaintenanceRequestHandler exposes the request lifecycle.
type MaintenanceRequestHandler struct {
	service *service.MaintenanceRequestService
}

// NewMaintenanceRequestHandler constructs a request handler.
func NewMaintenanceRequestHandler(svc *service.MaintenanceRequestService) *MaintenanceRequestHandler {
	return &MaintenanceRequestHandler{service: svc}
}

// List godoc
// @Summary List maintenance requests
// @Tags Requests
// @Produce json
// @Param status query string false "Status"
// @Param type query string false "Corrective or Preventive"
// @Param equipment query string false "Equipment ID"
// @Param team query string false "Maintenance team ID"
// @Param priority query string false "Priority"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /requests [get]
func (h *MaintenanceRequestHandler) List(c *gin.Context) {
	var filter models.RequestFilter
	var ok bool
	if filter.Status, ok = queryEnum[models.RequestStatus](c, "status"); !ok {
		return
	}
	if filter.Type, ok = queryEnum[models.RequestType](c, "type"); !ok {
		return
	}
	if filter.Priority, ok = queryEnum[models.Priority](c, "priority"); !ok {
		return
	}
	filter.EquipmentID = c.Query("equipment")
	filter.TeamID = c.Query("team")

	items, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, items, len(items))
}

// Get godoc
// @Summary Get maintenance request
// @Tags Requests
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /requests/{id} [get]
func (h *MaintenanceRequestHandler) Get(c *gin.Context) {
	item, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item)
}

// Create godoc
// @Summary Open a maintenance request
// @Description Category and team are copied from the referenced equipment
// @Tags Requests
// @Accept json
// @Produce json
// @Param payload body service.CreateMaintenanceRequest true "Request"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /requests [post]
func (h *MaintenanceRequestHandler) Create(c *gin.Context) {
	var req service.CreateMaintenanceRequest
	if !bindJSON(c, &req) {
		return
	}
	item, err := h.service.Create(c.Request.Context(), req, actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}

// Update godoc
// @Summary Edit a maintenance request
// @Tags Requests
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param payload body service.UpdateMaintenanceRequest true "Fields"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /requests/{id} [put]
func (h *MaintenanceRequestHandler) Update(c *gin.Context) {
	var req service.UpdateMaintenanceRequest
	if !bindJSON(c, &req) {
		return
	}
	item, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item)
}

// Delete godoc
// @Summary Delete a maintenance request
// @Tags Requests
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /requests/{id} [delete]
func (h *MaintenanceRequestHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, "request deleted")
}

// ChangeStatus godoc
// @Summary Transition a request
// @Tags Requests
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param payload body service.StatusChangeRequest true "Transition"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /requests/{id}/status [patch]
func (h *MaintenanceRequestHandler) ChangeStatus(c *gin.Context) {
	var req service.StatusChangeRequest
	if !bindJSON(c, &req) {
		return
	}
	item, err := h.service.TransitionStatus(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item)
}

// Assign godoc
// @Summary Assign a technician
// @Description Assigning also moves the request to In Progress
// @Tags Requests
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param payload body service.AssignRequest true "Assignee"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /requests/{id}/assign [patch]
func (h *MaintenanceRequestHandler) Assign(c *gin.Context) {
	var req service.AssignRequest
	if !bindJSON(c, &req) {
		return
	}
	item, err := h.service.Assign(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item)
}

// Kanban godoc
// @Summary Requests grouped by status
// @Tags Requests
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /requests-kanban/all [get]
func (h *MaintenanceRequestHandler) Kanban(c *gin.Context) {
	board, err := h.service.Kanban(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, board)
}

// Preventive godoc
// @Summary Preventive calendar feed
// @Tags Requests
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /requests/type/preventive [get]
func (h *MaintenanceRequestHandler) Preventive(c *gin.Context) {
	items, err := h.service.Preventive(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, items, len(items))
}

// DateRange godoc
// @Summary Requests scheduled or created within a window
// @Tags Requests
// @Produce json
// @Param startDate query string true "Window start"
// @Param endDate query string true "Window end"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /requests/dates/range [get]
func (h *MaintenanceRequestHandler) DateRange(c *gin.Context) {
	from, ok := queryDate(c, "startDate", false)
	if !ok {
		return
	}
	to, ok := queryDate(c, "endDate", true)
	if !ok {
		return
	}
	items, err := h.service.DateRange(c.Request.Context(), from, to)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, items, len(items))
}
