package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/maintenance-api/internal/models"
	"github.com/noah-isme/maintenance-api/internal/service"
	"github.com/noah-isme/maintenance-api/pkg/response"
)

// EquipmentHandler exposes equipment endpoints including the scrap cascade.
type EquipmentHandler struct {
	service *service.EquipmentService
}

// NewEquipmentHandler constructs an equipment handler.
func NewEquipmentHandler(svc *service.EquipmentService) *EquipmentHandler {
	return &EquipmentHandler{service: svc}
}

// List godoc
// @Summary List equipment
// @Tags Equipment
// @Produce json
// @Param department query string false "Department"
// @Param category query string false "Category"
// @Param status query string false "Status"
// @Param team query string false "Maintenance team ID"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /equipment [get]
func (h *EquipmentHandler) List(c *gin.Context) {
	var filter models.EquipmentFilter
	var ok bool
	if filter.Department, ok = queryEnum[models.Department](c, "department"); !ok {
		return
	}
	if filter.Category, ok = queryEnum[models.EquipmentCategory](c, "category"); !ok {
		return
	}
	if filter.Status, ok = queryEnum[models.EquipmentStatus](c, "status"); !ok {
		return
	}
	filter.TeamID = c.Query("team")

	items, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, items, len(items))
}

// Get godoc
// @Summary Get equipment
// @Tags Equipment
// @Produce json
// @Param id path string true "Equipment ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /equipment/{id} [get]
func (h *EquipmentHandler) Get(c *gin.Context) {
	item, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item)
}

// Create godoc
// @Summary Register equipment
// @Tags Equipment
// @Accept json
// @Produce json
// @Param payload body service.CreateEquipmentRequest true "Equipment"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /equipment [post]
func (h *EquipmentHandler) Create(c *gin.Context) {
	var req service.CreateEquipmentRequest
	if !bindJSON(c, &req) {
		return
	}
	item, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}

// Update godoc
// @Summary Update equipment
// @Description Setting status to Scrap runs the scrap cascade
// @Tags Equipment
// @Accept json
// @Produce json
// @Param id path string true "Equipment ID"
// @Param payload body service.UpdateEquipmentRequest true "Equipment"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /equipment/{id} [put]
func (h *EquipmentHandler) Update(c *gin.Context) {
	var req service.UpdateEquipmentRequest
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
// @Summary Delete equipment
// @Description Refused while maintenance requests reference the equipment
// @Tags Equipment
// @Param id path string true "Equipment ID"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /equipment/{id} [delete]
func (h *EquipmentHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, "equipment deleted")
}

// Maintenance godoc
// @Summary Maintenance requests of one equipment
// @Tags Equipment
// @Produce json
// @Param id path string true "Equipment ID"
// @Success 200 {object} response.Envelope
// @Router /equipment/{id}/maintenance [get]
func (h *EquipmentHandler) Maintenance(c *gin.Context) {
	items, err := h.service.Maintenance(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, items, len(items))
}

// MaintenanceCount godoc
// @Summary Open request count of one equipment
// @Tags Equipment
// @Produce json
// @Param id path string true "Equipment ID"
// @Success 200 {object} response.Envelope
// @Router /equipment/{id}/maintenance-count [get]
func (h *EquipmentHandler) MaintenanceCount(c *gin.Context) {
	count, err := h.service.MaintenanceCount(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"count": count})
}

// Scrap godoc
// @Summary Scrap equipment
// @Description Marks the equipment Scrap and moves its open requests to Scrap. meta.cascadedRequests counts the moved requests
// @Tags Equipment
// @Accept json
// @Produce json
// @Param id path string true "Equipment ID"
// @Param payload body service.ScrapRequest false "Reason"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /equipment/{id}/scrap [patch]
func (h *EquipmentHandler) Scrap(c *gin.Context) {
	var req service.ScrapRequest
	if !bindJSON(c, &req) {
		return
	}
	result, err := h.service.Scrap(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result.Equipment, map[string]interface{}{"cascadedRequests": result.Cascaded})
}
