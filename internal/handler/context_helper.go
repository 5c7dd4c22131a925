package handler

import (
	"errors"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/maintenance-api/internal/middleware"
	"github.com/noah-isme/maintenance-api/internal/models"
	appErrors "github.com/noah-isme/maintenance-api/pkg/errors"
	"github.com/noah-isme/maintenance-api/pkg/response"
)

const dateOnly = "2006-01-02"

// dateLayouts are accepted wherever a query takes a date.
var dateLayouts = []string{time.RFC3339, dateOnly}

func actorID(c *gin.Context) string {
	return middleware.CurrentUserID(c)
}

// bindJSON decodes the body into dst. An empty body is allowed so pure
// pointer payloads can be sent without content.
func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload"))
		return false
	}
	return true
}

func queryEnum[T models.Enum](c *gin.Context, name string) (T, bool) {
	v, err := models.ParseEnum[T](name, strings.TrimSpace(c.Query(name)))
	if err != nil {
		response.Error(c, appErrors.Validation(err.Error()))
		return v, false
	}
	return v, true
}

func queryBool(c *gin.Context, name string) (*bool, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		response.Error(c, appErrors.Validation(name+" must be true or false"))
		return nil, false
	}
	return &v, true
}

// queryDate parses an optional date. A missing value yields the zero time.
// With endOfDay a bare calendar date covers the whole day.
func queryDate(c *gin.Context, name string, endOfDay bool) (time.Time, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return time.Time{}, true
	}
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, raw)
		if err != nil {
			continue
		}
		if endOfDay && layout == dateOnly {
			t = t.Add(24*time.Hour - time.Nanosecond)
		}
		return t.UTC(), true
	}
	response.Error(c, appErrors.Validation(name+" must be a date (YYYY-MM-DD or RFC3339)"))
	return time.Time{}, false
}
