package service

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/noah-isme/maintenance-api/internal/models"
	appErrors "github.com/noah-isme/maintenance-api/pkg/errors"
)

var duplicateMessages = map[string]string{
	"email":          "email already exists",
	"serial_number":  "serial number already exists",
	"request_number": "request number already exists",
}

func notFound(entity string) *appErrors.Error {
	return appErrors.Clone(appErrors.ErrNotFound, entity+" not found")
}

// storeErr maps a repository failure onto the domain taxonomy.
func storeErr(err error, entity string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return notFound(entity)
	}
	var dup *models.DuplicateKeyError
	if errors.As(err, &dup) {
		msg, ok := duplicateMessages[dup.Field]
		if !ok {
			msg = dup.Field + " already exists"
		}
		return appErrors.Wrap(err, appErrors.ErrDuplicateKey.Code, appErrors.ErrDuplicateKey.Status, msg)
	}
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return appErrors.Internal(err)
}

// badRef reports a payload reference that does not resolve. Only the primary
// resource of a route yields 404; dangling references inside a body are 400.
func badRef(field, id string) *appErrors.Error {
	return appErrors.Validation(fmt.Sprintf("%s %q does not exist", field, id))
}

func invalidTransition(reason string) *appErrors.Error {
	return appErrors.Clone(appErrors.ErrInvalidTransition, reason)
}
