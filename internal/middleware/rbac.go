package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/maintenance-api/internal/models"
	"github.com/noah-isme/maintenance-api/internal/rules"
	appErrors "github.com/noah-isme/maintenance-api/pkg/errors"
	"github.com/noah-isme/maintenance-api/pkg/response"
)

// RequirePermission admits callers whose role grants perm. The capability set
// is derived from the token's role on every request, so role changes apply
// to newly issued tokens only.
func RequirePermission(perm models.Permission) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := Claims(c)
		if !ok {
			response.Error(c, appErrors.ErrUnauthorized)
			return
		}
		if !rules.PermissionsFor(claims.Role).Has(perm) {
			response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "missing permission "+string(perm)))
			return
		}
		c.Next()
	}
}
