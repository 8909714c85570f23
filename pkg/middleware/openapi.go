package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/wms-platform/fulfillment-simulator/pkg/contracts/openapi"
	"github.com/wms-platform/fulfillment-simulator/pkg/errors"
)

// OpenAPIValidation rejects requests under prefix that do not match the
// OpenAPI document. Other paths pass through untouched.
func OpenAPIValidation(validator *openapi.Validator, prefix string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !strings.HasPrefix(c.Request.URL.Path, prefix) {
			c.Next()
			return
		}

		if err := validator.ValidateRequest(c.Request); err != nil {
			AbortWithAppError(c, errors.ErrValidation("request does not match the API contract").
				WithDetail("contract", err.Error()))
			return
		}
		c.Next()
	}
}
