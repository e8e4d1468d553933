package httpgin

import (
	"errors"
	"net/http"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/kirinyoku/tix-storefront/internal/domain"
	"github.com/kirinyoku/tix-storefront/internal/gateway"
	"github.com/kirinyoku/tix-storefront/internal/repository"
	"github.com/kirinyoku/tix-storefront/internal/service/admin"
	"github.com/kirinyoku/tix-storefront/internal/service/catalog"
	"github.com/kirinyoku/tix-storefront/internal/service/checkout"
	"github.com/kirinyoku/tix-storefront/internal/service/organizer"
	"github.com/kirinyoku/tix-storefront/internal/session"
)

var opPrefix = regexp.MustCompile(`^[a-z]+(\.[A-Za-z]+)+$`)

// publicMessage strips the "pkg.Type.Method: " prefixes from err.
func publicMessage(err error) string {
	parts := strings.Split(err.Error(), ": ")
	for len(parts) > 1 && opPrefix.MatchString(parts[0]) {
		parts = parts[1:]
	}
	return strings.Join(parts, ": ")
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg})
}

func respondErr(c *gin.Context, err error) {
	if err == nil {
		c.Status(http.StatusNoContent)
		return
	}

	var apiErr *gateway.APIError

	switch {
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, catalog.ErrInvalidDate),
		errors.Is(err, admin.ErrUnknownCollection),
		errors.Is(err, admin.ErrUnknownFilter),
		errors.Is(err, session.ErrNoProfile):
		badRequest(c, publicMessage(err))
	case errors.Is(err, domain.ErrUnauthenticated):
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "sign in required"})
	case errors.Is(err, session.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid credentials"})
	case errors.Is(err, domain.ErrForbidden):
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "forbidden"})
	case errors.Is(err, session.ErrAdminDisabled):
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "admin sign-in is not configured"})
	case errors.Is(err, catalog.ErrEventNotFound),
		errors.Is(err, admin.ErrEventNotFound),
		errors.Is(err, organizer.ErrEventNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "event not found"})
	case errors.Is(err, checkout.ErrNothingStaged):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "nothing staged for checkout"})
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "not found"})
	case errors.Is(err, organizer.ErrPendingSync):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "event is still being synchronized"})
	case errors.Is(err, checkout.ErrSubmissionInProgress):
		c.Header("Retry-After", "1")
		c.JSON(http.StatusConflict, ErrorResponse{Error: "payment already in progress"})
	case errors.As(err, &apiErr):
		status := apiErr.StatusCode
		if status >= http.StatusInternalServerError {
			_ = c.Error(err)
			status = http.StatusBadGateway
		}
		c.JSON(status, ErrorResponse{Error: apiErr.Message})
	case errors.Is(err, gateway.ErrTransport):
		_ = c.Error(err)
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: "ticketing service unreachable"})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
	}
}
