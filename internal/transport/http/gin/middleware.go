package httpgin

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/kirinyoku/tix-storefront/internal/domain"
	redisrepo "github.com/kirinyoku/tix-storefront/internal/repository/redis"
	"github.com/kirinyoku/tix-storefront/internal/session"
)

const (
	profileCookie  = "sf_profile"
	profileHeader  = "X-Profile-ID"
	profileMaxAge  = 365 * 24 * 60 * 60
	ctxIdentityKey = "identity"
)

// LoginLimiter throttles sign-in attempts per client address.
type LoginLimiter interface {
	Allow(ctx context.Context, clientID string) (redisrepo.Decision, error)
}

type Authorizer interface {
	Authorize(ctx context.Context, required domain.Role) (domain.Identity, error)
}

func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := c.GetHeader("X-Request-ID")
		if reqID == "" {
			reqID = uuid.New().String()
		}

		c.Writer.Header().Set("X-Request-ID", reqID)
		c.Set("request_id", reqID)

		c.Next()
	}
}

// ProfileMiddleware binds the request to a browser profile. The header
// wins over the cookie; a missing or malformed id gets a fresh cookie.
func ProfileMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(profileHeader)
		if id == "" {
			id, _ = c.Cookie(profileCookie)
		}

		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(profileCookie, id, profileMaxAge, "/", "", false, true)
		}

		c.Set("profile_id", id)
		c.Request = c.Request.WithContext(session.WithProfile(c.Request.Context(), id))

		c.Next()
	}
}

// RequireRole aborts unless the profile holds the role. RoleAny only asks
// for some signed-in identity.
func RequireRole(auth Authorizer, role domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := auth.Authorize(c.Request.Context(), role)
		if err != nil {
			respondErr(c, err)
			c.Abort()
			return
		}

		c.Set(ctxIdentityKey, id)
		c.Next()
	}
}

func identityFrom(c *gin.Context) domain.Identity {
	v, _ := c.Get(ctxIdentityKey)
	id, _ := v.(domain.Identity)
	return id
}

// RateLimitLogin is a no-op with a nil limiter. A limiter error lets the
// attempt through.
func RateLimitLogin(limiter LoginLimiter, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil {
			c.Next()
			return
		}

		d, err := limiter.Allow(c.Request.Context(), "ip:"+c.ClientIP())
		if err != nil {
			logger.Warn("login rate limiter unavailable", slog.String("error", err.Error()))
			c.Next()
			return
		}

		if !d.Allowed {
			secs := int(d.RetryAfter.Round(time.Second) / time.Second)
			if secs < 1 {
				secs = 1
			}
			c.Header("Retry-After", strconv.Itoa(secs))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, ErrorResponse{Error: "too many sign-in attempts"})
			return
		}

		c.Next()
	}
}

// CORS answers credentialed cross-origin requests from the listed origins.
// With no origins it adds nothing and browsers keep the same-origin rule.
func CORS(origins []string) gin.HandlerFunc {
	if len(origins) == 0 {
		return func(c *gin.Context) { c.Next() }
	}

	cfg := cors.Config{
		AllowOrigins: origins,
		AllowMethods: []string{
			"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS",
		},
		AllowHeaders: []string{
			"Origin",
			"Content-Type",
			"Accept",
			"X-Requested-With",
			"X-Request-ID",
			"X-Profile-ID",
			"If-None-Match",
		},
		ExposeHeaders: []string{
			"X-Request-ID",
			"ETag",
			"Cache-Control",
			"Retry-After",
		},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}

	return cors.New(cfg)
}

func LoggingMiddleware(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery
		c.Next()

		latency := time.Since(start)
		if raw != "" {
			path = path + "?" + raw
		}

		status := c.Writer.Status()
		reqID, _ := c.Get("request_id")
		profileID, _ := c.Get("profile_id")

		attrs := []any{
			slog.Int("status", status),
			slog.String("method", c.Request.Method),
			slog.String("path", path),
			slog.String("ip", c.ClientIP()),
			slog.Any("request_id", reqID),
			slog.Any("profile_id", profileID),
			slog.Duration("latency", latency),
			slog.Int("bytes_out", c.Writer.Size()),
		}

		switch {
		case len(c.Errors) > 0:
			attrs = append(attrs, slog.String("error", c.Errors.String()))
			logger.Error("http", slog.Group("http", attrs...))
		case status >= http.StatusInternalServerError:
			logger.Error("http", slog.Group("http", attrs...))
		default:
			logger.Info("http", slog.Group("http", attrs...))
		}
	}
}
