package httpgin

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kirinyoku/tix-storefront/internal/domain"
	"github.com/kirinyoku/tix-storefront/internal/gateway"
	"github.com/kirinyoku/tix-storefront/internal/service"
	"github.com/kirinyoku/tix-storefront/internal/service/admin"
	"github.com/kirinyoku/tix-storefront/internal/service/catalog"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func NewRouter(
	svcs *service.Services,
	limiter LoginLimiter,
	corsOrigins []string,
	logger *slog.Logger,
	middlewares ...gin.HandlerFunc,
) *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery(), LoggingMiddleware(logger), RequestIDMiddleware(), CORS(corsOrigins))
	for _, m := range middlewares {
		if m != nil {
			r.Use(m)
		}
	}

	// Swagger UI
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// health
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api", ProfileMiddleware())

	signedIn := RequireRole(svcs.Session, domain.RoleAny)

	auth := api.Group("/auth")
	{
		auth.POST("/login", RateLimitLogin(limiter, logger), handleLogin(svcs))
		auth.POST("/signup", handleSignup(svcs, logger))
		auth.POST("/logout", handleLogout(svcs))
		auth.GET("/me", handleMe(svcs))
	}

	api.GET("/theme", handleGetTheme(svcs))
	api.PUT("/theme", handleSetTheme(svcs))

	api.GET("/catalog", handleBrowse(svcs))
	api.GET("/catalog/events/:id", handleEventDetail(svcs))

	api.GET("/checkout", handleCheckoutSummary(svcs))
	api.PUT("/checkout", handleStage(svcs))
	api.POST("/checkout/pay", signedIn, handlePay(svcs))

	api.GET("/orders/my", signedIn, handleMyOrders(svcs))
	api.GET("/tickets/my", signedIn, handleMyTickets(svcs))

	org := api.Group("/organizer", RequireRole(svcs.Session, domain.RoleOrganizer))
	{
		org.GET("/dashboard", handleDashboard(svcs))
		org.POST("/events", handleOrganizerCreate(svcs))
		org.PUT("/events/:id", handleOrganizerEdit(svcs))
		org.DELETE("/events/:id", handleOrganizerDelete(svcs))
	}

	api.POST("/admin/login", RateLimitLogin(limiter, logger), handleAdminLogin(svcs))
	api.POST("/admin/logout", handleAdminLogout(svcs))

	adm := api.Group("/admin", RequireRole(svcs.Session, domain.RoleAdmin))
	{
		adm.GET("/overview", handleAdminOverview(svcs))
		adm.GET("/lists/:collection", handleListValues(svcs))
		adm.POST("/lists/:collection", handleAddValue(svcs))
		adm.DELETE("/lists/:collection/:value", handleRemoveValue(svcs))
		adm.GET("/events", handleAdminEvents(svcs))
		adm.POST("/events", handleAdminAddEvent(svcs))
		adm.DELETE("/events/:id", handleAdminRemoveEvent(svcs))
		adm.GET("/organizers", handleOrganizers(svcs))
		adm.DELETE("/organizers/:email", handleRemoveOrganizer(svcs))
	}

	return r
}

// --- Handlers with Swagger annotations ---

// @Summary  Sign in
// @Param    body  body  LoginRequest  true  "credentials"
// @Success  200  {object}  SessionResponse
// @Failure  401  {object}  ErrorResponse
// @Failure  429  {object}  ErrorResponse
// @Router   /api/auth/login [post]
func handleLogin(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid body")
			return
		}

		s, err := svcs.Session.Login(c.Request.Context(), gateway.Credentials{
			Email:    req.Email,
			Password: req.Password,
		})
		if err != nil {
			respondErr(c, err)
			return
		}

		c.JSON(http.StatusOK, SessionResponse{User: s.User})
	}
}

// @Summary  Create an account
// @Param    body  body  SignupRequest  true  "account"
// @Success  201  {object}  SessionResponse
// @Failure  400  {object}  ErrorResponse
// @Router   /api/auth/signup [post]
func handleSignup(svcs *service.Services, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req SignupRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid body")
			return
		}

		ctx := c.Request.Context()
		s, err := svcs.Session.Signup(ctx, gateway.SignupRequest{
			Name:     req.Name,
			Email:    req.Email,
			Password: req.Password,
			Role:     req.Role,
		})
		if err != nil {
			respondErr(c, err)
			return
		}

		if s.User.Role == domain.RoleOrganizer {
			o := domain.Organizer{Name: s.User.Name, Email: s.User.Email}
			if err := svcs.Admin.RecordOrganizer(ctx, o); err != nil {
				logger.Warn("signup: record organizer failed",
					slog.String("email", o.Email),
					slog.String("error", err.Error()),
				)
			}
		}

		c.JSON(http.StatusCreated, SessionResponse{User: s.User})
	}
}

// @Summary  Sign out
// @Success  204
// @Router   /api/auth/logout [post]
func handleLogout(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svcs.Session.Logout(c.Request.Context()); err != nil {
			respondErr(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// @Summary  Current identity
// @Success  200  {object}  IdentityResponse
// @Router   /api/auth/me [get]
func handleMe(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := svcs.Session.Identity(c.Request.Context())
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, IdentityResponse{User: id.User, Admin: id.Admin})
	}
}

// @Summary  Get theme
// @Success  200  {object}  ThemeResponse
// @Router   /api/theme [get]
func handleGetTheme(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		t, err := svcs.Theme.Get(c.Request.Context())
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, ThemeResponse{Theme: t})
	}
}

// @Summary  Set theme
// @Param    body  body  ThemeRequest  true  "light or dark"
// @Success  200  {object}  ThemeResponse
// @Failure  400  {object}  ErrorResponse
// @Router   /api/theme [put]
func handleSetTheme(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ThemeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid body")
			return
		}
		if err := svcs.Theme.Set(c.Request.Context(), req.Theme); err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, ThemeResponse{Theme: req.Theme})
	}
}

// @Summary  Browse the catalog
// @Param    city      query  string  false  "city"
// @Param    category  query  string  false  "category"
// @Param    dateFrom  query  string  false  "YYYY-MM-DD, inclusive"
// @Param    dateTo    query  string  false  "YYYY-MM-DD, inclusive"
// @Success  200  {object}  catalog.Result
// @Failure  400  {object}  ErrorResponse
// @Failure  502  {object}  ErrorResponse
// @Router   /api/catalog [get]
func handleBrowse(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		from, err := catalog.ParseDate(c.Query("dateFrom"))
		if err != nil {
			respondErr(c, err)
			return
		}
		to, err := catalog.ParseDate(c.Query("dateTo"))
		if err != nil {
			respondErr(c, err)
			return
		}

		res, err := svcs.Catalog.Browse(c.Request.Context(), catalog.Query{
			City:     c.Query("city"),
			Category: c.Query("category"),
			DateFrom: from,
			DateTo:   to,
		})
		if err != nil {
			respondErr(c, err)
			return
		}

		cachedJSON(c, res, 15*time.Second)
	}
}

// @Summary  Event detail
// @Param    id  path  string  true  "Event ID"
// @Success  200  {object}  catalog.Detail
// @Failure  404  {object}  ErrorResponse
// @Router   /api/catalog/events/{id} [get]
func handleEventDetail(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		d, err := svcs.Catalog.EventDetail(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondErr(c, err)
			return
		}
		cachedJSON(c, d, 15*time.Second)
	}
}

// @Summary  Staged checkout
// @Success  200  {object}  checkout.Summary
// @Failure  404  {object}  ErrorResponse
// @Router   /api/checkout [get]
func handleCheckoutSummary(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, err := svcs.Checkout.Summary(c.Request.Context())
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, s)
	}
}

// @Summary  Stage a purchase
// @Param    body  body  StageRequest  true  "selection"
// @Success  200  {object}  domain.PurchaseRequest
// @Failure  400  {object}  ErrorResponse
// @Router   /api/checkout [put]
func handleStage(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req StageRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid body")
			return
		}

		staged, err := svcs.Checkout.Stage(c.Request.Context(), req.EventID, req.TicketTypeID, req.Quantity)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, staged)
	}
}

// @Summary  Pay for the staged purchase
// @Success  201  {object}  PayResponse
// @Failure  401  {object}  ErrorResponse
// @Failure  404  {object}  ErrorResponse
// @Failure  409  {object}  ErrorResponse
// @Router   /api/checkout/pay [post]
func handlePay(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		rcpt, err := svcs.Checkout.Submit(c.Request.Context())
		if err != nil {
			respondErr(c, err)
			return
		}

		payload, err := rcpt.Confirmation.Payload()
		if err != nil {
			respondErr(c, err)
			return
		}
		png, err := rcpt.Confirmation.QRCode()
		if err != nil {
			respondErr(c, err)
			return
		}

		c.JSON(http.StatusCreated, PayResponse{
			Order:        rcpt.Order,
			Confirmation: rcpt.Confirmation,
			Payload:      payload,
			QRCode:       png,
		})
	}
}

// @Summary  My orders
// @Success  200  {array}  domain.Order
// @Failure  401  {object}  ErrorResponse
// @Router   /api/orders/my [get]
func handleMyOrders(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := svcs.Orders.MyOrders(c.Request.Context())
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, list)
	}
}

// @Summary  My tickets
// @Success  200  {array}  domain.ClientTicket
// @Failure  401  {object}  ErrorResponse
// @Router   /api/tickets/my [get]
func handleMyTickets(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := svcs.Orders.MyTickets(c.Request.Context())
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, list)
	}
}

// @Summary  Organizer dashboard
// @Success  200  {object}  organizer.Dashboard
// @Failure  403  {object}  ErrorResponse
// @Router   /api/organizer/dashboard [get]
func handleDashboard(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		d, err := svcs.Organizer.Dashboard(c.Request.Context(), organizerID(c))
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, d)
	}
}

// @Summary  Create event
// @Param    body  body  EventRequest  true  "event"
// @Success  201  {object}  organizer.Dashboard
// @Failure  400  {object}  ErrorResponse
// @Router   /api/organizer/events [post]
func handleOrganizerCreate(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		in, ok := bindEvent(c)
		if !ok {
			return
		}

		d, err := svcs.Organizer.CreateEvent(c.Request.Context(), organizerID(c), in)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusCreated, d)
	}
}

// @Summary  Edit event
// @Param    id    path  string        true  "Event ID"
// @Param    body  body  EventRequest  true  "event"
// @Success  200  {object}  organizer.Dashboard
// @Failure  400  {object}  ErrorResponse
// @Failure  409  {object}  ErrorResponse
// @Router   /api/organizer/events/{id} [put]
func handleOrganizerEdit(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		in, ok := bindEvent(c)
		if !ok {
			return
		}

		d, err := svcs.Organizer.EditEvent(c.Request.Context(), organizerID(c), c.Param("id"), in)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, d)
	}
}

// @Summary  Delete event
// @Param    id  path  string  true  "Event ID"
// @Success  204
// @Failure  404  {object}  ErrorResponse
// @Failure  409  {object}  ErrorResponse
// @Router   /api/organizer/events/{id} [delete]
func handleOrganizerDelete(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svcs.Organizer.DeleteEvent(c.Request.Context(), organizerID(c), c.Param("id")); err != nil {
			respondErr(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// @Summary  Admin sign in
// @Param    body  body  LoginRequest  true  "credentials"
// @Success  200  {object}  domain.AdminAuth
// @Failure  401  {object}  ErrorResponse
// @Failure  503  {object}  ErrorResponse
// @Router   /api/admin/login [post]
func handleAdminLogin(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid body")
			return
		}

		a, err := svcs.Session.AdminLogin(c.Request.Context(), req.Email, req.Password)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, a)
	}
}

// @Summary  Admin sign out
// @Success  204
// @Router   /api/admin/logout [post]
func handleAdminLogout(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svcs.Session.AdminLogout(c.Request.Context()); err != nil {
			respondErr(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// @Summary  Admin overview
// @Success  200  {object}  admin.Overview
// @Failure  403  {object}  ErrorResponse
// @Router   /api/admin/overview [get]
func handleAdminOverview(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		o, err := svcs.Admin.Overview(c.Request.Context())
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, o)
	}
}

// @Summary  Curated list
// @Param    collection  path  string  true  "locations, categories, hiddenLocations, hiddenCategories or visibleFilters"
// @Success  200  {object}  ListResponse
// @Failure  400  {object}  ErrorResponse
// @Router   /api/admin/lists/{collection} [get]
func handleListValues(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		col, err := admin.ParseCollection(c.Param("collection"))
		if err != nil {
			respondErr(c, err)
			return
		}

		values, err := svcs.Admin.List(c.Request.Context(), col)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, ListResponse{Collection: string(col), Values: values})
	}
}

// @Summary  Add to a curated list
// @Param    collection  path  string        true  "collection"
// @Param    body        body  ValueRequest  true  "value"
// @Success  200  {object}  ListResponse
// @Failure  400  {object}  ErrorResponse
// @Router   /api/admin/lists/{collection} [post]
func handleAddValue(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		col, err := admin.ParseCollection(c.Param("collection"))
		if err != nil {
			respondErr(c, err)
			return
		}

		var req ValueRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid body")
			return
		}

		values, err := svcs.Admin.Add(c.Request.Context(), col, req.Value)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, ListResponse{Collection: string(col), Values: values})
	}
}

// @Summary  Remove from a curated list
// @Param    collection  path  string  true  "collection"
// @Param    value       path  string  true  "value"
// @Success  200  {object}  ListResponse
// @Router   /api/admin/lists/{collection}/{value} [delete]
func handleRemoveValue(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		col, err := admin.ParseCollection(c.Param("collection"))
		if err != nil {
			respondErr(c, err)
			return
		}

		values, err := svcs.Admin.Remove(c.Request.Context(), col, c.Param("value"))
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, ListResponse{Collection: string(col), Values: values})
	}
}

// @Summary  Admin events
// @Success  200  {array}  domain.Event
// @Router   /api/admin/events [get]
func handleAdminEvents(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := svcs.Admin.Events(c.Request.Context())
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, list)
	}
}

// @Summary  Add admin event
// @Param    body  body  EventRequest  true  "event"
// @Success  201  {object}  domain.Event
// @Failure  400  {object}  ErrorResponse
// @Router   /api/admin/events [post]
func handleAdminAddEvent(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		in, ok := bindEvent(c)
		if !ok {
			return
		}

		e, err := svcs.Admin.AddEvent(c.Request.Context(), in)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusCreated, e)
	}
}

// @Summary  Remove admin event
// @Param    id  path  string  true  "Event ID"
// @Success  204
// @Failure  404  {object}  ErrorResponse
// @Router   /api/admin/events/{id} [delete]
func handleAdminRemoveEvent(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svcs.Admin.RemoveEvent(c.Request.Context(), c.Param("id")); err != nil {
			respondErr(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// @Summary  Known organizers
// @Success  200  {array}  domain.Organizer
// @Router   /api/admin/organizers [get]
func handleOrganizers(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := svcs.Admin.Organizers(c.Request.Context())
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, list)
	}
}

// @Summary  Forget an organizer
// @Param    email  path  string  true  "email"
// @Success  200  {array}  domain.Organizer
// @Router   /api/admin/organizers/{email} [delete]
func handleRemoveOrganizer(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := svcs.Admin.RemoveOrganizer(c.Request.Context(), c.Param("email"))
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, list)
	}
}

// --- helpers ---

func bindEvent(c *gin.Context) (domain.CreateEventRequest, bool) {
	var req EventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid body")
		return domain.CreateEventRequest{}, false
	}

	in, err := req.toDomain()
	if err != nil {
		badRequest(c, "dateTime must be RFC3339")
		return domain.CreateEventRequest{}, false
	}
	return in, true
}

func organizerID(c *gin.Context) string {
	id := identityFrom(c)
	if id.User == nil {
		return ""
	}
	return strings.TrimSpace(id.User.ID)
}
