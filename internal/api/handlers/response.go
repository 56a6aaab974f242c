package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"

	"newsdesk/portal/internal/api/middleware"
	"newsdesk/portal/internal/auth"
	"newsdesk/portal/internal/logger"
	"newsdesk/portal/internal/services"
	"newsdesk/portal/internal/utils"
)

// statusFor maps service errors onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrValidation),
		errors.Is(err, services.ErrPayRequestExists),
		errors.Is(err, services.ErrBillAlreadyPaid),
		errors.Is(err, services.ErrAllotmentExists):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrDuplicateAccount):
		return http.StatusConflict
	case errors.Is(err, services.ErrInvalidCredentials),
		errors.Is(err, services.ErrBootstrapExpired):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrForbidden),
		errors.Is(err, services.ErrAccountNotApproved):
		return http.StatusForbidden
	case errors.Is(err, mongo.ErrNoDocuments),
		errors.Is(err, services.ErrUnknownCollection):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes {success:false, message}. Client errors carry the service
// message; anything unexpected is logged and replaced by fallback.
func respondError(c *gin.Context, err error, fallback string) {
	status := statusFor(err)
	message := err.Error()
	switch status {
	case http.StatusInternalServerError:
		_ = c.Error(err)
		logger.L().Errorw(fallback, "path", c.FullPath(), "error", err)
		message = fallback
	case http.StatusNotFound:
		message = "Not found"
	}
	c.JSON(status, gin.H{"success": false, "message": message})
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": message})
}

// respond writes {success:true, ...payload}.
func respond(c *gin.Context, status int, payload gin.H) {
	body := gin.H{"success": true}
	for k, v := range payload {
		body[k] = v
	}
	c.JSON(status, body)
}

// bindJSON binds and validates the body, answering 400 on failure.
func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		badRequest(c, "Invalid request: "+err.Error())
		return false
	}
	return true
}

// idParam parses a SixID path parameter, answering 400 on failure.
func idParam(c *gin.Context, name string) (utils.SixID, bool) {
	id, err := utils.ParseSixID(c.Param(name))
	if err != nil {
		badRequest(c, "Invalid "+name)
		return utils.SixID{}, false
	}
	return id, true
}

// optionalIDQuery parses an optional SixID query parameter.
func optionalIDQuery(c *gin.Context, name string) (*utils.SixID, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	id, err := utils.ParseSixID(raw)
	if err != nil {
		badRequest(c, "Invalid "+name)
		return nil, false
	}
	return &id, true
}

// intQuery parses an optional integer query parameter; absent means 0.
func intQuery(c *gin.Context, name string) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		badRequest(c, "Invalid "+name)
		return 0, false
	}
	return n, true
}

// dateQuery parses an optional YYYY-MM-DD query parameter.
func dateQuery(c *gin.Context, name string) (time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		return time.Time{}, true
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		badRequest(c, "Invalid "+name+", expected YYYY-MM-DD")
		return time.Time{}, false
	}
	return t, true
}

// subjectID returns the verified subject of the request. Routes are always
// mounted behind RequireRole, so a missing principal is a wiring error.
func subjectID(c *gin.Context) (utils.SixID, bool) {
	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Authentication required"})
		return utils.SixID{}, false
	}
	return p.SubjectID, true
}

// sessionCookie sets or clears the session cookie.
type sessionCookie struct {
	secure bool
}

func (s sessionCookie) set(c *gin.Context, token string, ttl time.Duration) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(auth.CookieName, token, int(ttl.Seconds()), "/", "", s.secure, true)
}

func (s sessionCookie) clear(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(auth.CookieName, "", -1, "/", "", s.secure, true)
}
