package license

import (
	"errors"
	"net/http"

	"commercehub-adminpanel/pkg/config"
	"commercehub-adminpanel/pkg/db/pagination"
	"commercehub-adminpanel/pkg/errutil"
	"commercehub-adminpanel/pkg/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type Handler struct {
	service *Service
	config  *config.Config
}

func NewHandler(service *Service, cfg *config.Config) *Handler {
	return &Handler{service: service, config: cfg}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	// verification endpoints are called from tenant websites, so they allow
	// any origin
	verify := r.Group("/verify-license", cors.New(cors.Config{
		AllowAllOrigins:           true,
		AllowMethods:              []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:              []string{"Content-Type"},
		OptionsResponseStatusCode: http.StatusOK,
	}))
	verify.POST("", h.Verify)
	verify.GET("", h.QuickCheck)
	// group middleware only runs on matched routes, so preflight needs an
	// explicit OPTIONS handler for the cors middleware to intercept
	verify.OPTIONS("", h.Preflight)

	admin := r.Group("/api/clients",
		middleware.AdminAuth(h.config.Admin.TokenHash),
		middleware.Error(),
	)
	admin.GET("/:id/verification-logs", h.ListLogs)
}

// Preflight answers same-origin OPTIONS probes; cross-origin preflights are
// intercepted by the cors middleware before reaching here.
func (h *Handler) Preflight(c *gin.Context) {
	c.Status(http.StatusOK)
}

type verifyRequest struct {
	LicenseKey string `json:"licenseKey"`
	Domain     string `json:"domain"`
}

func (h *Handler) Verify(c *gin.Context) {
	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.LicenseKey == "" || req.Domain == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"valid": false,
			"error": "licenseKey and domain are required",
		})
		return
	}

	outcome, err := h.service.Verify(c.Request.Context(), req.LicenseKey, req.Domain, Meta{
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"valid": false,
			"error": "internal server error",
		})
		return
	}

	if outcome.Valid {
		c.JSON(http.StatusOK, gin.H{
			"valid":  true,
			"client": outcome.Client,
		})
		return
	}

	c.JSON(statusOf(outcome.Err), gin.H{
		"valid": false,
		"error": outcome.Message,
	})
}

func (h *Handler) QuickCheck(c *gin.Context) {
	licenseKey := c.Query("license")
	domain := c.Query("domain")
	if licenseKey == "" || domain == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"valid": false,
			"error": "license and domain are required",
		})
		return
	}

	res, err := h.service.QuickCheck(c.Request.Context(), licenseKey, domain)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"valid": false,
			"error": "internal server error",
		})
		return
	}

	if res.Valid {
		c.JSON(http.StatusOK, gin.H{
			"valid":     true,
			"expiresAt": res.ExpiresAt,
		})
		return
	}

	c.JSON(res.Code.HTTPStatus(), gin.H{
		"valid": false,
		"error": res.Message,
	})
}

func (h *Handler) ListLogs(c *gin.Context) {
	var p pagination.Pagination
	if err := c.ShouldBindQuery(&p); err != nil {
		c.Error(errutil.BadRequest("invalid pagination parameters", errutil.WithErr(err)))
		return
	}

	logs, pageInfo, err := h.service.ListLogs(c.Request.Context(), c.Param("id"), p)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":       logs,
		"pagination": pageInfo,
	})
}

func statusOf(err error) int {
	var base errutil.BaseError
	if errors.As(err, &base) {
		return base.Code.HTTPStatus()
	}
	return http.StatusInternalServerError
}
