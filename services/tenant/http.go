package tenant

import (
	"net/http"

	"commercehub-adminpanel/pkg/config"
	"commercehub-adminpanel/pkg/db/pagination"
	"commercehub-adminpanel/pkg/errutil"
	"commercehub-adminpanel/pkg/middleware"

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
	group := r.Group("/api/clients",
		middleware.AdminAuth(h.config.Admin.TokenHash),
		middleware.Error(),
	)

	group.POST("", h.Create)
	group.GET("", h.List)
	group.GET("/lookup", h.Lookup)
	group.GET("/:id", h.Get)
	group.PUT("/:id", h.Update)
	group.DELETE("/:id", h.Delete)
	group.POST("/:id/toggle-status", h.ToggleStatus)
	group.POST("/:id/regenerate-license", h.RegenerateLicenseKey)
	group.POST("/:id/regenerate-api-key", h.RegenerateAPIKey)
}

func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errutil.BadRequest("invalid request body", errutil.WithErr(err)))
		return
	}

	record, setup, err := h.service.Create(c.Request.Context(), &req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"client": record.ToView(),
		"setup":  setup,
	})
}

func (h *Handler) List(c *gin.Context) {
	var p pagination.Pagination
	if err := c.ShouldBindQuery(&p); err != nil {
		c.Error(errutil.BadRequest("invalid pagination parameters", errutil.WithErr(err)))
		return
	}

	records, pageInfo, err := h.service.List(c.Request.Context(), p)
	if err != nil {
		c.Error(err)
		return
	}

	views := make([]*View, 0, len(records))
	for _, record := range records {
		views = append(views, record.ToView())
	}

	c.JSON(http.StatusOK, gin.H{
		"data":       views,
		"pagination": pageInfo,
	})
}

func (h *Handler) Lookup(c *gin.Context) {
	domain := c.Query("domain")
	if domain == "" {
		c.Error(errutil.BadRequest("domain query parameter is required"))
		return
	}

	records, err := h.service.LookupByDomain(c.Request.Context(), domain)
	if err != nil {
		c.Error(err)
		return
	}

	views := make([]*View, 0, len(records))
	for _, record := range records {
		views = append(views, record.ToView())
	}

	c.JSON(http.StatusOK, gin.H{"data": views})
}

func (h *Handler) Get(c *gin.Context) {
	record, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"client": record.ToView()})
}

func (h *Handler) Update(c *gin.Context) {
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errutil.BadRequest("invalid request body", errutil.WithErr(err)))
		return
	}

	record, err := h.service.Update(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"client": record.ToView()})
}

func (h *Handler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

type toggleStatusRequest struct {
	Action string `json:"action" binding:"required"`
	Reason string `json:"reason"`
}

func (h *Handler) ToggleStatus(c *gin.Context) {
	var req toggleStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errutil.BadRequest("invalid request body", errutil.WithErr(err)))
		return
	}

	record, err := h.service.ToggleStatus(c.Request.Context(), c.Param("id"), ToggleAction(req.Action), req.Reason)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"client": record.ToView()})
}

func (h *Handler) RegenerateLicenseKey(c *gin.Context) {
	record, setup, err := h.service.RegenerateLicenseKey(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"client": record.ToView(),
		"setup":  setup,
	})
}

func (h *Handler) RegenerateAPIKey(c *gin.Context) {
	record, setup, err := h.service.RegenerateAPIKey(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"client": record.ToView(),
		"setup":  setup,
	})
}
