package federation

import (
	"net/http"

	"commercehub-adminpanel/pkg/config"
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

	group.GET("/:id/users", h.FetchUsers)
	group.POST("/:id/test-connection", h.TestConnection)
}

type fetchUsersQuery struct {
	Limit        int    `form:"limit"`
	Cursor       string `form:"cursor"`
	Q            string `form:"q"`
	UpdatedSince string `form:"updated_since"`
}

func (h *Handler) FetchUsers(c *gin.Context) {
	var q fetchUsersQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.Error(errutil.BadRequest("invalid query parameters", errutil.WithErr(err)))
		return
	}

	page, err := h.service.FetchUsers(c.Request.Context(), c.Param("id"), FetchQuery{
		Limit:        q.Limit,
		Cursor:       q.Cursor,
		Q:            q.Q,
		UpdatedSince: q.UpdatedSince,
	})
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, page)
}

func (h *Handler) TestConnection(c *gin.Context) {
	ok, err := h.service.TestConnection(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": ok})
}
