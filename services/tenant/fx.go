package tenant

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("tenant",
	fx.Provide(
		NewService,
		NewHandler,
	),
	fx.Invoke(
		migrate,
		func(h *Handler, r *gin.Engine) {
			h.RegisterRoutes(r)
		},
	),
)

func migrate(db *gorm.DB) error {
	return db.AutoMigrate(&Tenant{})
}
