package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/retailcore/backend/internal/interfaces/http/dto"
	"github.com/retailcore/backend/internal/interfaces/http/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

// newTestEngine mounts routes behind the request id and tenant middleware
func newTestEngine(register func(api *gin.RouterGroup)) *gin.Engine {
	engine := gin.New()
	engine.Use(middleware.RequestID(), middleware.Tenant(middleware.DefaultTenantConfig()))
	register(engine.Group("/api/v1"))
	return engine
}

func tenantHeaders(tenantID uuid.UUID) map[string]string {
	return map[string]string{middleware.TenantHeaderKey: tenantID.String()}
}

// envelope decodes the data of a response into T
type envelope[T any] struct {
	Success bool           `json:"success"`
	Data    T              `json:"data"`
	Error   *dto.ErrorInfo `json:"error"`
	Meta    *dto.Meta      `json:"meta"`
}
