package handler

import (
	"ColdVault/internal/dto"
	"ColdVault/utils"

	"github.com/gin-gonic/gin"
)

// Health probes every registered storage backend.
func Health(c *gin.Context) {
	out := make([]dto.ProviderHealth, 0, registry.Len())
	for _, p := range registry.All() {
		h := p.HealthCheck(c.Request.Context())
		out = append(out, dto.ProviderHealth{
			Name:    p.Name(),
			Healthy: h.Healthy,
			Latency: h.Latency.String(),
			Message: h.Message,
		})
	}
	utils.Success(c, out)
}
