package api

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// SetupRouter 配置 Gin 路由
func SetupRouter(h *Handler) *gin.Engine {
	r := gin.Default()

	// 配置 CORS
	config := cors.DefaultConfig()
	config.AllowOrigins = []string{"*"} // 局域网网关，放开来源
	config.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	r.Use(cors.New(config))

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	// 设备侧接口，路径形状是设备固件写死的，带不带斜杠都不能动
	v2 := r.Group("/v2")
	{
		v2.GET("/apidomain", h.GetApiDomain)

		device := v2.Group("/device/:device_id")
		{
			device.GET("/connections/csv/", h.GetConnections)
			device.GET("/firmware/update/csv/", h.GetFirmwareUpdate)
			device.GET("/mcufirmware/update/csv/", h.GetFirmwareUpdate)
			device.POST("/hello/", h.PostHello)
			device.POST("/attribute/fanspeed/", h.PostFanSpeed)
			device.POST("/attribute/brightness/", h.PostBrightness)
		}

		// 自动化控制器侧接口
		v2.GET("/owner/:username/device/", h.GetOwnerDevices)
	}

	return r
}
