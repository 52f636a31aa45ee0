package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ownerDevice 设备目录对自动化控制器暴露的投影
type ownerDevice struct {
	Uuid   string `json:"uuid"`
	UserId int    `json:"userId"`
	Mac    string `json:"mac"`
	Name   string `json:"name"`
}

// placeholderUserId 本地网关没有用户体系，固定占位
const placeholderUserId = 86471

// GetOwnerDevices 列出全部已注册设备
//
// username 只做语法校验，目前不按归属过滤，传谁都返回整个目录。
func (h *Handler) GetOwnerDevices(c *gin.Context) {
	username := c.Param("username")
	if !IsValidUsername(username) {
		stateResponse(c, http.StatusBadRequest, "Invalid username")
		return
	}

	entries := h.registry.All()
	devices := make([]ownerDevice, 0, len(entries))
	for _, entry := range entries {
		devices = append(devices, ownerDevice{
			Uuid:   entry.ID,
			UserId: placeholderUserId,
			Mac:    entry.Record.Mac,
			Name:   "",
		})
	}

	c.JSON(http.StatusOK, devices)
}
