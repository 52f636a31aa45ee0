package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"bluebridge/internal/connector"
	"bluebridge/internal/pkg"
	"bluebridge/internal/registry"
)

// Publisher 命令桥依赖的 Broker 发布能力，便于单测替换
type Publisher interface {
	// PublishAwait 等待投递确认后返回
	PublishAwait(topic string, qos byte, retained bool, payload string, kind string) error
	// PublishAsync 即发即忘
	PublishAsync(topic string, qos byte, retained bool, payload string, kind string)
}

// Handler 聚合 HTTP 层的依赖
type Handler struct {
	registry  *registry.Registry
	publisher Publisher
	config    *pkg.Config
	logger    *zap.Logger
}

// NewHandler 构造 HTTP 处理器
func NewHandler(config *pkg.Config, logger *zap.Logger, reg *registry.Registry, publisher Publisher) *Handler {
	return &Handler{
		registry:  reg,
		publisher: publisher,
		config:    config,
		logger:    logger,
	}
}

// stateResponse 设备侧接口统一的 JSON 响应形状
func stateResponse(c *gin.Context, code int, message interface{}) {
	c.JSON(code, gin.H{"state": code, "message": message})
}

// GetApiDomain 返回设备后续请求使用的 Broker API 基地址
func (h *Handler) GetApiDomain(c *gin.Context) {
	c.String(http.StatusOK, h.config.Mqtt.ApiUrl)
}

// connectionsLine1 第一行是老固件要求的僵尸字段，值随意但不能少
const connectionsLine1 = "localhost;/123456789123/deprecated;deprecated;deprecated;" +
	"2024-03-27T10%3A39%3A15.354Z;127.0.0.1:8080;http%3A%2F%2Flocalhost%2F123456789123%2Fdeprecated"

// GetConnections 兼容端点：返回两行分号拼接的连接信息
func (h *Handler) GetConnections(c *gin.Context) {
	deviceId := c.Param("device_id")
	if !IsValidDeviceId(deviceId) {
		c.String(http.StatusBadRequest, "Invalid device ID")
		return
	}

	line2 := fmt.Sprintf("%s;%s;%s;%s;false",
		h.config.Mqtt.ApiUrl,
		h.config.Mqtt.ApiPort,
		h.config.Mqtt.Username,
		h.config.Mqtt.Password,
	)
	c.String(http.StatusOK, "%s\n%s", connectionsLine1, line2)
}

// GetFirmwareUpdate 固件/MCU固件更新检查，永远没有更新可给
func (h *Handler) GetFirmwareUpdate(c *gin.Context) {
	deviceId := c.Param("device_id")
	if !IsValidDeviceId(deviceId) {
		stateResponse(c, http.StatusBadRequest, "Invalid device ID")
		return
	}

	c.String(http.StatusOK, "")
}

// PostHello 设备注册
//
// 目录写入和握手发布是两件独立的事：发布失败返回 500，但已写入的
// 记录不回滚，设备下次重试握手即可。
func (h *Handler) PostHello(c *gin.Context) {
	deviceId := c.Param("device_id")
	if !IsValidDeviceId(deviceId) {
		c.String(http.StatusBadRequest, "Invalid device ID")
		return
	}

	var data map[string]interface{}
	if err := c.ShouldBindJSON(&data); err != nil {
		c.String(http.StatusBadRequest, "Invalid device data")
		return
	}

	record, err := registry.StructureDeviceData(data)
	if err != nil {
		h.logger.Warn("设备注册数据不完整",
			zap.String("deviceId", deviceId), zap.Error(err))
		c.String(http.StatusBadRequest, "Invalid device data")
		return
	}

	h.registry.Set(deviceId, *record)
	pkg.GetGatewayMetrics().Registrations.Inc()

	topic := connector.HandshakeTopic(deviceId)
	if err := h.publisher.PublishAwait(topic, 1, true, connector.HandshakePayload, "handshake"); err != nil {
		h.logger.Error("握手消息发布失败",
			zap.String("deviceId", deviceId), zap.Error(err))
		stateResponse(c, http.StatusInternalServerError, "Error sending MQTT message")
		return
	}

	h.logger.Info("设备注册成功",
		zap.String("deviceId", deviceId), zap.String("topic", topic))
	stateResponse(c, http.StatusOK, nil)
}

// attributeRequest 属性设置请求体
//
// currentValue 用 interface{} 接收：部分固件发字符串，部分发数字。
type attributeRequest struct {
	CurrentValue interface{} `json:"currentValue"`
}

// PostFanSpeed 设置风速
//
// 手动调风速意味着退出自动模式，所以固定补发一条 mode=manual。
// 两条都是即发即忘，不等确认。
func (h *Handler) PostFanSpeed(c *gin.Context) {
	deviceId := c.Param("device_id")
	if !IsValidDeviceId(deviceId) {
		stateResponse(c, http.StatusBadRequest, "Invalid device ID")
		return
	}

	var body attributeRequest
	_ = c.ShouldBindJSON(&body)
	fanSpeed := fmt.Sprint(body.CurrentValue)
	if !IsValidFanSpeed(fanSpeed) {
		stateResponse(c, http.StatusBadRequest, "Invalid fan speed")
		return
	}

	h.publisher.PublishAsync(connector.AttributeTopic(deviceId, connector.AttrFanSpeed), 1, false, fanSpeed, connector.AttrFanSpeed)
	h.publisher.PublishAsync(connector.AttributeTopic(deviceId, connector.AttrMode), 1, false, connector.ModeManual, connector.AttrMode)
	stateResponse(c, http.StatusOK, nil)
}

// PostBrightness 设置指示灯亮度
func (h *Handler) PostBrightness(c *gin.Context) {
	deviceId := c.Param("device_id")
	if !IsValidDeviceId(deviceId) {
		stateResponse(c, http.StatusBadRequest, "Invalid device ID")
		return
	}

	var body attributeRequest
	_ = c.ShouldBindJSON(&body)
	brightness := fmt.Sprint(body.CurrentValue)
	if !IsValidBrightness(brightness) {
		stateResponse(c, http.StatusBadRequest, "Invalid brightness")
		return
	}

	h.publisher.PublishAsync(connector.AttributeTopic(deviceId, connector.AttrBrightness), 1, false, brightness, connector.AttrBrightness)
	stateResponse(c, http.StatusOK, nil)
}
