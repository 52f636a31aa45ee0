package relay

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"bluebridge/internal/connector"
	"bluebridge/internal/pkg"
)

// itemPrefix openHAB 侧 Item 命名前缀
const itemPrefix = "BlueAir"

// Subscriber 转发器需要的订阅能力
type Subscriber interface {
	Subscribe(topic string, qos byte, handler connector.MessageHandler)
}

// Relay 把设备上报的遥测消息转发为 openHAB 的 Item 状态更新
//
// 纯单向：转发失败只进日志和指标，没有调用方可以通知，也不做重试。
type Relay struct {
	ctx     context.Context
	config  *pkg.OpenHabConfig
	client  *http.Client
	baseURL string
}

// NewRelay 构造遥测转发器，出站超时在这里一次性定死
func NewRelay(ctx context.Context) *Relay {
	config := pkg.ConfigFromContext(ctx)
	return &Relay{
		ctx:     ctx,
		config:  &config.OpenHab,
		client:  &http.Client{Timeout: config.OpenHab.Timeout},
		baseURL: config.OpenHab.BaseURL(),
	}
}

// Start 建立通配订阅
//
// openHAB 未配置时整个模块跳过。订阅只在这里建立一次，
// 断线重连后的恢复由连接器负责。
func (r *Relay) Start(sub Subscriber) {
	logger := pkg.LoggerFromContext(r.ctx)
	if !r.config.Enabled() {
		logger.Info("openHAB未配置，遥测转发已关闭")
		return
	}

	sub.Subscribe(connector.AllDevicesFilter, 1, r.handleMessage)
	logger.Info("遥测转发已订阅", zap.String("topic", connector.AllDevicesFilter))
}

// handleMessage 处理一条入站 Broker 消息
func (r *Relay) handleMessage(topic string, payload []byte) {
	logger := pkg.LoggerFromContext(r.ctx)
	metrics := pkg.GetGatewayMetrics()

	parsed, ok := ParseTopic(topic)
	if !ok {
		metrics.RelayIgnored.Inc()
		logger.Debug("忽略不需要转发的消息", zap.String("topic", topic))
		return
	}

	logger.Info("收到设备遥测",
		zap.String("deviceId", parsed.DeviceID),
		zap.String("attribute", parsed.Attribute),
		zap.String("value", string(payload)))

	// 出站调用不阻塞订阅回调；payload 底层切片归消息对象所有，先拷贝
	value := append([]byte(nil), payload...)
	go r.updateItem(parsed, value)
}

// itemName openHAB Item 命名：BlueAir_{id}_{fanspeed|brightness}
func itemName(t Topic) string {
	attribute := t.Attribute
	if attribute == connector.AttrFanSpeed {
		attribute = "fanspeed"
	}
	return fmt.Sprintf("%s_%s_%s", itemPrefix, t.DeviceID, attribute)
}

// updateItem 向 openHAB 发起一次 Item 状态更新，结果只记录不传播
func (r *Relay) updateItem(t Topic, value []byte) {
	logger := pkg.LoggerFromContext(r.ctx)
	metrics := pkg.GetGatewayMetrics()

	item := itemName(t)
	url := fmt.Sprintf("%s/rest/items/%s/state", r.baseURL, item)

	req, err := http.NewRequestWithContext(r.ctx, http.MethodPut, url, bytes.NewReader(value))
	if err != nil {
		metrics.RelayErrors.WithLabelValues("request").Inc()
		logger.Error("构造Item更新请求失败", zap.String("item", item), zap.Error(err))
		return
	}
	req.Header.Set("Content-Type", "text/plain")
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		metrics.RelayErrors.WithLabelValues("transport").Inc()
		logger.Error("Item更新请求失败", zap.String("item", item), zap.Error(err))
		return
	}
	defer resp.Body.Close()

	// openHAB 的状态更新接口成功返回 202
	if resp.StatusCode != http.StatusAccepted {
		metrics.RelayErrors.WithLabelValues("status").Inc()
		logger.Error("Item更新被拒绝",
			zap.String("item", item), zap.Int("status", resp.StatusCode))
		return
	}

	metrics.RelayForwarded.WithLabelValues(t.Attribute).Inc()
	logger.Info("Item更新成功", zap.String("item", item))
}
