package connector

import (
	"context"
	"fmt"
	"sync"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"bluebridge/internal/pkg"
)

// MQTTClient 定义一个接口，包含需要的 MQTT 客户端方法
type MQTTClient interface {
	Connect() mqtt.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Subscribe(topic string, qos byte, callback mqtt.MessageHandler) mqtt.Token
	IsConnected() bool
}

// MessageHandler 订阅消息的回调签名，由 paho 在独立协程中调用
type MessageHandler func(topic string, payload []byte)

// subscription 记录一条订阅，用于重连后恢复
type subscription struct {
	topic   string
	qos     byte
	handler MessageHandler
}

// MqttConnector 封装与 Broker 的连接，供所有发布方和唯一的订阅方共用
type MqttConnector struct {
	ctx    context.Context
	config *pkg.MqttConfig
	Client MQTTClient

	subMu         sync.RWMutex
	subscriptions []subscription
}

// NewMqttConnector 根据全局配置创建 MQTT 连接器
func NewMqttConnector(ctx context.Context) (*MqttConnector, error) {
	config := pkg.ConfigFromContext(ctx)
	mqttConfig := &config.Mqtt

	mqttConnector := &MqttConnector{
		ctx:    ctx,
		config: mqttConfig,
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(mqttConfig.BrokerAddress())
	// clientID 加随机后缀，避免多实例互踢
	opts.SetClientID(fmt.Sprintf("%s-%s", mqttConfig.ClientID, uuid.NewString()[:8]))
	opts.SetUsername(mqttConfig.Username)
	opts.SetPassword(mqttConfig.Password)

	// 初次连接和断线都无限重试，Broker 不可用不能拖垮网关
	opts.SetConnectRetry(true)
	opts.SetAutoReconnect(true)
	opts.SetMaxReconnectInterval(mqttConfig.MaxReconnectInterval)

	opts.OnConnect = mqttConnector.connectHandler
	opts.OnConnectionLost = mqttConnector.connectLostHandler

	mqttConnector.Client = mqtt.NewClient(opts)
	return mqttConnector, nil
}

// Start 发起 Broker 连接，连接结果异步通知
func (m *MqttConnector) Start() {
	logger := pkg.LoggerFromContext(m.ctx)
	token := m.Client.Connect()
	go func() {
		if token.Wait() && token.Error() != nil {
			logger.Error("MQTT连接失败", zap.Error(token.Error()))
		}
	}()
}

// Close 优雅断开 Broker 连接
func (m *MqttConnector) Close() error {
	logger := pkg.LoggerFromContext(m.ctx)
	if m.Client != nil && m.Client.IsConnected() {
		m.Client.Disconnect(250)
		logger.Info("MQTT连接已断开")
		return nil
	}
	return fmt.Errorf("MQTT客户端未连接")
}

// Subscribe 注册一条订阅，连接就绪后生效，重连后自动恢复
func (m *MqttConnector) Subscribe(topic string, qos byte, handler MessageHandler) {
	m.subMu.Lock()
	m.subscriptions = append(m.subscriptions, subscription{topic: topic, qos: qos, handler: handler})
	m.subMu.Unlock()

	if m.Client.IsConnected() {
		m.Client.Subscribe(topic, qos, m.wrapHandler(handler))
	}
}

// PublishAwait 发布消息并等待 Broker 的投递确认
//
// 注册握手用这个入口：响应设备之前必须确认 Broker 已收到。
func (m *MqttConnector) PublishAwait(topic string, qos byte, retained bool, payload string, kind string) error {
	metrics := pkg.GetGatewayMetrics()
	token := m.Client.Publish(topic, qos, retained, payload)
	token.Wait()
	if err := token.Error(); err != nil {
		metrics.PublishErrors.WithLabelValues(kind).Inc()
		return fmt.Errorf("MQTT发布失败 %s: %w", topic, err)
	}
	metrics.MsgPublished.WithLabelValues(kind).Inc()
	return nil
}

// PublishAsync 发布消息但不等待确认，结果只进日志和指标
//
// 属性控制命令用这个入口：瞬时命令丢了就丢了，不值得让设备等。
func (m *MqttConnector) PublishAsync(topic string, qos byte, retained bool, payload string, kind string) {
	logger := pkg.LoggerFromContext(m.ctx)
	metrics := pkg.GetGatewayMetrics()
	token := m.Client.Publish(topic, qos, retained, payload)
	go func() {
		if token.Wait() && token.Error() != nil {
			metrics.PublishErrors.WithLabelValues(kind).Inc()
			logger.Error("MQTT发布失败",
				zap.String("topic", topic), zap.Error(token.Error()))
			return
		}
		metrics.MsgPublished.WithLabelValues(kind).Inc()
	}()
}

// 连接成功回调，初次连接和重连都会走到这里
func (m *MqttConnector) connectHandler(_ mqtt.Client) {
	logger := pkg.LoggerFromContext(m.ctx)
	logger.Info("成功连接至MQTT broker")

	// 恢复全部订阅
	m.subMu.RLock()
	defer m.subMu.RUnlock()
	for _, sub := range m.subscriptions {
		m.Client.Subscribe(sub.topic, sub.qos, m.wrapHandler(sub.handler))
	}
}

// 连接丢失回调
func (m *MqttConnector) connectLostHandler(_ mqtt.Client, err error) {
	logger := pkg.LoggerFromContext(m.ctx)
	logger.Error("Connect lost", zap.Error(err))
	// 这里Paho会自动重连，不需要手动重连
}

// wrapHandler 把内部回调适配成 paho 的回调，并兜住 handler 的 panic
func (m *MqttConnector) wrapHandler(handler MessageHandler) mqtt.MessageHandler {
	return func(_ mqtt.Client, msg mqtt.Message) {
		defer func() {
			if r := recover(); r != nil {
				pkg.LoggerFromContext(m.ctx).Error("订阅回调panic",
					zap.String("topic", msg.Topic()), zap.Any("panic", r))
			}
		}()
		handler(msg.Topic(), msg.Payload())
	}
}
