package pkg

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// GatewayMetrics 网关的运行指标集合
//
// 发布失败、转发失败这类异步错误不会上抛给调用方，只体现在这里和日志里。
type GatewayMetrics struct {
	// HTTP → MQTT 方向
	MsgPublished  *prometheus.CounterVec // 按消息类别统计发布成功
	PublishErrors *prometheus.CounterVec // 按消息类别统计发布失败

	// MQTT → HTTP 方向
	RelayForwarded *prometheus.CounterVec // 按属性统计转发成功
	RelayErrors    *prometheus.CounterVec // 按失败原因统计转发失败
	RelayIgnored   prometheus.Counter     // 不符合转发规则而被忽略的消息

	// 目录
	Registrations prometheus.Counter // 设备注册（含覆盖注册）
}

// 全局指标实例
var (
	gatewayMetrics *GatewayMetrics
	metricsOnce    sync.Once
)

// GetGatewayMetrics 返回指标单例
func GetGatewayMetrics() *GatewayMetrics {
	metricsOnce.Do(func() {
		gatewayMetrics = &GatewayMetrics{
			MsgPublished: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "bluebridge_mqtt_published_total",
				Help: "Number of MQTT messages published, by message kind.",
			}, []string{"kind"}),
			PublishErrors: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "bluebridge_mqtt_publish_errors_total",
				Help: "Number of failed MQTT publishes, by message kind.",
			}, []string{"kind"}),
			RelayForwarded: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "bluebridge_relay_forwarded_total",
				Help: "Number of telemetry messages forwarded to the automation controller, by attribute.",
			}, []string{"attribute"}),
			RelayErrors: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "bluebridge_relay_errors_total",
				Help: "Number of failed telemetry forwards, by reason.",
			}, []string{"reason"}),
			RelayIgnored: promauto.NewCounter(prometheus.CounterOpts{
				Name: "bluebridge_relay_ignored_total",
				Help: "Number of inbound MQTT messages ignored by the relay.",
			}),
			Registrations: promauto.NewCounter(prometheus.CounterOpts{
				Name: "bluebridge_registrations_total",
				Help: "Number of device registrations accepted.",
			}),
		}
	})
	return gatewayMetrics
}

// ServeMetrics 启动 Prometheus 指标暴露服务
//
// 未启用时直接返回。服务失败只记日志，不影响网关主流程。
func ServeMetrics(ctx context.Context, cfg *MetricsConfig) {
	if !cfg.Enable {
		return
	}
	log := LoggerFromContext(ctx)

	mux := http.NewServeMux()
	mux.Handle(cfg.Endpoint, promhttp.Handler())
	go func() {
		log.Info("Starting Prometheus HTTP server",
			zap.Int("port", cfg.Port), zap.String("endpoint", cfg.Endpoint))
		if err := http.ListenAndServe(fmt.Sprintf(":%d", cfg.Port), mux); err != nil {
			log.Error("Prometheus HTTP server failed to start", zap.Error(err))
		}
	}()
}
