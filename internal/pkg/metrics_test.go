package pkg

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestGetGatewayMetrics 指标是全局单例，重复获取不应重复注册
func TestGetGatewayMetrics(t *testing.T) {
	m1 := GetGatewayMetrics()
	m2 := GetGatewayMetrics()
	assert.Same(t, m1, m2)

	assert.NotPanics(t, func() {
		m1.RelayIgnored.Inc()
		m1.MsgPublished.WithLabelValues("handshake").Inc()
		m1.PublishErrors.WithLabelValues("fan_speed").Inc()
		m1.RelayForwarded.WithLabelValues("brightness").Inc()
		m1.RelayErrors.WithLabelValues("transport").Inc()
		m1.Registrations.Inc()
	})
}
