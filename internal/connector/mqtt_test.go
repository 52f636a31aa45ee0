package connector

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	. "github.com/smartystreets/goconvey/convey"

	"bluebridge/internal/pkg"
)

// mockToken 模拟 paho 的投递确认
type mockToken struct {
	err error
}

func (t *mockToken) Wait() bool                     { return true }
func (t *mockToken) WaitTimeout(time.Duration) bool { return true }
func (t *mockToken) Error() error                   { return t.err }
func (t *mockToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

type publishedMsg struct {
	topic    string
	qos      byte
	retained bool
	payload  string
}

// mockClient 模拟 MQTT 客户端
type mockClient struct {
	mu         sync.Mutex
	connected  bool
	publishErr error
	published  []publishedMsg
	subscribed []string
}

func (m *mockClient) Connect() mqtt.Token { return &mockToken{} }
func (m *mockClient) Disconnect(uint)    {}
func (m *mockClient) IsConnected() bool  { return m.connected }

func (m *mockClient) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published = append(m.published, publishedMsg{topic, qos, retained, payload.(string)})
	return &mockToken{err: m.publishErr}
}

func (m *mockClient) Subscribe(topic string, qos byte, callback mqtt.MessageHandler) mqtt.Token {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscribed = append(m.subscribed, topic)
	return &mockToken{}
}

func newTestConnector(client *mockClient) *MqttConnector {
	config := &pkg.Config{
		Mqtt: pkg.MqttConfig{
			Broker:               "mqtt-broker",
			Port:                 "1883",
			ClientID:             "bluebridge-test",
			MaxReconnectInterval: 10 * time.Second,
		},
	}
	ctx := pkg.WithConfig(context.Background(), config)
	return &MqttConnector{ctx: ctx, config: &config.Mqtt, Client: client}
}

func TestNewMqttConnector(t *testing.T) {
	Convey("测试 NewMqttConnector", t, func() {
		config := &pkg.Config{
			Mqtt: pkg.MqttConfig{
				Broker:               "mqtt-broker",
				Port:                 "1883",
				ClientID:             "bluebridge-test",
				MaxReconnectInterval: 10 * time.Second,
			},
		}
		ctx := pkg.WithConfig(context.Background(), config)

		conn, err := NewMqttConnector(ctx)
		So(err, ShouldBeNil)
		So(conn, ShouldNotBeNil)
		So(conn.Client, ShouldNotBeNil)
	})
}

func TestPublishAwait(t *testing.T) {
	Convey("测试 PublishAwait", t, func() {
		Convey("发布成功返回 nil", func() {
			client := &mockClient{connected: true}
			conn := newTestConnector(client)

			err := conn.PublishAwait("device/ABCDEF0123456789/patate", 1, true, "1;10;2", "handshake")
			So(err, ShouldBeNil)
			So(len(client.published), ShouldEqual, 1)
			So(client.published[0].retained, ShouldBeTrue)
			So(client.published[0].payload, ShouldEqual, "1;10;2")
		})

		Convey("Broker 拒绝时返回错误", func() {
			client := &mockClient{connected: true, publishErr: errors.New("connection refused")}
			conn := newTestConnector(client)

			err := conn.PublishAwait("device/ABCDEF0123456789/patate", 1, true, "1;10;2", "handshake")
			So(err, ShouldNotBeNil)
		})
	})
}

func TestPublishAsync(t *testing.T) {
	Convey("测试 PublishAsync", t, func() {
		Convey("立即返回，不等确认", func() {
			client := &mockClient{connected: true}
			conn := newTestConnector(client)

			conn.PublishAsync("device/ABCDEF0123456789/attribute/fan_speed", 1, false, "2", "fan_speed")
			So(len(client.published), ShouldEqual, 1)
			So(client.published[0].qos, ShouldEqual, byte(1))
			So(client.published[0].retained, ShouldBeFalse)
		})

		Convey("发布失败不上抛", func() {
			client := &mockClient{connected: true, publishErr: errors.New("connection refused")}
			conn := newTestConnector(client)

			So(func() {
				conn.PublishAsync("device/ABCDEF0123456789/attribute/fan_speed", 1, false, "2", "fan_speed")
			}, ShouldNotPanic)
		})
	})
}

func TestSubscribe(t *testing.T) {
	Convey("测试订阅注册与恢复", t, func() {
		Convey("未连接时只登记，连接回调时生效", func() {
			client := &mockClient{connected: false}
			conn := newTestConnector(client)

			conn.Subscribe("device/#", 1, func(topic string, payload []byte) {})
			So(len(client.subscribed), ShouldEqual, 0)

			conn.connectHandler(nil)
			So(client.subscribed, ShouldResemble, []string{"device/#"})
		})

		Convey("已连接时立即订阅", func() {
			client := &mockClient{connected: true}
			conn := newTestConnector(client)

			conn.Subscribe("device/#", 1, func(topic string, payload []byte) {})
			So(client.subscribed, ShouldResemble, []string{"device/#"})
		})

		Convey("重连回调恢复全部订阅", func() {
			client := &mockClient{connected: true}
			conn := newTestConnector(client)

			conn.Subscribe("device/#", 1, func(topic string, payload []byte) {})
			client.subscribed = nil

			conn.connectHandler(nil)
			So(client.subscribed, ShouldResemble, []string{"device/#"})
		})
	})
}
