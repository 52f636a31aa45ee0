package relay

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"bluebridge/internal/connector"
	"bluebridge/internal/pkg"
)

// receivedPut 测试服务器收到的一次 Item 更新
type receivedPut struct {
	path        string
	body        string
	contentType string
	method      string
}

// newRelayWithServer 起一个假 openHAB 并构造指向它的转发器
func newRelayWithServer(t *testing.T, status int) (*Relay, chan receivedPut, *httptest.Server) {
	t.Helper()
	puts := make(chan receivedPut, 8)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		puts <- receivedPut{
			path:        r.URL.Path,
			body:        string(body),
			contentType: r.Header.Get("Content-Type"),
			method:      r.Method,
		}
		w.WriteHeader(status)
	}))
	t.Cleanup(server.Close)

	serverURL, err := url.Parse(server.URL)
	assert.NoError(t, err)

	config := &pkg.Config{
		OpenHab: pkg.OpenHabConfig{
			Host:    serverURL.Hostname(),
			Port:    serverURL.Port(),
			Timeout: 2 * time.Second,
		},
	}
	ctx := pkg.WithConfig(context.Background(), config)
	return NewRelay(ctx), puts, server
}

func waitForPut(t *testing.T, puts chan receivedPut) receivedPut {
	t.Helper()
	select {
	case put := <-puts:
		return put
	case <-time.After(2 * time.Second):
		t.Fatal("在2秒内没有收到Item更新请求")
		return receivedPut{}
	}
}

func TestRelayForwardsFanSpeed(t *testing.T) {
	relay, puts, _ := newRelayWithServer(t, http.StatusAccepted)

	relay.handleMessage("device/ABCDEF0123456789/attribute/fan_speed/push", []byte("2"))

	put := waitForPut(t, puts)
	assert.Equal(t, http.MethodPut, put.method)
	assert.Equal(t, "/rest/items/BlueAir_ABCDEF0123456789_fanspeed/state", put.path)
	assert.Equal(t, "2", put.body, "载荷应原样转发")
	assert.Equal(t, "text/plain", put.contentType)

	// 一条消息只触发一次调用
	select {
	case extra := <-puts:
		t.Fatalf("收到了多余的请求: %+v", extra)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestRelayForwardsBrightness(t *testing.T) {
	relay, puts, _ := newRelayWithServer(t, http.StatusAccepted)

	relay.handleMessage("device/ABCDEF0123456789/attribute/brightness/push", []byte("4"))

	put := waitForPut(t, puts)
	assert.Equal(t, "/rest/items/BlueAir_ABCDEF0123456789_brightness/state", put.path)
	assert.Equal(t, "4", put.body)
}

// TestRelayIgnoresUnknownTopics 不符合转发规则的消息不产生出站调用
func TestRelayIgnoresUnknownTopics(t *testing.T) {
	relay, puts, _ := newRelayWithServer(t, http.StatusAccepted)

	relay.handleMessage("device/X/attribute/unknownattr/push", []byte("1"))
	relay.handleMessage("device/ABCDEF0123456789/patate", []byte("1;10;2"))
	relay.handleMessage("device/ABCDEF0123456789/attribute/fan_speed", []byte("2"))

	select {
	case put := <-puts:
		t.Fatalf("被忽略的主题不应触发请求: %+v", put)
	case <-time.After(300 * time.Millisecond):
	}
}

// TestRelaySwallowsRejection 非 202 只记录，不重试也不上抛
func TestRelaySwallowsRejection(t *testing.T) {
	relay, puts, _ := newRelayWithServer(t, http.StatusNotFound)

	relay.handleMessage("device/ABCDEF0123456789/attribute/fan_speed/push", []byte("1"))

	waitForPut(t, puts)
	select {
	case put := <-puts:
		t.Fatalf("失败不应重试: %+v", put)
	case <-time.After(300 * time.Millisecond):
	}
}

// mockSubscriber 记录订阅调用
type mockSubscriber struct {
	topics []string
	qos    []byte
}

func (m *mockSubscriber) Subscribe(topic string, qos byte, handler connector.MessageHandler) {
	m.topics = append(m.topics, topic)
	m.qos = append(m.qos, qos)
}

func TestRelayStartSubscribes(t *testing.T) {
	relay, _, _ := newRelayWithServer(t, http.StatusAccepted)
	sub := &mockSubscriber{}

	relay.Start(sub)

	assert.Equal(t, []string{"device/#"}, sub.topics, "应订阅全设备通配主题")
	assert.Equal(t, []byte{1}, sub.qos)
}

// TestRelayStartDisabled openHAB 未配置时整个模块跳过
func TestRelayStartDisabled(t *testing.T) {
	ctx := pkg.WithConfig(context.Background(), &pkg.Config{})
	relay := NewRelay(ctx)
	sub := &mockSubscriber{}

	relay.Start(sub)

	assert.Empty(t, sub.topics, "未配置时不应建立订阅")
}
