package relay

import (
	"strings"

	"bluebridge/internal/connector"
)

// actionPush 设备主动上报的动作标记
const actionPush = "push"

// Topic 设备主题拆解后的类型化元组
//
// 形如 device/{id}/attribute/{attr}/push。
type Topic struct {
	DeviceID  string
	Category  string
	Attribute string
	Action    string
}

// ParseTopic 解析主题并判定是否需要转发
//
// 只有段数足够、动作为 push、属性可识别的消息才转发，其余一律静默忽略，
// 因为订阅的是 device/# 通配，命令主题自己发布的消息也会回流到这里。
func ParseTopic(topic string) (Topic, bool) {
	parts := strings.Split(topic, "/")
	if len(parts) < 5 {
		return Topic{}, false
	}

	parsed := Topic{
		DeviceID:  parts[1],
		Category:  parts[2],
		Attribute: parts[3],
		Action:    parts[4],
	}

	if parsed.Action != actionPush {
		return parsed, false
	}
	if parsed.Attribute != connector.AttrFanSpeed && parsed.Attribute != connector.AttrBrightness {
		return parsed, false
	}
	return parsed, true
}
