package connector

import "fmt"

// 设备侧主题约定。设备只认这套主题，改动会直接断掉真机。
const (
	// AllDevicesFilter 覆盖所有设备所有子主题的通配订阅
	AllDevicesFilter = "device/#"

	// HandshakePayload 注册握手固定载荷
	HandshakePayload = "1;10;2"

	// ModeManual fan_speed 的手动挡伴随值
	ModeManual = "manual"
)

// 受支持的可控属性
const (
	AttrFanSpeed   = "fan_speed"
	AttrBrightness = "brightness"
	AttrMode       = "mode"
)

// HandshakeTopic 注册握手主题（retained，迟到的订阅者也能看到最后一次握手）
func HandshakeTopic(deviceID string) string {
	return fmt.Sprintf("device/%s/patate", deviceID)
}

// AttributeTopic 属性设置主题
func AttributeTopic(deviceID, attribute string) string {
	return fmt.Sprintf("device/%s/attribute/%s", deviceID, attribute)
}
