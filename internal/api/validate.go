package api

import "regexp"

var (
	// deviceIdPattern 设备 ID：16 位十六进制，大小写不敏感
	deviceIdPattern = regexp.MustCompile(`^[A-Fa-f0-9]{16}$`)

	// usernamePattern 只做形如邮箱的语法检查，不做归属校验（故意不加锚点，和线上行为一致）
	usernamePattern = regexp.MustCompile(`\S+@\S+\.\S+`)

	// 属性取值域：单个数字
	fanSpeedPattern   = regexp.MustCompile(`^[0-3]$`)
	brightnessPattern = regexp.MustCompile(`^[0-4]$`)
)

// IsValidDeviceId 校验设备 ID 格式
func IsValidDeviceId(deviceId string) bool {
	return deviceIdPattern.MatchString(deviceId)
}

// IsValidUsername 校验调用方身份的邮箱形状
func IsValidUsername(username string) bool {
	return usernamePattern.MatchString(username)
}

// IsValidFanSpeed 风速取值域 {0,1,2,3}
func IsValidFanSpeed(value string) bool {
	return fanSpeedPattern.MatchString(value)
}

// IsValidBrightness 亮度取值域 {0,1,2,3,4}
func IsValidBrightness(value string) bool {
	return brightnessPattern.MatchString(value)
}
