package registry

import (
	"fmt"
	"sync"

	"github.com/mitchellh/mapstructure"
)

// DeviceRecord 设备注册时上报的全部属性
//
// Calibration 设备上报的是不透明的标定数据，结构不固定，原样保存原样返回。
type DeviceRecord struct {
	LocalIp       string      `json:"localIp" mapstructure:"localIp"`
	Firmware      string      `json:"firmware" mapstructure:"firmware"`
	McuFirmware   string      `json:"mcu_firmware" mapstructure:"mcu_firmware"`
	Mac           string      `json:"mac" mapstructure:"mac"`
	WlanVer       string      `json:"wlan_ver" mapstructure:"wlan_ver"`
	ResetReason   string      `json:"reset_reason" mapstructure:"reset_reason"`
	Compatibility string      `json:"compatibility" mapstructure:"compatibility"`
	Model         string      `json:"model" mapstructure:"model"`
	Calibration   interface{} `json:"calibration" mapstructure:"calibration"`
}

// requiredFields hello 报文必须携带的字段，按线上报文顺序排列
var requiredFields = []string{
	"localIp",
	"firmware",
	"mcu_firmware",
	"mac",
	"wlan_ver",
	"reset_reason",
	"compatibility",
	"model",
	"calibration",
}

// StructureDeviceData 校验 hello 报文并转换为 DeviceRecord
//
// 任何一个必填字段缺失则整体拒绝，不会产生部分填充的记录。
func StructureDeviceData(data map[string]interface{}) (*DeviceRecord, error) {
	for _, key := range requiredFields {
		if _, ok := data[key]; !ok {
			return nil, fmt.Errorf("缺少必填字段: %s", key)
		}
	}

	var record DeviceRecord
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true, // 设备固件对数字/字符串的使用不统一，宽松转换
		Result:           &record,
	})
	if err != nil {
		return nil, fmt.Errorf("创建解码器失败: %w", err)
	}
	if err := decoder.Decode(data); err != nil {
		return nil, fmt.Errorf("设备数据解析失败: %w", err)
	}
	return &record, nil
}

// Entry 目录快照中的一条记录
type Entry struct {
	ID     string
	Record DeviceRecord
}

// Registry 设备目录，进程内唯一的共享可变状态
//
// Set 为整条覆盖，单 key 写入是原子的；All 返回某一时刻的快照，
// 与并发写交错时可能混合新旧记录，这是约定行为。
type Registry struct {
	mu      sync.RWMutex
	devices map[string]DeviceRecord
}

// New 创建空目录
func New() *Registry {
	return &Registry{
		devices: make(map[string]DeviceRecord),
	}
}

// Set 写入或整条覆盖一条设备记录
func (r *Registry) Set(id string, record DeviceRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.devices[id] = record
}

// Get 按设备 ID 读取记录
func (r *Registry) Get(id string) (DeviceRecord, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	record, ok := r.devices[id]
	return record, ok
}

// All 返回目录快照
func (r *Registry) All() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entries := make([]Entry, 0, len(r.devices))
	for id, record := range r.devices {
		entries = append(entries, Entry{ID: id, Record: record})
	}
	return entries
}

// Len 当前已注册设备数
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.devices)
}
