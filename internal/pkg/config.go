package pkg

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// LogConfig 日志相关配置
type LogConfig struct {
	LogPath    string `mapstructure:"log_path"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
	Level      string `mapstructure:"level"`
}

// HttpConfig 设备侧 HTTP 服务配置
type HttpConfig struct {
	Port string `mapstructure:"port"`
}

// MqttConfig 包含 MQTT Broker 配置信息
//
// ApiUrl/ApiPort 是对设备公布的 Broker 地址（/v2/apidomain 和 connections csv 返回），
// 未配置时回退到网关自身连接所用的 Broker/Port。
type MqttConfig struct {
	Broker               string        `mapstructure:"broker"`
	Port                 string        `mapstructure:"port"`
	Username             string        `mapstructure:"username"`
	Password             string        `mapstructure:"password"`
	ApiUrl               string        `mapstructure:"api_url"`
	ApiPort              string        `mapstructure:"api_port"`
	ClientID             string        `mapstructure:"clientID"`
	MaxReconnectInterval time.Duration `mapstructure:"maxReconnectInterval"`
}

// OpenHabConfig 自动化控制器（openHAB）配置
//
// Host 为空时视为未启用，遥测转发模块整体跳过。
type OpenHabConfig struct {
	Host    string        `mapstructure:"host"`
	Port    string        `mapstructure:"port"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// MetricsConfig Prometheus 指标暴露配置
type MetricsConfig struct {
	Enable   bool   `mapstructure:"enable"`
	Port     int    `mapstructure:"port"`
	Endpoint string `mapstructure:"endpoint"`
}

type Config struct {
	Version string        `mapstructure:"version"`
	Log     LogConfig     `mapstructure:"log"`
	Http    HttpConfig    `mapstructure:"http"`
	Mqtt    MqttConfig    `mapstructure:"mqtt"`
	OpenHab OpenHabConfig `mapstructure:"openhab"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// BrokerAddress 拼接 paho 使用的 Broker 连接地址
func (m *MqttConfig) BrokerAddress() string {
	broker := m.Broker
	if !strings.Contains(broker, "://") {
		broker = "tcp://" + broker
	}
	if m.Port != "" {
		return fmt.Sprintf("%s:%s", broker, m.Port)
	}
	return broker
}

// Enabled openHAB 侧是否配置完整
func (o *OpenHabConfig) Enabled() bool {
	return o.Host != ""
}

// BaseURL openHAB REST 服务的基地址
func (o *OpenHabConfig) BaseURL() string {
	if o.Port != "" {
		return fmt.Sprintf("http://%s:%s", o.Host, o.Port)
	}
	return fmt.Sprintf("http://%s", o.Host)
}

// InitCommon 用于初始化全局配置
//
// 依次合并 configDir 下的所有 yaml 文件，再用环境变量覆盖（容器部署场景下
// 只用环境变量即可，yaml 可以整个不存在）。
func InitCommon(configDir string) (*Config, *viper.Viper, error) {
	v := viper.NewWithOptions(viper.KeyDelimiter("::")) // 设置 key 分隔符为 ::，因为默认的 . 会和 IP 地址冲突
	v.AutomaticEnv()                                    // 读取环境变量

	setDefaults(v)
	bindEnvs(v)

	// 遍历配置目录及其子目录中的所有文件
	_ = filepath.WalkDir(configDir, func(filePath string, d fs.DirEntry, err error) error {
		if err != nil {
			// 配置目录可以不存在，此时只依赖环境变量与默认值
			return nil
		}

		// 如果是目录则跳过，继续遍历
		if d.IsDir() {
			return nil
		}

		// 只处理 .yaml 或 .yml 文件
		ext := filepath.Ext(filePath)
		if ext == ".yaml" || ext == ".yml" {
			v.SetConfigFile(filePath)

			// 读取并合并配置文件 (会覆盖之前的配置)
			if err := v.MergeInConfig(); err != nil {
				return fmt.Errorf("读取配置文件失败 %s: %w", filePath, err)
			}
		}

		return nil
	})

	var common Config
	// 反序列化到结构体
	if err := v.Unmarshal(&common); err != nil {
		return nil, nil, fmt.Errorf("反序列化配置失败: %w", err)
	}

	// API 侧 Broker 地址未配置时回退到连接地址
	if common.Mqtt.ApiUrl == "" {
		common.Mqtt.ApiUrl = common.Mqtt.Broker
	}
	if common.Mqtt.ApiPort == "" {
		common.Mqtt.ApiPort = common.Mqtt.Port
	}

	return &common, v, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http::port", "3000")
	v.SetDefault("mqtt::broker", "mqtt-broker")
	v.SetDefault("mqtt::port", "1883")
	v.SetDefault("mqtt::clientID", "bluebridge-local")
	v.SetDefault("mqtt::maxReconnectInterval", "10s")
	v.SetDefault("openhab::timeout", "5s")
	v.SetDefault("metrics::endpoint", "/metrics")
	v.SetDefault("log::log_path", "./logs/bluebridge.log")
	v.SetDefault("log::max_size", 128)
	v.SetDefault("log::max_backups", 10)
	v.SetDefault("log::max_age", 30)
	v.SetDefault("log::level", "info")
}

// bindEnvs 绑定容器部署使用的环境变量
func bindEnvs(v *viper.Viper) {
	_ = v.BindEnv("http::port", "HTTP_PORT")
	_ = v.BindEnv("mqtt::broker", "MQTT_BROKER_DOCKER_URL")
	_ = v.BindEnv("mqtt::port", "MQTT_BROKER_DOCKER_PORT")
	_ = v.BindEnv("mqtt::username", "MQTT_BROKER_USERNAME")
	_ = v.BindEnv("mqtt::password", "MQTT_BROKER_PASSWORD")
	_ = v.BindEnv("mqtt::api_url", "MQTT_BROKER_API_URL")
	_ = v.BindEnv("mqtt::api_port", "MQTT_BROKER_API_PORT")
	_ = v.BindEnv("openhab::host", "OPENHAB_SERVER_IP")
	_ = v.BindEnv("openhab::port", "OPENHAB_SERVER_PORT")
}

// 定义一个不导出的 key 类型，避免 context key 冲突
type configKey struct{}

// WithConfig 将全局配置挂载到 context 中
func WithConfig(ctx context.Context, config *Config) context.Context {
	return context.WithValue(ctx, configKey{}, config)
}

// ConfigFromContext 从 context 中提取配置指针
func ConfigFromContext(ctx context.Context) *Config {
	if config, ok := ctx.Value(configKey{}).(*Config); ok {
		return config
	}
	return &Config{}
}
