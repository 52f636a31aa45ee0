package command

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"
)

// gatewayURL 网关地址，所有子命令共用
var gatewayURL string

// NewRootCommand 创建根命令
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "bluebridge-cli",
		Short: "Bluebridge CLI for poking the local gateway",
		Long:  `Bluebridge CLI sends test requests to the local gateway's HTTP surface, useful when bringing up devices or debugging the bridge.`,
	}

	rootCmd.PersistentFlags().StringVar(&gatewayURL, "gateway", "http://localhost:3000", "base URL of the running gateway")

	// 添加子命令
	rootCmd.AddCommand(NewDevicesCommand())
	rootCmd.AddCommand(NewFanSpeedCommand())
	rootCmd.AddCommand(NewBrightnessCommand())
	rootCmd.AddCommand(NewHelloCommand())

	return rootCmd
}

// httpClient CLI 出站调用统一超时
var httpClient = &http.Client{Timeout: 5 * time.Second}

// NewDevicesCommand 列出已注册设备
func NewDevicesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "devices [username]",
		Short: "List registered devices",
		Args:  cobra.ExactArgs(1), // 必须传一个邮箱形状的身份
		RunE: func(cmd *cobra.Command, args []string) error {
			url := fmt.Sprintf("%s/v2/owner/%s/device/", gatewayURL, args[0])
			resp, err := httpClient.Get(url)
			if err != nil {
				return fmt.Errorf("failed to query gateway: %w", err)
			}
			defer resp.Body.Close()

			body, err := io.ReadAll(resp.Body)
			if err != nil {
				return fmt.Errorf("failed to read response: %w", err)
			}
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("gateway returned %d: %s", resp.StatusCode, string(body))
			}

			// 简单格式化输出
			var pretty bytes.Buffer
			if err := json.Indent(&pretty, body, "", "  "); err != nil {
				fmt.Println(string(body))
				return nil
			}
			fmt.Println(pretty.String())
			return nil
		},
	}
}

// postAttribute 属性设置命令的公共实现
func postAttribute(endpoint, deviceId, value string) error {
	url := fmt.Sprintf("%s/v2/device/%s/attribute/%s/", gatewayURL, deviceId, endpoint)
	payload, _ := json.Marshal(map[string]string{"currentValue": value})

	resp, err := httpClient.Post(url, "application/json", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to reach gateway: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("gateway returned %d: %s", resp.StatusCode, string(body))
	}
	fmt.Println("OK:", string(body))
	return nil
}

// NewFanSpeedCommand 下发风速命令
func NewFanSpeedCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "fanspeed [deviceId] [0-3]",
		Short: "Set fan speed on a device",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return postAttribute("fanspeed", args[0], args[1])
		},
	}
}

// NewBrightnessCommand 下发亮度命令
func NewBrightnessCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "brightness [deviceId] [0-4]",
		Short: "Set LED brightness on a device",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return postAttribute("brightness", args[0], args[1])
		},
	}
}

// NewHelloCommand 用一份合成数据注册测试设备
func NewHelloCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "hello [deviceId]",
		Short: "Register a synthetic test device",
		Long:  `Register a synthetic device record against the gateway, handy for exercising the directory and the handshake publish without real hardware.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			record := map[string]interface{}{
				"localIp":       "192.168.1.50",
				"firmware":      "2.1.1",
				"mcu_firmware":  "1.0.4",
				"mac":           "AA:BB:CC:DD:EE:FF",
				"wlan_ver":      "1.33",
				"reset_reason":  "poweron",
				"compatibility": "1",
				"model":         "classic-280i",
				"calibration":   "0",
			}
			payload, _ := json.Marshal(record)

			url := fmt.Sprintf("%s/v2/device/%s/hello/", gatewayURL, args[0])
			resp, err := httpClient.Post(url, "application/json", bytes.NewReader(payload))
			if err != nil {
				return fmt.Errorf("failed to reach gateway: %w", err)
			}
			defer resp.Body.Close()

			body, _ := io.ReadAll(resp.Body)
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("gateway returned %d: %s", resp.StatusCode, string(body))
			}
			fmt.Println("OK:", string(body))
			return nil
		},
	}
}
