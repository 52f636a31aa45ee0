package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"bluebridge/internal/api"
	"bluebridge/internal/connector"
	"bluebridge/internal/pkg"
	"bluebridge/internal/registry"
	"bluebridge/internal/relay"
)

func main() {

	// 1. 初始化common yaml
	config, _, err := pkg.InitCommon("config")
	if err != nil {
		fmt.Printf("[main] 加载配置失败: %s", err)
		return
	}

	// 2. 初始化log
	log := pkg.NewLogger(&config.Log)

	log.Info("程序启动", zap.String("version", config.Version))
	log.Info("==== 初始化流程开始 ====")

	// 3. 创建上下文
	ctx, cancel := context.WithCancel(context.Background())
	errChan := make(chan error, 10) // 创建一个只写的全局错误通道, 缓存大小为10
	ctx = pkg.WithErrChan(ctx, errChan)
	// 将config挂载到ctx上
	ctx = pkg.WithConfig(ctx, config)
	// 将logger挂载到ctx上
	ctx = pkg.WithLogger(ctx, log)

	// 4. 指标暴露
	pkg.ServeMetrics(ctx, &config.Metrics)

	// 5. 设备目录与 MQTT 连接器
	deviceRegistry := registry.New()
	mqttConnector, err := connector.NewMqttConnector(ctx)
	if err != nil {
		log.Error("创建MQTT连接器失败", zap.Error(err))
		cancel()
		return
	}

	// 6. 遥测转发：订阅要在发起连接前注册好，连接就绪即生效
	telemetryRelay := relay.NewRelay(ctx)
	telemetryRelay.Start(mqttConnector)
	mqttConnector.Start()

	// 7. 设备侧 HTTP 服务
	handler := api.NewHandler(config, log, deviceRegistry, mqttConnector)
	router := api.SetupRouter(handler)
	go func() {
		if err := router.Run(":" + config.Http.Port); err != nil {
			errChan <- fmt.Errorf("HTTP服务退出: %w", err)
		}
	}()
	log.Info("HTTP服务已启动", zap.String("port", config.Http.Port))

	printStartupLogo()

	// 8. 主线程监听终止信号
	si := make(chan os.Signal, 1)
	signal.Notify(si, os.Interrupt, syscall.SIGTERM)
	for {
		select {
		case <-si:
			log.Info("Caught exit signal, exiting bluebridge...")
			cancel()
			_ = mqttConnector.Close()
			time.Sleep(1 * time.Second) // 给其他协程时间处理取消
			err = log.Sync()
			if err != nil {
				log.Error("程序退出时同步日志失败", zap.Error(err))
			}
			os.Exit(0) // 安全退出程序
		case bad := <-errChan:
			log.Error("Error occurred", zap.Error(bad))
			cancel()
			// 等待其他可能的错误
			go func() {
				for err := range errChan {
					log.Error("Error occurred before shutdown", zap.Error(err))
				}
			}()
			time.Sleep(1 * time.Second) // 确保日志输出完整
			err = log.Sync()
			if err != nil {
				log.Error("程序退出时同步日志失败", zap.Error(err))
			}
			os.Exit(1)
		}
	}
}

func printStartupLogo() {
	logo := `
	 _     _             _          _     _
	| |__ | |_   _  ___ | |__  _ __(_) __| | __ _  ___
	| '_ \| | | | |/ _ \| '_ \| '__| |/ _' |/ _' |/ _ \
	| |_) | | |_| |  __/| |_) | |  | | (_| | (_| |  __/
	|_.__/|_|\__,_|\___||_.__/|_|  |_|\__,_|\__, |\___|
	                                        |___/
`
	fmt.Print(logo)
}
