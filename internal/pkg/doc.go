/*
Package pkg 包含了项目的公共类部分。具体地：

config.go -- 统一定义了所有配置的加载项，便于使用

logger.go -- 配置logger项，以及基于 context 的 logger 传递

errChan.go -- 全局错误通道的 context 传递

metrics.go -- 网关运行指标（Prometheus）
*/
package pkg
