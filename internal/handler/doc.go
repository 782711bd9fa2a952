// Package handler HTTP 处理器，按业务域分子包：hotel 为用户端目录与预订，admin 为后台与定时任务入口，user 为站内信。
//
// 本文件使 `swag init --dir ./cmd/api-gateway,./internal/handler` 能把该目录识别为 Go 包。
package handler
