// Copyright 2026 AgentFlow Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license.

/*
Package config 提供网关的配置管理功能。

# 概述

config 包负责应用配置的完整生命周期管理，包括多源加载、运行时热重载、
变更审计与 HTTP 管理 API。配置按 "默认值 -> YAML 文件 -> 环境变量" 的
优先级合并。环境变量名是外部契约的一部分，逐一显式映射（见 loader.go），
不通过反射从结构体字段名拼出来。

# 核心结构

  - Config: 顶层配置聚合，涵盖 Server、RateLimit、Vector、Graph、KV、
    Embedding、Synthesis、Log、Telemetry、Archive
  - Loader: 配置加载器，支持 Builder 模式链式设置文件路径与自定义验证器
  - HotReloadManager: 热重载管理器，支持文件监听、局部字段更新、变更
    回调与变更日志（不做自动回滚，也不保存配置版本）
  - FileWatcher: 文件变更监听器，基于轮询 + 去抖机制触发配置重载
  - ConfigAPIHandler: HTTP API 处理器，提供配置查询、更新、热重载触发
    与变更历史查询端点

# 环境变量

	API_KEY                            共享密钥，NODE_ENV=production 时必须设置
	VECTOR_URL / VECTOR_COLLECTION / VECTOR_API_KEY   向量后端
	GRAPH_URI / GRAPH_USER / GRAPH_PASSWORD           图后端
	KV_HOST / KV_PORT                  持久化状态存储
	RATE_LIMIT_WINDOW_MS / RATE_LIMIT_MAX_REQUESTS    边缘限流
	EMBEDDING_DIMENSIONS                必须匹配向量后端的维度
	EMBEDDING_PROVIDERS / SYNTHESIS_PROVIDERS         逗号分隔的有序 provider id 列表；
	    每个 id 再通过 <PREFIX>_<ID>_KIND / _BASE_URL / _API_KEY / _MODEL / _TIMEOUT_MS
	    描述一条链路条目，顺序即回退顺序
	NODE_ENV                           production 时开启严格鉴权校验
	ADMIN_JWT_SECRET / ADMIN_JWT_ISSUER 可选，为 /queue/stats 额外开启 JWT 鉴权
	    （叠加在共享 API_KEY 之上，不替代它）

# 使用示例

	cfg, err := config.NewLoader().
		WithConfigPath("config.yaml").
		Load()
*/
package config
