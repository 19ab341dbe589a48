// Copyright 2025-2026 AgentFlow Authors. All rights reserved.
// Use of this source code is governed by the project license.

/*
# 概述

Package mcp 是语义/结构化后端的进程内替代实现（SemanticBackend /
StructuralBackend 的第三种实现），不连接任何外部服务。它把固定的
fixture 数据当作 agent/protocol/mcp 意义上的"资源"对外提供，用于本地
开发和测试场景下替换真实的 Qdrant / Neo4j 依赖。

# 主要能力

  - Probe：恒定成功
  - Search：从注册的资源表中按 project 过滤并返回全部匹配项
*/
package mcp
