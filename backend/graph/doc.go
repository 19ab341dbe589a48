// Copyright 2025-2026 AgentFlow Authors. All rights reserved.
// Use of this source code is governed by the project license.

/*
# 概述

Package graph 实现结构化检索后端适配器（StructuralBackend），基于
`github.com/neo4j/neo4j-go-driver/v5` 直连 Neo4j。图 schema 的定义和
构建不在范围内（spec Non-goals），本包只负责只读遍历已有的图谱并将结果
转换为 StructuralRelationship。

# 主要能力

  - Probe：调用驱动的 VerifyConnectivity 确认与 Neo4j 的连接可用
  - Search：从查询文本中提取候选实体 token，匹配一跳关系并返回遍历路径
*/
package graph
