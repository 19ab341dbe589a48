// Copyright 2025-2026 AgentFlow Authors. All rights reserved.
// Use of this source code is governed by the project license.

/*
# 概述

Package vector 实现语义检索后端适配器（SemanticBackend），基于 Qdrant
的 HTTP REST API。它只依赖 orchestrator 包定义的能力接口（Probe /
Search），从不被上层引用为具体类型。

# 主要能力

  - Probe：通过 collection 信息端点判断 Qdrant 是否可用
  - Search：按查询向量检索最相似的代码片段，按 project 过滤，并将两种
    历史索引器遗留下来的 payload 形状统一转换为同一内部形状
  - 只读：本包不创建 collection，也不写入数据
*/
package vector
