// 版权所有 2024 AgentFlow Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 embedding 提供统一的文本嵌入（Embedding）接口，供 Provider Fallback
Engine 的嵌入链使用，将查询与文档文本转换为向量表示以支持语义检索。

# 概述

嵌入链中的每个条目在 API 格式与认证方式上可能不同，但对外暴露的
契约必须一致，这样链路才能在某个条目不可用时透明地切换到下一个。
本包通过 Provider 接口屏蔽这些差异。

# 核心接口

  - Provider：统一嵌入接口，定义 Embed、EmbedQuery、EmbedDocuments 等方法。
  - EmbeddingRequest / EmbeddingResponse：标准化的请求与响应模型。
  - InputType：输入类型枚举，包括 query、document、classification、clustering 等。
  - BaseProvider：公共基类，封装 HTTP 请求、错误映射与批量辅助方法。

# 主要能力

  - 维度声明：每个 Provider 报告自己的 Dimensions()，供链路检测维度不一致。
  - 批量嵌入：Provider 支持批量输入，受 MaxBatchSize() 限制。

# 使用方式

	cfg := embedding.DefaultOpenAIConfig()
	cfg.APIKey = "sk-..."
	provider := embedding.NewOpenAIProvider(cfg)

	vec, err := provider.EmbedQuery(ctx, "搜索关键词")
	vecs, err := provider.EmbedDocuments(ctx, []string{"文档1", "文档2"})
*/
package embedding
