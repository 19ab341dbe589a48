// 版权所有 2024 AgentFlow Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 orchestrator 实现 Query Orchestrator：对自然语言查询分类意图、在歧义时
转交 Conversation Controller、通过 Embedding Fallback Chain 计算向量、并发
探测并调用向量/图谱后端、合并证据、在配置了合成链时生成回答、计算置信度并
落盘查询指标。

编排器只依赖能力接口（EmbeddingGenerator、Synthesizer、SemanticBackend、
StructuralBackend），从不依赖具体的后端实现,符合“多态优先于继承”的设计
准则;它同时实现 conversation.Executor,供 Controller 在收集到足够上下文
后以单轮模式回调。
*/
package orchestrator
