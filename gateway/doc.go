// 版权所有 2024 AgentFlow Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 gateway 定义 HTTP Edge、Query Orchestrator 与 Conversation Controller
共享的请求/响应线格式（wire DTO）：QueryRequest/QueryResponse 及其嵌套的
证据类型、ConversationState 与 ClarificationQuestion。

本包只持有数据形状，不持有行为——编排与会话逻辑分别位于 orchestrator 与
conversation 包。
*/
package gateway
