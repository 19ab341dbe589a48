// 版权所有 2024 AgentFlow Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 conversation 实现 Conversation Controller：检测查询的歧义程度、生成
澄清问题、在持久化存储中维护多轮会话状态（analyzing -> clarifying ->
executing -> completed），并在收集到足够上下文后以 one-shot 模式重新
调用编排器。

会话状态通过 store.Store 持久化，每次变更都刷新 TTL；内存缓存只被写入
与清理，读取始终走外部存储，外部存储是唯一的权威来源。
*/
package conversation
