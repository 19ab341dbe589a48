// 版权所有 2024 AgentFlow Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 store 实现 Persistent State Store：一个以字节为值的有键存储，
对 ConversationState、QueryMetric 等域对象一视同仁，序列化交由调用方
完成。两种实现（Redis 与进程内回退）对外暴露同一接口，可以互换。

SwitchingStore 在外部存储为 nil（构造前已不可达）时直接从进程内回退
开始；否则在外部存储的操作第一次失败时切换到进程内回退。切换在进程
生命周期内不会撤回，也不再探测外部存储，并只记录一次降级告警。
*/
package store
