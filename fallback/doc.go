// 版权所有 2024 AgentFlow Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 fallback 实现 Provider Fallback Engine：embedding 与 synthesis 两条
独立的有序 provider 链，每个 provider 带独立的熔断器与健康记录。

链路按配置顺序尝试 provider；某个 provider 的熔断器处于打开状态时跳过
它，继续尝试下一个；全部失败则返回聚合错误，列出每个被尝试 provider
及其最后一条错误信息。
*/
package fallback
