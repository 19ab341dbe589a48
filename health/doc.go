// 版权所有 2024 AgentFlow Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 health 实现 Health Monitor：按固定间隔轮询每个依赖服务，聚合出
整体健康状态，暴露给 GET /health。

每个被监控的服务既可以提供一个健康检查 URL（HTTP 2xx 视为健康，207
视为降级），也可以提供一个自定义探测闭包。历史记录写入 Persistent
State Store，最多保留一小时。
*/
package health
