// 版权所有 2024 AgentFlow Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 confidence 实现 Confidence Metering：每次响应的置信度是三个因子的
加权和（语义、结构、引用），权重来自带版本号的配置文件。

离线调优器（tuner 子包的功能收敛在本包内）消费带反馈的 QueryMetric，
计算每个因子与“有用”结果的相关性，提出权重调整建议；置信度足够高
时自动生效，否则把复核建议写入 store（键为 RecommendationKey）。
*/
package confidence
