// 版权所有 2024 ProductShot Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 pipeline 编排一次商品图生成：校验 → 上传参考图 → （可选）润色 →
合成 → 持久化结果 → 返回公开地址。

# 语义

  - 任意一步失败立即返回，已上传的对象不回滚；
  - 参考图先全部严格解码校验，再按输入顺序上传到 user-images；
  - 结果图以 image/png 写入 generated-images，永不覆盖；
  - 编排与调用方的取消解耦，每个下游调用由各自的超时约束。

每一步都在独立的 OpenTelemetry span 中执行并记录 Prometheus 耗时；
结果交给可选的 Recorder（生成历史），记录失败只写日志。
*/
package pipeline
