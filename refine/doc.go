// 版权所有 2024 ProductShot Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 refine 把用户的简短描述改写为更适合图像生成的提示词。

# 降级链

  1. 有参考图时走视觉补全：参考图以 image_url（detail=high）附在用户消息后。
  2. 无参考图或视觉补全失败时走纯文本补全，参考图被丢弃。
  3. 文本补全也失败或返回空内容时，原样返回用户的提示词。

Refine 从不返回错误，结果的 Path 记录实际生效的路径。

# 缓存

可选的 Cache（Redis）按提示词与参考图的指纹缓存非 original 结果，
读写失败只记录日志。
*/
package refine
