// 版权所有 2024 ProductShot Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 synthesis 调用图像生成后端，为每个请求产出恰好一张图片。

没有参考图时走文生图（方形、高质量）；有参考图时把全部参考图按顺序
作为多图编辑输入，并把提示词包装为商品图指令。上游失败返回
SYNTHESIS_ERROR，上游成功但没有图像数据返回 NO_IMAGE_GENERATED。
不重试、不缓存、不去重。
*/
package synthesis
