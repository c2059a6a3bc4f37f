// 版权所有 2024 ProductShot Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 imagecodec 负责参考图与结果图在 base64 文本与二进制之间的转换。

# 主要能力

  - Decode / Encode：标准 base64 编解码，空串与非法输入返回 DECODE_ERROR。
  - Validate / DecodeImage：通过 image.DecodeConfig 校验图片头，
    支持 png、jpeg、gif、webp。
  - DetectMIME / Extension：嗅探 MIME 类型并映射对象键扩展名。
  - File：带文件名与 MIME 的二进制句柄，用于 multipart 上传。
  - FilterValid：调用方一侧的宽松过滤，跳过无法解码的图片。
*/
package imagecodec
