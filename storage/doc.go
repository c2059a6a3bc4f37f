// 版权所有 2024 ProductShot Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 storage 是对象存储网关：把二进制产物写入命名桶，并返回可公开访问的 URL。

# 概述

Gateway 负责键生成、覆盖策略、公开 URL 推导与错误分类；具体读写由
Backend 完成。写入被拒绝（含 AllowOverwrite=false 时的键冲突）返回
STORAGE_WRITE_ERROR；写入成功但 URL 推导失败返回 STORAGE_URL_ERROR，
此时对象已落盘但调用方只会看到错误。

# 后端

  - S3Backend：基于 aws-sdk-go-v2，path-style 寻址，支持 R2、MinIO、
    Supabase 等 S3 兼容端点。拒绝覆盖通过写前 HeadObject 实现。
  - MemoryBackend：进程内实现，用于测试与本地开发，可配合 ObjectHandler
    直接对外提供对象。

# 键策略

NewKey 生成 "<prefix>-<毫秒时间戳>-<随机串>.<ext>"。随机串不保证
密码学唯一，网关仍需处理并上报冲突。
*/
package storage
