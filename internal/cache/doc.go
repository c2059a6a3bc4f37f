// 版权所有 2024 ProductShot Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 cache 提供基于 Redis 的缓存管理能力，当前用于缓存提示词优化结果。

# 核心类型

  - Manager：持有 go-redis 客户端，提供 Get/Set/Delete/Ping 与
    GetJSON/SetJSON；所有键自动带上 KeyPrefix 命名空间。
  - Config：地址、密码、连接池、默认 TTL、TLS 开关与健康检查间隔。

# 主要能力

  - 健康检查：后台定时 Ping，Close 时停止。
  - 错误语义：ErrCacheMiss 与 IsCacheMiss；关闭后返回 ErrClosed。
  - Fingerprint：对多段内容做带长度分隔的 SHA-256，用作缓存键。
*/
package cache
