// 版权所有 2024 ProductShot Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 server 提供 HTTP 服务器生命周期管理，支持非阻塞启动、
多监听器统一停机与系统信号监听。

# 核心类型

  - Manager：单个 HTTP 监听器的管理器，持有 http.Server、net.Listener
    与异步错误通道。
  - Config：监听地址、读写超时、最大请求头大小与优雅关闭超时。
  - Run：同时启动 API 与 metrics 两个 Manager，在 ctx 取消、
    SIGINT/SIGTERM 或任一服务器出错时逆序关闭全部监听器。
*/
package server
