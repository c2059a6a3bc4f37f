// Package config 提供 productshot 的配置管理功能。
//
// 配置按 默认值 → YAML 文件 → 环境变量（PRODUCTSHOT_ 前缀）的顺序加载，
// 各组件的配置结构直接嵌入，由 Validate 统一校验。
package config
