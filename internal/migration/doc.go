// 版权所有 2024 ProductShot Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 migration 管理生成历史表的 Schema，基于 golang-migrate，
支持 PostgreSQL、MySQL 与 SQLite。

各方言的 SQL 文件通过 embed.FS 内嵌在 migrations/<dialect>/ 下。
DefaultMigrator 提供 Up/Down/Version/Status/Info，CLI 把这些操作
格式化输出给 `productshot migrate` 子命令。
*/
package migration
