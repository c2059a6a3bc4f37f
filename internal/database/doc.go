// 版权所有 2024 ProductShot Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 database 负责打开生成历史使用的关系库，并管理连接池。

Open 按 Config.Driver 选择 GORM 方言：postgres、mysql、sqlite（纯 Go，
glebarez）与 sqlite3（cgo）。PoolManager 封装 sql.DB 连接池参数、后台
健康检查（上报连接数指标）与带重试的事务执行。
*/
package database
