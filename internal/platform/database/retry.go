package database

import "strings"

// IsRetryableError 判断一个数据库错误是否值得立刻重试。
// SQLite在WAL模式下仍可能返回短暂的锁冲突，这类错误重试即可恢复；
// 唯一约束冲突等业务性错误不在此列。
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "database table is locked") ||
		strings.Contains(msg, "SQLITE_BUSY")
}
