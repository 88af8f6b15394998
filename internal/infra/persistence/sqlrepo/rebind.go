/*
 * @Description: SQL 占位符方言适配
 * @Author: 星河
 * @Date: 2025-03-26 16:41:09
 * @LastEditTime: 2025-03-26 16:41:09
 * @LastEditors: 星河
 */
package sqlrepo

import (
	"strconv"
	"strings"
)

// rebind 把 ? 占位符替换为 PostgreSQL 的 $n 形式。
// mysql 和 sqlite 原样返回。
func rebind(dbType, query string) string {
	if dbType != "postgres" {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
