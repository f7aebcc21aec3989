package utils

import "strconv"

// StringToInt 字符串转 int，解析失败时返回 0，
// 方便处理 ?page= 这类可缺省的查询参数
func StringToInt(s string) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return i
}
