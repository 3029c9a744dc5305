package utils

import (
	"strconv"
)

// ParseID 解析路由中的正整数 ID
func ParseID(s string) (uint, bool) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil || id == 0 || id > uint64(^uint(0)) {
		return 0, false
	}
	return uint(id), true
}
