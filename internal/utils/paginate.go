package utils

import (
	"math"
)

// Page 分页结果
type Page[T any] struct {
	Items      []T
	Number     int // 当前页码，从 1 开始
	TotalPages int
	Total      int // 条目总数
	HasPrev    bool
	HasNext    bool
}

// Paginate 纯切片分页。页码越界不报错：小于 1 取第 1 页，
// 超过最后一页取最后一页。空列表也返回 1 页（空页）。
func Paginate[T any](items []T, perPage, page int) Page[T] {
	total := len(items)

	totalPages := int(math.Ceil(float64(total) / float64(perPage)))
	if totalPages == 0 {
		totalPages = 1
	}

	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}

	start := (page - 1) * perPage
	end := start + perPage
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}

	return Page[T]{
		Items:      items[start:end],
		Number:     page,
		TotalPages: totalPages,
		Total:      total,
		HasPrev:    page > 1,
		HasNext:    page < totalPages,
	}
}
