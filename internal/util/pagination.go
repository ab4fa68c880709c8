package util

const DefaultPage = 1

const DefaultPageSize = 12

// Calculate clamps page/size to the catalog defaults and returns the
// slice offset. Non-positive input falls back rather than erroring.
func Calculate(page, size int) (offset, limit int, pageOut int) {
	if page < 1 {
		page = DefaultPage
	}
	if size <= 0 || size > 100 {
		size = DefaultPageSize
	}
	return (page - 1) * size, size, page
}

func TotalPages(total int64, limit int) int64 {
	if limit <= 0 {
		return 0
	}
	return (total + int64(limit) - 1) / int64(limit)
}
