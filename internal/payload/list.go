package payload

// Pagination of board listings. The page size is fixed; the page index is
// clamped into the valid range instead of erroring so stale links still land
// on a real page.
const PageSize = 10

type (
	// ListReqQuery 分页请求参数（从 query 中获取）
	ListReqQuery struct {
		Page int `form:"page,default=1"`
	}
	ListResp[T any] struct {
		Rows      []T   `json:"rows"`
		Count     int64 `json:"count"`
		Page      int   `json:"page"`
		PageCount int   `json:"pageCount"`
	}
)

// PageCount returns ceil(n / PageSize), at least 1 so clamping always has a
// valid target.
func PageCount(n int) int {
	count := (n + PageSize - 1) / PageSize
	if count < 1 {
		count = 1
	}
	return count
}

// ClampPage clamps a requested page index into [1, pageCount].
func ClampPage(page, pageCount int) int {
	if page < 1 {
		return 1
	}
	if page > pageCount {
		return pageCount
	}
	return page
}
