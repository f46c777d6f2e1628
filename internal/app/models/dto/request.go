package dto

// PageRequest holds the page query parameters of paginated listings
type PageRequest struct {
	Page int `form:"page,default=1" binding:"min=1"`
	Size int `form:"size,default=20" binding:"min=1,max=100"`
}

// Offset returns the number of rows skipped before this page
func (p PageRequest) Offset() uint64 {
	return uint64((p.Page - 1) * p.Size)
}
