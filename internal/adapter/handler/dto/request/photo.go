package request

type RecentPhotosRequest struct {
	OwnerID int64 `form:"owner_id" binding:"required,min=1"`
	Limit   int   `form:"limit" binding:"omitempty,min=1,max=100"`
}

type ReportRequest struct {
	Format string `form:"format" binding:"omitempty,oneof=text json"`
}
