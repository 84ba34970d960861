package models

// ReportFilter represents filter parameters for querying reports
type ReportFilter struct {
	RouteID  int64  `form:"routeId"`
	UserID   string `form:"userId"`
	Verified *bool  `form:"verified"`
	Page     int    `form:"page"`
	PageSize int    `form:"pageSize"`
}
