package testutil

// ResourceCols must match the column order of the resources SELECT in queries.go
var ResourceCols = []string{
	"id", "user_id", "title", "file_key", "price_min_unit",
	"currency", "status", "approved", "is_public", "created_at",
}

// GuestTokenCols must match the column order of the download token join in queries.go
var GuestTokenCols = []string{
	"token", "expires_at", "download_count", "max_downloads",
	"status", "id", "title", "file_key",
}
