package constants

const (
	MsgPointsFound       = "Points found"
	MsgPointAdded        = "Point added"
	MsgPointDeleted      = "Point deleted"
	MsgCacheRefreshed    = "Cache refreshed"
	MsgCatalog           = "Catalog"
	MsgInvalidBody       = "Invalid request body"
	MsgMissingName       = "Category name is required"
	MsgMissingPointID    = "Missing point id"
	MsgTableUnavailable  = "The points table is unavailable"
	MsgUnexpectedFailure = "Unexpected failure"
)
