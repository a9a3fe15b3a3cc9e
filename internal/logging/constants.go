package logging

// Standard field names used across the pipeline's log output.
const (
	FieldOperation   = "operation"
	FieldStatus      = "status"
	FieldError       = "error"
	FieldDuration    = "duration_ms"
	FieldCount       = "count"
	FieldReason      = "reason"
	FieldDescription = "description"
	FieldVendor      = "vendor"
	FieldBusiness    = "business"
	FieldAccount     = "account"
	FieldSource      = "source"
	FieldConfidence  = "confidence"
	FieldStrategy    = "strategy"
	FieldEntryID     = "entry_id"
	FieldPayee       = "payee"
	FieldCurrency    = "currency"
	FieldDifference  = "difference"
	FieldProvider    = "provider"
	FieldFile        = "file_path"
)
