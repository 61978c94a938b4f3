package orderdebug

const (
	// SettingsOptionName is the key the category settings are persisted under.
	SettingsOptionName = "wc_order_debug_options"

	// Separator terminates every log block.
	Separator = "----------------------------------------"

	// MaxBacktraceDepth caps the number of frames in a block.
	MaxBacktraceDepth = 10

	// TimestampLayout is the layout of the leading [timestamp] of a block.
	TimestampLayout = "2006-01-02 15:04:05"

	// UnknownType stands in for a product or order type that could not be resolved.
	UnknownType = "unknown"

	// OrderPostType is the post type meta updates must target to be logged.
	OrderPostType = "shop_order"

	emptyString = ""
)

const (
	errMsgNilService    = "Order debug service is nil."
	errMsgNoLogFile     = "Debug log file path has not been set."
	errMsgLogDir        = "Failed to create debug log directory."
	errMsgAppend        = "Failed to append to debug log."
	errMsgClear         = "Failed to clear debug log."
	errMsgRead          = "Failed to read debug log."
	errMsgNotReady      = "Order debug service is not initialized."
	errMsgSaveSettings  = "Failed to persist debug settings."
	errMsgEncode        = "Failed to encode debug settings."
	errMsgDecode        = "Debug settings are malformed."
	errMsgUnknownEvent  = "Unknown event type."
	errMsgEventEnvelope = "Malformed event envelope."
	errMsgEventPayload  = "Malformed event payload."
)
