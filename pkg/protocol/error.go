package protocol

// ErrorCode identifies the type of error reported to the client.
type ErrorCode uint16

const (
	ErrUnknown        ErrorCode = 0x0000 // Unknown error
	ErrInvalidMessage ErrorCode = 0x0001 // Malformed message
	ErrInputNotFound  ErrorCode = 0x0002 // No input bound under the id
	ErrPageNotFound   ErrorCode = 0x0003 // No page registered under the name
	ErrNotInitialized ErrorCode = 0x0004 // Message before init
	ErrHandlerPanic   ErrorCode = 0x0005 // Handler panicked
	ErrServerError    ErrorCode = 0x0100 // Internal server error
)

// String returns the string representation of the error code.
func (ec ErrorCode) String() string {
	switch ec {
	case ErrUnknown:
		return "Unknown"
	case ErrInvalidMessage:
		return "InvalidMessage"
	case ErrInputNotFound:
		return "InputNotFound"
	case ErrPageNotFound:
		return "PageNotFound"
	case ErrNotInitialized:
		return "NotInitialized"
	case ErrHandlerPanic:
		return "HandlerPanic"
	case ErrServerError:
		return "ServerError"
	default:
		return "Unknown"
	}
}
