package response

// Response represents a standard API response format
type Response struct {
	Status     string      `json:"status"`            // "success" or "error"
	StatusCode int         `json:"status_code"`       // HTTP status code
	Message    string      `json:"message,omitempty"` // localized, shown to the user
	Code       string      `json:"code,omitempty"`    // stable machine-readable error code
	Data       interface{} `json:"data,omitempty"`
	Error      string      `json:"error,omitempty"`
}

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Success returns a standard success response wrapping the data
func Success(statusCode int, data interface{}) Response {
	return Response{
		Status:     StatusSuccess,
		StatusCode: statusCode,
		Data:       data,
	}
}

// SuccessWithMessage adds a localized confirmation to a success response
func SuccessWithMessage(statusCode int, message string, data interface{}) Response {
	r := Success(statusCode, data)
	r.Message = message
	return r
}

// Error returns a standard error response wrapping the error message
func Error(statusCode int, err string) Response {
	return Response{
		Status:     StatusError,
		StatusCode: statusCode,
		Error:      err,
	}
}

// Fail returns an error response carrying a stable code and a localized message
func Fail(statusCode int, code, message string) Response {
	return Response{
		Status:     StatusError,
		StatusCode: statusCode,
		Code:       code,
		Message:    message,
		Error:      message,
	}
}
