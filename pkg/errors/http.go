package errors

type HTTPError struct {
	Code       int
	Message    string
	StatusCode int
}

func NewHTTPError(statusCode, code int, message string) *HTTPError {
	return &HTTPError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
	}
}

func (e HTTPError) Error() string {
	return e.Message
}
