package serverutils

type BaseResponse[T any] struct {
	Success bool   `json:"success"`
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    T      `json:"data,omitempty"`
}

func SuccessResponse[T any](message string, data T) *BaseResponse[T] {
	return &BaseResponse[T]{
		Success: true,
		Code:    200,
		Message: message,
		Data:    data,
	}
}

// CreatedResponse and AcceptedResponse only differ in the code echoed in the body;
// callers still set the HTTP status.
func CreatedResponse[T any](message string, data T) *BaseResponse[T] {
	res := SuccessResponse(message, data)
	res.Code = 201
	return res
}

func AcceptedResponse[T any](message string, data T) *BaseResponse[T] {
	res := SuccessResponse(message, data)
	res.Code = 202
	return res
}

func ErrorResponse(code int, message string) *BaseResponse[any] {
	return &BaseResponse[any]{
		Success: false,
		Code:    code,
		Message: message,
	}
}

func ErrorResponseWithData(code int, message string, data any) *BaseResponse[any] {
	return &BaseResponse[any]{
		Success: false,
		Code:    code,
		Message: message,
		Data:    data,
	}
}
