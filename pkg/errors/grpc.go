package errors

import (
	"fmt"

	"google.golang.org/grpc/codes"
)

type GRPCError struct {
	Code     string
	Message  string
	GrpcCode codes.Code
}

func NewGRPCError(code string, grpcCode codes.Code, message string) *GRPCError {
	return &GRPCError{
		Code:     code,
		Message:  fmt.Sprintf("%s - %s", code, message),
		GrpcCode: grpcCode,
	}
}

func (e GRPCError) Error() string {
	return e.Message
}
