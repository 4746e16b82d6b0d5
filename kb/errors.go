package kb

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/smithy-go"
	smithyhttp "github.com/aws/smithy-go/transport/http"
)

// ConfigurationError is returned when a required identifier is missing or invalid.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("kb: invalid configuration: %s %s", e.Field, e.Reason)
}

// RequestValidationError is returned before any network call is made.
type RequestValidationError struct {
	Field  string
	Reason string
}

func (e *RequestValidationError) Error() string {
	return fmt.Sprintf("kb: invalid request: %s %s", e.Field, e.Reason)
}

type ErrorKind string

const (
	KindUnknown      ErrorKind = "unknown"
	KindUnauthorized ErrorKind = "unauthorized"
	KindNotFound     ErrorKind = "not found"
	KindValidation   ErrorKind = "validation"
	KindThrottled    ErrorKind = "throttled"
	KindUnavailable  ErrorKind = "unavailable"
	KindTimeout      ErrorKind = "timeout"
)

// ServiceError wraps a failure returned by an AWS service call.
type ServiceError struct {
	Op   string
	Kind ErrorKind
	Err  error
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("kb: %s failed (%s): %v", e.Op, e.Kind, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError wraps err, classifying it by its AWS error code.
func NewServiceError(op string, err error) *ServiceError {
	return &ServiceError{
		Op:   op,
		Kind: classify(err),
		Err:  err,
	}
}

func classify(err error) ErrorKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "AccessDeniedException", "AccessDenied", "UnrecognizedClientException", "ExpiredTokenException", "InvalidSignatureException":
			return KindUnauthorized
		case "ResourceNotFoundException", "NoSuchBucket":
			return KindNotFound
		case "ValidationException":
			return KindValidation
		case "ThrottlingException", "ServiceQuotaExceededException", "TooManyRequestsException":
			return KindThrottled
		case "InternalServerException", "BadGatewayException", "DependencyFailedException", "ServiceUnavailableException":
			return KindUnavailable
		}
		return KindUnknown
	}
	var sendErr *smithyhttp.RequestSendError
	if errors.As(err, &sendErr) {
		return KindUnavailable
	}
	return KindUnknown
}
