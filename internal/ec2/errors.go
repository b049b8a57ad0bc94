package ec2

import (
	"errors"

	"github.com/aws/smithy-go"
)

// isNotFound checks if an API error reports a missing resource. These are
// fatal for lookups but expected during idempotent deletes.
func isNotFound(err error) bool {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.ErrorCode() {
	case "InvalidKeyPair.NotFound",
		"InvalidGroup.NotFound",
		"InvalidInstanceID.NotFound":
		return true
	}
	return false
}

// isRetryable checks if an API error is transient. Rate limits and
// dependency violations (a group still referenced by a terminating
// instance) clear on their own.
func isRetryable(err error) bool {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.ErrorCode() {
	case "RequestLimitExceeded",
		"DependencyViolation",
		"InvalidGroup.InUse",
		"Unavailable",
		"InternalError":
		return true
	}
	return false
}
