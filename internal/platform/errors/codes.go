// Package errors provides structured error handling for statscore.
package errors

import "net/http"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Validation errors
	CodePlayerTagEmpty  Code = "PLAYER_TAG_EMPTY"
	CodeUserIDEmpty     Code = "USER_ID_EMPTY"
	CodeGameIDEmpty     Code = "GAME_ID_EMPTY"
	CodeStatsMissing    Code = "STATS_MISSING"
	CodeGameTagRequired Code = "GAME_TAG_REQUIRED"
	CodeShareTokenEmpty Code = "SHARE_TOKEN_EMPTY"
	CodeShareOwnerEmpty Code = "SHARE_OWNER_EMPTY"
	CodeShareTTLInvalid Code = "SHARE_TTL_INVALID"

	// Upstream API errors
	CodeUpstreamStatus      Code = "UPSTREAM_STATUS"
	CodeUpstreamUnreachable Code = "UPSTREAM_UNREACHABLE"

	// Share token errors
	CodeShareTokenNotFound Code = "SHARE_TOKEN_NOT_FOUND"
	CodeShareTokenExpired  Code = "SHARE_TOKEN_EXPIRED"

	// Link errors
	CodeLinkAlreadyExists Code = "LINK_ALREADY_EXISTS"
	CodeLinkNotFound      Code = "LINK_NOT_FOUND"

	// Storage errors
	CodeNotFound Code = "NOT_FOUND"
	CodeStorage  Code = "STORAGE"
)

// HTTPStatus maps domain codes to HTTP status codes for the app layer.
func (c Code) HTTPStatus() int {
	switch c {
	// Bad request - validation failures, bad input
	case CodePlayerTagEmpty,
		CodeUserIDEmpty,
		CodeGameIDEmpty,
		CodeStatsMissing,
		CodeGameTagRequired,
		CodeShareTokenEmpty,
		CodeShareOwnerEmpty,
		CodeShareTTLInvalid:
		return http.StatusBadRequest

	// Gone - the token existed but can no longer be resolved
	case CodeShareTokenExpired:
		return http.StatusGone

	// Not found - resource doesn't exist
	case CodeNotFound,
		CodeShareTokenNotFound,
		CodeLinkNotFound:
		return http.StatusNotFound

	// Conflict - unique resource constraint
	case CodeLinkAlreadyExists:
		return http.StatusConflict

	// Bad gateway - the upstream stats API failed or is unreachable
	case CodeUpstreamStatus,
		CodeUpstreamUnreachable:
		return http.StatusBadGateway

	default:
		return http.StatusInternalServerError
	}
}
