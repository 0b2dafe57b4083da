package core

import "strconv"

// ErrorCode int
type ErrorCode int

const (
	// ErrUnknown unknown
	ErrUnknown ErrorCode = 100000
	// ErrUnauthorized principal lacks the required capability
	ErrUnauthorized ErrorCode = 100001
	// ErrSystemPaused mutating operations are suspended by the guardian
	ErrSystemPaused ErrorCode = 100002

	// ErrInvalidAmount amount must be positive
	ErrInvalidAmount ErrorCode = 100100
	// ErrInvalidPrincipal empty principal or user identity
	ErrInvalidPrincipal ErrorCode = 100101
	// ErrInvalidRiskScore risk score out of [0, 100]
	ErrInvalidRiskScore ErrorCode = 100102
	// ErrInvalidCapability unknown capability name
	ErrInvalidCapability ErrorCode = 100103
	// ErrInvalidCapacity capacity must be positive
	ErrInvalidCapacity ErrorCode = 100104

	// ErrAssetNotFound no such asset
	ErrAssetNotFound ErrorCode = 100200
	// ErrAssetExists asset already supported
	ErrAssetExists ErrorCode = 100201
	// ErrAssetInactive asset is deactivated
	ErrAssetInactive ErrorCode = 100202

	// ErrProtocolNotFound no such protocol
	ErrProtocolNotFound ErrorCode = 100300
	// ErrProtocolExists protocol already registered
	ErrProtocolExists ErrorCode = 100301
	// ErrProtocolInactive protocol is deactivated
	ErrProtocolInactive ErrorCode = 100302
	// ErrTooManyProtocols registry is at its bounded capacity
	ErrTooManyProtocols ErrorCode = 100303

	// ErrInsufficientBalance user balance below requested amount
	ErrInsufficientBalance ErrorCode = 100400
	// ErrInsufficientLiquidity available liquidity below requested amount
	ErrInsufficientLiquidity ErrorCode = 100401
	// ErrCapacityExceeded allocation would exceed protocol capacity
	ErrCapacityExceeded ErrorCode = 100402
	// ErrInsufficientAllocation return amount above current allocation
	ErrInsufficientAllocation ErrorCode = 100403
	// ErrCooldownActive rebalance cooldown has not elapsed
	ErrCooldownActive ErrorCode = 100404
)

var errMsgs = map[ErrorCode]string{
	ErrUnknown:                "unknown",
	ErrUnauthorized:           "unauthorized",
	ErrSystemPaused:           "system paused",
	ErrInvalidAmount:          "invalid amount",
	ErrInvalidPrincipal:       "invalid principal",
	ErrInvalidRiskScore:       "invalid risk score",
	ErrInvalidCapability:      "invalid capability",
	ErrInvalidCapacity:        "invalid capacity",
	ErrAssetNotFound:          "asset not found",
	ErrAssetExists:            "asset already supported",
	ErrAssetInactive:          "asset inactive",
	ErrProtocolNotFound:       "protocol not found",
	ErrProtocolExists:         "protocol already registered",
	ErrProtocolInactive:       "protocol inactive",
	ErrTooManyProtocols:       "too many protocols",
	ErrInsufficientBalance:    "insufficient balance",
	ErrInsufficientLiquidity:  "insufficient liquidity",
	ErrCapacityExceeded:       "capacity exceeded",
	ErrInsufficientAllocation: "insufficient allocation",
	ErrCooldownActive:         "cooldown active",
}

func (e ErrorCode) String() string {
	if msg, ok := errMsgs[e]; ok {
		return msg
	}

	return strconv.Itoa(int(e))
}

func (e ErrorCode) Error() string {
	return e.String()
}
