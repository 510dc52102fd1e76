package models

import (
	"strconv"
	"strings"
	"time"

	dErrors "edgeguard/pkg/domain-errors"
)

// MaxClientKeyLength bounds client keys accepted from admin requests.
const MaxClientKeyLength = 64

// MaxBlockDurationSeconds caps manual blocks at one year.
const MaxBlockDurationSeconds = 365 * 24 * 60 * 60

// BlockRequest asks for a manual block.
type BlockRequest struct {
	IP              string `json:"ip"`
	DurationSeconds int    `json:"durationSeconds"`
	Reason          string `json:"reason"`
}

func (r *BlockRequest) Normalize() {
	r.IP = strings.TrimSpace(r.IP)
	r.Reason = strings.TrimSpace(r.Reason)
}

func (r *BlockRequest) Validate() error {
	if err := validateClientKey(r.IP); err != nil {
		return err
	}
	if r.DurationSeconds < 0 {
		return dErrors.New(dErrors.CodeValidation, "durationSeconds must be positive")
	}
	if r.DurationSeconds > MaxBlockDurationSeconds {
		return dErrors.New(dErrors.CodeValidation,
			"durationSeconds must not exceed "+strconv.Itoa(MaxBlockDurationSeconds))
	}
	return nil
}

// Duration returns the requested duration, or fallback when none was given.
func (r *BlockRequest) Duration(fallback time.Duration) time.Duration {
	if r.DurationSeconds == 0 {
		return fallback
	}
	return time.Duration(r.DurationSeconds) * time.Second
}

// ResetRequest asks to drop a client's rate window.
type ResetRequest struct {
	IP string `json:"ip"`
}

func (r *ResetRequest) Normalize() {
	r.IP = strings.TrimSpace(r.IP)
}

func (r *ResetRequest) Validate() error {
	return validateClientKey(r.IP)
}

func validateClientKey(ip string) error {
	if ip == "" {
		return dErrors.New(dErrors.CodeValidation, "ip is required")
	}
	if len(ip) > MaxClientKeyLength {
		return dErrors.New(dErrors.CodeValidation, "ip is too long")
	}
	return nil
}
