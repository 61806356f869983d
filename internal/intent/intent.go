// Package intent maps an inbound navigation context (explicit recipient or
// a scan action) and decoded QR payloads into a populated transfer draft.
package intent

import (
	"fmt"
	"strconv"
	"strings"

	apperrors "github.com/securepay/gateway/internal/errors"
)

// qrPrefix is the fixed tag every SecurePay identifier code starts with.
// The payload is the prefix, a colon and the numeric user id; no other
// fields, no checksum.
const qrPrefix = "SECUREPAY_ID"

// ActionScan asks the payment surface to open the scanner immediately.
const ActionScan = "scan"

// Resolution is the pre-populated payment context.
type Resolution struct {
	ReceiverID int64 `json:"receiverId,omitempty"`
	OpenScan   bool  `json:"openScan"`
}

// Resolve interprets the navigation parameters the payment surface was
// opened with.
func Resolve(recipientID, action string) (Resolution, error) {
	res := Resolution{OpenScan: action == ActionScan}
	if recipientID == "" {
		return res, nil
	}
	id, err := strconv.ParseInt(recipientID, 10, 64)
	if err != nil || id < 1 {
		return Resolution{}, apperrors.NewValidationError(
			fmt.Sprintf("invalid recipient id %q", recipientID))
	}
	res.ReceiverID = id
	return res, nil
}

// ParseScan accepts a decoded QR payload only when it carries the SecurePay
// tag, and extracts the recipient id. A mismatch keeps the scan surface
// open for another attempt.
func ParseScan(payload string) (int64, error) {
	tag, rest, found := strings.Cut(payload, ":")
	if !found || tag != qrPrefix {
		return 0, apperrors.New(apperrors.ErrCodeInvalidScan,
			"Invalid QR code format. Please scan a SecurePay ID code.", nil)
	}
	id, err := strconv.ParseInt(rest, 10, 64)
	if err != nil || id < 1 {
		return 0, apperrors.New(apperrors.ErrCodeInvalidScan,
			"Invalid QR code format. Please scan a SecurePay ID code.", err)
	}
	return id, nil
}

// QRPayload renders the receive-surface code text for a user id. Image
// rendering belongs to the external QR capability.
func QRPayload(userID int64) string {
	return fmt.Sprintf("%s:%d", qrPrefix, userID)
}
