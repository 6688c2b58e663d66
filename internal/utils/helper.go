package utils

import (
	"crypto/rand"
	"encoding/hex"
	"strconv"
	"strings"
	"time"
)

func StrPtr(s string) *string {
	return &s
}

// TrimToPtr trims s and returns nil when nothing is left.
func TrimToPtr(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func ParseID(id string) (int64, error) {
	return strconv.ParseInt(strings.TrimSpace(id), 10, 64)
}

// GenerateTrackingID returns an 8 character upper-case hex id such as
// "15BAEB8A", the format couriers accept for parcel references.
func GenerateTrackingID() string {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		// fallback: time-based entropy
		n := uint32(time.Now().UnixNano())
		b = []byte{byte(n >> 24), byte(n >> 16), byte(n >> 8), byte(n)}
	}
	return strings.ToUpper(hex.EncodeToString(b))
}
