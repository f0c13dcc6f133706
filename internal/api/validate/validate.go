package validate

import (
	"fmt"
	"regexp"
	"time"

	"github.com/solace-journal/solace-server/internal/model"
)

// rawIdRx keeps raw identifiers to a predictable shape: printable, no
// whitespace, bounded length. Providers hand us opaque tokens, device ids and
// the like; slashes are excluded because raw ids become key path segments.
var rawIdRx = regexp.MustCompile(`^[A-Za-z0-9_.:@-]{1,128}$`)

// userIdRx covers canonical ids (UUIDs) and the default-user sentinel.
var userIdRx = regexp.MustCompile(`^[A-Za-z0-9-]{1,64}$`)

const maxContentBytes = 8000

// RawID validates a caller-supplied raw identifier.
func RawID(v string) error {
	if v == "" {
		return fmt.Errorf("rawId is required")
	}
	if !rawIdRx.MatchString(v) {
		return fmt.Errorf("rawId must match %s", rawIdRx.String())
	}
	return nil
}

// UserID validates a canonical user identifier.
func UserID(v string) error {
	if v == "" {
		return fmt.Errorf("userId is required")
	}
	if !userIdRx.MatchString(v) {
		return fmt.Errorf("userId must match %s", userIdRx.String())
	}
	return nil
}

// Date validates an ISO-8601 calendar date (YYYY-MM-DD).
func Date(v string) error {
	if v == "" {
		return fmt.Errorf("date is required")
	}
	if _, err := time.Parse("2006-01-02", v); err != nil {
		return fmt.Errorf("date must be YYYY-MM-DD")
	}
	return nil
}

// Turn validates a conversation turn payload.
func Turn(role model.Role, content string) error {
	if !role.Valid() {
		return fmt.Errorf("role must be one of user, assistant, system")
	}
	if content == "" {
		return fmt.Errorf("content is required")
	}
	if len(content) > maxContentBytes {
		return fmt.Errorf("content exceeds %d bytes", maxContentBytes)
	}
	return nil
}
