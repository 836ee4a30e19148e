package stake

import (
	"errors"
	"fmt"
	"strings"
)

// ErrBetNotFound is returned by BetLookup when the API has no bet for the iid.
var ErrBetNotFound = errors.New("stake: bet not found")

// DomainError wraps a GraphQL errors array returned with a 2xx response
// (bad credential, invalid query, permission denied).
type DomainError struct {
	Operation string
	Messages  []string
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("stake %s failed: %s", e.Operation, strings.Join(e.Messages, "; "))
}

// DataShapeError marks a single feed element that could not be interpreted.
type DataShapeError struct {
	IID    string
	Field  string
	Reason string
}

func (e *DataShapeError) Error() string {
	if e.IID == "" {
		return fmt.Sprintf("malformed bet: %s %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("malformed bet %s: %s %s", e.IID, e.Field, e.Reason)
}
