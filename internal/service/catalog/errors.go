package catalog

import (
	"errors"
	"fmt"
)

var ErrCampusNotFound = errors.New("campus not found")

type CampusNotFoundError struct {
	CampusID int64
}

func (e CampusNotFoundError) Error() string {
	return fmt.Sprintf("campus not found: %d", e.CampusID)
}

func (e CampusNotFoundError) Is(target error) bool { return target == ErrCampusNotFound }
