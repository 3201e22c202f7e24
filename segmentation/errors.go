package segmentation

import "fmt"

// DomainError reports input that the segmentation math cannot handle,
// such as a recording with no energy at all.
type DomainError struct {
	Op     string
	Reason string
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("segmentation %s: %s", e.Op, e.Reason)
}
