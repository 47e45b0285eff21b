package sums

import (
	"fmt"
	"time"
)

// StudentID is kept as a validated numeric string rather than an
// integer, real ids can carry leading zeros.
type StudentID string

func ParseStudentID(s string) (StudentID, error) {
	if s == "" {
		return "", fmt.Errorf("student id is empty")
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return "", fmt.Errorf("student id %q is not numeric", s)
		}
	}
	return StudentID(s), nil
}

type Kind string

const (
	// the member table only ever lists students, so this is currently
	// the whole set
	KindStudent Kind = "Student"
)

type Member struct {
	StudentID    StudentID
	Name         string
	Kind         Kind
	Subscription string
	DateJoined   time.Time
}
