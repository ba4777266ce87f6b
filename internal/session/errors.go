package session

import "errors"

var (
	// ErrSessionAlreadyOpen is returned by Start when a session is running.
	ErrSessionAlreadyOpen = errors.New("an attendance session is already open")

	// ErrSessionNotOpen is returned by operations that need a running session.
	ErrSessionNotOpen = errors.New("no attendance session is open")

	// ErrInvalidMeetingNo is returned by Start for an out-of-range meeting number.
	ErrInvalidMeetingNo = errors.New("meeting number out of range")

	// ErrUnknownStudent is returned by RecordAttendance when the recognized
	// name does not resolve to an enrolled student.
	ErrUnknownStudent = errors.New("recognized name does not match an enrolled student")
)
