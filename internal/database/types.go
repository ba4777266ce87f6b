package database

import (
	"time"
)

// Student is an enrolled student. Name doubles as the roster identity key;
// lookups normalize it first so dataset folder names and database rows can
// disagree on case and diacritics.
type Student struct {
	ID        int64
	Name      string
	CreatedAt time.Time
}

// Schedule is one scheduled course slot an attendance session can belong to.
type Schedule struct {
	ID         int64
	CourseCode string
	CourseName string
	Lecturer   string
	Day        string
	StartTime  string
}

// Session represents one attendance-taking window. ID is an opaque UUID
// string. EndedAt is nil while the session is open; a session is terminal
// once it is set.
type Session struct {
	ID         string
	ScheduleID int64
	MeetingNo  int
	StartedAt  time.Time
	EndedAt    *time.Time
}

// AttendanceRecord is one (session, student) attendance row. At most one
// exists per pair; the storage layer enforces that with a unique constraint.
type AttendanceRecord struct {
	ID          int64
	SessionID   string
	StudentID   int64
	StudentName string
	RecordedAt  time.Time
}
