// Package session coordinates the attendance session lifecycle. At most one
// session is open per server process; attendance can only be recorded while
// one is.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Nenorae/PIFACE/internal/constants"
	"github.com/Nenorae/PIFACE/internal/database"
)

// RecordResult describes the outcome of one attendance submission.
type RecordResult struct {
	SessionID  string
	Student    database.Student
	RecordedAt time.Time
	// Duplicate is true when the student was already recorded in this
	// session, either by this process or by a concurrent writer.
	Duplicate bool
}

// Coordinator owns the active session and the per-session dedupe cache.
type Coordinator struct {
	sessions database.SessionStore
	ledger   database.AttendanceLedger
	students database.StudentReader

	mu     sync.Mutex
	active *database.Session
	cache  *dedupeCache
}

// NewCoordinator creates a session coordinator over the given stores.
func NewCoordinator(sessions database.SessionStore, ledger database.AttendanceLedger, students database.StudentReader) *Coordinator {
	return &Coordinator{
		sessions: sessions,
		ledger:   ledger,
		students: students,
		cache:    newDedupeCache(),
	}
}

// Start opens a new attendance session. Fails with ErrSessionAlreadyOpen if
// one is running and ErrInvalidMeetingNo for a meeting number outside
// [1, MaxMeetingNo].
func (c *Coordinator) Start(ctx context.Context, scheduleID int64, meetingNo int) (*database.Session, error) {
	if meetingNo < 1 || meetingNo > constants.MaxMeetingNo {
		return nil, fmt.Errorf("%w: %d", ErrInvalidMeetingNo, meetingNo)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.active != nil {
		return nil, ErrSessionAlreadyOpen
	}

	session := &database.Session{
		ID:         uuid.NewString(),
		ScheduleID: scheduleID,
		MeetingNo:  meetingNo,
		StartedAt:  time.Now().UTC(),
	}

	if err := c.sessions.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("start session: %w", err)
	}

	c.active = session
	c.cache.Reset(session.ID)

	copied := *session
	return &copied, nil
}

// Stop closes the active session and returns it in its final state.
func (c *Coordinator) Stop(ctx context.Context) (*database.Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.active == nil {
		return nil, ErrSessionNotOpen
	}

	endedAt := time.Now().UTC()
	if err := c.sessions.FinishSession(ctx, c.active.ID, endedAt); err != nil {
		return nil, fmt.Errorf("stop session: %w", err)
	}

	finished := *c.active
	finished.EndedAt = &endedAt
	c.active = nil
	c.cache.Reset("")

	return &finished, nil
}

// Status returns a copy of the active session, or nil if none is open.
func (c *Coordinator) Status() *database.Session {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.active == nil {
		return nil
	}
	copied := *c.active
	return &copied
}

// sessionStillActive reports whether the given session id is still the open
// one. Cheap enough to call around the slow ledger operations so a record
// in flight across a session change is rejected instead of landing in the
// wrong session.
func (c *Coordinator) sessionStillActive(sessionID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active != nil && c.active.ID == sessionID
}

// RecordAttendance records one recognized student in the active session.
// Already-recorded students come back with Duplicate set rather than an
// error; an unknown name fails with ErrUnknownStudent.
//
// The write path runs cache check, ledger existence check, then the insert,
// in that order: the cache answers the common lingering-in-frame case
// without a round trip, the ledger re-check heals a cold or stale cache
// without risking a redundant write, and the storage unique constraint
// stays the authoritative de-duplication point for concurrent writers.
func (c *Coordinator) RecordAttendance(ctx context.Context, name string) (*RecordResult, error) {
	c.mu.Lock()
	active := c.active
	c.mu.Unlock()

	if active == nil {
		return nil, ErrSessionNotOpen
	}

	student, err := c.students.GetStudentByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("resolve student: %w", err)
	}
	if student == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStudent, name)
	}

	result := &RecordResult{
		SessionID:  active.ID,
		Student:    *student,
		RecordedAt: time.Now().UTC(),
	}

	// Fast path: this process already recorded the student.
	if c.cache.Has(active.ID, student.ID) {
		result.Duplicate = true
		return result, nil
	}

	// The cache missed, which does not mean the record is absent: another
	// process may have written it, or this process restarted mid-session.
	exists, err := c.ledger.HasRecord(ctx, active.ID, student.ID)
	if err != nil {
		return nil, fmt.Errorf("check attendance record: %w", err)
	}
	if exists {
		c.cache.Add(active.ID, student.ID)
		result.Duplicate = true
		return result, nil
	}

	if !c.sessionStillActive(active.ID) {
		return nil, ErrSessionNotOpen
	}

	err = c.ledger.InsertRecord(ctx, active.ID, student.ID, result.RecordedAt)
	if errors.Is(err, database.ErrDuplicateRecord) {
		// Another writer won the race; remember that locally too.
		c.cache.Add(active.ID, student.ID)
		result.Duplicate = true
		return result, nil
	}
	if err != nil {
		return nil, fmt.Errorf("record attendance: %w", err)
	}

	if !c.sessionStillActive(active.ID) {
		// The session closed while the insert was in flight. The cache Add
		// below would be a no-op anyway; report the closed session instead
		// of a recording the operator can no longer see.
		return nil, ErrSessionNotOpen
	}

	c.cache.Add(active.ID, student.ID)
	return result, nil
}

// RecentLog returns the most recent attendance records of the active session,
// newest last, capped at limit (0 means no cap).
func (c *Coordinator) RecentLog(ctx context.Context, limit int) ([]database.AttendanceRecord, error) {
	c.mu.Lock()
	active := c.active
	c.mu.Unlock()

	if active == nil {
		return nil, ErrSessionNotOpen
	}

	records, err := c.ledger.ListBySession(ctx, active.ID)
	if err != nil {
		return nil, fmt.Errorf("list attendance records: %w", err)
	}

	if limit > 0 && len(records) > limit {
		records = records[len(records)-limit:]
	}
	return records, nil
}

// RecordedCount returns how many students this process has recorded in the
// active session. Returns 0 when no session is open.
func (c *Coordinator) RecordedCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.active == nil {
		return 0
	}
	return c.cache.Size()
}
