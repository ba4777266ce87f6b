// Package mock provides mock implementations of database interfaces for testing.
package mock

import (
	"context"
	"sync"
	"time"

	"github.com/Nenorae/PIFACE/internal/database"
)

// MockSessionStore is a mock implementation of database.SessionStore
type MockSessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*database.Session

	// Error injection
	CreateError error
	FinishError error
	GetError    error
}

// NewMockSessionStore creates a new mock session store
func NewMockSessionStore() *MockSessionStore {
	return &MockSessionStore{
		sessions: make(map[string]*database.Session),
	}
}

// CreateSession persists a newly started session
func (m *MockSessionStore) CreateSession(ctx context.Context, session *database.Session) error {
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	s := *session
	m.sessions[s.ID] = &s
	return nil
}

// FinishSession stamps ended_at on a session
func (m *MockSessionStore) FinishSession(ctx context.Context, sessionID string, endedAt time.Time) error {
	if m.FinishError != nil {
		return m.FinishError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[sessionID]; ok {
		s.EndedAt = &endedAt
	}
	return nil
}

// GetSession retrieves a session by ID, returns nil if not found
func (m *MockSessionStore) GetSession(ctx context.Context, sessionID string) (*database.Session, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return nil, nil
	}
	copied := *s
	return &copied, nil
}

// MockAttendanceLedger is a mock implementation of database.AttendanceLedger.
// It enforces the same (session, student) uniqueness the real storage does.
type MockAttendanceLedger struct {
	mu      sync.RWMutex
	records []database.AttendanceRecord
	seen    map[string]map[int64]bool
	nextID  int64

	// Names returned by ListBySession, keyed by student ID
	names map[int64]string

	// Error injection
	HasError    error
	InsertError error
	ListError   error
}

// NewMockAttendanceLedger creates a new mock attendance ledger
func NewMockAttendanceLedger() *MockAttendanceLedger {
	return &MockAttendanceLedger{
		seen:  make(map[string]map[int64]bool),
		names: make(map[int64]string),
	}
}

// SetStudentName registers the display name used in listed records
func (m *MockAttendanceLedger) SetStudentName(studentID int64, name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.names[studentID] = name
}

// HasRecord checks whether a record exists for (session, student)
func (m *MockAttendanceLedger) HasRecord(ctx context.Context, sessionID string, studentID int64) (bool, error) {
	if m.HasError != nil {
		return false, m.HasError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.seen[sessionID][studentID], nil
}

// InsertRecord appends one attendance record, returning ErrDuplicateRecord
// for a pair already inserted
func (m *MockAttendanceLedger) InsertRecord(ctx context.Context, sessionID string, studentID int64, recordedAt time.Time) error {
	if m.InsertError != nil {
		return m.InsertError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.seen[sessionID][studentID] {
		return database.ErrDuplicateRecord
	}
	if m.seen[sessionID] == nil {
		m.seen[sessionID] = make(map[int64]bool)
	}
	m.seen[sessionID][studentID] = true
	m.nextID++
	m.records = append(m.records, database.AttendanceRecord{
		ID:          m.nextID,
		SessionID:   sessionID,
		StudentID:   studentID,
		StudentName: m.names[studentID],
		RecordedAt:  recordedAt,
	})
	return nil
}

// ListBySession returns all records for a session in insertion order
func (m *MockAttendanceLedger) ListBySession(ctx context.Context, sessionID string) ([]database.AttendanceRecord, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []database.AttendanceRecord
	for _, rec := range m.records {
		if rec.SessionID == sessionID {
			result = append(result, rec)
		}
	}
	return result, nil
}

// CountRecords returns the total number of records across all sessions
func (m *MockAttendanceLedger) CountRecords() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}

// MockStudentReader is a mock implementation of database.StudentReader
type MockStudentReader struct {
	mu       sync.RWMutex
	students map[string]*database.Student

	// Error injection
	GetError error
}

// NewMockStudentReader creates a new mock student reader
func NewMockStudentReader() *MockStudentReader {
	return &MockStudentReader{
		students: make(map[string]*database.Student),
	}
}

// AddStudent adds a student to the mock store
func (m *MockStudentReader) AddStudent(student database.Student) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.students[database.NormalizeStudentName(student.Name)] = &student
}

// GetStudentByName looks a student up by normalized name, returns nil
// if no student matches
func (m *MockStudentReader) GetStudentByName(ctx context.Context, name string) (*database.Student, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.students[database.NormalizeStudentName(name)]
	if !ok {
		return nil, nil
	}
	copied := *s
	return &copied, nil
}

// Verify interface compliance
var _ database.SessionStore = (*MockSessionStore)(nil)
var _ database.AttendanceLedger = (*MockAttendanceLedger)(nil)
var _ database.StudentReader = (*MockStudentReader)(nil)
