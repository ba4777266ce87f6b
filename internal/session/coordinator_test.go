package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Nenorae/PIFACE/internal/database"
	"github.com/Nenorae/PIFACE/internal/database/mock"
)

func newTestCoordinator(t *testing.T) (*Coordinator, *mock.MockSessionStore, *mock.MockAttendanceLedger, *mock.MockStudentReader) {
	t.Helper()
	sessions := mock.NewMockSessionStore()
	ledger := mock.NewMockAttendanceLedger()
	students := mock.NewMockStudentReader()
	students.AddStudent(database.Student{ID: 1, Name: "Budi Santoso"})
	students.AddStudent(database.Student{ID: 2, Name: "Siti Aminah"})
	ledger.SetStudentName(1, "Budi Santoso")
	ledger.SetStudentName(2, "Siti Aminah")
	return NewCoordinator(sessions, ledger, students), sessions, ledger, students
}

func TestStartAndStatus(t *testing.T) {
	coord, sessions, _, _ := newTestCoordinator(t)
	ctx := context.Background()

	if got := coord.Status(); got != nil {
		t.Fatalf("expected no active session, got %+v", got)
	}

	started, err := coord.Start(ctx, 7, 3)
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if started.ID == "" {
		t.Error("expected a session ID")
	}
	if started.ScheduleID != 7 || started.MeetingNo != 3 {
		t.Errorf("unexpected session fields: %+v", started)
	}

	status := coord.Status()
	if status == nil || status.ID != started.ID {
		t.Errorf("expected status to report session %s, got %+v", started.ID, status)
	}

	persisted, err := sessions.GetSession(ctx, started.ID)
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if persisted == nil {
		t.Error("expected session to be persisted")
	}
}

func TestStartWhileOpen(t *testing.T) {
	coord, _, _, _ := newTestCoordinator(t)
	ctx := context.Background()

	if _, err := coord.Start(ctx, 1, 1); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if _, err := coord.Start(ctx, 1, 2); !errors.Is(err, ErrSessionAlreadyOpen) {
		t.Errorf("expected ErrSessionAlreadyOpen, got %v", err)
	}
}

func TestStartInvalidMeetingNo(t *testing.T) {
	coord, _, _, _ := newTestCoordinator(t)
	ctx := context.Background()

	for _, meetingNo := range []int{0, -1, 17} {
		if _, err := coord.Start(ctx, 1, meetingNo); !errors.Is(err, ErrInvalidMeetingNo) {
			t.Errorf("meeting %d: expected ErrInvalidMeetingNo, got %v", meetingNo, err)
		}
	}
}

func TestStartPersistFailure(t *testing.T) {
	coord, sessions, _, _ := newTestCoordinator(t)
	ctx := context.Background()

	sessions.CreateError = errors.New("db down")
	if _, err := coord.Start(ctx, 1, 1); err == nil {
		t.Fatal("expected error when persistence fails")
	}

	// The failed start must not leave a phantom open session.
	sessions.CreateError = nil
	if _, err := coord.Start(ctx, 1, 1); err != nil {
		t.Errorf("expected start to succeed after failure, got %v", err)
	}
}

func TestStopLifecycle(t *testing.T) {
	coord, _, _, _ := newTestCoordinator(t)
	ctx := context.Background()

	if _, err := coord.Stop(ctx); !errors.Is(err, ErrSessionNotOpen) {
		t.Errorf("expected ErrSessionNotOpen, got %v", err)
	}

	started, err := coord.Start(ctx, 1, 1)
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	finished, err := coord.Stop(ctx)
	if err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if finished.ID != started.ID {
		t.Errorf("expected finished session %s, got %s", started.ID, finished.ID)
	}
	if finished.EndedAt == nil {
		t.Error("expected EndedAt to be set")
	}

	if got := coord.Status(); got != nil {
		t.Errorf("expected no active session after stop, got %+v", got)
	}

	// A new session can open after the previous one closed.
	if _, err := coord.Start(ctx, 1, 2); err != nil {
		t.Errorf("expected restart to succeed, got %v", err)
	}
}

func TestRecordAttendance(t *testing.T) {
	coord, _, ledger, _ := newTestCoordinator(t)
	ctx := context.Background()

	if _, err := coord.RecordAttendance(ctx, "Budi Santoso"); !errors.Is(err, ErrSessionNotOpen) {
		t.Errorf("expected ErrSessionNotOpen, got %v", err)
	}

	started, err := coord.Start(ctx, 1, 1)
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	result, err := coord.RecordAttendance(ctx, "Budi Santoso")
	if err != nil {
		t.Fatalf("RecordAttendance failed: %v", err)
	}
	if result.Duplicate {
		t.Error("first submission should not be a duplicate")
	}
	if result.SessionID != started.ID {
		t.Errorf("expected session %s, got %s", started.ID, result.SessionID)
	}
	if result.Student.ID != 1 {
		t.Errorf("expected student 1, got %d", result.Student.ID)
	}

	// Second submission for the same student is a duplicate, not an error.
	result, err = coord.RecordAttendance(ctx, "Budi Santoso")
	if err != nil {
		t.Fatalf("RecordAttendance failed: %v", err)
	}
	if !result.Duplicate {
		t.Error("second submission should be a duplicate")
	}

	if ledger.CountRecords() != 1 {
		t.Errorf("expected 1 ledger record, got %d", ledger.CountRecords())
	}
}

func TestRecordAttendanceUnknownStudent(t *testing.T) {
	coord, _, _, _ := newTestCoordinator(t)
	ctx := context.Background()

	if _, err := coord.Start(ctx, 1, 1); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if _, err := coord.RecordAttendance(ctx, "Nobody"); !errors.Is(err, ErrUnknownStudent) {
		t.Errorf("expected ErrUnknownStudent, got %v", err)
	}
}

func TestRecordAttendanceNormalizedLookup(t *testing.T) {
	coord, _, _, _ := newTestCoordinator(t)
	ctx := context.Background()

	if _, err := coord.Start(ctx, 1, 1); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	// Dataset folder names normalize to the same student.
	result, err := coord.RecordAttendance(ctx, "budi_santoso")
	if err != nil {
		t.Fatalf("RecordAttendance failed: %v", err)
	}
	if result.Student.Name != "Budi Santoso" {
		t.Errorf("expected resolved display name, got %q", result.Student.Name)
	}
}

func TestRecordAttendanceHealsColdCache(t *testing.T) {
	coord, _, ledger, _ := newTestCoordinator(t)
	ctx := context.Background()

	started, err := coord.Start(ctx, 1, 1)
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	// The record already exists but the cache has never seen the student,
	// as after a process restart mid-session. The ledger lookup must answer
	// before any insert is attempted.
	if err := ledger.InsertRecord(ctx, started.ID, 1, started.StartedAt); err != nil {
		t.Fatalf("InsertRecord failed: %v", err)
	}
	ledger.InsertError = errors.New("insert must not be attempted for an existing record")

	result, err := coord.RecordAttendance(ctx, "Budi Santoso")
	if err != nil {
		t.Fatalf("RecordAttendance failed: %v", err)
	}
	if !result.Duplicate {
		t.Error("expected existing ledger record to surface as duplicate")
	}

	// The lookup healed the cache: the repeat takes the fast path even with
	// the ledger unavailable.
	ledger.HasError = errors.New("lookup should not repeat for a healed cache")
	result, err = coord.RecordAttendance(ctx, "Budi Santoso")
	if err != nil {
		t.Fatalf("RecordAttendance failed: %v", err)
	}
	if !result.Duplicate {
		t.Error("expected cache hit to surface as duplicate")
	}
}

// blindLedger hides existing records from HasRecord, simulating a
// concurrent writer inserting between the existence check and the insert.
type blindLedger struct {
	*mock.MockAttendanceLedger
}

func (b *blindLedger) HasRecord(ctx context.Context, sessionID string, studentID int64) (bool, error) {
	return false, nil
}

func TestRecordAttendanceInsertRaceCollapses(t *testing.T) {
	sessions := mock.NewMockSessionStore()
	ledger := &blindLedger{MockAttendanceLedger: mock.NewMockAttendanceLedger()}
	students := mock.NewMockStudentReader()
	students.AddStudent(database.Student{ID: 1, Name: "Budi Santoso"})
	ledger.SetStudentName(1, "Budi Santoso")
	coord := NewCoordinator(sessions, ledger, students)
	ctx := context.Background()

	started, err := coord.Start(ctx, 1, 1)
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := ledger.InsertRecord(ctx, started.ID, 1, started.StartedAt); err != nil {
		t.Fatalf("InsertRecord failed: %v", err)
	}

	result, err := coord.RecordAttendance(ctx, "Budi Santoso")
	if err != nil {
		t.Fatalf("RecordAttendance failed: %v", err)
	}
	if !result.Duplicate {
		t.Error("expected an insert conflict to collapse to duplicate")
	}
	if ledger.CountRecords() != 1 {
		t.Errorf("expected 1 ledger record, got %d", ledger.CountRecords())
	}
}

// gatedLedger blocks the first insert until released so a session change
// can be interleaved while the write is in flight.
type gatedLedger struct {
	*mock.MockAttendanceLedger
	gate    bool
	entered chan struct{}
	release chan struct{}
}

func (g *gatedLedger) InsertRecord(ctx context.Context, sessionID string, studentID int64, recordedAt time.Time) error {
	if g.gate {
		g.entered <- struct{}{}
		<-g.release
	}
	return g.MockAttendanceLedger.InsertRecord(ctx, sessionID, studentID, recordedAt)
}

func TestRecordAttendanceAcrossSessionRestart(t *testing.T) {
	sessions := mock.NewMockSessionStore()
	ledger := &gatedLedger{
		MockAttendanceLedger: mock.NewMockAttendanceLedger(),
		gate:                 true,
		entered:              make(chan struct{}),
		release:              make(chan struct{}),
	}
	students := mock.NewMockStudentReader()
	students.AddStudent(database.Student{ID: 1, Name: "Budi Santoso"})
	ledger.SetStudentName(1, "Budi Santoso")
	coord := NewCoordinator(sessions, ledger, students)
	ctx := context.Background()

	if _, err := coord.Start(ctx, 1, 1); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	inflight := make(chan error, 1)
	go func() {
		_, err := coord.RecordAttendance(ctx, "Budi Santoso")
		inflight <- err
	}()

	// While the insert is blocked, the meeting ends and the next one opens.
	<-ledger.entered
	if _, err := coord.Stop(ctx); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	second, err := coord.Start(ctx, 1, 2)
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	close(ledger.release)

	if err := <-inflight; !errors.Is(err, ErrSessionNotOpen) {
		t.Errorf("expected in-flight record to fail with ErrSessionNotOpen, got %v", err)
	}

	// The student's genuine appearance in the new session must record
	// normally; the stale write must not have seeded the new cache.
	ledger.gate = false
	result, err := coord.RecordAttendance(ctx, "Budi Santoso")
	if err != nil {
		t.Fatalf("RecordAttendance failed: %v", err)
	}
	if result.Duplicate {
		t.Error("expected a fresh recording in the new session")
	}
	records, err := ledger.ListBySession(ctx, second.ID)
	if err != nil {
		t.Fatalf("ListBySession failed: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("expected 1 record in the new session, got %d", len(records))
	}
}

func TestDedupeCacheResetsPerSession(t *testing.T) {
	coord, _, ledger, _ := newTestCoordinator(t)
	ctx := context.Background()

	if _, err := coord.Start(ctx, 1, 1); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if _, err := coord.RecordAttendance(ctx, "Budi Santoso"); err != nil {
		t.Fatalf("RecordAttendance failed: %v", err)
	}
	if _, err := coord.Stop(ctx); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}

	// The same student attends the next meeting: new session, new record.
	if _, err := coord.Start(ctx, 1, 2); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	result, err := coord.RecordAttendance(ctx, "Budi Santoso")
	if err != nil {
		t.Fatalf("RecordAttendance failed: %v", err)
	}
	if result.Duplicate {
		t.Error("expected fresh session to accept the student again")
	}
	if ledger.CountRecords() != 2 {
		t.Errorf("expected 2 ledger records, got %d", ledger.CountRecords())
	}
}

func TestConcurrentSubmissionsRecordOnce(t *testing.T) {
	coord, _, ledger, _ := newTestCoordinator(t)
	ctx := context.Background()

	if _, err := coord.Start(ctx, 1, 1); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	const submissions = 32
	var wg sync.WaitGroup
	recorded := make(chan bool, submissions)

	for i := 0; i < submissions; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := coord.RecordAttendance(ctx, "Siti Aminah")
			if err != nil {
				t.Errorf("RecordAttendance failed: %v", err)
				return
			}
			recorded <- !result.Duplicate
		}()
	}
	wg.Wait()
	close(recorded)

	firsts := 0
	for wasFirst := range recorded {
		if wasFirst {
			firsts++
		}
	}
	if firsts != 1 {
		t.Errorf("expected exactly 1 non-duplicate outcome, got %d", firsts)
	}
	if ledger.CountRecords() != 1 {
		t.Errorf("expected 1 ledger record, got %d", ledger.CountRecords())
	}
}

func TestRecentLog(t *testing.T) {
	coord, _, _, _ := newTestCoordinator(t)
	ctx := context.Background()

	if _, err := coord.RecentLog(ctx, 10); !errors.Is(err, ErrSessionNotOpen) {
		t.Errorf("expected ErrSessionNotOpen, got %v", err)
	}

	if _, err := coord.Start(ctx, 1, 1); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if _, err := coord.RecordAttendance(ctx, "Budi Santoso"); err != nil {
		t.Fatalf("RecordAttendance failed: %v", err)
	}
	if _, err := coord.RecordAttendance(ctx, "Siti Aminah"); err != nil {
		t.Fatalf("RecordAttendance failed: %v", err)
	}

	records, err := coord.RecentLog(ctx, 10)
	if err != nil {
		t.Fatalf("RecentLog failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].StudentName != "Budi Santoso" {
		t.Errorf("expected oldest record first, got %q", records[0].StudentName)
	}

	// Limit keeps the newest entries.
	records, err = coord.RecentLog(ctx, 1)
	if err != nil {
		t.Fatalf("RecentLog failed: %v", err)
	}
	if len(records) != 1 || records[0].StudentName != "Siti Aminah" {
		t.Errorf("expected only the newest record, got %+v", records)
	}
}
