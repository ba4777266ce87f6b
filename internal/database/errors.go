package database

import "errors"

// ErrDuplicateRecord is returned by AttendanceLedger.InsertRecord when the
// (session, student) pair already exists. Callers treat it as "already
// recorded", not as a failure.
var ErrDuplicateRecord = errors.New("attendance record already exists")
