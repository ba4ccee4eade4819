package models

import (
	"database/sql"
	"time"
)

type Stage string

const (
	StagePreprocess Stage = "preprocess"
	StageTrain      Stage = "train"
)

type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunSucceeded RunStatus = "succeeded"
	RunFailed    RunStatus = "failed"
)

// Run is one stage execution of one CLI invocation.
type Run struct {
	ID           int64
	Stage        Stage
	StartedAt    time.Time
	FinishedAt   sql.NullTime
	InputPath    string
	OutputDir    string
	Processed    int // buildings that produced an artifact
	Skipped      int // buildings skipped after an error
	Status       RunStatus
	ErrorMessage sql.NullString
}

type DatasetSummary struct {
	RunID          int64
	Building       string
	RowsJoined     int
	RowsKept       int
	Area           sql.NullFloat64 // NULL when unknown
	FirstTimestamp sql.NullTime
	LastTimestamp  sql.NullTime
}

type PerformanceRecord struct {
	RunID          int64
	Building       string
	MSE            float64
	MAE            float64
	R2             float64
	MAPE           float64
	TrainRows      int
	ValidationRows int
}
