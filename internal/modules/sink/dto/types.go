package dto

import "time"

type SinkInfo struct {
	Name    string
	Version string
	Enabled bool
	Binary  string
}

type DoctorResult struct {
	Name            string
	ChecksumValid   bool
	BinaryReachable bool
	LifecycleOK     bool
	Error           string
}

type PageDwell struct {
	Page       int
	DurationMs int64
	VisitCount int
}

type DeliverInput struct {
	ID               string
	LogicalSessionID string
	Chunk            int
	DocumentID       string
	DocumentTitle    string
	StartedAt        time.Time
	EndedAt          time.Time
	TotalDurationMs  int64
	PagesRead        int
	AvgTimePerPageMs int64
	FastestPageMs    int64
	SlowestPageMs    int64
	Pages            []PageDwell
}

type DeliverOutput struct {
	Delivered []string
	Failed    map[string]string
}
