package observability

import "sync/atomic"

// Stats counts uploads and questions since process start
type Stats struct {
	uploads          atomic.Int64
	uploadFailures   atomic.Int64
	questions        atomic.Int64
	questionFailures atomic.Int64
}

// StatsSnapshot is a point-in-time copy of Stats
type StatsSnapshot struct {
	Uploads          int64 `json:"uploads"`
	UploadFailures   int64 `json:"uploadFailures"`
	Questions        int64 `json:"questions"`
	QuestionFailures int64 `json:"questionFailures"`
}

// NewStats creates zeroed counters
func NewStats() *Stats {
	return &Stats{}
}

// RecordUpload counts one upload attempt
func (s *Stats) RecordUpload(ok bool) {
	s.uploads.Add(1)
	if !ok {
		s.uploadFailures.Add(1)
	}
}

// RecordQuestion counts one answered or failed question
func (s *Stats) RecordQuestion(ok bool) {
	s.questions.Add(1)
	if !ok {
		s.questionFailures.Add(1)
	}
}

// Snapshot returns the current counter values
func (s *Stats) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		Uploads:          s.uploads.Load(),
		UploadFailures:   s.uploadFailures.Load(),
		Questions:        s.questions.Load(),
		QuestionFailures: s.questionFailures.Load(),
	}
}
