package store

import (
	"time"

	"gorm.io/gorm"
)

// SessionRecord is one row of door-session history: who connected, over
// which protocol, and how the session ended.
type SessionRecord struct {
	gorm.Model
	Node       int
	Alias      string
	RemoteAddr string
	Protocol   string `gorm:"index"` // Add an index for per-protocol reports
	StartedAt  time.Time
	EndedAt    time.Time
	ExitReason string
}

// Duration reports the wall-clock length of the session.
func (r *SessionRecord) Duration() time.Duration {
	return r.EndedAt.Sub(r.StartedAt)
}

func (s *Store) RecordSession(rec *SessionRecord) error {
	return s.DB.Create(rec).Error
}

// RecentSessions returns the newest limit rows, newest first.
func (s *Store) RecentSessions(limit int) ([]SessionRecord, error) {
	var recs []SessionRecord
	result := s.DB.Order("started_at desc").Limit(limit).Find(&recs)
	return recs, result.Error
}

// SessionsByProtocol counts history per framing, for the sysop's
// curiosity.
func (s *Store) SessionsByProtocol() (map[string]int64, error) {
	type row struct {
		Protocol string
		N        int64
	}
	var rows []row
	result := s.DB.Model(&SessionRecord{}).
		Select("protocol, count(*) as n").
		Group("protocol").
		Scan(&rows)
	if result.Error != nil {
		return nil, result.Error
	}

	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.Protocol] = r.N
	}
	return counts, nil
}
