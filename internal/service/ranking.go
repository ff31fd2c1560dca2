package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"bitwise74/gallery-bot/internal/model"
)

// frequencySampleSize bounds the frequency leaderboard. Frequency is
// derived, not indexed, so ranking it exactly would mean scanning
// every user. Ranking within the top uploaders is a documented
// approximation.
const frequencySampleSize = 1000

// Column whitelist for rank queries
var rankableFields = map[string]string{
	"uploadCount": "upload_count",
	"totalSize":   "total_size",
}

type Ranking struct {
	Rank       int64 `json:"rank"`
	Total      int64 `json:"total"`
	Value      int64 `json:"value"`
	Percentile int64 `json:"percentile"`
}

type FrequencyRanking struct {
	Rank       int64   `json:"rank"`
	Total      int64   `json:"total"`
	Value      float64 `json:"value"` // images per day
	Percentile int64   `json:"percentile"`
}

// Ranker answers rank and leaderboard queries against the per-user
// counters. Read-only, the aggregator owns the rows.
type Ranker struct {
	Stats *Aggregator
}

// Rank places a user by counting how many users beat their value,
// which an indexed range query answers without sorting the table.
func (r *Ranker) Rank(ctx context.Context, userID, field string) (*Ranking, error) {
	column, ok := rankableFields[field]
	if !ok {
		return nil, fmt.Errorf("field %q is not rankable", field)
	}

	s, err := r.Stats.GetUserStats(ctx, userID)
	if err != nil {
		return nil, err
	}

	value := s.UploadCount
	if field == "totalSize" {
		value = s.TotalSize
	}

	var higher int64
	err = r.Stats.DB.WithContext(ctx).
		Model(model.UserStats{}).
		Where(column+" > ?", value).
		Count(&higher).
		Error
	if err != nil {
		return nil, fmt.Errorf("failed to count higher ranked users, %w", err)
	}

	server, err := r.Stats.GetServerStats(ctx)
	if err != nil {
		return nil, err
	}

	rank := higher + 1

	return &Ranking{
		Rank:       rank,
		Total:      server.TotalUsers,
		Value:      value,
		Percentile: percentile(rank, server.TotalUsers),
	}, nil
}

// TopUsers returns the leaderboard slice for a field, best first
func (r *Ranker) TopUsers(ctx context.Context, field string, limit int) ([]model.UserStats, error) {
	column, ok := rankableFields[field]
	if !ok {
		return nil, fmt.Errorf("field %q is not rankable", field)
	}

	var users []model.UserStats

	err := r.Stats.DB.WithContext(ctx).
		Order(column + " DESC").
		Limit(limit).
		Find(&users).
		Error
	if err != nil {
		return nil, fmt.Errorf("failed to load top users, %w", err)
	}

	return users, nil
}

// FrequencyRank ranks a user by upload frequency within the top
// uploader sample. Users with fewer than 2 uploads have no frequency
// and come back with rank 0.
func (r *Ranker) FrequencyRank(ctx context.Context, userID string) (*FrequencyRanking, error) {
	s, err := r.Stats.GetUserStats(ctx, userID)
	if err != nil {
		return nil, err
	}

	freq := Frequency(s)
	if freq == 0 {
		return &FrequencyRanking{}, nil
	}

	sample, err := r.TopUsers(ctx, "uploadCount", frequencySampleSize)
	if err != nil {
		return nil, err
	}

	freqs := make([]float64, 0, len(sample))
	for i := range sample {
		freqs = append(freqs, Frequency(&sample[i]))
	}

	sort.Slice(freqs, func(i, j int) bool { return freqs[i] > freqs[j] })

	rank := int64(1)
	for _, f := range freqs {
		if f > freq {
			rank++
		}
	}

	return &FrequencyRanking{
		Rank:       rank,
		Total:      int64(len(sample)),
		Value:      freq,
		Percentile: percentile(rank, int64(len(sample))),
	}, nil
}

// Frequency is a user's images-per-day rate across their upload span.
// Undefined (0) below two uploads since a single upload has no span.
func Frequency(s *model.UserStats) float64 {
	if s.FirstUpload == 0 || s.LastUpload == 0 || s.UploadCount < 2 {
		return 0
	}

	days := float64(s.LastUpload-s.FirstUpload) / float64(24*time.Hour.Milliseconds())
	if days <= 0 {
		return 0
	}

	return float64(s.UploadCount) / days
}

func percentile(rank, total int64) int64 {
	if total <= 0 {
		return 0
	}

	return int64(math.Round((1 - float64(rank-1)/float64(total)) * 100))
}
