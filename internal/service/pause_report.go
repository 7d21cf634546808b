package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/solicitudes-service/internal/domain"
	"github.com/spec-kit/solicitudes-service/internal/events"
	"github.com/spec-kit/solicitudes-service/internal/repository"
	"github.com/spec-kit/solicitudes-service/internal/workflow"
	"github.com/spec-kit/solicitudes-service/pkg/util/numutil"
)

// LongPausedRequest is an Incomplete request paused past the threshold.
type LongPausedRequest struct {
	ID             string
	RequesterName  string
	Area           string
	Process        string
	Assignee       domain.Recipient
	PausedDays     int
	PauseStartedAt *time.Time

	reminderDue bool
}

// PauseMetrics summarizes response, resolution and pause times.
type PauseMetrics struct {
	Total             int
	ByState           map[domain.RequestState]int
	AvgResponseDays   float64
	AvgResolutionDays float64
	PausedRequests    int
	MedianPausedDays  float64
	ThresholdDays     float64
	LongPaused        []LongPausedRequest
	GeneratedAt       time.Time
}

// PauseMetrics computes the report over the requests visible to admin.
func (s *RequestService) PauseMetrics(ctx context.Context, admin *domain.Admin) (*PauseMetrics, error) {
	filter := repository.RequestFilter{}
	applyAdminScope(&filter, admin)
	all, err := s.requests.All(ctx, filter)
	if err != nil {
		return nil, err
	}
	return summarizePauses(all, s.now(), s.longPauseDays), nil
}

// ScanLongPauses publishes one reminder per pause episode for every request
// paused past the threshold and returns how many are overdue.
func (s *RequestService) ScanLongPauses(ctx context.Context) (int, error) {
	states := []domain.RequestState{domain.StateIncomplete}
	paused, err := s.requests.All(ctx, repository.RequestFilter{States: states})
	if err != nil {
		return 0, err
	}
	now := s.now()
	overdue := longPaused(paused, now, s.longPauseDays)
	reminded := 0
	for _, item := range overdue {
		if !item.reminderDue {
			continue
		}
		if err := s.requests.MarkPauseReminded(ctx, item.ID, now); err != nil {
			s.logger.Warn("pause reminder not recorded", zap.String("request_id", item.ID), zap.Error(err))
			continue
		}
		reminded++
		s.publishEvent(ctx, events.New(events.EventRequestPauseOverdue, item.ID, "", now, events.RequestPauseOverduePayload{
			Area:       item.Area,
			Process:    item.Process,
			PausedDays: float64(item.PausedDays),
			Assignee:   item.Assignee,
		}))
	}
	s.metrics.SetOverduePauses(len(overdue))
	s.logger.Info("long pause scan finished",
		zap.Int("overdue", len(overdue)),
		zap.Int("reminded", reminded),
		zap.Int("paused", len(paused)))
	return len(overdue), nil
}

func summarizePauses(requests []domain.Request, now time.Time, threshold float64) *PauseMetrics {
	summary := &PauseMetrics{
		Total:         len(requests),
		ByState:       make(map[domain.RequestState]int, len(workflow.States())),
		ThresholdDays: threshold,
		GeneratedAt:   now,
		LongPaused:    longPaused(requests, now, threshold),
	}
	for _, st := range workflow.States() {
		summary.ByState[st] = 0
	}

	var responses, resolutions, pauses []float64
	for _, r := range requests {
		summary.ByState[r.State]++
		if r.RespondedAt != nil {
			responses = append(responses, r.ResponseDays)
		}
		if r.CompletedAt != nil {
			resolutions = append(resolutions, r.ResolutionDays)
		}
		if p := workflow.LivePausedDays(r, now); p > 0 {
			pauses = append(pauses, p)
		}
	}
	summary.AvgResponseDays = numutil.Round2(numutil.Mean(responses))
	summary.AvgResolutionDays = numutil.Round2(numutil.Mean(resolutions))
	summary.PausedRequests = len(pauses)
	if median, ok := numutil.Median(pauses); ok {
		summary.MedianPausedDays = numutil.Round2(median)
	}
	return summary
}

func longPaused(requests []domain.Request, now time.Time, threshold float64) []LongPausedRequest {
	result := []LongPausedRequest{}
	for _, r := range requests {
		if r.State != domain.StateIncomplete {
			continue
		}
		days := workflow.LivePausedDays(r, now)
		if days <= threshold {
			continue
		}
		result = append(result, LongPausedRequest{
			ID:             r.ID,
			RequesterName:  r.RequesterName,
			Area:           r.Area,
			Process:        r.Process,
			Assignee:       domain.Recipient{Name: r.AssigneeName, Email: r.AssigneeEmail},
			PausedDays:     int(days),
			PauseStartedAt: r.PauseStartedAt,
			reminderDue:    r.PauseReminderDue(),
		})
	}
	return result
}
