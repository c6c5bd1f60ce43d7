package grpc

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/quentinrf/plant-monitor/services/grow-light/internal/domain"
)

// StatusProvider exposes the controller's current state.
type StatusProvider interface {
	Snapshot() domain.Status
}

// StatusHandler implements StatusServer. It only reads the reading log and
// the controller snapshot; the sensor belongs to the control loop.
type StatusHandler struct {
	repo       domain.ReadingRepository
	controller StatusProvider
}

// NewStatusHandler creates a new gRPC handler
func NewStatusHandler(repo domain.ReadingRepository, controller StatusProvider) *StatusHandler {
	return &StatusHandler{
		repo:       repo,
		controller: controller,
	}
}

// GetCurrentLight returns the most recent logged reading
func (h *StatusHandler) GetCurrentLight(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	log.Debug().Msg("GetCurrentLight called")

	reading, err := h.repo.GetLatestReading(ctx)
	if errors.Is(err, domain.ErrReadingNotFound) {
		return nil, status.Error(codes.NotFound, "no readings yet")
	} else if err != nil {
		log.Error().Err(err).Msg("failed to get latest reading")
		return nil, status.Error(codes.Internal, "failed to get reading")
	}

	return toStruct(readingFields(reading))
}

// GetHistory returns readings within [start, end) with statistics
func (h *StatusHandler) GetHistory(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	startV, okStart := req.GetFields()["start"]
	endV, okEnd := req.GetFields()["end"]
	if !okStart || !okEnd {
		return nil, status.Error(codes.InvalidArgument, "start and end are required")
	}
	start := time.Unix(int64(startV.GetNumberValue()), 0)
	end := time.Unix(int64(endV.GetNumberValue()), 0)

	log.Debug().
		Time("start", start).
		Time("end", end).
		Msg("GetHistory called")

	if !end.After(start) {
		return nil, status.Error(codes.InvalidArgument, "end must be after start")
	}

	readings, err := h.repo.GetReadingsInRange(ctx, start, end)
	if err != nil {
		log.Error().Err(err).Msg("failed to get readings")
		return nil, status.Error(codes.Internal, "failed to get readings")
	}

	list := make([]interface{}, len(readings))
	for i, r := range readings {
		list[i] = readingFields(r)
	}

	stats := summarize(readings)

	return toStruct(map[string]interface{}{
		"readings":    list,
		"average_lux": stats.average,
		"min_lux":     stats.min,
		"max_lux":     stats.max,
	})
}

// GetStatus returns the controller snapshot
func (h *StatusHandler) GetStatus(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	s := h.controller.Snapshot()

	fields := map[string]interface{}{
		"plant":           s.Plant,
		"phase":           string(s.Phase),
		"accumulated":     s.Accumulated,
		"required":        s.Required,
		"led_on":          s.LEDOn,
		"last_lux":        s.LastLux,
		"missed_readings": s.MissedReadings,
	}
	if !s.LastReadingAt.IsZero() {
		fields["last_reading_at"] = s.LastReadingAt.Unix()
	}
	if !s.Sun.Sunrise.IsZero() {
		fields["sunrise"] = s.Sun.Sunrise.Unix()
		fields["mid_day"] = s.Sun.MidDay().Unix()
		fields["sunset"] = s.Sun.Sunset.Unix()
	}
	return toStruct(fields)
}

func readingFields(r *domain.LightReading) map[string]interface{} {
	return map[string]interface{}{
		"id":            r.ID,
		"lux":           r.Lux,
		"accumulated":   r.Accumulated,
		"supplementing": r.Supplementing,
		"category":      string(r.Category()),
		"timestamp":     r.Timestamp.Unix(),
	}
}

func toStruct(fields map[string]interface{}) (*structpb.Struct, error) {
	s, err := structpb.NewStruct(fields)
	if err != nil {
		log.Error().Err(err).Msg("failed to encode response")
		return nil, status.Error(codes.Internal, "failed to encode response")
	}
	return s, nil
}

// historyStats summarises lux over a range; all zero for an empty range.
type historyStats struct {
	average, min, max float64
}

func summarize(readings []*domain.LightReading) historyStats {
	if len(readings) == 0 {
		return historyStats{}
	}

	s := historyStats{min: readings[0].Lux, max: readings[0].Lux}
	var sum float64
	for _, r := range readings {
		sum += r.Lux
		s.min = min(s.min, r.Lux)
		s.max = max(s.max, r.Lux)
	}
	s.average = sum / float64(len(readings))
	return s
}
