package grpc

import (
	"context"
	"net"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	"github.com/quentinrf/plant-monitor/services/grow-light/internal/adapters/memory"
	"github.com/quentinrf/plant-monitor/services/grow-light/internal/domain"
)

type fixedStatus domain.Status

func (f fixedStatus) Snapshot() domain.Status { return domain.Status(f) }

// startTestServer creates an in-process gRPC server and returns a connected client.
// The server is stopped when the test ends.
func startTestServer(t *testing.T, snap domain.Status) (*StatusClient, *memory.ReadingRepository) {
	t.Helper()

	repo := memory.NewReadingRepository()
	handler := NewStatusHandler(repo, fixedStatus(snap))

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}

	srv := grpc.NewServer()
	RegisterStatusServer(srv, handler)

	go srv.Serve(lis)
	t.Cleanup(func() {
		srv.GracefulStop()
	})

	conn, err := grpc.NewClient(
		lis.Addr().String(),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("failed to dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	return NewStatusClient(conn), repo
}

func seed(t *testing.T, repo *memory.ReadingRepository, lux float64, at time.Time) {
	t.Helper()
	if err := repo.SaveReading(context.Background(), &domain.LightReading{Lux: lux, Accumulated: lux / 100, Timestamp: at}); err != nil {
		t.Fatalf("seed: %v", err)
	}
}

func TestGetCurrentLight_NoReadings(t *testing.T) {
	client, _ := startTestServer(t, domain.Status{})

	_, err := client.GetCurrentLight(context.Background())
	if status.Code(err) != codes.NotFound {
		t.Fatalf("expected NotFound, got %v", err)
	}
}

func TestGetCurrentLight_Latest(t *testing.T) {
	client, repo := startTestServer(t, domain.Status{})
	now := time.Now()
	seed(t, repo, 100, now.Add(-time.Minute))
	seed(t, repo, 3000, now)

	resp, err := client.GetCurrentLight(context.Background())
	if err != nil {
		t.Fatalf("GetCurrentLight failed: %v", err)
	}
	f := resp.GetFields()
	if got := f["lux"].GetNumberValue(); got != 3000 {
		t.Errorf("expected current lux 3000, got %v", got)
	}
	if got := f["category"].GetStringValue(); got != "High Light" {
		t.Errorf("expected category 'High Light', got %q", got)
	}
	if got := int64(f["timestamp"].GetNumberValue()); got != now.Unix() {
		t.Errorf("expected timestamp %d, got %d", now.Unix(), got)
	}
}

func TestGetHistory_TimeRange(t *testing.T) {
	client, repo := startTestServer(t, domain.Status{})
	now := time.Now().Truncate(time.Second)

	seed(t, repo, 300, now.Add(-30*time.Second))
	seed(t, repo, 600, now)
	seed(t, repo, 900, now.Add(2*time.Minute))

	resp, err := client.GetHistory(context.Background(), now.Add(-time.Minute), now.Add(time.Minute))
	if err != nil {
		t.Fatalf("GetHistory failed: %v", err)
	}
	f := resp.GetFields()
	readings := f["readings"].GetListValue().GetValues()
	if len(readings) != 2 {
		t.Fatalf("expected 2 readings, got %d", len(readings))
	}
	if got := readings[0].GetStructValue().GetFields()["lux"].GetNumberValue(); got != 300 {
		t.Errorf("expected oldest reading first, got lux %v", got)
	}

	expectedAvg := (300.0 + 600.0) / 2
	if got := f["average_lux"].GetNumberValue(); got != expectedAvg {
		t.Errorf("expected average %v, got %v", expectedAvg, got)
	}
	if got := f["min_lux"].GetNumberValue(); got != 300 {
		t.Errorf("expected min 300, got %v", got)
	}
	if got := f["max_lux"].GetNumberValue(); got != 600 {
		t.Errorf("expected max 600, got %v", got)
	}
}

func TestGetHistory_EmptyRange(t *testing.T) {
	client, _ := startTestServer(t, domain.Status{})

	// Nothing was logged two days ago.
	start := time.Now().Add(-48 * time.Hour)
	end := time.Now().Add(-47 * time.Hour)

	resp, err := client.GetHistory(context.Background(), start, end)
	if err != nil {
		t.Fatalf("GetHistory failed: %v", err)
	}
	if n := len(resp.GetFields()["readings"].GetListValue().GetValues()); n != 0 {
		t.Errorf("expected 0 readings, got %d", n)
	}
}

func TestGetHistory_InvalidRange(t *testing.T) {
	client, _ := startTestServer(t, domain.Status{})
	now := time.Now()

	cases := []struct {
		name       string
		start, end time.Time
	}{
		{"equal", now, now},
		{"reversed", now, now.Add(-time.Hour)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := client.GetHistory(context.Background(), tc.start, tc.end)
			if status.Code(err) != codes.InvalidArgument {
				t.Errorf("expected InvalidArgument, got %v", err)
			}
		})
	}
}

func TestGetStatus(t *testing.T) {
	date := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	snap := domain.Status{
		Plant:          "basil",
		Phase:          domain.PhaseSupplementingLight,
		Accumulated:    4.5,
		Required:       10,
		LEDOn:          true,
		LastLux:        120,
		LastReadingAt:  date.Add(12 * time.Hour),
		MissedReadings: 3,
		Sun: domain.SunTimes{
			Date:    date,
			Sunrise: date.Add(6 * time.Hour),
			Sunset:  date.Add(18 * time.Hour),
		},
	}
	client, _ := startTestServer(t, snap)

	resp, err := client.GetStatus(context.Background())
	if err != nil {
		t.Fatalf("GetStatus failed: %v", err)
	}
	f := resp.GetFields()
	if got := f["phase"].GetStringValue(); got != "supplementing_light" {
		t.Errorf("expected phase supplementing_light, got %q", got)
	}
	if got := f["led_on"].GetBoolValue(); !got {
		t.Error("expected led_on true")
	}
	if got := f["missed_readings"].GetNumberValue(); got != 3 {
		t.Errorf("expected 3 missed readings, got %v", got)
	}
	if got := int64(f["mid_day"].GetNumberValue()); got != date.Add(12*time.Hour).Unix() {
		t.Errorf("expected mid_day at noon, got %d", got)
	}
}

func TestGetStatus_BeforeFirstTick(t *testing.T) {
	client, _ := startTestServer(t, domain.Status{Plant: "basil", Phase: domain.PhaseAwaitingSunrise})

	resp, err := client.GetStatus(context.Background())
	if err != nil {
		t.Fatalf("GetStatus failed: %v", err)
	}
	if _, ok := resp.GetFields()["sunrise"]; ok {
		t.Error("sunrise should be absent before sun times are known")
	}
	if _, ok := resp.GetFields()["last_reading_at"]; ok {
		t.Error("last_reading_at should be absent before the first reading")
	}
}

func TestSummarize(t *testing.T) {
	if got := summarize(nil); got != (historyStats{}) {
		t.Errorf("expected zero stats, got %+v", got)
	}
	got := summarize([]*domain.LightReading{{Lux: 10}, {Lux: 30}, {Lux: 20}})
	if got.average != 20 || got.min != 10 || got.max != 30 {
		t.Errorf("unexpected stats %+v", got)
	}
}
