package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/AhmedHarera/HeartFailure/internal/apperr"
	"github.com/AhmedHarera/HeartFailure/internal/models"
	"go.uber.org/zap"
)

const (
	high = "High Prediction of heart failure"
	low  = "Low Prediction of heart failure"
)

var today = time.Date(2024, 3, 10, 15, 30, 0, 0, time.UTC)

func record(label string, at time.Time) models.Prediction {
	return models.NewPrediction("user-1", models.DefaultHealthAttributes(), label, at)
}

func TestBuildTrendEmptyWindow(t *testing.T) {
	points := BuildTrend(nil, 7, today, nil)
	if len(points) != 7 {
		t.Fatalf("expected 7 points, got %d", len(points))
	}
	for _, p := range points {
		if p.Count != 0 || p.RunningAccuracy != 0 {
			t.Fatalf("expected empty point, got %+v", p)
		}
	}
	if points[0].Date != "2024-03-04" || points[6].Date != "2024-03-10" {
		t.Fatalf("unexpected window %s..%s", points[0].Date, points[6].Date)
	}
}

func TestBuildTrendHasNAscendingDays(t *testing.T) {
	for _, n := range []int{1, 7, 30} {
		points := BuildTrend(nil, n, today, nil)
		if len(points) != n {
			t.Fatalf("N=%d: got %d points", n, len(points))
		}
		want := today.AddDate(0, 0, -n+1).Format(dateLayout)
		if points[0].Date != want {
			t.Fatalf("N=%d: first date %s, want %s", n, points[0].Date, want)
		}
		for i := 1; i < len(points); i++ {
			if points[i].Date <= points[i-1].Date {
				t.Fatalf("N=%d: dates not strictly ascending at %d", n, i)
			}
		}
	}
}

func TestBuildTrendCrossesMonthBoundary(t *testing.T) {
	points := BuildTrend(nil, 30, today, nil)
	if points[0].Date != "2024-02-10" {
		t.Fatalf("first date = %s, want 2024-02-10", points[0].Date)
	}
}

func TestBuildTrendIncrementalMean(t *testing.T) {
	day := time.Date(2024, 3, 9, 8, 0, 0, 0, time.UTC)
	records := []models.Prediction{
		record(high, day),
		record(low, day.Add(time.Hour)),
		record(high, day.Add(2*time.Hour)),
		record(high, today),
		record(low, today.AddDate(0, 0, -40)),
		record(high, today.AddDate(0, 0, 2)),
	}
	points := BuildTrend(records, 7, today, nil)

	sat := points[5]
	if sat.Date != "2024-03-09" || sat.Count != 3 {
		t.Fatalf("unexpected point %+v", sat)
	}
	if diff := sat.RunningAccuracy - 200.0/3; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("running accuracy = %v, want %v", sat.RunningAccuracy, 200.0/3)
	}
	if points[6].Count != 1 || points[6].RunningAccuracy != 100 {
		t.Fatalf("unexpected last point %+v", points[6])
	}
	total := 0
	for _, p := range points {
		total += p.Count
	}
	if total != 4 {
		t.Fatalf("out-of-window records should be ignored, counted %d", total)
	}
}

func TestBuildTrendOrderIndependentForUniformDay(t *testing.T) {
	day := time.Date(2024, 3, 8, 0, 0, 0, 0, time.UTC)
	var records []models.Prediction
	for i := 0; i < 12; i++ {
		records = append(records, record(high, day.Add(time.Duration(i)*time.Minute)))
	}
	records = append(records, record(low, today), record(low, today.Add(-time.Minute)))

	r := rand.New(rand.NewSource(1))
	for trial := 0; trial < 5; trial++ {
		r.Shuffle(len(records), func(i, j int) { records[i], records[j] = records[j], records[i] })
		points := BuildTrend(records, 7, today, nil)
		if points[4].RunningAccuracy != 100 || points[4].Count != 12 {
			t.Fatalf("all-high day = %+v", points[4])
		}
		if points[6].RunningAccuracy != 0 || points[6].Count != 2 {
			t.Fatalf("all-low day = %+v", points[6])
		}
	}
}

func TestBuildTrendUsesTodayLocation(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*3600)
	localToday := time.Date(2024, 3, 10, 1, 0, 0, 0, loc)
	// 22:30 UTC on the 9th is already the 10th at UTC+3.
	rec := record(high, time.Date(2024, 3, 9, 22, 30, 0, 0, time.UTC))

	points := BuildTrend([]models.Prediction{rec}, 7, localToday, nil)
	if points[6].Date != "2024-03-10" || points[6].Count != 1 {
		t.Fatalf("expected the record on the local day, got %+v", points[6])
	}
}

func TestParseRange(t *testing.T) {
	if r, err := ParseRange(""); err != nil || r.Days() != 7 {
		t.Fatalf("ParseRange(\"\") = %v, %v", r, err)
	}
	if r, err := ParseRange("monthly"); err != nil || r.Days() != 30 {
		t.Fatalf("ParseRange(monthly) = %v, %v", r, err)
	}
	if _, err := ParseRange("yearly"); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Fatalf("ParseRange(yearly) error = %v", err)
	}
}

func TestImpact(t *testing.T) {
	cases := map[int64]int64{0: 0, 1: 1, 4: 4, 5: 6, 10: 12, 123: 147}
	for total, want := range cases {
		if got := Impact(total, 1.2); got != want {
			t.Errorf("Impact(%d) = %d, want %d", total, got, want)
		}
	}
}

type fakeStore struct {
	mu        sync.Mutex
	users     int64
	rows      []models.Prediction
	failOn    string
	gotLimit  int
	gotSince  time.Time
	gotUserID string

	gotActiveSince time.Time
}

func (f *fakeStore) fail(op string) error {
	if f.failOn == op {
		return errors.New(op + " failed")
	}
	return nil
}

func (f *fakeStore) CountUsers(ctx context.Context) (int64, error) {
	return f.users, f.fail("users")
}

func (f *fakeStore) CountPredictions(ctx context.Context) (int64, error) {
	return int64(len(f.rows)), f.fail("predictions")
}

func (f *fakeStore) RecentPredictions(ctx context.Context, limit int) ([]models.Prediction, error) {
	f.mu.Lock()
	f.gotLimit = limit
	f.mu.Unlock()
	if err := f.fail("recent"); err != nil {
		return nil, err
	}
	if limit > len(f.rows) {
		limit = len(f.rows)
	}
	return f.rows[:limit], nil
}

func (f *fakeStore) PredictionsSince(ctx context.Context, since time.Time) ([]models.Prediction, error) {
	f.gotSince = since
	return f.rows, f.fail("since")
}

func (f *fakeStore) PredictionsForUser(ctx context.Context, userID string, limit int) ([]models.Prediction, error) {
	f.gotUserID = userID
	return f.rows, f.fail("user")
}

func (f *fakeStore) CountActiveUsers(ctx context.Context, since time.Time) (int64, error) {
	f.mu.Lock()
	f.gotActiveSince = since
	f.mu.Unlock()
	seen := map[string]bool{}
	for _, r := range f.rows {
		if !r.CreatedAt.Before(since) {
			seen[r.UserID] = true
		}
	}
	return int64(len(seen)), f.fail("active")
}

func (f *fakeStore) CountLabelledPredictions(ctx context.Context) (int64, error) {
	var n int64
	for _, r := range f.rows {
		if r.PredictionResult != "" {
			n++
		}
	}
	return n, f.fail("labelled")
}

func newTestService(store *fakeStore) *Service {
	s := NewService(store, Settings{AccuracyRate: 95.2, ImpactMultiplier: 1.2, RecentLimit: 5}, zap.NewNop())
	s.now = func() time.Time { return today }
	return s
}

func TestSummary(t *testing.T) {
	store := &fakeStore{users: 3}
	for i := 0; i < 10; i++ {
		store.rows = append(store.rows, record(high, today))
	}
	s := newTestService(store)

	sum, err := s.Summary(context.Background())
	if err != nil {
		t.Fatalf("Summary() error = %v", err)
	}
	if sum.TotalUsers != 3 || sum.TotalPredictions != 10 || sum.LivesImpacted != 12 || sum.AccuracyRate != 95.2 {
		t.Fatalf("unexpected summary %+v", sum)
	}
	if len(sum.RecentPredictions) != 5 || store.gotLimit != 5 {
		t.Fatalf("expected 5 recent predictions, got %d (limit %d)", len(sum.RecentPredictions), store.gotLimit)
	}
}

func TestSummaryIsAllOrNothing(t *testing.T) {
	for _, op := range []string{"users", "predictions", "recent"} {
		s := newTestService(&fakeStore{users: 1, failOn: op})
		sum, err := s.Summary(context.Background())
		if !errors.Is(err, apperr.ErrStoreUnavailable) || sum != nil {
			t.Fatalf("%s failure: Summary() = %+v, %v", op, sum, err)
		}
	}
}

func TestApplyChangesConstants(t *testing.T) {
	store := &fakeStore{rows: []models.Prediction{record(low, today), record(low, today)}}
	s := newTestService(store)
	s.Apply(Settings{AccuracyRate: 90, ImpactMultiplier: 2, RecentLimit: 1})

	sum, err := s.Summary(context.Background())
	if err != nil {
		t.Fatalf("Summary() error = %v", err)
	}
	if sum.AccuracyRate != 90 || sum.LivesImpacted != 4 || store.gotLimit != 1 {
		t.Fatalf("settings not applied: %+v", sum)
	}
}

func TestTrendQueriesWindowStart(t *testing.T) {
	store := &fakeStore{rows: []models.Prediction{record(high, today)}}
	s := newTestService(store)

	points, err := s.Trend(context.Background(), Monthly)
	if err != nil {
		t.Fatalf("Trend() error = %v", err)
	}
	if len(points) != 30 || points[29].Count != 1 {
		t.Fatalf("unexpected series tail %+v", points[len(points)-1])
	}
	want := time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)
	if !store.gotSince.Equal(want) {
		t.Fatalf("queried since %v, want %v", store.gotSince, want)
	}

	store.failOn = "since"
	if _, err := s.Trend(context.Background(), Weekly); !errors.Is(err, apperr.ErrStoreUnavailable) {
		t.Fatalf("Trend() error = %v", err)
	}
}

func TestUserStats(t *testing.T) {
	newest := today
	store := &fakeStore{rows: []models.Prediction{
		record(high, newest),
		record(low, today.Add(-time.Hour)),
		record(high, today.Add(-2*time.Hour)),
		record("Prediction unavailable", today.Add(-3*time.Hour)),
	}}
	s := newTestService(store)

	st, err := s.UserStats(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("UserStats() error = %v", err)
	}
	if st.TotalPredictions != 4 || st.HighRisk != 2 || st.LowRisk != 1 {
		t.Fatalf("unexpected stats %+v", st)
	}
	if st.LastPredictionAt == nil || !st.LastPredictionAt.Equal(newest) {
		t.Fatalf("unexpected last prediction %v", st.LastPredictionAt)
	}
	if store.gotUserID != "user-1" {
		t.Fatalf("queried user %q", store.gotUserID)
	}

	if _, err := s.UserStats(context.Background(), ""); !errors.Is(err, apperr.ErrUnauthenticated) {
		t.Fatalf("expected unauthenticated without identity, got %v", err)
	}
}

func TestTrendChartHasTwoSeries(t *testing.T) {
	points := BuildTrend([]models.Prediction{record(high, today)}, 7, today, nil)
	b, err := json.Marshal(TrendChart(points).JSON())
	if err != nil {
		t.Fatalf("marshal chart: %v", err)
	}
	var option struct {
		Series []struct {
			Name string `json:"name"`
		} `json:"series"`
	}
	if err := json.Unmarshal(b, &option); err != nil {
		t.Fatalf("unmarshal chart: %v", err)
	}
	if len(option.Series) != 2 || option.Series[0].Name != "Predictions" || option.Series[1].Name != "Accuracy" {
		t.Fatalf("unexpected series %+v", option.Series)
	}
}

func TestSamplesChartUsesIndexAsX(t *testing.T) {
	line := SamplesChart([]float64{0.5, -1}, "Normal")
	b, err := json.Marshal(line.JSON())
	if err != nil {
		t.Fatalf("marshal chart: %v", err)
	}
	var option struct {
		Series []struct {
			Data []struct {
				Value []float64 `json:"value"`
			} `json:"data"`
		} `json:"series"`
	}
	if err := json.Unmarshal(b, &option); err != nil {
		t.Fatalf("unmarshal chart: %v", err)
	}
	data := option.Series[0].Data
	if len(data) != 2 || data[1].Value[0] != 1 || data[1].Value[1] != -1 {
		t.Fatalf("unexpected data %+v", data)
	}
}

func TestAdminStats(t *testing.T) {
	other := models.NewPrediction("user-2", models.DefaultHealthAttributes(), low, today.AddDate(0, 0, -2))
	stale := models.NewPrediction("user-3", models.DefaultHealthAttributes(), "", today.AddDate(0, 0, -90))
	store := &fakeStore{users: 4, rows: []models.Prediction{record(high, today), record(low, today), other, stale}}
	s := newTestService(store)

	st, err := s.AdminStats(context.Background())
	if err != nil {
		t.Fatalf("AdminStats() error = %v", err)
	}
	if st.TotalUsers != 4 || st.TotalPredictions != 4 || st.ActiveUsers != 2 || st.AverageAccuracy != 75 {
		t.Fatalf("unexpected admin stats %+v", st)
	}
	if want := today.Add(-defaultActiveWindow); !store.gotActiveSince.Equal(want) {
		t.Fatalf("active window starts %v, want %v", store.gotActiveSince, want)
	}

	empty, err := newTestService(&fakeStore{}).AdminStats(context.Background())
	if err != nil || empty.AverageAccuracy != 0 {
		t.Fatalf("empty store: %+v, %v", empty, err)
	}

	for _, op := range []string{"users", "predictions", "active", "labelled"} {
		st, err := newTestService(&fakeStore{failOn: op}).AdminStats(context.Background())
		if !errors.Is(err, apperr.ErrStoreUnavailable) || st != nil {
			t.Fatalf("%s failure: AdminStats() = %+v, %v", op, st, err)
		}
	}
}
