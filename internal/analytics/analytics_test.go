package analytics

import (
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/ontrack-io/ontrack/internal/models"
)

// now is a fixed clock shared by every test: Saturday 2024-06-15 12:00 UTC.
var now = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

var today = models.DateOf(now)

type taskOpt func(*models.Task)

func newTask(id string, created time.Time, opts ...taskOpt) *models.Task {
	t := models.NewTask(id, "user-1", "task "+id, today.AddDays(30), models.PriorityP2, []string{"step"}, 0, created)
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func due(d models.Date) taskOpt {
	return func(t *models.Task) { t.DueDate = d }
}

func completedAt(at time.Time) taskOpt {
	return func(t *models.Task) { t.SetCompleted(true, at) }
}

func percent(p int) taskOpt {
	return func(t *models.Task) { t.CompletionPercent = p }
}

func daysAgo(n int) time.Time {
	return now.AddDate(0, 0, -n)
}

func TestValidateWindow(t *testing.T) {
	tests := []struct {
		days    int
		wantErr bool
	}{
		{days: 1},
		{days: 30},
		{days: MaxWindowDays},
		{days: 0, wantErr: true},
		{days: -5, wantErr: true},
		{days: MaxWindowDays + 1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.days), func(t *testing.T) {
			err := ValidateWindow(tt.days)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateWindow(%d) error = %v, wantErr %v", tt.days, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidWindow) {
				t.Errorf("ValidateWindow(%d) error %v does not match ErrInvalidWindow", tt.days, err)
			}
		})
	}
}

func TestParseWindow(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		def     int
		want    int
		wantErr bool
	}{
		{name: "empty uses default", raw: "", def: 30, want: 30},
		{name: "blank uses default", raw: "  ", def: 365, want: 365},
		{name: "valid", raw: "7", def: 30, want: 7},
		{name: "upper bound", raw: "3650", def: 30, want: 3650},
		{name: "not a number", raw: "week", def: 30, wantErr: true},
		{name: "float", raw: "1.5", def: 30, wantErr: true},
		{name: "zero", raw: "0", def: 30, wantErr: true},
		{name: "negative", raw: "-1", def: 30, wantErr: true},
		{name: "too large", raw: "3651", def: 30, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseWindow(tt.raw, tt.def)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseWindow(%q) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidWindow) {
				t.Errorf("ParseWindow(%q) error %v does not match ErrInvalidWindow", tt.raw, err)
			}
			if got != tt.want {
				t.Errorf("ParseWindow(%q) = %d, want %d", tt.raw, got, tt.want)
			}
		})
	}
}

func TestOnTime(t *testing.T) {
	lisbon := time.FixedZone("UTC+1", 3600)
	tests := []struct {
		name string
		at   time.Time
		due  models.Date
		loc  *time.Location
		want bool
	}{
		{name: "before due", at: daysAgo(2), due: today, loc: time.UTC, want: true},
		{name: "late in the due day", at: time.Date(2024, 6, 15, 23, 59, 0, 0, time.UTC), due: today, loc: time.UTC, want: true},
		{name: "day after due", at: daysAgo(-1), due: today, loc: time.UTC, want: false},
		{name: "zone moves completion to next day", at: time.Date(2024, 6, 15, 23, 30, 0, 0, time.UTC), due: today, loc: lisbon, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := OnTime(tt.at, tt.due, tt.loc); got != tt.want {
				t.Errorf("OnTime(%v, %v) = %v, want %v", tt.at, tt.due, got, tt.want)
			}
		})
	}
}

func TestEmptyInput(t *testing.T) {
	for _, days := range []int{1, 7, 30} {
		t.Run(fmt.Sprint(days), func(t *testing.T) {
			summary, err := Summarize(nil, days, now)
			if err != nil {
				t.Fatalf("Summarize() error = %v", err)
			}
			if want := (Summary{TimeWindowDays: days}); summary != want {
				t.Errorf("Summarize(nil) = %+v, want %+v", summary, want)
			}

			if got := Streak(nil, now); got != (StreakResult{}) {
				t.Errorf("Streak(nil) = %+v, want zero", got)
			}

			buckets, err := CFD(nil, days, now)
			if err != nil {
				t.Fatalf("CFD() error = %v", err)
			}
			if len(buckets) != days {
				t.Fatalf("CFD(nil, %d) returned %d buckets", days, len(buckets))
			}
			for _, b := range buckets {
				if b.Total() != 0 {
					t.Errorf("bucket %s = %+v, want all zero", b.Date, b)
				}
			}

			completed, err := CompletedTasks(nil, days, now)
			if err != nil {
				t.Fatalf("CompletedTasks() error = %v", err)
			}
			if completed == nil || len(completed) != 0 {
				t.Errorf("CompletedTasks(nil) = %#v, want empty non-nil slice", completed)
			}
		})
	}
}

func TestInvalidWindowRejected(t *testing.T) {
	if _, err := Summarize(nil, 0, now); !errors.Is(err, ErrInvalidWindow) {
		t.Errorf("Summarize(days=0) error = %v, want ErrInvalidWindow", err)
	}
	if _, err := CFD(nil, MaxWindowDays+1, now); !errors.Is(err, ErrInvalidWindow) {
		t.Errorf("CFD(days=3651) error = %v, want ErrInvalidWindow", err)
	}
	if _, err := CompletedTasks(nil, -1, now); !errors.Is(err, ErrInvalidWindow) {
		t.Errorf("CompletedTasks(days=-1) error = %v, want ErrInvalidWindow", err)
	}
}

func TestSummarize(t *testing.T) {
	tasks := []*models.Task{
		// on time, took 2 days
		newTask("a", daysAgo(5), due(today.AddDays(-2)), completedAt(daysAgo(3))),
		// late, took 1 day
		newTask("b", daysAgo(3), due(today.AddDays(-3)), completedAt(daysAgo(2))),
		// outside a 30 day window
		newTask("c", daysAgo(60), completedAt(daysAgo(40))),
		// open tasks never count
		newTask("d", daysAgo(1), percent(80)),
	}

	got, err := Summarize(tasks, 30, now)
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}

	want := Summary{
		TotalCompleted:         2,
		CompletedOnTime:        1,
		OnTimeRate:             0.5,
		AvgCompletionDays:      1.5,
		AvgCompletionHours:     36,
		AvgCompletionMinutes:   2160,
		TasksCompletedThisWeek: 2,
		TimeWindowDays:         30,
	}
	if got != want {
		t.Errorf("Summarize() = %+v, want %+v", got, want)
	}
}

func TestSummarizeWeekIndependentOfWindow(t *testing.T) {
	tasks := []*models.Task{
		newTask("a", daysAgo(3), completedAt(daysAgo(2))),
		newTask("b", daysAgo(10), completedAt(daysAgo(6))),
	}

	got, err := Summarize(tasks, 1, now)
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if got.TotalCompleted != 0 {
		t.Errorf("TotalCompleted = %d, want 0", got.TotalCompleted)
	}
	if got.TasksCompletedThisWeek != 2 {
		t.Errorf("TasksCompletedThisWeek = %d, want 2", got.TasksCompletedThisWeek)
	}
	if got.OnTimeRate != 0 {
		t.Errorf("OnTimeRate = %v, want 0", got.OnTimeRate)
	}
}

func TestSummarizeRounding(t *testing.T) {
	created := daysAgo(1)
	tasks := []*models.Task{
		newTask("a", created, completedAt(created.Add(10*time.Second))),
		newTask("b", created, due(today.AddDays(-5)), completedAt(created.Add(20*time.Second))),
		newTask("c", created, due(today.AddDays(-5)), completedAt(created.Add(30*time.Second))),
	}

	got, err := Summarize(tasks, 30, now)
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if got.OnTimeRate != 0.33 {
		t.Errorf("OnTimeRate = %v, want 0.33", got.OnTimeRate)
	}
	if got.AvgCompletionMinutes != 0.33 {
		t.Errorf("AvgCompletionMinutes = %v, want 0.33", got.AvgCompletionMinutes)
	}
	if got.AvgCompletionHours != 0.01 {
		t.Errorf("AvgCompletionHours = %v, want 0.01", got.AvgCompletionHours)
	}
	if want := 20.0 / 86400; got.AvgCompletionDays != want {
		t.Errorf("AvgCompletionDays = %v, want unrounded %v", got.AvgCompletionDays, want)
	}
}

func TestSummarizeIgnoresCompletedWithoutTimestamp(t *testing.T) {
	broken := newTask("a", daysAgo(2))
	broken.Completed = true

	got, err := Summarize([]*models.Task{broken}, 30, now)
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if got.TotalCompleted != 0 || got.TasksCompletedThisWeek != 0 {
		t.Errorf("Summarize() = %+v, want nothing counted", got)
	}
}

func TestStreak(t *testing.T) {
	onTimeOn := func(id string, n int) *models.Task {
		at := daysAgo(n)
		return newTask(id, at.Add(-time.Hour), due(models.DateOf(at)), completedAt(at))
	}
	lateOn := func(id string, n int) *models.Task {
		at := daysAgo(n)
		return newTask(id, at.Add(-48*time.Hour), due(models.DateOf(at).AddDays(-1)), completedAt(at))
	}

	tests := []struct {
		name  string
		tasks []*models.Task
		want  int
	}{
		{name: "today only", tasks: []*models.Task{onTimeOn("a", 0)}, want: 1},
		{name: "yesterday only", tasks: []*models.Task{onTimeOn("a", 1)}, want: 1},
		{name: "most recent two days ago", tasks: []*models.Task{onTimeOn("a", 2), onTimeOn("b", 3)}, want: 0},
		{name: "consecutive days", tasks: []*models.Task{onTimeOn("a", 0), onTimeOn("b", 1), onTimeOn("c", 2)}, want: 3},
		{name: "single missed day tolerated", tasks: []*models.Task{onTimeOn("a", 0), onTimeOn("b", 2), onTimeOn("c", 4)}, want: 3},
		{name: "two day gap breaks", tasks: []*models.Task{onTimeOn("a", 0), onTimeOn("b", 1), onTimeOn("c", 4), onTimeOn("d", 5)}, want: 2},
		{name: "late days do not count", tasks: []*models.Task{lateOn("a", 0), lateOn("b", 1)}, want: 0},
		{name: "any on time wins the day", tasks: []*models.Task{lateOn("a", 0), onTimeOn("b", 0), onTimeOn("c", 1)}, want: 2},
		{name: "several on time the same day count once", tasks: []*models.Task{onTimeOn("a", 0), onTimeOn("b", 0)}, want: 1},
		{name: "open tasks ignored", tasks: []*models.Task{newTask("a", daysAgo(1), percent(50))}, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Streak(tt.tasks, now)
			want := StreakResult{StreakDays: tt.want, HasActiveStreak: tt.want > 0}
			if got != want {
				t.Errorf("Streak() = %+v, want %+v", got, want)
			}
		})
	}
}

func TestStreakScanLimit(t *testing.T) {
	// 365 late completions today push an older on-time day out of the scan.
	var tasks []*models.Task
	for i := 0; i < StreakScanLimit; i++ {
		tasks = append(tasks, newTask(fmt.Sprint("late-", i), daysAgo(3), due(today.AddDays(-1)), completedAt(now.Add(-time.Duration(i)*time.Second))))
	}
	tasks = append(tasks, newTask("old", daysAgo(2), due(today), completedAt(daysAgo(1))))

	if got := Streak(tasks, now); got.StreakDays != 0 {
		t.Errorf("Streak() = %+v, want 0 once the on-time day falls outside the scan", got)
	}
	if got := Streak(tasks[StreakScanLimit-1:], now); got.StreakDays != 1 {
		t.Errorf("Streak() = %+v, want 1 when the on-time day is inside the scan", got)
	}
}

func TestCFDDayZeroToFive(t *testing.T) {
	// Created 9 days ago at 0%, completed 4 days ago, due 2 days ago.
	created := daysAgo(9)
	task := newTask("a", created, due(today.AddDays(-2)), completedAt(daysAgo(4)))

	buckets, err := CFD([]*models.Task{task}, 10, now)
	if err != nil {
		t.Fatalf("CFD() error = %v", err)
	}
	if len(buckets) != 10 {
		t.Fatalf("len(buckets) = %d, want 10", len(buckets))
	}
	if first := buckets[0].Date; !first.Equal(models.DateOf(created)) {
		t.Fatalf("first bucket = %s, want %s", first, models.DateOf(created))
	}
	if last := buckets[9].Date; !last.Equal(today) {
		t.Fatalf("last bucket = %s, want today %s", last, today)
	}

	for i, b := range buckets {
		want := Bucket{Date: b.Date, Backlog: 1}
		if i >= 5 {
			want = Bucket{Date: b.Date, Done: 1}
		}
		if b != want {
			t.Errorf("bucket %d (%s) = %+v, want %+v", i, b.Date, b, want)
		}
	}
}

func TestCFDInProgressEveryDaySinceCreation(t *testing.T) {
	task := newTask("a", daysAgo(10), percent(50))

	buckets, err := CFD([]*models.Task{task}, 15, now)
	if err != nil {
		t.Fatalf("CFD() error = %v", err)
	}
	creation := models.DateOf(daysAgo(10))
	for _, b := range buckets {
		want := Bucket{Date: b.Date}
		if !b.Date.Before(creation) {
			want.InProgress = 1
		}
		if b != want {
			t.Errorf("bucket %s = %+v, want %+v", b.Date, b, want)
		}
	}
}

func TestCFDBucketSumInvariant(t *testing.T) {
	tasks := []*models.Task{
		newTask("a", daysAgo(20)),
		newTask("b", daysAgo(15), percent(30)),
		newTask("c", daysAgo(12), completedAt(daysAgo(3))),
		newTask("d", daysAgo(5), percent(100), completedAt(daysAgo(1))),
		newTask("e", daysAgo(2)),
		newTask("f", daysAgo(0), percent(10)),
		newTask("g", daysAgo(40), completedAt(daysAgo(35))),
	}

	buckets, err := CFD(tasks, 30, now)
	if err != nil {
		t.Fatalf("CFD() error = %v", err)
	}
	for _, b := range buckets {
		existing := 0
		for _, task := range tasks {
			if !models.DateOf(task.CreatedAt).After(b.Date) {
				existing++
			}
		}
		if b.Total() != existing {
			t.Errorf("bucket %s total = %d, want %d", b.Date, b.Total(), existing)
		}
	}
}

func TestCFDUsesLocationOfNow(t *testing.T) {
	// 23:30 UTC on the 14th is already the 15th in UTC+2.
	zone := time.FixedZone("UTC+2", 2*3600)
	local := now.In(zone)
	task := newTask("a", time.Date(2024, 6, 14, 23, 30, 0, 0, time.UTC))

	buckets, err := CFD([]*models.Task{task}, 2, local)
	if err != nil {
		t.Fatalf("CFD() error = %v", err)
	}
	if buckets[0].Backlog != 0 || buckets[1].Backlog != 1 {
		t.Errorf("CFD() = %+v, want the task to appear on the 15th only", buckets)
	}
}

func TestCompletedTasks(t *testing.T) {
	tasks := []*models.Task{
		newTask("old", daysAgo(400), completedAt(daysAgo(380))),
		newTask("late", daysAgo(10), due(today.AddDays(-8)), completedAt(daysAgo(5))),
		newTask("recent", daysAgo(3), completedAt(daysAgo(1))),
		newTask("open", daysAgo(3), percent(20)),
	}

	got, err := CompletedTasks(tasks, DefaultCompletedDays, now)
	if err != nil {
		t.Fatalf("CompletedTasks() error = %v", err)
	}
	var ids []string
	for _, c := range got {
		ids = append(ids, c.ID)
	}
	if want := []string{"recent", "late"}; !reflect.DeepEqual(ids, want) {
		t.Fatalf("CompletedTasks() ids = %v, want %v", ids, want)
	}
	if !got[0].OnTime || got[1].OnTime {
		t.Errorf("OnTime flags = %v, %v; want true, false", got[0].OnTime, got[1].OnTime)
	}
	if got[1].Priority != models.PriorityP2 || got[1].Name != "task late" {
		t.Errorf("projection = %+v", got[1])
	}
}

func TestIdempotence(t *testing.T) {
	tasks := []*models.Task{
		newTask("a", daysAgo(9), completedAt(daysAgo(4))),
		newTask("b", daysAgo(6), percent(40)),
		newTask("c", daysAgo(2), due(today.AddDays(-3)), completedAt(daysAgo(0))),
	}

	s1, _ := Summarize(tasks, 30, now)
	s2, _ := Summarize(tasks, 30, now)
	if s1 != s2 {
		t.Errorf("Summarize not idempotent: %+v vs %+v", s1, s2)
	}
	if a, b := Streak(tasks, now), Streak(tasks, now); a != b {
		t.Errorf("Streak not idempotent: %+v vs %+v", a, b)
	}
	c1, _ := CFD(tasks, 30, now)
	c2, _ := CFD(tasks, 30, now)
	if !reflect.DeepEqual(c1, c2) {
		t.Error("CFD not idempotent")
	}
	l1, _ := CompletedTasks(tasks, 30, now)
	l2, _ := CompletedTasks(tasks, 30, now)
	if !reflect.DeepEqual(l1, l2) {
		t.Error("CompletedTasks not idempotent")
	}
}
