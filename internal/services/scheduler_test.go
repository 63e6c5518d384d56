package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"community-service/internal/apperr"
	"community-service/internal/authz"
	"community-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Wednesday; the week runs 2025-03-10 .. 2025-03-16.
var fixedNow = time.Date(2025, time.March, 12, 10, 0, 0, 0, time.UTC)

type fixture struct {
	db     *memDB
	files  *memFiles
	cache  *mapCache
	events *recorder

	admin       authz.Principal
	alice       authz.Principal // staff
	bob         authz.Principal // staff
	carol       authz.Principal // client
	dave        authz.Principal // client
	company     models.Company
	aliceStaff  models.Staff
	bobStaff    models.Staff
	carolClient models.Client
	daveClient  models.Client

	scheduler *Scheduler
	media     *MediaService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{db: newMemDB(), files: newMemFiles(), cache: newMapCache(), events: &recorder{}}

	f.company = f.db.addCompany("Sunrise Care")
	f.admin = f.db.addAccount("admin", models.RoleAdmin)
	f.alice = f.db.addAccount("alice", models.RoleStaff)
	f.bob = f.db.addAccount("bob", models.RoleStaff)
	f.carol = f.db.addAccount("carol", models.RoleClient)
	f.dave = f.db.addAccount("dave", models.RoleClient)
	f.aliceStaff = f.db.addStaff(f.alice.AccountID, f.company.ID, "Alice")
	f.bobStaff = f.db.addStaff(f.bob.AccountID, f.company.ID, "Bob")
	f.carolClient = f.db.addClient(f.carol.AccountID, f.company.ID, "430000001")
	f.daveClient = f.db.addClient(f.dave.AccountID, f.company.ID, "430000002")

	tasks := memTasks{f.db}
	f.scheduler = NewScheduler(tasks, memStaff{f.db}, memClients{f.db}, f.cache, f.events, f.files).
		WithClock(func() time.Time { return fixedNow })
	f.media = NewMediaService(memMedia{f.db}, tasks, f.files, f.cache, f.events)
	return f
}

func shift(day int, start, end string) CreateTaskInput {
	return shiftAcross(day, start, day, end)
}

func shiftAcross(startDay int, start string, endDay int, end string) CreateTaskInput {
	st, _ := models.ParseClock(start)
	et, _ := models.ParseClock(end)
	return CreateTaskInput{
		StartDate:   models.NewDate(2025, time.March, startDay),
		StartTime:   st,
		EndDate:     models.NewDate(2025, time.March, endDay),
		EndTime:     et,
		ServiceType: "Personal care",
	}
}

func (f *fixture) book(t *testing.T, p authz.Principal, clientID int, in CreateTaskInput) models.Task {
	t.Helper()
	task, err := f.scheduler.Create(context.Background(), p, clientID, in)
	require.NoError(t, err)
	return task
}

func TestCreateComputesHours(t *testing.T) {
	f := newFixture(t)

	task := f.book(t, f.alice, f.carolClient.ID, shift(12, "09:00", "10:00"))
	assert.Equal(t, 1.0, task.Hours)
	assert.Equal(t, f.aliceStaff.ID, task.StaffID)
	assert.Equal(t, f.carolClient.ID, task.ClientID)

	half := f.book(t, f.alice, f.carolClient.ID, shift(13, "09:00", "11:30"))
	assert.Equal(t, 2.5, half.Hours)

	overnight := f.book(t, f.alice, f.carolClient.ID, shiftAcross(14, "22:00", 15, "06:00"))
	assert.Equal(t, 8.0, overnight.Hours)

	require.Len(t, f.events.events, 3)
	assert.Equal(t, models.TaskCreated, f.events.events[0].Type)
	assert.Equal(t, f.carol.AccountID, f.events.events[0].ClientUserID)
}

func TestCreateRejectsOverlap(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.book(t, f.alice, f.carolClient.ID, shift(12, "09:00", "10:00"))

	cases := []struct {
		name string
		in   CreateTaskInput
		err  bool
	}{
		{"partial overlap", shift(12, "09:30", "10:30"), true},
		{"touching end", shift(12, "10:00", "11:00"), true},
		{"touching start", shift(12, "08:00", "09:00"), true},
		{"enclosing", shift(12, "08:00", "12:00"), true},
		{"one minute after", shift(12, "10:01", "11:00"), false},
		{"next day", shift(13, "09:00", "10:00"), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.scheduler.Create(ctx, f.alice, f.daveClient.ID, tc.in)
			if tc.err {
				require.Error(t, err)
				assert.True(t, apperr.Is(err, apperr.OverlapConflict))
				assert.Equal(t, "Overlapping task found in the selected time!", apperr.Message(err))
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestCreateOverlapIsPerStaff(t *testing.T) {
	f := newFixture(t)
	f.book(t, f.alice, f.carolClient.ID, shift(12, "09:00", "10:00"))

	task := f.book(t, f.bob, f.carolClient.ID, shift(12, "09:00", "10:00"))
	assert.Equal(t, f.bobStaff.ID, task.StaffID)
}

// Overlap compares dates and times of day separately, so a morning shift
// after an overnight one is not caught even though the instants intersect.
func TestCreateNextMorningShiftIgnoresOvernightTimes(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.book(t, f.alice, f.carolClient.ID, shiftAcross(12, "22:00", 13, "06:00"))

	task, err := f.scheduler.Create(ctx, f.alice, f.carolClient.ID, shift(13, "05:00", "07:00"))
	require.NoError(t, err)
	assert.Equal(t, 2.0, task.Hours)
}

func TestCreateValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.scheduler.Create(ctx, f.alice, f.carolClient.ID, shift(12, "11:00", "10:00"))
	assert.True(t, apperr.Is(err, apperr.InvalidInterval))

	_, err = f.scheduler.Create(ctx, f.alice, f.carolClient.ID, shiftAcross(13, "09:00", 12, "10:00"))
	assert.True(t, apperr.Is(err, apperr.InvalidInterval))

	in := shift(12, "09:00", "10:00")
	in.ServiceType = ""
	_, err = f.scheduler.Create(ctx, f.alice, f.carolClient.ID, in)
	assert.True(t, apperr.Is(err, apperr.InvalidInput))

	_, err = f.scheduler.Create(ctx, f.alice, 9999, shift(12, "09:00", "10:00"))
	assert.True(t, apperr.Is(err, apperr.NotFound))

	assert.Empty(t, f.db.tasks)
}

func TestCreateOnlyStaffBook(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	for _, p := range []authz.Principal{f.admin, f.carol} {
		_, err := f.scheduler.Create(ctx, p, f.carolClient.ID, shift(12, "09:00", "10:00"))
		assert.True(t, apperr.Is(err, apperr.Forbidden), p.Username)
	}
}

func TestEditRecomputesHours(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	task := f.book(t, f.alice, f.carolClient.ID, shift(12, "09:00", "10:00"))
	f.cache.Set(ctx, models.TaskDetails{Task: task})

	end, _ := models.ParseClock("12:30")
	list := "Shopping, meal prep"
	edited, err := f.scheduler.Edit(ctx, f.alice, task.ID, EditTaskInput{EndTime: &end, TasksList: &list})
	require.NoError(t, err)
	assert.Equal(t, 3.5, edited.Hours)
	assert.Equal(t, &list, edited.TasksList)
	assert.Equal(t, "Personal care", edited.ServiceType)

	_, cached := f.cache.Get(ctx, task.ID)
	assert.False(t, cached)
	assert.Equal(t, []models.TaskEventType{models.TaskCreated, models.TaskEdited}, f.events.types())
}

func TestEditKeepsHoursWithoutTimeChange(t *testing.T) {
	f := newFixture(t)
	task := f.book(t, f.alice, f.carolClient.ID, shift(12, "09:00", "11:00"))

	svc := "Community access"
	edited, err := f.scheduler.Edit(context.Background(), f.alice, task.ID, EditTaskInput{ServiceType: &svc})
	require.NoError(t, err)
	assert.Equal(t, 2.0, edited.Hours)
	assert.Equal(t, svc, edited.ServiceType)
}

func TestEditRejectsBackwardsInterval(t *testing.T) {
	f := newFixture(t)
	task := f.book(t, f.alice, f.carolClient.ID, shift(12, "09:00", "10:00"))

	start, _ := models.ParseClock("11:00")
	_, err := f.scheduler.Edit(context.Background(), f.alice, task.ID, EditTaskInput{StartTime: &start})
	assert.True(t, apperr.Is(err, apperr.InvalidInterval))
	assert.Equal(t, 1.0, f.db.tasks[task.ID].Hours)
}

func TestEditOnlyByOwner(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	task := f.book(t, f.alice, f.carolClient.ID, shift(12, "09:00", "10:00"))

	svc := "Other"
	for _, p := range []authz.Principal{f.bob, f.admin, f.carol} {
		_, err := f.scheduler.Edit(ctx, p, task.ID, EditTaskInput{ServiceType: &svc})
		assert.True(t, apperr.Is(err, apperr.Forbidden), p.Username)
	}

	_, err := f.scheduler.Edit(ctx, f.alice, 9999, EditTaskInput{ServiceType: &svc})
	assert.True(t, apperr.Is(err, apperr.NotFound))
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	mine := f.book(t, f.alice, f.carolClient.ID, shift(12, "09:00", "10:00"))
	other := f.book(t, f.alice, f.carolClient.ID, shift(13, "09:00", "10:00"))
	_, err := f.media.Upload(ctx, f.alice, mine.ID, Upload{Name: "notes.txt", Reader: strings.NewReader("hello")})
	require.NoError(t, err)
	require.Equal(t, 1, f.files.count())

	err = f.scheduler.Delete(ctx, f.bob, mine.ID)
	assert.True(t, apperr.Is(err, apperr.Forbidden))

	require.NoError(t, f.scheduler.Delete(ctx, f.alice, mine.ID))
	require.NoError(t, f.scheduler.Delete(ctx, f.admin, other.ID))

	assert.Empty(t, f.db.tasks)
	assert.Empty(t, f.db.media)
	assert.Zero(t, f.files.count())

	err = f.scheduler.Delete(ctx, f.admin, mine.ID)
	assert.True(t, apperr.Is(err, apperr.NotFound))
}

func TestMarkStatus(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	task := f.book(t, f.alice, f.carolClient.ID, shift(12, "09:00", "10:00"))

	done, err := f.scheduler.MarkStatus(ctx, f.alice, task.ID, true)
	require.NoError(t, err)
	assert.True(t, done.Done)
	require.NotNil(t, done.DoneTime)
	assert.True(t, done.DoneTime.Equal(fixedNow))

	undone, err := f.scheduler.MarkStatus(ctx, f.admin, task.ID, false)
	require.NoError(t, err)
	assert.False(t, undone.Done)
	assert.Nil(t, undone.DoneTime)

	_, err = f.scheduler.MarkStatus(ctx, f.bob, task.ID, true)
	assert.True(t, apperr.Is(err, apperr.Forbidden))
	_, err = f.scheduler.MarkStatus(ctx, f.carol, task.ID, true)
	assert.True(t, apperr.Is(err, apperr.Forbidden))
}

func TestMarkStatusRestampsDoneTime(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	task := f.book(t, f.alice, f.carolClient.ID, shift(12, "09:00", "10:00"))
	now := fixedNow
	f.scheduler.WithClock(func() time.Time {
		now = now.Add(time.Minute)
		return now
	})

	first, err := f.scheduler.MarkStatus(ctx, f.alice, task.ID, true)
	require.NoError(t, err)
	require.NotNil(t, first.DoneTime)
	firstAt := *first.DoneTime

	undone, err := f.scheduler.MarkStatus(ctx, f.alice, task.ID, false)
	require.NoError(t, err)
	assert.False(t, undone.Done)
	assert.Nil(t, undone.DoneTime)

	again, err := f.scheduler.MarkStatus(ctx, f.alice, task.ID, true)
	require.NoError(t, err)
	assert.True(t, again.Done)
	require.NotNil(t, again.DoneTime)
	assert.True(t, again.DoneTime.After(firstAt))
	assert.True(t, f.db.tasks[task.ID].DoneTime.Equal(*again.DoneTime))
}

func TestGetReadsThroughCache(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	task := f.book(t, f.alice, f.carolClient.ID, shift(12, "09:00", "10:00"))

	d, err := f.scheduler.Get(ctx, f.carol, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice", d.StaffName)

	cached, ok := f.cache.Get(ctx, task.ID)
	require.True(t, ok)
	assert.Equal(t, task.ID, cached.ID)

	// Served from the cache, authorization still applies.
	_, err = f.scheduler.Get(ctx, f.dave, task.ID)
	assert.True(t, apperr.Is(err, apperr.Forbidden))
	_, err = f.scheduler.Get(ctx, f.bob, task.ID)
	assert.NoError(t, err)
}

func TestQueries(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.book(t, f.alice, f.carolClient.ID, shift(12, "09:00", "10:00"))
	f.book(t, f.bob, f.daveClient.ID, shift(12, "09:00", "10:00"))

	all, err := f.scheduler.All(ctx, f.admin)
	require.NoError(t, err)
	assert.Len(t, all, 2)
	_, err = f.scheduler.All(ctx, f.alice)
	assert.True(t, apperr.Is(err, apperr.Forbidden))

	byStaff, err := f.scheduler.ByStaff(ctx, f.alice, f.aliceStaff.ID)
	require.NoError(t, err)
	assert.Len(t, byStaff, 1)
	_, err = f.scheduler.ByStaff(ctx, f.bob, f.aliceStaff.ID)
	assert.True(t, apperr.Is(err, apperr.Forbidden))

	byClient, err := f.scheduler.ByClient(ctx, f.bob, f.carolClient.ID)
	require.NoError(t, err)
	assert.Len(t, byClient, 1)
	_, err = f.scheduler.ByClient(ctx, f.dave, f.carolClient.ID)
	assert.True(t, apperr.Is(err, apperr.Forbidden))

	mine, err := f.scheduler.Mine(ctx, f.dave)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, f.daveClient.ID, mine[0].ClientID)
}

func TestCurrentWeek(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.book(t, f.alice, f.carolClient.ID, shift(10, "09:00", "10:00")) // Monday
	f.book(t, f.alice, f.carolClient.ID, shift(16, "09:00", "10:00")) // Sunday
	f.book(t, f.alice, f.carolClient.ID, shift(9, "09:00", "10:00"))  // last Sunday
	f.book(t, f.alice, f.carolClient.ID, shift(17, "09:00", "10:00")) // next Monday
	f.book(t, f.bob, f.daveClient.ID, shift(12, "09:00", "10:00"))

	week, err := f.scheduler.CurrentWeek(ctx, f.alice)
	require.NoError(t, err)
	require.Len(t, week, 2)
	for _, d := range week {
		assert.Equal(t, f.aliceStaff.ID, d.StaffID)
		assert.GreaterOrEqual(t, d.StartDate.Compare(models.NewDate(2025, time.March, 10)), 0)
		assert.LessOrEqual(t, d.StartDate.Compare(models.NewDate(2025, time.March, 16)), 0)
	}

	clientWeek, err := f.scheduler.CurrentWeek(ctx, f.carol)
	require.NoError(t, err)
	assert.Len(t, clientWeek, 2)

	_, err = f.scheduler.CurrentWeek(ctx, f.admin)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.Forbidden))
	assert.Equal(t, "Access forbidden!", apperr.Message(err))
}
