package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/horas-api/internal/hours"
	"github.com/noah-isme/horas-api/internal/models"
	"github.com/noah-isme/horas-api/internal/repository"
	"github.com/noah-isme/horas-api/internal/utils"
)

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

func setupRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mini, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mini.Close)
	return mini, redis.NewClient(&redis.Options{Addr: mini.Addr()})
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []ProgressEvent
}

func (p *recordingPublisher) Publish(_ context.Context, event ProgressEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) ofType(eventType string) []ProgressEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []ProgressEvent
	for _, event := range p.events {
		if event.Type == eventType {
			out = append(out, event)
		}
	}
	return out
}

// fixture bundles the repositories and services wired the same way as the API.
type fixture struct {
	db         *gorm.DB
	lists      repository.ActivityListRepository
	students   repository.StudentRepository
	activities repository.ActivityRepository
	audit      AuditService
	progress   ProgressService
	publisher  *recordingPublisher
	cache      *redis.Client
	today      time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := setupTestDB(t)
	_, cache := setupRedis(t)

	f := &fixture{
		db:         db,
		lists:      repository.NewActivityListRepository(db),
		students:   repository.NewStudentRepository(db),
		activities: repository.NewActivityRepository(db),
		publisher:  &recordingPublisher{},
		cache:      cache,
		today:      time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC),
	}
	f.audit = NewAuditService(repository.NewAuditRepository(db), testLogger())
	f.progress = NewProgressService(f.students, f.lists, f.activities, cache, time.Minute, f.publisher, testLogger())
	return f
}

func (f *fixture) clock() time.Time {
	return f.today
}

func (f *fixture) activityService() *activityService {
	svc := NewActivityService(f.activities, f.students, f.progress, f.audit, utils.NewValidator(f.clock), testLogger()).(*activityService)
	svc.now = f.clock
	return svc
}

func (f *fixture) seedList(t *testing.T, required, maxPerCategory float64) models.ActivityList {
	t.Helper()
	list := models.ActivityList{Title: "Engenharia Civil 2024.1", TotalHoursRequired: required, MaxHoursPerCategory: maxPerCategory}
	require.NoError(t, f.lists.Create(context.Background(), &list))
	return list
}

func (f *fixture) seedStudent(t *testing.T, listID uint, name, cpf string) models.Student {
	t.Helper()
	student := models.Student{Name: name, CPF: cpf, Course: "Engenharia Civil", ClassName: "2024.1", ListID: listID}
	require.NoError(t, f.students.Create(context.Background(), &student))
	return student
}

func (f *fixture) seedActivity(t *testing.T, studentID uint, category string, hoursLogged float64, date string) models.Activity {
	t.Helper()
	occurredOn, err := time.Parse(models.DateLayout, date)
	require.NoError(t, err)
	activity := models.Activity{
		StudentID:  studentID,
		Category:   hours.Category(category),
		Hours:      hoursLogged,
		OccurredOn: occurredOn,
		RecordedBy: "Coordenação",
	}
	require.NoError(t, f.activities.Create(context.Background(), &activity))
	return activity
}

var coordinator = Actor{ID: 1, Role: models.RoleCoordinator, Name: "Prof. Marina"}

func ptrUint(v uint) *uint {
	return &v
}

func ptrFloat(v float64) *float64 {
	return &v
}
