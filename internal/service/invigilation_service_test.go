package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jagesaurus/invigilation-api/internal/dto"
	"github.com/jagesaurus/invigilation-api/internal/models"
	appErrors "github.com/jagesaurus/invigilation-api/pkg/errors"
)

type examReaderStub struct {
	exams []models.Exam
}

func (s examReaderStub) ListByPeriod(_ context.Context, fromDate, toDate string) ([]models.Exam, error) {
	var out []models.Exam
	for _, exam := range s.exams {
		if exam.Date >= fromDate && exam.Date <= toDate {
			out = append(out, exam)
		}
	}
	return out, nil
}

type roomReaderStub struct {
	rooms []models.Room
}

func (s roomReaderStub) ListAvailable(context.Context) ([]models.Room, error) {
	return s.rooms, nil
}

type educatorReaderStub struct {
	educators []models.Educator
}

func (s educatorReaderStub) ListAll(context.Context) ([]models.Educator, error) {
	return s.educators, nil
}

func (s educatorReaderStub) FindByID(_ context.Context, id string) (*models.Educator, error) {
	for _, educator := range s.educators {
		if educator.ID == id {
			copied := educator
			return &copied, nil
		}
	}
	return nil, sql.ErrNoRows
}

type settingsReaderStub struct {
	settings models.Settings
}

func (s settingsReaderStub) Get(context.Context) (models.Settings, error) {
	return s.settings, nil
}

type scheduleStoreStub struct {
	saved    []*models.Schedule
	sessions map[string][]models.Session
	byID     map[string]*models.Session
}

func newScheduleStoreStub() *scheduleStoreStub {
	return &scheduleStoreStub{
		sessions: map[string][]models.Session{},
		byID:     map[string]*models.Session{},
	}
}

func (s *scheduleStoreStub) Create(_ context.Context, schedule *models.Schedule) error {
	schedule.ID = "sch-" + schedule.Name
	s.saved = append(s.saved, schedule)
	s.sessions[schedule.ID] = schedule.Sessions
	for i := range schedule.Sessions {
		s.byID[schedule.Sessions[i].ID] = &schedule.Sessions[i]
	}
	return nil
}

func (s *scheduleStoreStub) FindByID(_ context.Context, id string) (*models.Schedule, error) {
	for _, schedule := range s.saved {
		if schedule.ID == id {
			return schedule, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *scheduleStoreStub) List(context.Context, int, int) ([]models.Schedule, int, error) {
	out := make([]models.Schedule, 0, len(s.saved))
	for _, schedule := range s.saved {
		out = append(out, *schedule)
	}
	return out, len(out), nil
}

func (s *scheduleStoreStub) ListSessions(_ context.Context, scheduleID string) ([]models.Session, error) {
	return s.sessions[scheduleID], nil
}

func (s *scheduleStoreStub) ListSessionsByEducatorOnDate(_ context.Context, educatorID, date string) ([]models.Session, error) {
	var out []models.Session
	for _, sessions := range s.sessions {
		for _, session := range sessions {
			if session.EducatorID == educatorID && session.ExamDate == date {
				out = append(out, session)
			}
		}
	}
	return out, nil
}

func (s *scheduleStoreStub) FindSession(_ context.Context, sessionID string) (*models.Session, error) {
	if session, ok := s.byID[sessionID]; ok {
		copied := *session
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (s *scheduleStoreStub) SessionScheduleID(_ context.Context, sessionID string) (string, error) {
	for scheduleID, sessions := range s.sessions {
		for _, session := range sessions {
			if session.ID == sessionID {
				return scheduleID, nil
			}
		}
	}
	return "", sql.ErrNoRows
}

func (s *scheduleStoreStub) ReassignSession(_ context.Context, sessionID, educatorID, educatorName string, notes *string) error {
	session, ok := s.byID[sessionID]
	if !ok {
		return sql.ErrNoRows
	}
	session.EducatorID = educatorID
	session.EducatorName = educatorName
	session.Notes = notes
	return nil
}

func (s *scheduleStoreStub) Delete(_ context.Context, id string) error {
	delete(s.sessions, id)
	return nil
}

type invigilationFixture struct {
	exams     []models.Exam
	rooms     []models.Room
	educators []models.Educator
	store     *scheduleStoreStub
}

func newInvigilationService(f invigilationFixture) (*InvigilationService, *scheduleStoreStub) {
	store := f.store
	if store == nil {
		store = newScheduleStoreStub()
	}
	svc := NewInvigilationService(
		examReaderStub{exams: f.exams},
		roomReaderStub{rooms: f.rooms},
		educatorReaderStub{educators: f.educators},
		settingsReaderStub{settings: models.DefaultSettings()},
		store,
		nil,
		nil,
		nil,
		InvigilationConfig{ProposalTTL: time.Minute},
	)
	return svc, store
}

func defaultFixture() invigilationFixture {
	return invigilationFixture{
		exams: []models.Exam{{
			ID: "x1", PaperName: "Biology", Date: "2026-06-01",
			StartTime: "09:00", EndTime: "10:30", StudentCount: 30,
		}},
		rooms: []models.Room{{
			ID: "r1", Name: "Room 1", Capacity: 40,
			Kind: models.RoomKindClassroom, IsAvailable: true,
		}},
		educators: []models.Educator{
			{ID: "a", FullName: "Alice Mokoena"},
			{ID: "b", FullName: "Ben Dlamini"},
			{ID: "c", FullName: "Carol Nkosi"},
		},
	}
}

func TestInvigilationServiceGenerate(t *testing.T) {
	svc, _ := newInvigilationService(defaultFixture())

	resp, err := svc.Generate(context.Background(), dto.GenerateScheduleRequest{
		Name: "June exams", StartDate: "2026-06-01", EndDate: "2026-06-05",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.ProposalID)
	assert.Len(t, resp.Sessions, 3)
	assert.Empty(t, resp.Conflicts)
	assert.Equal(t, 100.0, resp.Fairness.Score)
}

func TestInvigilationServiceGenerateNoExams(t *testing.T) {
	svc, _ := newInvigilationService(defaultFixture())

	_, err := svc.Generate(context.Background(), dto.GenerateScheduleRequest{
		Name: "Nothing", StartDate: "2027-01-01", EndDate: "2027-01-02",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestInvigilationServiceGenerateCapacityError(t *testing.T) {
	fixture := defaultFixture()
	fixture.rooms[0].Capacity = 10
	svc, _ := newInvigilationService(fixture)

	_, err := svc.Generate(context.Background(), dto.GenerateScheduleRequest{
		Name: "June exams", StartDate: "2026-06-01", EndDate: "2026-06-05",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInsufficientCapacity.Code, appErrors.FromError(err).Code)
}

func TestInvigilationServiceGenerateRejectsInvertedPeriod(t *testing.T) {
	svc, _ := newInvigilationService(defaultFixture())

	_, err := svc.Generate(context.Background(), dto.GenerateScheduleRequest{
		Name: "Backwards", StartDate: "2026-06-05", EndDate: "2026-06-01",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestInvigilationServiceSaveRoundTrip(t *testing.T) {
	svc, store := newInvigilationService(defaultFixture())

	resp, err := svc.Generate(context.Background(), dto.GenerateScheduleRequest{
		Name: "June exams", StartDate: "2026-06-01", EndDate: "2026-06-05",
	})
	require.NoError(t, err)

	schedule, err := svc.Save(context.Background(), dto.SaveScheduleRequest{ProposalID: resp.ProposalID})
	require.NoError(t, err)
	assert.NotEmpty(t, schedule.ID)
	require.Len(t, store.saved, 1)
	assert.Len(t, store.saved[0].Sessions, 3)

	// Proposal is single-use.
	_, err = svc.Save(context.Background(), dto.SaveScheduleRequest{ProposalID: resp.ProposalID})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrProposalExpired.Code, appErrors.FromError(err).Code)
}

func TestInvigilationServiceSaveUnknownProposal(t *testing.T) {
	svc, _ := newInvigilationService(defaultFixture())

	_, err := svc.Save(context.Background(), dto.SaveScheduleRequest{ProposalID: "nope"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrProposalExpired.Code, appErrors.FromError(err).Code)
}

func TestInvigilationServiceValidate(t *testing.T) {
	svc, _ := newInvigilationService(defaultFixture())

	resp, err := svc.Validate(context.Background(), dto.ValidateScheduleRequest{
		Sessions: []models.Session{
			{ID: "s1", EducatorID: "a", ExamDate: "2026-06-01", SessionStartTime: "09:00", SessionEndTime: "10:00"},
			{ID: "s2", EducatorID: "a", ExamDate: "2026-06-01", SessionStartTime: "09:30", SessionEndTime: "10:30"},
		},
	})
	require.NoError(t, err)
	assert.False(t, resp.Valid)
	require.Len(t, resp.Conflicts, 1)
	assert.Equal(t, models.ConflictOverlap, resp.Conflicts[0].Kind)
}

func TestInvigilationServiceFairnessForSavedSchedule(t *testing.T) {
	svc, _ := newInvigilationService(defaultFixture())

	resp, err := svc.Generate(context.Background(), dto.GenerateScheduleRequest{
		Name: "June exams", StartDate: "2026-06-01", EndDate: "2026-06-05",
	})
	require.NoError(t, err)
	schedule, err := svc.Save(context.Background(), dto.SaveScheduleRequest{ProposalID: resp.ProposalID})
	require.NoError(t, err)

	report, err := svc.Fairness(context.Background(), schedule.ID)
	require.NoError(t, err)
	assert.Equal(t, 100.0, report.Score)
	assert.Len(t, report.Tallies, 3)
}

func TestInvigilationServiceSubstitute(t *testing.T) {
	svc, store := newInvigilationService(defaultFixture())

	resp, err := svc.Generate(context.Background(), dto.GenerateScheduleRequest{
		Name: "June exams", StartDate: "2026-06-01", EndDate: "2026-06-05",
	})
	require.NoError(t, err)
	_, err = svc.Save(context.Background(), dto.SaveScheduleRequest{ProposalID: resp.ProposalID})
	require.NoError(t, err)

	target := resp.Sessions[0]
	substituteID := "b"
	if target.EducatorID == "b" {
		substituteID = "c"
	}
	// The substitute already holds a different, non-overlapping slot, so the
	// swap must succeed.
	updated, err := svc.Substitute(context.Background(), target.ID, dto.SubstituteRequest{EducatorID: substituteID})
	require.NoError(t, err)
	assert.Equal(t, substituteID, updated.EducatorID)
	require.NotNil(t, updated.Notes)
	assert.Contains(t, *updated.Notes, "substituted:")

	persisted, err := store.FindSession(context.Background(), target.ID)
	require.NoError(t, err)
	assert.Equal(t, substituteID, persisted.EducatorID)
}

func TestInvigilationServiceSubstituteRejectsUnavailable(t *testing.T) {
	fixture := defaultFixture()
	fixture.educators[1].UnavailableDates = pq.StringArray{"2026-06-01"}
	svc, _ := newInvigilationService(fixture)

	resp, err := svc.Generate(context.Background(), dto.GenerateScheduleRequest{
		Name: "June exams", StartDate: "2026-06-01", EndDate: "2026-06-05",
	})
	require.NoError(t, err)
	_, err = svc.Save(context.Background(), dto.SaveScheduleRequest{ProposalID: resp.ProposalID})
	require.NoError(t, err)

	_, err = svc.Substitute(context.Background(), resp.Sessions[0].ID, dto.SubstituteRequest{EducatorID: "b"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestInvigilationServiceSubstituteRejectsOverlap(t *testing.T) {
	fixture := defaultFixture()
	// Two rooms force two parallel sessions in the same slot.
	fixture.rooms = append(fixture.rooms, models.Room{
		ID: "r2", Name: "Room 2", Capacity: 40,
		Kind: models.RoomKindClassroom, IsAvailable: true,
	})
	fixture.exams[0].StudentCount = 60
	svc, _ := newInvigilationService(fixture)

	resp, err := svc.Generate(context.Background(), dto.GenerateScheduleRequest{
		Name: "June exams", StartDate: "2026-06-01", EndDate: "2026-06-05",
	})
	require.NoError(t, err)
	_, err = svc.Save(context.Background(), dto.SaveScheduleRequest{ProposalID: resp.ProposalID})
	require.NoError(t, err)

	// Find two sessions sharing a start time and try to give the first one
	// to the educator already holding the second.
	var target, clash *models.Session
	for i := range resp.Sessions {
		for j := range resp.Sessions {
			if i != j && resp.Sessions[i].SessionStartTime == resp.Sessions[j].SessionStartTime {
				target, clash = &resp.Sessions[i], &resp.Sessions[j]
			}
		}
	}
	require.NotNil(t, target)

	_, err = svc.Substitute(context.Background(), target.ID, dto.SubstituteRequest{EducatorID: clash.EducatorID})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestInvigilationServiceSubstituteSameEducator(t *testing.T) {
	svc, _ := newInvigilationService(defaultFixture())

	resp, err := svc.Generate(context.Background(), dto.GenerateScheduleRequest{
		Name: "June exams", StartDate: "2026-06-01", EndDate: "2026-06-05",
	})
	require.NoError(t, err)
	_, err = svc.Save(context.Background(), dto.SaveScheduleRequest{ProposalID: resp.ProposalID})
	require.NoError(t, err)

	_, err = svc.Substitute(context.Background(), resp.Sessions[0].ID, dto.SubstituteRequest{EducatorID: resp.Sessions[0].EducatorID})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
