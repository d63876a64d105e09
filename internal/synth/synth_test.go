package synth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campuscal/internal/model"
)

var ref = time.Date(2025, 5, 17, 0, 0, 0, 0, time.UTC)

func TestSeedOf(t *testing.T) {
	assert.Equal(t, Seed(116), SeedOf("CS101"))
	assert.Equal(t, Seed(0), SeedOf(""))
	assert.Equal(t, Seed(2*'X'), SeedOf("X"))
	assert.Equal(t, SeedOf("ENG201"), SeedOf("ENG201"))
	// U+1F600 is the surrogate pair D83D DE00.
	assert.Equal(t, Seed('C'+0xDE00), SeedOf("C\U0001F600"))
	assert.Equal(t, Seed(0xD83D+'1'), SeedOf("\U0001F6001"))
}

func TestSeedHelpers(t *testing.T) {
	s := Seed(116)
	assert.Equal(t, 0, s.Mod(0))
	assert.Equal(t, 6, s.Mod(10))
	assert.Equal(t, 3, Seed(-1).Mod(4))
	assert.Equal(t, 14, s.Span(10, 16, 0))
	assert.Equal(t, "C", Pick(s, buildings))
	assert.Equal(t, "", Pick(s, []string(nil)))
}

func TestDuePolicies(t *testing.T) {
	for _, p := range DuePolicies {
		lo, hi := p.Range()
		for seed := Seed(0); seed < 300; seed++ {
			for i := 0; i < 2; i++ {
				got := p.Offset(seed, int64(seed), i)
				assert.GreaterOrEqual(t, got, lo, p.String())
				assert.LessOrEqual(t, got, hi, p.String())
			}
		}
	}
	assert.Equal(t, 12, TeachingDue.Offset(SeedOf("CS101"), 7, 0))
	assert.Equal(t, 22, MonthDue.Offset(SeedOf("CS102"), 0, 1))
}

func TestTitles(t *testing.T) {
	assert.Equal(t, "Problem Set", AssignmentTitle("CS101", 0))
	assert.Equal(t, "Programming Project", AssignmentTitle("CS101", 1))
	assert.Equal(t, "Lab Report", AssignmentTitle("PHY150", 0))
	assert.Equal(t, "Reading Response", AssignmentTitle("ENG201", 1))
	assert.Equal(t, "Assignment 2", AssignmentTitle("MATH101", 1))

	assert.Equal(t, "Midterm Exam", ExamTitle(time.January))
	assert.Equal(t, "Midterm Exam", ExamTitle(time.April))
	assert.Equal(t, "Exam", ExamTitle(time.May))
	assert.Equal(t, "Exam", ExamTitle(time.September))
	assert.Equal(t, "Final Exam", ExamTitle(time.October))
}

func TestAssignmentsDeterministic(t *testing.T) {
	p := CodeSeeded{}
	c := model.Course{ID: 4, Code: "CS102", Name: "Data Structures"}

	first := p.Assignments(c, 2025, time.May, time.UTC)
	second := p.Assignments(c, 2025, time.May, time.UTC)
	assert.Equal(t, first, second)

	require.Len(t, first, 2)
	assert.Equal(t, "CS102 Problem Set", first[0].Title)
	assert.Equal(t, time.Date(2025, 5, 15, 23, 59, 0, 0, time.UTC), first[0].Start)
	assert.Equal(t, "CS102 Programming Project", first[1].Title)
	assert.Equal(t, 22, first[1].Start.Day())
	assert.Equal(t, model.EventAssignment, first[1].Type)
	assert.Equal(t, model.SourceSynthetic, first[1].Source)
	assert.NotEqual(t, first[0].ID, first[1].ID)
}

func TestExamGating(t *testing.T) {
	p := CodeSeeded{}
	c := model.Course{ID: 3, Code: "CS101"}

	// (3 + monthIndex) mod 3 == 0 with January = 0.
	ev, ok := p.Exam(c, 2025, time.April, time.UTC)
	require.True(t, ok)
	assert.Equal(t, "CS101 Midterm Exam", ev.Title)
	assert.Equal(t, time.Date(2025, 4, 24, 10, 0, 0, 0, time.UTC), ev.Start)
	assert.Equal(t, 2*time.Hour, ev.Duration())
	assert.Equal(t, ExamLocation, ev.Location)

	_, ok = p.Exam(c, 2025, time.May, time.UTC)
	assert.False(t, ok)

	assert.True(t, HasExam(3, time.January))
	assert.False(t, HasExam(3, time.February))
	assert.True(t, HasExam(1, time.March))
}

func TestDeadlineAndStaffEvents(t *testing.T) {
	p := CodeSeeded{}
	ev := p.Deadline(model.Course{ID: 7, Code: "CS101", Name: "Intro"}, ref)
	assert.Equal(t, time.Date(2025, 5, 29, 23, 59, 0, 0, time.UTC), ev.Start)
	assert.Equal(t, ev.Start, ev.End)
	assert.Equal(t, "CS101 Assignment Due", ev.Title)
	assert.Equal(t, "Assignment for Intro", ev.Description)
	assert.Equal(t, model.EventDeadline, ev.Type)

	staff := p.StaffEvents(ref)
	require.Len(t, staff, 2)
	assert.Equal(t, time.Date(2025, 5, 18, 14, 0, 0, 0, time.UTC), staff[0].Start)
	assert.Equal(t, time.Date(2025, 5, 18, 16, 0, 0, 0, time.UTC), staff[0].End)
	assert.Equal(t, model.EventOfficeHours, staff[0].Type)
	assert.Equal(t, time.Date(2025, 5, 19, 11, 30, 0, 0, time.UTC), staff[1].End)
	assert.Equal(t, MeetingLocation, staff[1].Location)
}

func TestUpcoming(t *testing.T) {
	got := CodeSeeded{}.Upcoming(model.Course{ID: 4, Code: "CS102", Name: "Data Structures"}, ref)
	require.Len(t, got, 2)
	assert.Equal(t, "2025-05-29", got[0].Due.Format("2006-01-02"))
	assert.Equal(t, "2025-05-30", got[1].Due.Format("2006-01-02"))
	assert.Equal(t, "CS102 - Data Structures", got[0].Course)
}

func TestSchedulesAndStats(t *testing.T) {
	p := CodeSeeded{}
	c := model.Course{ID: 1, Code: "CS101"}

	sched := p.Schedules(c)
	require.Len(t, sched, 2)
	assert.Equal(t, model.Tuesday, sched[0].Day)
	assert.Equal(t, model.Thursday, sched[1].Day)
	for _, s := range sched {
		assert.True(t, s.Valid())
		assert.Equal(t, "C-161", s.Room)
	}

	assert.Equal(t, CourseStats{Progress: 96, StudentCount: 41, Room: "C-161"}, p.Stats(c))
}
