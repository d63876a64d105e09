package synth

import (
	"strings"
	"time"
)

var assignmentTitles = []struct {
	prefix string
	titles [2]string
}{
	{"CS", [2]string{"Problem Set", "Programming Project"}},
	{"PHY", [2]string{"Lab Report", "Problem Set"}},
	{"ENG", [2]string{"Essay", "Reading Response"}},
}

var defaultAssignmentTitles = [2]string{"Assignment 1", "Assignment 2"}

// AssignmentTitle returns the canned title of assignment i for a course
// code, chosen by code prefix.
func AssignmentTitle(code string, i int) string {
	titles := defaultAssignmentTitles
	for _, t := range assignmentTitles {
		if strings.HasPrefix(code, t.prefix) {
			titles = t.titles
			break
		}
	}
	if i <= 0 {
		return titles[0]
	}
	return titles[1]
}

// ExamTitle names an exam by term: January to April is midterm season,
// October to December finals.
func ExamTitle(month time.Month) string {
	idx := int(month) - 1
	switch {
	case idx < 4:
		return "Midterm Exam"
	case idx > 8:
		return "Final Exam"
	default:
		return "Exam"
	}
}
