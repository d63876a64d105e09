package synth

import "fmt"

// DuePolicy places the i-th synthetic assignment of a course at
//
//	Base + (key + Stride*i) mod Span
//
// where key is the course seed, or the course id for KeyByCourseID.
// The result is a day offset from the reference date or a day of month,
// depending on the caller.
type DuePolicy struct {
	Name          string
	Base          int
	Span          int
	Stride        int
	KeyByCourseID bool
}

// Offset evaluates the policy for assignment index i.
func (p DuePolicy) Offset(seed Seed, courseID int64, i int) int {
	key := seed
	if p.KeyByCourseID {
		key = Seed(courseID)
	}
	return key.Span(p.Base, p.Span, p.Stride*i)
}

// Range returns the smallest and largest value the policy can produce.
func (p DuePolicy) Range() (int, int) {
	if p.Span <= 0 {
		return p.Base, p.Base
	}
	return p.Base, p.Base + p.Span - 1
}

func (p DuePolicy) String() string {
	lo, hi := p.Range()
	return fmt.Sprintf("%s: %d..%d", p.Name, lo, hi)
}

var (
	// UpcomingDue is the dashboard list: due 3 to 14 days after the
	// reference date.
	UpcomingDue = DuePolicy{Name: "upcoming", Base: 3, Span: 12, Stride: 1}

	// MonthDue is the student month view: due on day 10 to 25 of the
	// displayed month, so it never spills into the next one.
	MonthDue = DuePolicy{Name: "month", Base: 10, Span: 16, Stride: 7}

	// TeachingDue is the teacher calendar: one deadline per course, 10 to
	// 14 days after the reference date.
	TeachingDue = DuePolicy{Name: "teaching", Base: 10, Span: 5, KeyByCourseID: true}
)

// DuePolicies lists every due-date policy in use.
var DuePolicies = []DuePolicy{UpcomingDue, MonthDue, TeachingDue}
