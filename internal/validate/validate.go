// Package validate checks form input before anything is sent to the
// backend. Failures carry one human-readable message per field.
package validate

import (
	"errors"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"

	"campuscal/internal/model"
	"campuscal/internal/schedule"
)

var (
	validate   *validator.Validate
	translator ut.Translator

	courseCodeRe = regexp.MustCompile(`^[A-Z]{2,4}\d{3,4}$`)
	studentIDRe  = regexp.MustCompile(`^S\d{4,}$`)
	teacherIDRe  = regexp.MustCompile(`^T\d{4,}$`)

	// custom validation tags
	notBlankTag   = "notblank"
	courseCodeTag = "coursecode"
	studentIDTag  = "studentid"
	teacherIDTag  = "teacherid"
	weekdayTag    = "weekday"
	clockTag      = "clock"
	dateTag       = "isodate"
	eventTypeTag  = "eventtype"
	afterStartTag = "after_start"
	matchTag      = "eqfield"
)

var customMessages = map[string]string{
	notBlankTag:   "this field cannot be blank",
	courseCodeTag: "Course code should be in format like 'CS101' or 'MATH2001'",
	studentIDTag:  "Student ID must start with 'S' followed by at least 4 digits",
	teacherIDTag:  "Teacher ID must start with 'T' followed by at least 4 digits",
	weekdayTag:    "day must be a weekday name such as MONDAY",
	clockTag:      "time must be HH:MM or HH:MM:SS",
	dateTag:       "date must be YYYY-MM-DD",
	eventTypeTag:  "unknown event type",
	afterStartTag: "end time must be after start time",
	matchTag:      "Passwords do not match",
}

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())

	// Register the english error messages for validation errors.
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ = uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	// Use JSON tag names for errors instead of Go struct names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = validate.RegisterValidation(notBlankTag, notBlank)
	_ = validate.RegisterValidation(courseCodeTag, matches(courseCodeRe))
	_ = validate.RegisterValidation(studentIDTag, matches(studentIDRe))
	_ = validate.RegisterValidation(teacherIDTag, matches(teacherIDRe))
	_ = validate.RegisterValidation(weekdayTag, isWeekday)
	_ = validate.RegisterValidation(clockTag, isClock)
	_ = validate.RegisterValidation(dateTag, isDate)
	_ = validate.RegisterValidation(eventTypeTag, isEventType)
	validate.RegisterStructValidation(scheduleStructValidation, ScheduleForm{})
	validate.RegisterStructValidation(eventStructValidation, EventForm{})

	registerFn := func(ut.Translator) error { return nil }
	for tag := range customMessages {
		_ = validate.RegisterTranslation(tag, translator, registerFn, translateCustom)
	}
}

func translateCustom(_ ut.Translator, fe validator.FieldError) string {
	return customMessages[fe.Tag()]
}

// FieldError is one invalid field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error lists every invalid field of a form.
type Error struct {
	Fields []FieldError `json:"fields"`
}

func (e *Error) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Message returns the message for field, or "".
func (e *Error) Message(field string) string {
	for _, f := range e.Fields {
		if f.Field == field {
			return f.Message
		}
	}
	return ""
}

// Struct validates a form. It returns nil or an *Error.
func Struct(form any) error {
	err := validate.Struct(form)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	out := &Error{Fields: make([]FieldError, 0, len(verrs))}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, FieldError{
			Field:   fieldPath(fe),
			Message: fe.Translate(translator),
		})
	}
	return out
}

// fieldPath drops the root struct name: "schedules[0].endTime".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

// Custom Validators

func notBlank(fl validator.FieldLevel) bool {
	if str, ok := fl.Field().Interface().(string); ok {
		return strings.TrimSpace(str) != ""
	}
	return false
}

func matches(re *regexp.Regexp) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return re.MatchString(fl.Field().String())
	}
}

func isWeekday(fl validator.FieldLevel) bool {
	_, ok := model.DayOfWeek(fl.Field().String()).Weekday()
	return ok
}

func isClock(fl validator.FieldLevel) bool {
	_, err := schedule.ParseClock(fl.Field().String())
	return err == nil
}

func isDate(fl validator.FieldLevel) bool {
	_, err := time.Parse("2006-01-02", fl.Field().String())
	return err == nil
}

func isEventType(fl validator.FieldLevel) bool {
	return model.EventType(fl.Field().String()).Valid()
}

// clockOrder reports whether both times parse and start < end. Unparsable
// values are left to the field-level clock tag.
func clockOrder(start, end string) (ordered, parsed bool) {
	s, err := schedule.ParseClock(start)
	if err != nil {
		return false, false
	}
	e, err := schedule.ParseClock(end)
	if err != nil {
		return false, false
	}
	return s.Before(e), true
}

func scheduleStructValidation(sl validator.StructLevel) {
	f, ok := sl.Current().Interface().(ScheduleForm)
	if !ok {
		return
	}
	if ordered, parsed := clockOrder(f.StartTime, f.EndTime); parsed && !ordered {
		sl.ReportError(f.EndTime, "endTime", "EndTime", afterStartTag, "")
	}
}

func eventStructValidation(sl validator.StructLevel) {
	f, ok := sl.Current().Interface().(EventForm)
	if !ok || f.EndTime == "" {
		return
	}
	if ordered, parsed := clockOrder(f.StartTime, f.EndTime); parsed && !ordered {
		sl.ReportError(f.EndTime, "endTime", "EndTime", afterStartTag, "")
	}
}
