package intent

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/dukex/autoflow/pkg/models"
	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"
)

var (
	emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9\-]+(?:\.[A-Za-z0-9\-]+)*\.[A-Za-z]{2,}`)

	possessivePattern  = regexp.MustCompile(`\b([A-Z][\w&-]*(?:\s+[A-Z][\w&-]*)?)['’]s\s+([A-Z][\w-]*(?:\s+[A-Z][\w-]*)*)`)
	companyPattern     = regexp.MustCompile(`(?i:\b(?:company|business|startup|organization|firm|agency))\s+(?i:called\s+|named\s+)?["“]?([A-Z][\w&.-]*(?:\s+[A-Z][\w&.-]*)*)`)
	companyPrepPattern = regexp.MustCompile(`\b(?:at|from|with)\s+([A-Z][\w&-]*(?:\s+[A-Z][\w&-]*)*)`)
	productPattern     = regexp.MustCompile(`(?i:\b(?:product|app|tool|platform|service))\s+(?i:called\s+|named\s+)["“]?([A-Z][\w.-]*(?:\s+[A-Z][\w.-]*)*)`)

	subjectQuotedPattern = regexp.MustCompile(`(?i)\bsubject(?:\s+line)?\s*(?:[:=]|of|as|is)?\s*["“']([^"”']+)["”']`)
	subjectColonPattern  = regexp.MustCompile(`(?i)\bsubject(?:\s+line)?\s*[:=]\s*([^\n.!?]+)`)
	subjectAboutPattern  = regexp.MustCompile(`(?i)\babout\s+(.+?)(?:\s+(?:to|every|at|on|daily|weekly|monthly|tomorrow)\b|[.!?,;]|$)`)

	everyMinutesPattern = regexp.MustCompile(`\bevery\s+(\d+)\s*(?:minutes?|mins?)\b`)
	everyHoursPattern   = regexp.MustCompile(`\bevery\s+(\d+)\s*(?:hours?|hrs?)\b`)
	hourlyPattern       = regexp.MustCompile(`\b(?:hourly|every\s+hour)\b`)
	weekdayPattern      = regexp.MustCompile(`\b(?:every\s+weekday|on\s+weekdays|weekdays)\b`)
	dayOfWeekPattern    = regexp.MustCompile(`\b(?:every|on|each)\s+(monday|tuesday|wednesday|thursday|friday|saturday|sunday)s?\b`)
	weeklyPattern       = regexp.MustCompile(`\b(?:weekly|every\s+week|each\s+week)\b`)
	monthlyPattern      = regexp.MustCompile(`\b(?:monthly|every\s+month|each\s+month)\b`)
	dailyPattern        = regexp.MustCompile(`\b(?:daily|every\s+day|each\s+day|every\s+(?:morning|afternoon|evening|night)|nightly)\b`)
	timeOfDayPattern    = regexp.MustCompile(`\bat\s+(\d{1,2})(?::(\d{2}))?\s*(am|pm|a\.m\.|p\.m\.)?(?:\W|$)`)
	namedTimePattern    = regexp.MustCompile(`\b(?:at\s+)?(noon|midnight|morning|afternoon|evening|night)\b`)
)

var weekdays = map[string]int{
	"sunday": 0, "monday": 1, "tuesday": 2, "wednesday": 3, "thursday": 4, "friday": 5, "saturday": 6,
}

var namedTimes = map[string]int{
	"midnight": 0, "morning": 9, "noon": 12, "afternoon": 14, "evening": 18, "night": 21,
}

// capitalized words that are never company or product names
var nameStopWords = map[string]bool{
	"I": true, "Monday": true, "Tuesday": true, "Wednesday": true, "Thursday": true, "Friday": true,
	"Saturday": true, "Sunday": true, "January": true, "February": true, "March": true, "April": true,
	"May": true, "June": true, "July": true, "August": true, "September": true, "October": true,
	"November": true, "December": true, "Hello": true, "Hi": true, "Please": true, "The": true,
	"It": true, "That": true, "What": true, "Here": true, "There": true, "Today": true, "Let": true,
	"We": true, "You": true, "He": true, "She": true, "They": true,
}

const maxSubjectLength = 120

// Extractor pulls recipients, names, subject and schedule out of a message.
type Extractor struct {
	validate *validator.Validate
	parser   cron.Parser
}

func NewExtractor() *Extractor {
	return &Extractor{
		validate: validator.New(),
		parser:   cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow),
	}
}

// Extract returns every entity found in message; entities that are absent or
// cannot be normalized are omitted.
func (e *Extractor) Extract(message string) models.Entities {
	entities := models.Entities{
		RecipientEmails: e.Emails(message),
		SubjectHint:     subjectHint(message),
	}

	entities.CompanyName, entities.ProductName = names(message)

	if schedule, err := e.Schedule(message); err == nil {
		entities.ScheduleHint = schedule
	}

	return entities
}

// Emails returns the valid addresses in message, deduplicated
// case-insensitively in order of first appearance.
func (e *Extractor) Emails(message string) []string {
	var emails []string

	seen := make(map[string]bool)

	for _, candidate := range findEmails(message) {
		key := strings.ToLower(candidate)
		if seen[key] {
			continue
		}

		if err := e.validate.Var(candidate, "email"); err != nil {
			continue
		}

		seen[key] = true
		emails = append(emails, candidate)
	}

	return emails
}

func findEmails(message string) []string {
	found := emailPattern.FindAllString(message, -1)
	for i, email := range found {
		found[i] = strings.TrimRight(email, ".-")
	}

	return found
}

// Schedule normalizes a schedule cue to a five field cron expression. It
// returns "" and no error when the message carries no cue, and an
// *ExtractionIncompleteError when the cue cannot be expressed.
func (e *Extractor) Schedule(message string) (string, error) {
	text := strings.ToLower(message)

	hour, minute, hasTime, err := timeOfDay(text)
	if err != nil {
		return "", err
	}

	var expr string

	switch {
	case everyMinutesPattern.MatchString(text):
		n, _ := strconv.Atoi(everyMinutesPattern.FindStringSubmatch(text)[1])
		if n < 1 || n > 59 {
			return "", &ExtractionIncompleteError{Field: "schedule", Cue: everyMinutesPattern.FindString(text)}
		}

		expr = fmt.Sprintf("*/%d * * * *", n)
	case everyHoursPattern.MatchString(text):
		n, _ := strconv.Atoi(everyHoursPattern.FindStringSubmatch(text)[1])
		if n < 1 || n > 23 {
			return "", &ExtractionIncompleteError{Field: "schedule", Cue: everyHoursPattern.FindString(text)}
		}

		expr = fmt.Sprintf("0 */%d * * *", n)
	case hourlyPattern.MatchString(text):
		expr = "0 * * * *"
	case weekdayPattern.MatchString(text):
		expr = fmt.Sprintf("%d %d * * 1-5", minute, hour)
	case dayOfWeekPattern.MatchString(text):
		day := weekdays[dayOfWeekPattern.FindStringSubmatch(text)[1]]
		expr = fmt.Sprintf("%d %d * * %d", minute, hour, day)
	case weeklyPattern.MatchString(text):
		expr = fmt.Sprintf("%d %d * * 1", minute, hour)
	case monthlyPattern.MatchString(text):
		expr = fmt.Sprintf("%d %d 1 * *", minute, hour)
	case dailyPattern.MatchString(text), hasTime:
		expr = fmt.Sprintf("%d %d * * *", minute, hour)
	default:
		return "", nil
	}

	if _, err := e.parser.Parse(expr); err != nil {
		return "", &ExtractionIncompleteError{Field: "schedule", Cue: expr}
	}

	return expr, nil
}

// timeOfDay finds an explicit ("at 9:30 pm") or named ("evening") time. It
// defaults to 09:00 when there is none.
func timeOfDay(text string) (int, int, bool, error) {
	if match := timeOfDayPattern.FindStringSubmatch(text); match != nil {
		hour, _ := strconv.Atoi(match[1])
		minute := 0

		if match[2] != "" {
			minute, _ = strconv.Atoi(match[2])
		}

		switch strings.ReplaceAll(match[3], ".", "") {
		case "am":
			if hour == 12 {
				hour = 0
			}
		case "pm":
			if hour < 12 {
				hour += 12
			}
		}

		if hour > 23 || minute > 59 {
			return 0, 0, false, &ExtractionIncompleteError{Field: "schedule", Cue: strings.TrimSpace(match[0])}
		}

		return hour, minute, true, nil
	}

	if match := namedTimePattern.FindStringSubmatch(text); match != nil {
		return namedTimes[match[1]], 0, strings.HasPrefix(match[0], "at "), nil
	}

	return 9, 0, false, nil
}

func subjectHint(message string) string {
	for _, pattern := range []*regexp.Regexp{subjectQuotedPattern, subjectColonPattern, subjectAboutPattern} {
		match := pattern.FindStringSubmatch(message)
		if match == nil {
			continue
		}

		subject := strings.TrimSpace(emailPattern.ReplaceAllString(match[1], ""))
		if subject == "" {
			continue
		}

		if len(subject) > maxSubjectLength {
			subject = strings.TrimSpace(subject[:maxSubjectLength])
		}

		return subject
	}

	return ""
}

// names returns the company and product named in the message.
func names(message string) (string, string) {
	var company, product string

	if match := possessivePattern.FindStringSubmatch(message); match != nil && !nameStopWords[firstWord(match[1])] {
		company, product = match[1], match[2]
	}

	if company == "" {
		if match := companyPattern.FindStringSubmatch(message); match != nil {
			company = match[1]
		}
	}

	if product == "" {
		if match := productPattern.FindStringSubmatch(message); match != nil {
			product = match[1]
		}
	}

	if company == "" {
		for _, match := range companyPrepPattern.FindAllStringSubmatch(message, -1) {
			if !nameStopWords[firstWord(match[1])] {
				company = match[1]

				break
			}
		}
	}

	return strings.TrimRight(company, ".-"), strings.TrimRight(product, ".-")
}

func firstWord(s string) string {
	if i := strings.IndexByte(s, ' '); i >= 0 {
		return s[:i]
	}

	return s
}
