package editor

import (
	"regexp"
	"strings"
)

var scheduleTimePattern = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

// ValidScheduleTime reports whether s is a 24h HH:MM time.
func ValidScheduleTime(s string) bool {
	return scheduleTimePattern.MatchString(s)
}

// Validate checks the fields required before a submit.
func (f Form) Validate() error {
	fields := map[string]string{}
	if strings.TrimSpace(f.Title) == "" {
		fields["title"] = "title is required"
	}
	if f.ScheduleTime != "" && !ValidScheduleTime(f.ScheduleTime) {
		fields["scheduleTime"] = "schedule time must be HH:MM between 00:00 and 23:59"
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// ParseTags splits a comma-separated tag list. Segments are trimmed, blanks
// dropped and duplicates removed keeping the first occurrence.
func ParseTags(s string) []string {
	tags := []string{}
	seen := map[string]bool{}
	for _, part := range strings.Split(s, ",") {
		tag := strings.TrimSpace(part)
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		tags = append(tags, tag)
	}
	return tags
}
