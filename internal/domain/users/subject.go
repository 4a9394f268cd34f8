package users

import (
	"strconv"
	"strings"
)

const subjectPrefix = "user:"

func SubjectFor(id uint) string {
	return subjectPrefix + strconv.FormatUint(uint64(id), 10)
}

// ParseSubject returns the user id of a "user:<id>" subject.
func ParseSubject(subject string) (uint, bool) {
	raw, ok := strings.CutPrefix(subject, subjectPrefix)
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
