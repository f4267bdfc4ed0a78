package object

import (
	"bytes"
	"fmt"
	"strconv"
	"time"
)

// Signature identifies an author or committer: name, email, and a
// second-precision UTC timestamp, encoded git-style as
// "name <email> unix-ts ±HHMM".
type Signature struct {
	Name  string
	Email string
	When  time.Time
}

const timezoneLen = 5

// Decode parses a signature from its encoded form. Malformed input is
// tolerated in the same fields-already-zero way the teacher's
// implementation behaves: partial parses are preferable to hard errors
// since a corrupt trailing timestamp should not prevent reading a
// commit's tree/parents.
func (s *Signature) Decode(b []byte) {
	open := bytes.LastIndexByte(b, '<')
	close := bytes.LastIndexByte(b, '>')
	if open == -1 || close == -1 || close < open {
		return
	}
	s.Name = string(bytes.TrimSpace(b[:open]))
	s.Email = string(b[open+1 : close])
	if close+2 < len(b) {
		s.decodeWhen(b[close+2:])
	}
}

func (s *Signature) decodeWhen(b []byte) {
	space := bytes.IndexByte(b, ' ')
	if space == -1 {
		space = len(b)
	}
	ts, err := strconv.ParseInt(string(b[:space]), 10, 64)
	if err != nil {
		return
	}
	s.When = time.Unix(ts, 0).In(time.UTC)

	tzStart := space + 1
	if tzStart >= len(b) || tzStart+timezoneLen > len(b) {
		return
	}
	tz := string(b[tzStart : tzStart+timezoneLen])
	hours, err1 := strconv.ParseInt(tz[0:3], 10, 64)
	mins, err2 := strconv.ParseInt(tz[3:], 10, 64)
	if err1 != nil || err2 != nil {
		return
	}
	if hours < 0 {
		mins *= -1
	}
	s.When = s.When.In(time.FixedZone("", int(hours*3600+mins*60)))
}

// String renders the signature in its canonical encoded form.
func (s Signature) String() string {
	return fmt.Sprintf("%s <%s> %d %s", s.Name, s.Email, s.When.Unix(), s.When.Format("-0700"))
}
