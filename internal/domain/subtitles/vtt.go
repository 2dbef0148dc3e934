package subtitles

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/ChrisCoy/Automatic-Anki-Cards-From-Video/internal/types"
)

// Parse converts a raw WEBVTT payload into cues in document order. Cues are
// not de-duplicated or re-sorted. A single malformed timestamp aborts the
// whole parse so callers never work with a partial cue list.
func Parse(raw string) ([]types.Cue, error) {
	lines := strings.Split(strings.ReplaceAll(raw, "\r", ""), "\n")
	var cues []types.Cue

	i := 0
	for i < len(lines) {
		line := strings.TrimSpace(lines[i])
		i++

		if line == "" || isDirective(line) {
			continue
		}
		if !strings.Contains(line, "-->") {
			// Stray cue identifiers and positioning junk are ignored; only
			// a time-range line opens a cue.
			continue
		}

		parts := strings.SplitN(line, "-->", 2)
		startRaw := firstToken(parts[0])
		endRaw := firstToken(parts[1])

		startMs, err := ParseTimestamp(startRaw)
		if err != nil {
			return nil, err
		}
		endMs, err := ParseTimestamp(endRaw)
		if err != nil {
			return nil, err
		}

		var body []string
		for i < len(lines) && strings.TrimSpace(lines[i]) != "" {
			body = append(body, lines[i])
			i++
		}

		cues = append(cues, types.Cue{
			StartMs: startMs,
			EndMs:   endMs,
			Text:    strings.Join(body, "\n"),
		})
	}

	return cues, nil
}

// MalformedTimestampError aborts a parse; Raw carries the offending text.
type MalformedTimestampError struct {
	Raw string
}

func (e *MalformedTimestampError) Error() string {
	return fmt.Sprintf("malformed timestamp %q", e.Raw)
}

// timestampRE accepts an optional hours group, mandatory minutes and seconds,
// and an optional 1-3 digit fraction separated by "." or ",".
var timestampRE = regexp.MustCompile(`^(?:(\d+):)?(\d{2}):(\d{2})(?:[.,](\d{1,3}))?$`)

// ParseTimestamp converts a single cue timestamp into milliseconds.
func ParseTimestamp(s string) (int64, error) {
	m := timestampRE.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, &MalformedTimestampError{Raw: s}
	}

	hours := int64(0)
	if m[1] != "" {
		h, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			return 0, &MalformedTimestampError{Raw: s}
		}
		hours = h
	}
	mins, _ := strconv.ParseInt(m[2], 10, 64)
	secs, _ := strconv.ParseInt(m[3], 10, 64)

	frac := int64(0)
	if m[4] != "" {
		// 1-3 fractional digits, right-padded to milliseconds.
		f, _ := strconv.ParseInt(m[4], 10, 64)
		for n := len(m[4]); n < 3; n++ {
			f *= 10
		}
		frac = f
	}

	return hours*3600000 + mins*60000 + secs*1000 + frac, nil
}

// isDirective reports whether a line is a VTT header or metadata marker
// rather than cue content. The match is a case-sensitive prefix check.
func isDirective(line string) bool {
	for _, p := range []string{"WEBVTT", "NOTE", "STYLE", "REGION"} {
		if strings.HasPrefix(line, p) {
			return true
		}
	}
	return false
}

func firstToken(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
