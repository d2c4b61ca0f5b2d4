package subtitles

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
)

// FormatTimestamp renders seconds as HH:MM:SS,mmm rounded to the nearest
// millisecond. Negative and non-finite values render as zero.
func FormatTimestamp(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		seconds = 0
	}
	msTotal := int64(math.Round(seconds * 1000))
	hours := msTotal / 3_600_000
	msTotal %= 3_600_000
	minutes := msTotal / 60_000
	msTotal %= 60_000
	secs := msTotal / 1_000
	millis := msTotal % 1_000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, secs, millis)
}

// FormatRecord renders one SRT record including its trailing blank line.
func FormatRecord(n int, start, end float64, text string) string {
	return fmt.Sprintf("%d\n%s --> %s\n%s\n\n", n, FormatTimestamp(start), FormatTimestamp(end), strings.TrimSpace(text))
}

// Summary describes a written SRT file.
type Summary struct {
	Cues  int
	First float64
	Last  float64
}

// Summarize counts the records in an SRT file and reports the earliest start
// and latest end timestamps.
func Summarize(path string) (Summary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Summary{}, fmt.Errorf("read srt: %w", err)
	}
	content := strings.TrimSpace(strings.ReplaceAll(string(data), "\r\n", "\n"))
	if content == "" {
		return Summary{}, nil
	}

	var summary Summary
	first := math.Inf(1)
	for _, block := range strings.Split(content, "\n\n") {
		if strings.TrimSpace(block) == "" {
			continue
		}
		summary.Cues++
		for _, line := range strings.Split(block, "\n") {
			parts := strings.Split(line, "-->")
			if len(parts) != 2 {
				continue
			}
			if start, err := parseTimestamp(parts[0]); err == nil && start < first {
				first = start
			}
			if end, err := parseTimestamp(parts[1]); err == nil && end > summary.Last {
				summary.Last = end
			}
		}
	}
	if !math.IsInf(first, 1) {
		summary.First = first
	}
	return summary, nil
}

func parseTimestamp(value string) (float64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, fmt.Errorf("empty timestamp")
	}
	value = strings.ReplaceAll(value, ".", ",")
	timeParts := strings.Split(value, ",")
	if len(timeParts) != 2 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	hms := strings.Split(timeParts[0], ":")
	if len(hms) != 3 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	hours, errH := strconv.Atoi(hms[0])
	minutes, errM := strconv.Atoi(hms[1])
	seconds, errS := strconv.Atoi(hms[2])
	millis, errMS := strconv.Atoi(timeParts[1])
	if errH != nil || errM != nil || errS != nil || errMS != nil {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	return float64(hours*3600+minutes*60+seconds) + float64(millis)/1000, nil
}
