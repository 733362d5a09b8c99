package main

import (
	"fmt"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

func humanBytes(v int64) string {
	const unit = 1024
	if v < unit {
		return fmt.Sprintf("%d B", v)
	}
	div := int64(unit)
	exp := 0
	for n := v / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	value := float64(v) / float64(div)
	return fmt.Sprintf("%.1f %ciB", value, "KMGTPEZY"[exp])
}

// displayTitle turns lower-case identifiers such as "decodable" into labels.
func displayTitle(s string) string {
	return cases.Title(language.Und).String(s)
}

func shortHash(hash string) string {
	if len(hash) > 12 {
		return hash[:12]
	}
	return hash
}

// formatFrames renders a frame count as playback time at fps.
func formatFrames(frames, fps int) string {
	if fps <= 0 {
		return "0s"
	}
	d := time.Duration(frames) * time.Second / time.Duration(fps)
	return d.Round(10 * time.Millisecond).String()
}

func formatDuration(d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	return d.Round(time.Second).String()
}
