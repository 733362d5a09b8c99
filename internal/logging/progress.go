package logging

import "strings"

// ProgressSampler keeps per-frame progress from flooding the log. It reports
// true when the completed percentage enters a new bucket or when the image
// being processed changes.
type ProgressSampler struct {
	bucketSize float64
	lastImage  string
	lastBucket int
}

// NewProgressSampler returns a sampler with the given bucket width in percent.
// Non-positive widths fall back to 10.
func NewProgressSampler(bucketSize float64) *ProgressSampler {
	if bucketSize <= 0 {
		bucketSize = 10
	}
	return &ProgressSampler{bucketSize: bucketSize, lastBucket: -1}
}

// ShouldLog reports whether done/total frames for image is worth a log line.
func (s *ProgressSampler) ShouldLog(image string, done, total int) bool {
	if s == nil {
		return true
	}
	image = strings.TrimSpace(image)
	emit := false
	if image != s.lastImage {
		s.lastImage = image
		s.lastBucket = -1
		emit = true
	}
	if total <= 0 {
		return emit
	}
	percent := float64(done) * 100 / float64(total)
	if percent > 100 {
		percent = 100
	}
	bucket := int(percent / s.bucketSize)
	if bucket > s.lastBucket {
		s.lastBucket = bucket
		emit = true
	}
	return emit
}
