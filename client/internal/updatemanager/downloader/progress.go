package downloader

import (
	"errors"
	"io"
	"time"

	"golang.org/x/time/rate"
)

// ProgressFunc receives the number of bytes read so far and the expected total (0 when unknown)
type ProgressFunc func(downloaded, total int64)

// ProgressReader wraps an io.Reader and reports progress via a callback.
// Reports are throttled to one per interval; the first read and the end of the stream are always reported.
type ProgressReader struct {
	Reader     io.Reader
	Total      int64
	OnProgress ProgressFunc

	totalRead    int64
	lastReported int64
	reported     bool
	sometimes    *rate.Sometimes
}

func NewProgressReader(r io.Reader, total int64, interval time.Duration, cb ProgressFunc) *ProgressReader {
	return &ProgressReader{
		Reader:       r,
		Total:        total,
		OnProgress:   cb,
		lastReported: -1,
		sometimes:    &rate.Sometimes{Interval: interval},
	}
}

func (pr *ProgressReader) Read(p []byte) (int, error) {
	n, err := pr.Reader.Read(p)
	if n > 0 {
		pr.totalRead += int64(n)
		pr.sometimes.Do(pr.report)
	}
	if errors.Is(err, io.EOF) {
		pr.Finish()
	}
	return n, err
}

// Finish reports the final byte count unless it was already reported
func (pr *ProgressReader) Finish() {
	if pr.reported && pr.lastReported == pr.totalRead {
		return
	}
	pr.report()
}

// BytesRead returns the number of bytes read so far
func (pr *ProgressReader) BytesRead() int64 {
	return pr.totalRead
}

func (pr *ProgressReader) report() {
	pr.reported = true
	pr.lastReported = pr.totalRead
	if pr.OnProgress != nil {
		pr.OnProgress(pr.totalRead, pr.Total)
	}
}
