package service

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"
)

// Downloader fetches remote media with a bounded retry loop. A 429
// backs off longer than the regular retryable statuses (403 and 5xx),
// anything else fails immediately.
type Downloader struct {
	Client  *http.Client
	Retries int
	Backoff time.Duration
}

func NewDownloader(retries int, backoff, timeout time.Duration) *Downloader {
	return &Downloader{
		Client:  &http.Client{Timeout: timeout},
		Retries: retries,
		Backoff: backoff,
	}
}

// Fetch downloads url and returns the body together with its detected
// content type. The delay between attempts grows with the attempt
// number.
func (d *Downloader) Fetch(ctx context.Context, url string) ([]byte, string, error) {
	var lastStatus int
	var lastErr error

	for attempt := 1; attempt <= d.Retries; attempt++ {
		if attempt > 1 {
			delay := d.Backoff * time.Duration(attempt-1)
			if lastStatus == http.StatusTooManyRequests {
				delay *= 3
			}

			zap.L().Debug("Retrying download",
				zap.String("url", url),
				zap.Int("attempt", attempt),
				zap.Duration("delay", delay))

			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, "", &DownloadError{URL: url, Status: lastStatus, Attempts: attempt - 1, Err: ctx.Err()}
			}
		}

		body, ct, status, err := d.fetchOnce(ctx, url)
		if err == nil && status == http.StatusOK {
			return body, ct, nil
		}

		lastStatus = status
		lastErr = err

		if err == nil && !retryable(status) {
			return nil, "", &DownloadError{URL: url, Status: status, Attempts: attempt}
		}
	}

	return nil, "", &DownloadError{URL: url, Status: lastStatus, Attempts: d.Retries, Err: lastErr}
}

func (d *Downloader) fetchOnce(ctx context.Context, url string) ([]byte, string, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", 0, err
	}

	resp, err := d.Client.Do(req)
	if err != nil {
		return nil, "", 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Drain so the connection can be reused
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return nil, "", resp.StatusCode, nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", resp.StatusCode, err
	}

	ct := resp.Header.Get("Content-Type")
	if ct == "" || ct == "application/octet-stream" {
		ct = mimetype.Detect(body).String()
	}

	return body, ct, resp.StatusCode, nil
}

// Network errors, 403, 429 and 5xx are worth another attempt. Chat
// CDNs in particular hand out transient 403s on fresh attachments
func retryable(status int) bool {
	switch {
	case status == 0:
		return true
	case status == http.StatusForbidden:
		return true
	case status == http.StatusTooManyRequests:
		return true
	case status >= 500:
		return true
	default:
		return false
	}
}
