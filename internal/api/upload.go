package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"campaignterm/internal/model"

	"github.com/rs/zerolog/log"
)

func uploadPath(c model.Campaign) string {
	return "/" + url.PathEscape(string(c)) + "/import/upload"
}

// Upload sends the spreadsheet as multipart/form-data (fields "file" and
// "email_type") under the client's upload deadline. onProgress receives
// monotonic percentages of request bytes sent; on success the last call is
// always 100.
func (c *Client) Upload(ctx context.Context, req model.UploadRequest, onProgress func(int)) (*model.UploadSummary, error) {
	parent := ctx
	ctx, cancel := context.WithTimeout(ctx, c.uploadTimeout)
	defer cancel()

	if req.File.Open == nil {
		return nil, fmt.Errorf("upload %s: file has no content", req.File.Name)
	}
	f, err := req.File.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", req.File.Name, err)
	}
	defer f.Close()

	body, contentType, length, err := multipartBody(req, f)
	if err != nil {
		return nil, err
	}
	pr := &progressReader{r: body, total: length, onProgress: onProgress}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url(uploadPath(req.Campaign)), pr)
	if err != nil {
		return nil, fmt.Errorf("create upload request: %w", err)
	}
	httpReq.ContentLength = length
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("Accept", "application/json")

	log.Info().
		Str("file", req.File.Name).
		Int64("size", req.File.Size).
		Str("campaign", string(req.Campaign)).
		Str("email_type", string(req.EmailType)).
		Msg("Uploading spreadsheet")

	start := time.Now()
	resp, err := c.uploadClient.Do(httpReq)
	if err != nil {
		return nil, c.uploadFailure(parent, ctx, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.uploadFailure(parent, ctx, err)
	}

	generic := fmt.Sprintf("upload failed (status %d)", resp.StatusCode)
	if !isSuccessStatusCode(resp.StatusCode) {
		return nil, serverError(resp, respBody, generic)
	}

	var env struct {
		Status  int                  `json:"status"`
		Message string               `json:"message"`
		Data    *model.UploadSummary `json:"data"`
	}
	if err := json.Unmarshal(respBody, &env); err != nil {
		return nil, &DecodeError{Err: err}
	}
	if env.Status != 0 && !isSuccessStatusCode(env.Status) {
		msg := env.Message
		if msg == "" {
			msg = fmt.Sprintf("upload failed (status %d)", env.Status)
		}
		return nil, &ServerError{StatusCode: env.Status, Status: fmt.Sprintf("%d %s", env.Status, http.StatusText(env.Status)), Message: msg}
	}
	if env.Data == nil {
		return nil, &DecodeError{Err: errors.New("missing data")}
	}

	pr.finish()
	summary := *env.Data
	summary.Message = env.Message

	log.Info().
		Str("file", req.File.Name).
		Int("inserted", summary.Inserted).
		Int("updated", summary.Updated).
		Int("skipped", summary.Skipped).
		Dur("elapsed", time.Since(start)).
		Msg("Upload completed")

	return &summary, nil
}

// uploadFailure classifies a transport error: caller cancellation, the
// upload deadline, or a plain network failure.
func (c *Client) uploadFailure(parent, ctx context.Context, err error) error {
	switch {
	case parent.Err() != nil:
		log.Warn().Err(err).Msg("Upload cancelled")
		return ErrCancelled
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		log.Error().Dur("after", c.uploadTimeout).Msg("Upload timed out")
		return &TimeoutError{After: c.uploadTimeout}
	}
	log.Error().Err(err).Msg("Upload failed")
	return &NetworkError{Err: err}
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// multipartBody streams the form without buffering the file. The returned
// length is exact so the transport can report byte-level progress.
func multipartBody(req model.UploadRequest, file io.Reader) (io.Reader, string, int64, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	if err := w.WriteField("email_type", string(req.EmailType)); err != nil {
		return nil, "", 0, fmt.Errorf("write email_type field: %w", err)
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="file"; filename="%s"`, quoteEscaper.Replace(filepath.Base(req.File.Name))))
	h.Set("Content-Type", req.File.MIMEType)
	if _, err := w.CreatePart(h); err != nil {
		return nil, "", 0, fmt.Errorf("create form file: %w", err)
	}
	head := append([]byte(nil), buf.Bytes()...)

	buf.Reset()
	if err := w.Close(); err != nil {
		return nil, "", 0, fmt.Errorf("close multipart writer: %w", err)
	}
	tail := append([]byte(nil), buf.Bytes()...)

	length := int64(len(head)) + req.File.Size + int64(len(tail))
	body := io.MultiReader(bytes.NewReader(head), io.LimitReader(file, req.File.Size), bytes.NewReader(tail))
	return body, w.FormDataContentType(), length, nil
}

// progressReader reports whole percentages of bytes read, never repeating
// or decreasing a value.
type progressReader struct {
	mu         sync.Mutex
	r          io.Reader
	total      int64
	read       int64
	last       int
	onProgress func(int)
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	p.mu.Lock()
	defer p.mu.Unlock()
	if n > 0 && p.total > 0 {
		p.read += int64(n)
		pct := int(p.read * 100 / p.total)
		if pct > 100 {
			pct = 100
		}
		p.emit(pct)
	}
	return n, err
}

func (p *progressReader) emit(pct int) {
	if pct <= p.last || p.onProgress == nil {
		return
	}
	p.last = pct
	p.onProgress(pct)
}

func (p *progressReader) finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.emit(100)
}
