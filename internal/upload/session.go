// Package upload drives a single spreadsheet upload from validation through
// a terminal Succeeded or Failed phase.
package upload

import (
	"context"
	"errors"
	"time"

	"campaignterm/internal/model"
	"campaignterm/internal/validate"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Phase is the lifecycle state of the session's upload job.
type Phase int

const (
	Idle Phase = iota
	Validating
	Uploading
	Succeeded
	Failed
)

func (p Phase) String() string {
	switch p {
	case Validating:
		return "validating"
	case Uploading:
		return "uploading"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	}
	return "idle"
}

// Uploader sends one upload request. *api.Client satisfies it.
type Uploader interface {
	Upload(ctx context.Context, req model.UploadRequest, onProgress func(int)) (*model.UploadSummary, error)
}

// Recorder persists terminal outcomes. *store.SQLiteStore satisfies it.
type Recorder interface {
	RecordUpload(ctx context.Context, rec model.UploadRecord) error
}

// ErrBusy is returned by Submit while an attempt is uploading.
var ErrBusy = errors.New("an upload is already in progress")

// Attempt is one validated submission. Do may run on any goroutine.
type Attempt struct {
	ID       string
	Request  model.UploadRequest
	uploader Uploader

	ctx    context.Context
	cancel context.CancelFunc
}

// Outcome is the result of Attempt.Do, handed back to Session.Complete.
type Outcome struct {
	AttemptID string
	Summary   *model.UploadSummary
	Err       error
}

// Do issues exactly one upload. It reads no session state. The request is
// aborted when either ctx or the session's Cancel fires.
func (a *Attempt) Do(ctx context.Context, onProgress func(int)) Outcome {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(a.ctx, cancel)
	defer stop()

	summary, err := a.uploader.Upload(ctx, a.Request, onProgress)
	return Outcome{AttemptID: a.ID, Summary: summary, Err: err}
}

// Session owns one upload job. It is not safe for concurrent use; only
// Attempt.Do leaves the owning goroutine.
type Session struct {
	uploader Uploader
	recorder Recorder

	phase     Phase
	file      *model.UploadFile
	campaign  model.Campaign
	emailType model.EmailType
	progress  int
	hasProg   bool
	summary   *model.UploadSummary
	err       error
	attempt   *Attempt
}

type SessionOption func(*Session)

// WithRecorder stores every terminal outcome in r.
func WithRecorder(r Recorder) SessionOption {
	return func(s *Session) { s.recorder = r }
}

func NewSession(u Uploader, opts ...SessionOption) *Session {
	s := &Session{uploader: u}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Submit validates the inputs. On failure the session becomes Failed with the
// validation reasons and no request is made. Otherwise it enters Uploading
// with progress 0 and returns the attempt to run.
func (s *Session) Submit(file *model.UploadFile, campaign model.Campaign, emailType model.EmailType) (*Attempt, error) {
	if s.phase == Uploading {
		return nil, ErrBusy
	}

	s.phase = Validating
	s.file = file
	s.campaign = campaign
	s.emailType = emailType
	s.summary = nil
	s.err = nil
	s.hasProg = false
	s.progress = 0
	s.attempt = nil

	if err := validate.ValidateSubmission(campaign, emailType, file); err != nil {
		s.phase = Failed
		s.err = err
		log.Warn().Err(err).Msg("Upload rejected by validation")
		s.record()
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	a := &Attempt{
		ID: uuid.NewString(),
		Request: model.UploadRequest{
			File:      *file,
			Campaign:  campaign,
			EmailType: emailType,
		},
		uploader: s.uploader,
		ctx:      ctx,
		cancel:   cancel,
	}
	s.attempt = a
	s.phase = Uploading
	s.hasProg = true
	return a, nil
}

// Progress records percent for the current attempt. Stale attempts and
// regressions are ignored.
func (s *Session) Progress(attemptID string, percent int) {
	if s.phase != Uploading || s.attempt == nil || s.attempt.ID != attemptID {
		return
	}
	percent = min(max(percent, 0), 100)
	if percent > s.progress {
		s.progress = percent
	}
}

// Complete applies o if it belongs to the current attempt and reports
// whether it did.
func (s *Session) Complete(o Outcome) bool {
	if s.phase != Uploading || s.attempt == nil || s.attempt.ID != o.AttemptID {
		return false
	}
	s.attempt.cancel()
	if o.Err == nil && o.Summary == nil {
		o.Err = errors.New("upload returned no summary")
	}

	if o.Err != nil {
		s.phase = Failed
		s.err = o.Err
		log.Error().Err(o.Err).Str("attempt", o.AttemptID).Msg("Upload failed")
	} else {
		s.phase = Succeeded
		s.summary = o.Summary
		s.progress = 100
		log.Info().
			Str("attempt", o.AttemptID).
			Int("inserted", o.Summary.Inserted).
			Int("updated", o.Summary.Updated).
			Int("skipped", o.Summary.Skipped).
			Msg("Upload succeeded")
	}
	s.record()
	return true
}

// Cancel aborts the in-flight attempt. Calling it again is a no-op.
func (s *Session) Cancel() {
	if s.phase == Uploading && s.attempt != nil {
		s.attempt.cancel()
	}
}

// Reset returns the session to Idle. After success every field is cleared;
// after failure the file and selections are kept for another try.
func (s *Session) Reset() {
	if s.phase == Uploading {
		s.Cancel()
	}
	keep := s.phase == Failed
	s.phase = Idle
	s.progress = 0
	s.hasProg = false
	s.summary = nil
	s.err = nil
	s.attempt = nil
	if !keep {
		s.file = nil
		s.campaign = ""
		s.emailType = ""
	}
}

// Upload runs Submit, Do and Complete on the calling goroutine.
func (s *Session) Upload(ctx context.Context, file *model.UploadFile, campaign model.Campaign, emailType model.EmailType, onProgress func(int)) (*model.UploadSummary, error) {
	a, err := s.Submit(file, campaign, emailType)
	if err != nil {
		return nil, err
	}
	// Progress arrives on the transport goroutine, so it bypasses the session.
	o := a.Do(ctx, onProgress)
	s.Complete(o)
	if s.err != nil {
		return nil, s.err
	}
	return s.summary, nil
}

func (s *Session) Phase() Phase                  { return s.phase }
func (s *Session) File() *model.UploadFile       { return s.file }
func (s *Session) Campaign() model.Campaign      { return s.campaign }
func (s *Session) EmailType() model.EmailType    { return s.emailType }
func (s *Session) Summary() *model.UploadSummary { return s.summary }
func (s *Session) Err() error                    { return s.err }

// Percent returns the upload progress, and false when no upload has started.
func (s *Session) Percent() (int, bool) { return s.progress, s.hasProg }

// AttemptID returns the id of the current attempt, or "".
func (s *Session) AttemptID() string {
	if s.attempt == nil {
		return ""
	}
	return s.attempt.ID
}

// Reason is the user-facing text for the session's failure, or "".
func (s *Session) Reason() string {
	if s.err == nil {
		return ""
	}
	return Reason(s.err)
}

func (s *Session) record() {
	if s.recorder == nil {
		return
	}
	rec := model.UploadRecord{
		Campaign:  s.campaign,
		EmailType: s.emailType,
		Phase:     s.phase.String(),
		CreatedAt: time.Now().UTC(),
	}
	if s.attempt != nil {
		rec.ID = s.attempt.ID
	} else {
		rec.ID = uuid.NewString()
	}
	if s.file != nil {
		rec.FileName = s.file.Name
		rec.SizeBytes = s.file.Size
	}
	if s.summary != nil {
		rec.Summary = *s.summary
	}
	if s.err != nil {
		rec.Reason = Reason(s.err)
	}
	if err := s.recorder.RecordUpload(context.Background(), rec); err != nil {
		log.Error().Err(err).Str("id", rec.ID).Msg("Failed to record upload")
	}
}
