// Package validate holds the client-side checks run before an upload is
// allowed to reach the network.
package validate

import (
	"errors"
	"path/filepath"
	"strings"

	"campaignterm/internal/model"
)

const (
	MIMETypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	MIMETypeXLS  = "application/vnd.ms-excel"

	// MaxUploadBytes is the largest spreadsheet accepted for upload.
	MaxUploadBytes = 100 * 1024 * 1024
)

var (
	ErrUnsupportedType = errors.New("unsupported type")
	ErrTooLarge        = errors.New("too large")
	ErrMissingCampaign = errors.New("please select an email campaign")
	ErrMissingType     = errors.New("please select an email type")
	ErrMissingFile     = errors.New("please select an Excel file")
)

// Field names used in FieldError.
const (
	FieldCampaign  = "campaign"
	FieldEmailType = "email_type"
	FieldFile      = "file"
)

// FieldError ties a rejection reason to the input that caused it.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string { return e.Field + ": " + e.Err.Error() }
func (e *FieldError) Unwrap() error { return e.Err }

// Errors is the list of field-level reasons returned by ValidateSubmission.
type Errors []*FieldError

func (es Errors) Error() string {
	parts := make([]string, len(es))
	for i, e := range es {
		parts[i] = e.Error()
	}
	return strings.Join(parts, "; ")
}

// Unwrap lets errors.Is match any of the contained reasons.
func (es Errors) Unwrap() []error {
	out := make([]error, len(es))
	for i, e := range es {
		out[i] = e
	}
	return out
}

// For returns the reason recorded for field, or nil.
func (es Errors) For(field string) error {
	for _, e := range es {
		if e.Field == field {
			return e.Err
		}
	}
	return nil
}

// ValidateFile accepts only the two spreadsheet MIME types (exact,
// case-sensitive) up to MaxUploadBytes.
func ValidateFile(f model.UploadFile) error {
	if f.MIMEType != MIMETypeXLSX && f.MIMEType != MIMETypeXLS {
		return &FieldError{Field: FieldFile, Err: ErrUnsupportedType}
	}
	if f.Size > MaxUploadBytes {
		return &FieldError{Field: FieldFile, Err: ErrTooLarge}
	}
	return nil
}

// ValidateSubmission checks all three inputs and reports every invalid one.
// A nil file means none was selected.
func ValidateSubmission(campaign model.Campaign, emailType model.EmailType, f *model.UploadFile) error {
	var errs Errors
	if !campaign.Valid() {
		errs = append(errs, &FieldError{Field: FieldCampaign, Err: ErrMissingCampaign})
	}
	if !emailType.Valid() {
		errs = append(errs, &FieldError{Field: FieldEmailType, Err: ErrMissingType})
	}
	if f == nil {
		errs = append(errs, &FieldError{Field: FieldFile, Err: ErrMissingFile})
	} else if err := ValidateFile(*f); err != nil {
		var fe *FieldError
		if errors.As(err, &fe) {
			errs = append(errs, fe)
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// DetectMIME maps a spreadsheet file name to its MIME type. Unknown
// extensions yield "" and are rejected by ValidateFile.
func DetectMIME(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx":
		return MIMETypeXLSX
	case ".xls":
		return MIMETypeXLS
	}
	return ""
}
