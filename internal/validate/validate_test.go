package validate

import (
	"errors"
	"testing"

	"campaignterm/internal/model"
)

func TestValidateFile(t *testing.T) {
	tests := []struct {
		name string
		file model.UploadFile
		want error
	}{
		{"xlsx", model.UploadFile{MIMEType: MIMETypeXLSX, Size: 1024}, nil},
		{"xls", model.UploadFile{MIMEType: MIMETypeXLS, Size: 1024}, nil},
		{"exact limit", model.UploadFile{MIMEType: MIMETypeXLSX, Size: MaxUploadBytes}, nil},
		{"one byte over", model.UploadFile{MIMEType: MIMETypeXLSX, Size: MaxUploadBytes + 1}, ErrTooLarge},
		{"csv", model.UploadFile{MIMEType: "text/csv", Size: 10}, ErrUnsupportedType},
		{"case sensitive", model.UploadFile{MIMEType: "Application/vnd.ms-excel", Size: 10}, ErrUnsupportedType},
		{"empty mime", model.UploadFile{Size: 10}, ErrUnsupportedType},
	}
	for _, tc := range tests {
		err := ValidateFile(tc.file)
		if tc.want == nil {
			if err != nil {
				t.Errorf("%s: unexpected error %v", tc.name, err)
			}
			continue
		}
		if !errors.Is(err, tc.want) {
			t.Errorf("%s: got %v; want %v", tc.name, err, tc.want)
		}
	}
}

func TestValidateSubmission_ReportsAllFields(t *testing.T) {
	err := ValidateSubmission("", "", nil)
	var errs Errors
	if !errors.As(err, &errs) {
		t.Fatalf("expected Errors, got %T %v", err, err)
	}
	if len(errs) != 3 {
		t.Fatalf("expected 3 reasons, got %d: %v", len(errs), errs)
	}
	if errs.For(FieldCampaign) != ErrMissingCampaign {
		t.Errorf("campaign reason = %v", errs.For(FieldCampaign))
	}
	if errs.For(FieldEmailType) != ErrMissingType {
		t.Errorf("email type reason = %v", errs.For(FieldEmailType))
	}
	if errs.For(FieldFile) != ErrMissingFile {
		t.Errorf("file reason = %v", errs.For(FieldFile))
	}
}

func TestValidateSubmission_FileReasonAlongsideOthers(t *testing.T) {
	f := &model.UploadFile{Name: "a.csv", MIMEType: "text/csv", Size: 1}
	err := ValidateSubmission(model.CampaignGOLY, "bogus", f)
	var errs Errors
	if !errors.As(err, &errs) {
		t.Fatalf("expected Errors, got %v", err)
	}
	if len(errs) != 2 {
		t.Fatalf("expected 2 reasons, got %v", errs)
	}
	if !errors.Is(err, ErrUnsupportedType) || !errors.Is(err, ErrMissingType) {
		t.Errorf("errors.Is did not match contained reasons: %v", err)
	}
}

func TestValidateSubmission_OK(t *testing.T) {
	f := &model.UploadFile{Name: "a.xlsx", MIMEType: MIMETypeXLSX, Size: 1}
	if err := ValidateSubmission(model.CampaignMPLY, model.EmailTypeFollowUp1, f); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDetectMIME(t *testing.T) {
	tests := []struct{ in, want string }{
		{"report.xlsx", MIMETypeXLSX},
		{"REPORT.XLS", MIMETypeXLS},
		{"notes.csv", ""},
		{"noext", ""},
	}
	for _, tc := range tests {
		if got := DetectMIME(tc.in); got != tc.want {
			t.Errorf("DetectMIME(%q) = %q; want %q", tc.in, got, tc.want)
		}
	}
}
