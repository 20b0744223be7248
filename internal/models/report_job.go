package models

import (
	"database/sql/driver"
	"time"
)

// ReportFormat is the file type of a behavior-log export.
type ReportFormat string

const (
	ReportFormatCSV ReportFormat = "csv"
	ReportFormatPDF ReportFormat = "pdf"
)

// ContentType returns the MIME type served for the format.
func (f ReportFormat) ContentType() string {
	if f == ReportFormatPDF {
		return "application/pdf"
	}
	return "text/csv"
}

// ReportStatus is the lifecycle state of an export.
type ReportStatus string

// QUEUED -> PROCESSING -> FINISHED | FAILED. A failed attempt with retries
// left goes back to QUEUED.
const (
	ReportStatusQueued     ReportStatus = "QUEUED"
	ReportStatusProcessing ReportStatus = "PROCESSING"
	ReportStatusFinished   ReportStatus = "FINISHED"
	ReportStatusFailed     ReportStatus = "FAILED"
)

// Terminal reports whether no worker will touch the job again.
func (s ReportStatus) Terminal() bool {
	return s == ReportStatusFinished || s == ReportStatusFailed
}

// ReportJob is a persisted behavior-log export owned by one account.
type ReportJob struct {
	ID           string          `db:"id" json:"id"`
	AccountID    string          `db:"account_id" json:"-"`
	Params       ReportJobParams `db:"params" json:"params"`
	Status       ReportStatus    `db:"status" json:"status"`
	Progress     int             `db:"progress" json:"progress"`
	ResultURL    *string         `db:"result_url" json:"resultUrl,omitempty"`
	ErrorMessage *string         `db:"error_message" json:"errorMessage,omitempty"`
	CreatedAt    time.Time       `db:"created_at" json:"createdAt"`
	FinishedAt   *time.Time      `db:"finished_at" json:"finishedAt,omitempty"`
}

// ReportJobParams selects the behavior entries to export.
type ReportJobParams struct {
	Format    ReportFormat `json:"format" validate:"oneof=csv pdf"`
	DateFrom  string       `json:"dateFrom,omitempty" validate:"omitempty,datetime=2006-01-02"`
	DateTo    string       `json:"dateTo,omitempty" validate:"omitempty,datetime=2006-01-02"`
	ProfileID string       `json:"profileId,omitempty"`
}

func (p ReportJobParams) Value() (driver.Value, error) {
	return marshalColumn("report params", p)
}

func (p *ReportJobParams) Scan(value interface{}) error {
	var out ReportJobParams
	if _, err := scanColumn("report params", value, &out); err != nil {
		return err
	}
	*p = out
	return nil
}
