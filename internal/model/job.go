package model

import "time"

// Well-known job statuses. Status is an open string: clients may store
// anything, these are just the values the UI offers and the default.
const (
	StatusApplied   = "Applied"
	StatusInterview = "Interview"
	StatusOffer     = "Offer"
	StatusRejected  = "Rejected"
)

// Job is one tracked application, owned by exactly one User.
//
// NULLABLE COLUMNS:
// Deadline, AppliedThrough and InterviewDate are pointers so that "not set"
// (nil → SQL NULL → JSON null) is distinct from a zero value.
//
// ReminderSent flips from false to true once, after the deadline reminder
// email has been delivered. Nothing in the API ever sets it back.
type Job struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	Company        string    `json:"company"`
	Role           string    `json:"role"`
	Status         string    `json:"status"`
	Deadline       *Date     `json:"deadline"`
	AppliedThrough *string   `json:"applied_through"`
	InterviewDate  *Date     `json:"interview_date"`
	ReminderSent   bool      `json:"reminder_sent"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Reminder is the read model produced by the reminder scan: one job with a
// deadline inside the reminder window, joined with its owner's contact.
type Reminder struct {
	JobID     string `json:"job_id"`
	Company   string `json:"company"`
	Role      string `json:"role"`
	Deadline  Date   `json:"deadline"`
	UserName  string `json:"user_name"`
	UserEmail string `json:"user_email"`
}
