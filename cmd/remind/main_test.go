package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/job-tracker/internal/model"
)

func TestWriteDue_SnakeCase(t *testing.T) {
	target := model.NewDate(2026, 10, 22)
	due := []model.Reminder{{
		JobID:     "job-1",
		Company:   "Acme",
		Role:      "Backend Engineer",
		Deadline:  target,
		UserName:  "Ada",
		UserEmail: "ada@example.com",
	}}

	var buf bytes.Buffer
	require.NoError(t, writeDue(&buf, target, due))

	assert.JSONEq(t, `{
		"target": "2026-10-22",
		"due": [{
			"job_id": "job-1",
			"company": "Acme",
			"role": "Backend Engineer",
			"deadline": "2026-10-22",
			"user_name": "Ada",
			"user_email": "ada@example.com"
		}]
	}`, buf.String())
}

func TestWriteDue_NothingDue(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeDue(&buf, model.NewDate(2026, 10, 22), nil))

	assert.JSONEq(t, `{"target":"2026-10-22","due":[]}`, buf.String())
}
