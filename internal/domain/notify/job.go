package notify

import "time"

// Channel is a delivery medium.
type Channel string

const (
	ChannelEmail Channel = "EMAIL"
	ChannelSMS   Channel = "SMS"
)

// JobStatus is the lifecycle state of a notification job.
type JobStatus string

const (
	JobPending JobStatus = "PENDING"
	JobSent    JobStatus = "SENT"
	JobFailed  JobStatus = "FAILED"
)

// Job is one notification to one recipient. Jobs are ephemeral: built per
// scan cycle, sent once, and kept only as an audit record afterwards.
type Job struct {
	ID         int64
	UserID     int64
	Recipient  string // resolved address for the channel
	Channel    Channel
	TemplateID string
	Payload    map[string]any
	Status     JobStatus
	SentAt     time.Time // zero until a terminal state is reached
	DurationMS int64     // wall time spent in the send call
	CreatedAt  time.Time
}

// Attempt records a single provider delivery attempt for a job. Attempts
// are appended in fallback priority order: the audit therefore shows the
// primary provider's failure before the secondary's success.
type Attempt struct {
	Provider  string
	At        time.Time
	OK        bool
	Skipped   bool // provider had no credentials, no network call was made
	MessageID string
	Err       string
}
