package models

import "time"

// Participant is one side of a conversation (job seeker or employer).
type Participant struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Role        string `json:"role"`
	CompanyName string `json:"companyName,omitempty"`
}

// JobRef links a conversation to the job post it was opened on.
type JobRef struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

// Conversation is the thread between one job seeker and one employer,
// scoped to a job. Created by the backend on first contact; from the
// client's perspective it is never deleted.
type Conversation struct {
	ID        int64       `json:"id"`
	JobSeeker Participant `json:"jobSeeker"`
	Employer  Participant `json:"employer"`
	Job       JobRef      `json:"job"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

// Other returns the participant that is not userID.
func (c *Conversation) Other(userID int64) Participant {
	if c.JobSeeker.ID == userID {
		return c.Employer
	}
	return c.JobSeeker
}

// Pagination is the paging block the messages endpoint returns.
type Pagination struct {
	Page       int `json:"page"`
	TotalPages int `json:"totalPages"`
}
