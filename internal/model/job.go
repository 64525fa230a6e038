package model

import "time"

type Job struct {
	ID           int64      `json:"id"`
	UserID       int64      `json:"user_id"`
	Title        string     `json:"title"`
	CompanyName  string     `json:"company_name"`
	CompanyEmail string     `json:"company_email"`
	Location     string     `json:"location"`
	Description  string     `json:"description"`
	JobURL       string     `json:"job_url"`
	PostedAt     *time.Time `json:"posted_at"`
	ScrapedAt    time.Time  `json:"scraped_at"`
}

type EmailApplication struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"user_id"`
	JobTitle     string    `json:"job_title"`
	CompanyName  string    `json:"company_name"`
	CompanyEmail string    `json:"company_email"`
	JobURL       string    `json:"job_url"`
	Subject      string    `json:"subject"`
	SentAt       time.Time `json:"sent_at"`
}

// Stats aggregates a user's application activity.
type Stats struct {
	TotalApplications    int  `json:"total_applications"`
	ApplicationsThisWeek int  `json:"applications_this_week"`
	CompaniesContacted   int  `json:"companies_contacted"`
	JobsFound            int  `json:"jobs_found"`
	Tier                 Tier `json:"tier"`
}
