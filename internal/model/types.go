package model

import "time"

// Customer represents a customer row from the CRM.
type Customer struct {
	ID           string
	Name         string
	Phone        string
	Email        string
	Status       string // lowercase, e.g. active, inactive
	Priority     string // lowercase: low, medium, high
	Owner        string
	LastContact  *time.Time
	ResponseTime *float64 // minutes
}

// Lead represents a marketing lead.
type Lead struct {
	ID       string
	Name     string
	Contact  string
	Source   string
	Status   string
	Score    *float64
	FollowUp *time.Time
	Owner    string
}

// Escalation represents an escalated support ticket.
type Escalation struct {
	ID           string
	CustomerName string
	Contact      string
	Issue        string
	Priority     string
	Status       string
	CreatedAt    *time.Time
}

// Campaign represents one marketing campaign's performance.
type Campaign struct {
	ID         string
	Name       string
	Channel    string
	Status     string
	Spend      *float64
	Leads      *float64
	Conversion *float64 // percent
	ROI        *float64 // percent
}

// QuickStats holds the headline counters shown above the tables.
type QuickStats struct {
	TotalCustomers   float64
	TotalLeads       float64
	TotalEscalations float64
	ResponseRate     float64 // percent

	CustomersDelta   *float64
	LeadsDelta       *float64
	EscalationsDelta *float64
	ResponseDelta    *float64

	CustomersPeriod   string
	LeadsPeriod       string
	EscalationsPeriod string
	ResponsePeriod    string
}

// CampaignSummary aggregates a set of campaigns.
type CampaignSummary struct {
	Count         int
	TotalLeads    float64
	TotalSpend    float64
	AvgConversion float64
	AvgROI        float64
}

// Notification is an open escalation surfaced in the header.
type Notification struct {
	Title    string
	Detail   string
	Priority string
}

// Activity is one entry of the recent activity feed.
type Activity struct {
	Title  string
	Detail string
	Time   *time.Time
}

// TeamMember is one owner's workload on the leaderboard.
type TeamMember struct {
	Name    string
	Handled int
	AvgSLA  float64 // minutes
}

// Field implements table.Fielder.
func (c Customer) Field(key string) any {
	switch key {
	case "id":
		return c.ID
	case "name":
		return c.Name
	case "phone":
		return c.Phone
	case "email":
		return c.Email
	case "status":
		return c.Status
	case "priority":
		return c.Priority
	case "owner":
		return c.Owner
	case "last_contact":
		return c.LastContact
	case "response_time":
		return c.ResponseTime
	}
	return nil
}

// Field implements table.Fielder.
func (l Lead) Field(key string) any {
	switch key {
	case "id":
		return l.ID
	case "name":
		return l.Name
	case "contact":
		return l.Contact
	case "source":
		return l.Source
	case "status":
		return l.Status
	case "score":
		return l.Score
	case "follow_up":
		return l.FollowUp
	case "owner":
		return l.Owner
	}
	return nil
}

// Field implements table.Fielder.
func (e Escalation) Field(key string) any {
	switch key {
	case "id":
		return e.ID
	case "customer_name":
		return e.CustomerName
	case "contact":
		return e.Contact
	case "issue":
		return e.Issue
	case "priority":
		return e.Priority
	case "status":
		return e.Status
	case "created_at":
		return e.CreatedAt
	}
	return nil
}

// Field implements table.Fielder.
func (c Campaign) Field(key string) any {
	switch key {
	case "id":
		return c.ID
	case "name":
		return c.Name
	case "channel":
		return c.Channel
	case "status":
		return c.Status
	case "spend":
		return c.Spend
	case "leads":
		return c.Leads
	case "conversion":
		return c.Conversion
	case "roi":
		return c.ROI
	}
	return nil
}

// Resource names one dataset fetched from the backend.
type Resource string

const (
	ResourceCustomers   Resource = "customers"
	ResourceLeads       Resource = "leads"
	ResourceEscalations Resource = "escalations"
	ResourceCampaigns   Resource = "campaigns"
	ResourceStats       Resource = "quick_stats"
)

// Resources lists every dataset in load order.
var Resources = []Resource{
	ResourceCustomers,
	ResourceLeads,
	ResourceEscalations,
	ResourceCampaigns,
	ResourceStats,
}
