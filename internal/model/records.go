package model

import (
	"strings"
	"time"

	"crmdash/internal/normalize"
)

// NewCustomer maps a raw backend record onto a Customer, falling back to
// the aliases the webhooks have used over time.
func NewCustomer(rec normalize.Record) Customer {
	c := Customer{
		Name:     normalize.ResolveString(rec, []string{"name", "customer_name"}, "Unknown Customer"),
		Phone:    normalize.ResolveString(rec, []string{"phone", "whatsapp"}, "-"),
		Email:    normalize.ResolveString(rec, []string{"email"}, ""),
		Status:   lower(normalize.ResolveString(rec, []string{"status", "customer_status"}, "active")),
		Priority: lower(normalize.ResolveString(rec, []string{"priority", "customer_priority", "priority_level"}, "medium")),
		Owner:    normalize.ResolveString(rec, []string{"owner", "agent", "assigned_to"}, ""),
	}
	c.ID = normalize.ResolveString(rec, []string{"phone", "customer_id", "id", "email", "name"}, c.Name)
	c.LastContact = timePtr(rec, "last_contact", "last_interaction")
	c.ResponseTime = numberPtr(rec, "response_time", "avg_response_time")
	return c
}

// NewLead maps a raw backend record onto a Lead.
func NewLead(rec normalize.Record) Lead {
	l := Lead{
		Name:    normalize.ResolveString(rec, []string{"name"}, "Unknown Lead"),
		Contact: normalize.ResolveString(rec, []string{"phone", "email"}, "-"),
		Source:  normalize.ResolveString(rec, []string{"source", "market_segment"}, "N/A"),
		Status:  lower(normalize.ResolveString(rec, []string{"status"}, "new")),
		Owner:   normalize.ResolveString(rec, []string{"owner", "assignee"}, "Unassigned"),
	}
	l.ID = normalize.ResolveString(rec, []string{"id", "phone"}, l.Name+"-"+l.Source)
	l.Score = numberPtr(rec, "lead_score", "score", "score_value")
	l.FollowUp = timePtr(rec, "follow_up", "follow_up_date", "last_interaction")
	return l
}

// NewEscalation maps a raw backend record onto an Escalation.
func NewEscalation(rec normalize.Record) Escalation {
	e := Escalation{
		CustomerName: normalize.ResolveString(rec, []string{"customer_name", "name"}, "Unknown"),
		Contact:      normalize.ResolveString(rec, []string{"customer_phone", "contact", "phone"}, "-"),
		Issue:        normalize.ResolveString(rec, []string{"issue", "escalation_type", "reason"}, "Escalation ticket"),
		Priority:     lower(normalize.ResolveString(rec, []string{"priority"}, "medium")),
		Status:       lower(normalize.ResolveString(rec, []string{"status"}, "open")),
	}
	e.CreatedAt = timePtr(rec, "created_at", "createdAt", "created", "updated_at")
	fallbackID := e.CustomerName
	if e.CreatedAt != nil {
		fallbackID += "-" + e.CreatedAt.Format(time.RFC3339)
	}
	e.ID = normalize.ResolveString(rec, []string{"id", "escalation_id"}, fallbackID)
	return e
}

// NewCampaign maps a raw backend record onto a Campaign.
func NewCampaign(rec normalize.Record) Campaign {
	c := Campaign{
		Name:    normalize.ResolveString(rec, []string{"campaign_name", "name"}, "Tanpa Nama"),
		Channel: normalize.ResolveString(rec, []string{"channel", "source"}, "-"),
		Status:  normalize.ResolveString(rec, []string{"status", "stage"}, "-"),
	}
	c.ID = normalize.ResolveString(rec, []string{"id", "campaign_id"}, c.Name)
	c.Spend = numberPtr(rec, "spend", "total_spend", "cost")
	c.Leads = numberPtr(rec, "leads", "leads_generated", "total_leads")
	if v := numberPtr(rec, "conversion_rate", "cvr", "conversion"); v != nil {
		p := normalize.ResolvePercentage(*v)
		c.Conversion = &p
	}
	if v := numberPtr(rec, "roi", "return_on_investment"); v != nil {
		p := normalize.ResolvePercentage(*v)
		c.ROI = &p
	}
	return c
}

// NewQuickStats maps the quick-stats payload. The payload is a single
// object, bare, under "data", or as the first element of a list.
func NewQuickStats(v any) QuickStats {
	rec := statsRecord(v)
	s := QuickStats{
		TotalCustomers:   normalize.ResolveNumeric(rec, []string{"totalCustomers", "total_customers"}, 0),
		TotalLeads:       normalize.ResolveNumeric(rec, []string{"totalLeads", "total_leads"}, 0),
		TotalEscalations: normalize.ResolveNumeric(rec, []string{"totalEscalations", "total_escalations"}, 0),
		ResponseRate:     normalize.ResolveNumeric(rec, []string{"responseRate", "response_rate"}, 0),

		CustomersDelta:   numberPtr(rec, "customersDelta", "customers_delta"),
		LeadsDelta:       numberPtr(rec, "leadsDelta", "leads_delta"),
		EscalationsDelta: numberPtr(rec, "escalationsDelta", "escalations_delta"),
		ResponseDelta:    numberPtr(rec, "responseDelta", "response_delta"),

		CustomersPeriod:   normalize.ResolveString(rec, []string{"customersPeriod", "customers_period"}, "vs minggu lalu"),
		LeadsPeriod:       normalize.ResolveString(rec, []string{"leadsPeriod", "leads_period"}, "vs minggu lalu"),
		EscalationsPeriod: normalize.ResolveString(rec, []string{"escalationsPeriod", "escalations_period"}, "vs minggu lalu"),
		ResponsePeriod:    normalize.ResolveString(rec, []string{"responsePeriod", "response_period"}, "SLA realtime"),
	}
	if s.ResponseRate > 0 {
		s.ResponseRate = normalize.ResolvePercentage(s.ResponseRate)
	}
	return s
}

func statsRecord(v any) normalize.Record {
	shape := normalize.Classify(v)
	if shape.Kind == normalize.KindObject {
		rec := shape.Object
		if inner, ok := rec["data"].(normalize.Record); ok {
			rec = inner
		}
		if inner, ok := rec["json"].(normalize.Record); ok {
			rec = inner
		}
		return rec
	}
	if recs := normalize.EnsureSequence(v); len(recs) > 0 {
		return recs[0]
	}
	return nil
}

// Customers normalizes any payload shape into customers.
func Customers(v any) []Customer { return mapRecords(v, NewCustomer) }

// Leads normalizes any payload shape into leads.
func Leads(v any) []Lead { return mapRecords(v, NewLead) }

// Escalations normalizes any payload shape into escalations.
func Escalations(v any) []Escalation { return mapRecords(v, NewEscalation) }

// Campaigns normalizes any payload shape into campaigns.
func Campaigns(v any) []Campaign { return mapRecords(v, NewCampaign) }

func mapRecords[T any](v any, fn func(normalize.Record) T) []T {
	recs := normalize.NormalizeList(v).Items
	out := make([]T, 0, len(recs))
	for _, rec := range recs {
		out = append(out, fn(rec))
	}
	return out
}

func numberPtr(rec normalize.Record, keys ...string) *float64 {
	v, ok := normalize.LookupNumeric(rec, keys...)
	if !ok {
		return nil
	}
	return &v
}

func timePtr(rec normalize.Record, keys ...string) *time.Time {
	t, ok := normalize.ResolveTime(rec, keys...)
	if !ok {
		return nil
	}
	return &t
}

func lower(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
