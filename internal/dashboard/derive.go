package dashboard

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"crmdash/internal/model"
	"crmdash/internal/util"
)

// Notifications lists up to limit escalations that are not resolved, in
// load order.
func (d *Dashboard) Notifications(limit int) []model.Notification {
	return Notifications(d.Escalations.All(), limit)
}

// Notifications is the pure form of Dashboard.Notifications.
func Notifications(escalations []model.Escalation, limit int) []model.Notification {
	out := []model.Notification{}
	for _, e := range escalations {
		if isClosed(e.Status) {
			continue
		}
		if limit > 0 && len(out) == limit {
			break
		}
		priority := util.Capitalize(orDefault(e.Priority, "medium"))
		out = append(out, model.Notification{
			Title:    fmt.Sprintf("%s - %s priority", orDefault(e.CustomerName, "Unknown"), priority),
			Detail:   orDefault(e.Issue, "Escalation ticket"),
			Priority: priority,
		})
	}
	return out
}

// OpenEscalations counts escalations that are not resolved or closed.
func OpenEscalations(escalations []model.Escalation) int {
	n := 0
	for _, e := range escalations {
		if !isClosed(e.Status) {
			n++
		}
	}
	return n
}

// Activities merges the first five customers and leads into a feed, newest
// first, capped at limit.
func (d *Dashboard) Activities(limit int) []model.Activity {
	return Activities(d.Customers.All(), d.Leads.All(), limit)
}

// Activities is the pure form of Dashboard.Activities. Entries without a
// time sort last.
func Activities(customers []model.Customer, leads []model.Lead, limit int) []model.Activity {
	var out []model.Activity
	for _, c := range customers[:min(5, len(customers))] {
		detail := fmt.Sprintf("Status: %s • Prioritas %s",
			util.Capitalize(orDefault(c.Status, "active")), util.Capitalize(orDefault(c.Priority, "medium")))
		out = append(out, model.Activity{
			Title:  fmt.Sprintf("%s melakukan interaksi", orDefault(c.Name, "Unknown")),
			Detail: detail,
			Time:   c.LastContact,
		})
	}
	for _, l := range leads[:min(5, len(leads))] {
		out = append(out, model.Activity{
			Title:  fmt.Sprintf("Lead %s diperbarui", orDefault(l.Name, "Unknown")),
			Detail: fmt.Sprintf("Source %s • Score %s", orDefault(l.Source, "N/A"), util.FormatScore(l.Score)),
			Time:   l.FollowUp,
		})
	}

	slices.SortStableFunc(out, func(a, b model.Activity) int {
		switch {
		case a.Time == nil && b.Time == nil:
			return 0
		case a.Time == nil:
			return 1
		case b.Time == nil:
			return -1
		}
		return b.Time.Compare(*a.Time)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// CampaignSummary totals the loaded campaigns.
func (d *Dashboard) CampaignSummary() model.CampaignSummary {
	return SummarizeCampaigns(d.Campaigns.All())
}

// SummarizeCampaigns sums spend and leads and averages conversion and ROI.
// Missing values count as zero, so averages are over every campaign.
func SummarizeCampaigns(campaigns []model.Campaign) model.CampaignSummary {
	s := model.CampaignSummary{Count: len(campaigns)}
	if s.Count == 0 {
		return s
	}
	var conversion, roi float64
	for _, c := range campaigns {
		s.TotalSpend += value(c.Spend)
		s.TotalLeads += value(c.Leads)
		conversion += value(c.Conversion)
		roi += value(c.ROI)
	}
	s.AvgConversion = conversion / float64(s.Count)
	s.AvgROI = roi / float64(s.Count)
	return s
}

// Team ranks owners by handled customers.
func (d *Dashboard) Team(limit int) []model.TeamMember {
	return Leaderboard(d.Customers.All(), limit)
}

// defaultSLA is the response time assumed for customers that have none.
const defaultSLA = 30

// Leaderboard groups customers by owner. AvgSLA is the mean response time in
// minutes.
func Leaderboard(customers []model.Customer, limit int) []model.TeamMember {
	type acc struct {
		handled int
		sla     float64
	}
	byOwner := map[string]*acc{}
	var order []string
	for _, c := range customers {
		owner := c.Owner
		if owner == "" || owner == "Unassigned" {
			owner = "Tim A"
		}
		a, ok := byOwner[owner]
		if !ok {
			a = &acc{}
			byOwner[owner] = a
			order = append(order, owner)
		}
		a.handled++
		if c.ResponseTime != nil && *c.ResponseTime > 0 {
			a.sla += *c.ResponseTime
		} else {
			a.sla += defaultSLA
		}
	}

	out := make([]model.TeamMember, 0, len(order))
	for _, owner := range order {
		a := byOwner[owner]
		out = append(out, model.TeamMember{Name: owner, Handled: a.handled, AvgSLA: a.sla / float64(a.handled)})
	}
	slices.SortStableFunc(out, func(a, b model.TeamMember) int {
		return cmp.Compare(b.Handled, a.Handled)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func value(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func orDefault(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}
