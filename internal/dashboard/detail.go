package dashboard

import (
	"crmdash/internal/model"
	"crmdash/internal/query"
)

// Detail is the customer screen: the customer plus the leads and
// escalations that share its phone number, or its name when the phone is
// unknown. Both lists follow their stores live until Close.
type Detail struct {
	Customer    model.Customer
	Leads       *query.FilterView[model.Lead]
	Escalations *query.FilterView[model.Escalation]

	unsubs []func()
}

var (
	matchLead = query.MatchFields(
		func(l model.Lead) string { return l.Contact },
		func(l model.Lead) string { return l.Name },
	)
	matchEscalation = query.MatchFields(
		func(e model.Escalation) string { return e.Contact },
		func(e model.Escalation) string { return e.CustomerName },
	)
)

// OpenDetail builds the detail views for c. onChange, if set, is called
// whenever either related list changes.
func (d *Dashboard) OpenDetail(c model.Customer, onChange func()) *Detail {
	dt := &Detail{
		Customer:    c,
		Leads:       query.NewFilterView(d.Leads.Store, matchLead),
		Escalations: query.NewFilterView(d.Escalations.Store, matchEscalation),
	}
	term := relatedTerm(c)
	dt.Leads.SetSearch(term)
	dt.Escalations.SetSearch(term)
	if onChange != nil {
		dt.unsubs = append(dt.unsubs,
			dt.Leads.Subscribe(func([]model.Lead) { onChange() }),
			dt.Escalations.Subscribe(func([]model.Escalation) { onChange() }),
		)
	}
	return dt
}

func relatedTerm(c model.Customer) string {
	if c.Phone != "" && c.Phone != "-" {
		return c.Phone
	}
	return c.Name
}

// Close detaches the views from their stores.
func (dt *Detail) Close() {
	for _, u := range dt.unsubs {
		u()
	}
	dt.Leads.Close()
	dt.Escalations.Close()
}
