package dashboard

import (
	"crmdash/internal/model"
	"crmdash/internal/table"
	"crmdash/internal/util"
)

// Filter options per list. The first option is the default.
var (
	CustomerFilters   = []string{FilterAll, "high", "medium", "low"}
	LeadFilters       = []string{FilterAll, "new", "contacted", "qualified", "converted", "lost"}
	EscalationFilters = []string{FilterAll, "open", "in_progress", "resolved"}
	CampaignFilters   = []string{FilterAll, "active", "paused", "completed", "draft"}
)

func customerColumns() []table.Column[model.Customer] {
	return []table.Column[model.Customer]{
		{Key: "name", Label: "Nama", Width: 22, Sortable: true},
		{Key: "phone", Label: "Telepon", Width: 15, Sortable: true},
		{Key: "email", Label: "Email", Width: 24, Sortable: true},
		{Key: "status", Label: "Status", Width: 10, Sortable: true,
			Render: func(c model.Customer) string { return util.Capitalize(c.Status) }},
		{Key: "priority", Label: "Prioritas", Width: 10, Sortable: true,
			Render: func(c model.Customer) string { return util.Capitalize(c.Priority) }},
		{Key: "owner", Label: "PIC", Width: 12, Sortable: true},
		{Key: "last_contact", Label: "Kontak Terakhir", Width: 18, Sortable: true, ExcludeFromSearch: true,
			Render: func(c model.Customer) string { return util.FormatDate(c.LastContact) }},
		{Key: "response_time", Label: "Respon", Width: 8, Sortable: true, ExcludeFromSearch: true,
			Render: func(c model.Customer) string { return util.FormatMinutes(c.ResponseTime) }},
	}
}

func leadColumns() []table.Column[model.Lead] {
	return []table.Column[model.Lead]{
		{Key: "name", Label: "Nama", Width: 22, Sortable: true},
		{Key: "contact", Label: "Kontak", Width: 18, Sortable: true},
		{Key: "source", Label: "Sumber", Width: 14, Sortable: true},
		{Key: "status", Label: "Status", Width: 11, Sortable: true,
			Render: func(l model.Lead) string { return util.Capitalize(l.Status) }},
		{Key: "score", Label: "Skor", Width: 6, Sortable: true, ExcludeFromSearch: true,
			Render: func(l model.Lead) string { return util.FormatScore(l.Score) }},
		{Key: "follow_up", Label: "Follow Up", Width: 18, Sortable: true, ExcludeFromSearch: true,
			Render: func(l model.Lead) string { return util.FormatDate(l.FollowUp) }},
		{Key: "owner", Label: "PIC", Width: 12, Sortable: true},
	}
}

func escalationColumns() []table.Column[model.Escalation] {
	return []table.Column[model.Escalation]{
		{Key: "id", Label: "ID", Width: 10, ExcludeFromSearch: true},
		{Key: "customer_name", Label: "Pelanggan", Width: 20, Sortable: true},
		{Key: "contact", Label: "Kontak", Width: 15, Sortable: true},
		{Key: "issue", Label: "Masalah", Width: 26, Sortable: true},
		{Key: "priority", Label: "Prioritas", Width: 10, Sortable: true,
			Render: func(e model.Escalation) string { return util.Capitalize(e.Priority) }},
		{Key: "status", Label: "Status", Width: 12, Sortable: true,
			Render: func(e model.Escalation) string { return util.Capitalize(e.Status) }},
		{Key: "created_at", Label: "Dibuat", Width: 18, Sortable: true, ExcludeFromSearch: true,
			Render: func(e model.Escalation) string { return util.FormatDate(e.CreatedAt) }},
	}
}

func campaignColumns() []table.Column[model.Campaign] {
	return []table.Column[model.Campaign]{
		{Key: "name", Label: "Kampanye", Width: 22, Sortable: true},
		{Key: "channel", Label: "Channel", Width: 14, Sortable: true},
		{Key: "status", Label: "Status", Width: 10, Sortable: true,
			Render: func(c model.Campaign) string { return util.Capitalize(c.Status) }},
		{Key: "spend", Label: "Biaya", Width: 16, Sortable: true, ExcludeFromSearch: true,
			Render: func(c model.Campaign) string { return util.FormatCurrency(c.Spend) }},
		{Key: "leads", Label: "Leads", Width: 8, Sortable: true, ExcludeFromSearch: true,
			Render: func(c model.Campaign) string { return util.FormatNumberPtr(c.Leads) }},
		{Key: "conversion", Label: "Konversi", Width: 9, Sortable: true, ExcludeFromSearch: true,
			Render: func(c model.Campaign) string { return util.FormatPercent(c.Conversion) }},
		{Key: "roi", Label: "ROI", Width: 9, Sortable: true, ExcludeFromSearch: true,
			Render: func(c model.Campaign) string { return util.FormatPercent(c.ROI) }},
	}
}
