package model

import "time"

// Bubble Tea message types

// ErrorMsg represents an error message.
type ErrorMsg struct {
	Err error
}

// StoreChangedMsg is sent when a query store publishes a new state. The UI
// reads the state back from the store itself.
type StoreChangedMsg struct {
	Resource Resource
}

// RelatedChangedMsg is sent when the detail screen's filtered views change.
type RelatedChangedMsg struct{}

// RefreshDoneMsg is sent when a manual refresh of every resource returned.
type RefreshDoneMsg struct{}

// TickMsg drives the refresh countdown. Gen is the scheduler generation the
// tick was scheduled for.
type TickMsg struct {
	Gen uint64
	At  time.Time
}

// ExportDoneMsg is sent when a CSV export finished.
type ExportDoneMsg struct {
	Location string
	Rows     int
	Err      error
}

// ConfigReloadedMsg is sent when the config file changed on disk.
type ConfigReloadedMsg struct {
	RefreshIntervalMs int
	PageSizes         []int
}

// Screen represents different app screens.
type Screen int

const (
	ScreenCustomers Screen = iota
	ScreenLeads
	ScreenEscalations
	ScreenCampaigns
	ScreenCustomerDetail
)

// Tabs lists the list screens in tab order.
var Tabs = []Screen{ScreenCustomers, ScreenLeads, ScreenEscalations, ScreenCampaigns}

func (s Screen) String() string {
	switch s {
	case ScreenCustomers:
		return "Customers"
	case ScreenLeads:
		return "Leads"
	case ScreenEscalations:
		return "Escalations"
	case ScreenCampaigns:
		return "Campaigns"
	case ScreenCustomerDetail:
		return "Customer"
	}
	return "Unknown"
}

// Mode represents the current interaction mode.
type Mode int

const (
	ModeNav Mode = iota
	ModeSearch
)
