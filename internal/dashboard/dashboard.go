// Package dashboard wires each CRM list to its own query store and table
// controller, and derives the header widgets from the loaded data.
package dashboard

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"crmdash/internal/model"
	"crmdash/internal/query"
	"crmdash/internal/source"
)

// Options configures a Dashboard.
type Options struct {
	PageSizes []int
	Logger    zerolog.Logger
	Observer  query.Observer
}

// Dashboard is one independent set of views. Nothing in it is global; two
// dashboards over different sources never share state.
type Dashboard struct {
	Customers   *View[model.Customer]
	Leads       *View[model.Lead]
	Escalations *View[model.Escalation]
	Campaigns   *View[model.Campaign]
	Stats       *query.Store[model.QuickStats]

	stats    model.QuickStats
	hasStats bool
	logger   zerolog.Logger
}

// New builds the stores and views for every resource of src.
func New(src source.Source, opts Options) *Dashboard {
	storeOpts := []query.Option{query.WithLogger(opts.Logger)}
	if opts.Observer != nil {
		storeOpts = append(storeOpts, query.WithObserver(opts.Observer))
	}
	return &Dashboard{
		Customers: NewView(model.ResourceCustomers, "Customers",
			query.NewStore(string(model.ResourceCustomers), source.Customers(src), storeOpts...),
			customerColumns(),
			equalFilter(func(c model.Customer) string { return c.Priority }),
			CustomerFilters, opts.PageSizes),
		Leads: NewView(model.ResourceLeads, "Leads",
			query.NewStore(string(model.ResourceLeads), source.Leads(src), storeOpts...),
			leadColumns(),
			equalFilter(func(l model.Lead) string { return l.Status }),
			LeadFilters, opts.PageSizes),
		Escalations: NewView(model.ResourceEscalations, "Escalations",
			query.NewStore(string(model.ResourceEscalations), source.Escalations(src), storeOpts...),
			escalationColumns(),
			escalationFilter,
			EscalationFilters, opts.PageSizes),
		Campaigns: NewView(model.ResourceCampaigns, "Campaigns",
			query.NewStore(string(model.ResourceCampaigns), source.Campaigns(src), storeOpts...),
			campaignColumns(),
			equalFilter(func(c model.Campaign) string { return c.Status }),
			CampaignFilters, opts.PageSizes),
		Stats:  query.NewStore(string(model.ResourceStats), source.Stats(src), storeOpts...),
		logger: opts.Logger,
	}
}

// Grids returns the list views in tab order.
func (d *Dashboard) Grids() []Grid {
	return []Grid{d.Customers, d.Leads, d.Escalations, d.Campaigns}
}

// Grid looks up a list view by resource name or tab title.
func (d *Dashboard) Grid(name string) (Grid, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, g := range d.Grids() {
		if string(g.Resource()) == name || strings.ToLower(g.Title()) == name {
			return g, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", source.ErrUnknownResource, name)
}

// Subscribe calls fn with the resource name after every state change of any
// store. fn runs on the goroutine that drove the change.
func (d *Dashboard) Subscribe(fn func(model.Resource)) (unsubscribe func()) {
	unsubs := []func(){
		d.Customers.Store.Subscribe(func(query.State[[]model.Customer]) { fn(model.ResourceCustomers) }),
		d.Leads.Store.Subscribe(func(query.State[[]model.Lead]) { fn(model.ResourceLeads) }),
		d.Escalations.Store.Subscribe(func(query.State[[]model.Escalation]) { fn(model.ResourceEscalations) }),
		d.Campaigns.Store.Subscribe(func(query.State[[]model.Campaign]) { fn(model.ResourceCampaigns) }),
		d.Stats.Subscribe(func(query.State[model.QuickStats]) { fn(model.ResourceStats) }),
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}

// Refresh reloads one resource. It reports false when a load for it was
// already running.
func (d *Dashboard) Refresh(ctx context.Context, res model.Resource) bool {
	if res == model.ResourceStats {
		return d.Stats.Refresh(ctx)
	}
	for _, g := range d.Grids() {
		if g.Resource() == res {
			return g.Refresh(ctx)
		}
	}
	return false
}

// RefreshAll reloads every resource concurrently and waits for all of them.
// Failures land in the stores' error states.
func (d *Dashboard) RefreshAll(ctx context.Context) {
	d.logger.Debug().Msg("refreshing all resources")
	var g errgroup.Group
	for _, res := range model.Resources {
		g.Go(func() error {
			d.Refresh(ctx, res)
			return nil
		})
	}
	_ = g.Wait()
}

// Sync pulls the latest store state for res into its view. Call it from
// the goroutine that renders.
func (d *Dashboard) Sync(res model.Resource) query.Status {
	if res == model.ResourceStats {
		st := d.Stats.State()
		if st.Status == query.StatusSuccess {
			d.stats = st.Data
			d.hasStats = true
		}
		return st.Status
	}
	for _, g := range d.Grids() {
		if g.Resource() == res {
			return g.Sync()
		}
	}
	return query.StatusIdle
}

// SyncAll syncs every resource.
func (d *Dashboard) SyncAll() {
	for _, res := range model.Resources {
		d.Sync(res)
	}
}

// QuickStats returns the last successfully loaded stats.
func (d *Dashboard) QuickStats() (model.QuickStats, bool) {
	return d.stats, d.hasStats
}

// StatsErr returns the error of the last stats load, if it failed.
func (d *Dashboard) StatsErr() error {
	return d.Stats.State().Err
}

// Loading reports whether any store has a load in flight.
func (d *Dashboard) Loading() bool {
	if d.Stats.Loading() {
		return true
	}
	return d.Customers.Store.Loading() || d.Leads.Store.Loading() ||
		d.Escalations.Store.Loading() || d.Campaigns.Store.Loading()
}

// SetPageSizes applies new page size options to every list.
func (d *Dashboard) SetPageSizes(sizes []int) {
	for _, g := range d.Grids() {
		g.SetPageSizes(sizes)
	}
}
