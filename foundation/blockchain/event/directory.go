package event

import (
	"errors"
	"sync"
)

// ErrExists is returned when an event is added for an address that already
// has one.
var ErrExists = errors.New("event already exists")

// Directory maintains the events by address. Events are inserted once and
// never deleted.
type Directory struct {
	mu     sync.RWMutex
	events map[string]Event
	order  []string
}

// NewDirectory constructs an empty directory.
func NewDirectory() *Directory {
	return &Directory{
		events: make(map[string]Event),
	}
}

// Add inserts a new event.
func (d *Directory) Add(e Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.events[e.Address]; exists {
		return ErrExists
	}

	d.events[e.Address] = e.Copy()
	d.order = append(d.order, e.Address)

	return nil
}

// Update replaces an existing event with the new version.
func (d *Directory) Update(e Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.events[e.Address]; !exists {
		return errors.New("event does not exist")
	}

	d.events[e.Address] = e.Copy()

	return nil
}

// Get returns a copy of the event at the address.
func (d *Directory) Get(address string) (Event, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	e, exists := d.events[address]
	if !exists {
		return Event{}, false
	}

	return e.Copy(), true
}

// Count returns the number of events.
func (d *Directory) Count() int {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return len(d.events)
}

// List returns copies of all the events in creation order.
func (d *Directory) List() []Event {
	return d.filter(func(Event) bool { return true })
}

// ByCreator returns the events created by the address.
func (d *Directory) ByCreator(address string) []Event {
	return d.filter(func(e Event) bool { return e.Creator == address })
}

// Reconcile merges a snapshot received from a peer. Unknown events are
// inserted. Known events only move forward: the status never goes back,
// acceptances are unioned and the amounts keep the larger value.
func (d *Directory) Reconcile(snapshot Event) Event {
	d.mu.Lock()
	defer d.mu.Unlock()

	local, exists := d.events[snapshot.Address]
	if !exists {
		d.events[snapshot.Address] = snapshot.Copy()
		d.order = append(d.order, snapshot.Address)
		return snapshot.Copy()
	}

	if snapshot.Status.rank() > local.Status.rank() {
		local.Status = snapshot.Status
	}

	for _, identity := range snapshot.AcceptedBy {
		if !local.HasAccepted(identity) {
			local.AcceptedBy = append(local.AcceptedBy, identity)
		}
	}

	local.AmountDonated = max(local.AmountDonated, snapshot.AmountDonated)
	local.AmountDisbursed = max(local.AmountDisbursed, snapshot.AmountDisbursed)

	d.events[snapshot.Address] = local

	return local.Copy()
}

func (d *Directory) filter(keep func(Event) bool) []Event {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var events []Event
	for _, address := range d.order {
		if e := d.events[address]; keep(e) {
			events = append(events, e.Copy())
		}
	}

	return events
}
