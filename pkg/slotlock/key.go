package slotlock

import (
	"fmt"
	"regexp"
	"time"
)

// slotPattern is the canonical wall-clock part of a key: YYYY-MM-DD_HH:MM.
var slotPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}_([01]\d|2[0-3]):[0-5]\d$`)

var idPattern = regexp.MustCompile(`^[A-Za-z0-9_.\-]{1,64}$`)

// SlotKey identifies one bookable slot. Two keys are equal iff all four
// components are equal, so identical wall-clock slots in different tenants
// never collide.
type SlotKey struct {
	TenantID   string
	ResourceID string
	Date       string // YYYY-MM-DD
	Time       string // HH:MM
}

// NewSlotKey builds a key from a slot start time expressed in UTC. The
// key is validated before it is returned, so a malformed component never
// reaches a lock store.
func NewSlotKey(tenantID, resourceID string, at time.Time) (SlotKey, error) {
	at = at.UTC()
	key := SlotKey{
		TenantID:   tenantID,
		ResourceID: resourceID,
		Date:       at.Format("2006-01-02"),
		Time:       at.Format("15:04"),
	}
	if err := key.Validate(); err != nil {
		return SlotKey{}, err
	}
	return key, nil
}

// Validate rejects malformed keys before they reach any lock store.
func (k SlotKey) Validate() error {
	if !idPattern.MatchString(k.TenantID) {
		return fmt.Errorf("invalid tenant id %q in slot key", k.TenantID)
	}
	if !idPattern.MatchString(k.ResourceID) {
		return fmt.Errorf("invalid resource id %q in slot key", k.ResourceID)
	}
	slot := k.Date + "_" + k.Time
	if !slotPattern.MatchString(slot) {
		return fmt.Errorf("invalid slot %q, want YYYY-MM-DD_HH:MM", slot)
	}
	if _, err := time.Parse("2006-01-02_15:04", slot); err != nil {
		return fmt.Errorf("invalid slot %q: %w", slot, err)
	}
	return nil
}

// String returns the canonical form used as the lock identity.
func (k SlotKey) String() string {
	return k.TenantID + "/" + k.ResourceID + "/" + k.Date + "_" + k.Time
}
