package slotlock

import (
	"testing"
	"time"
)

func TestSlotKey_Validate(t *testing.T) {
	tests := []struct {
		name      string
		key       SlotKey
		wantError bool
	}{
		{
			name:      "valid key",
			key:       SlotKey{TenantID: "clinic-a", ResourceID: "507f1f77bcf86cd799439011", Date: "2026-09-15", Time: "14:00"},
			wantError: false,
		},
		{
			name:      "empty tenant",
			key:       SlotKey{TenantID: "", ResourceID: "r1", Date: "2026-09-15", Time: "14:00"},
			wantError: true,
		},
		{
			name:      "tenant with slash",
			key:       SlotKey{TenantID: "a/b", ResourceID: "r1", Date: "2026-09-15", Time: "14:00"},
			wantError: true,
		},
		{
			name:      "bad date format",
			key:       SlotKey{TenantID: "t", ResourceID: "r1", Date: "15-09-2026", Time: "14:00"},
			wantError: true,
		},
		{
			name:      "hour out of range",
			key:       SlotKey{TenantID: "t", ResourceID: "r1", Date: "2026-09-15", Time: "25:00"},
			wantError: true,
		},
		{
			name:      "minute out of range",
			key:       SlotKey{TenantID: "t", ResourceID: "r1", Date: "2026-09-15", Time: "14:60"},
			wantError: true,
		},
		{
			name:      "nonexistent calendar date",
			key:       SlotKey{TenantID: "t", ResourceID: "r1", Date: "2026-02-30", Time: "14:00"},
			wantError: true,
		},
		{
			name:      "midnight boundary",
			key:       SlotKey{TenantID: "t", ResourceID: "r1", Date: "2026-09-15", Time: "00:00"},
			wantError: false,
		},
		{
			name:      "end of day boundary",
			key:       SlotKey{TenantID: "t", ResourceID: "r1", Date: "2026-09-15", Time: "23:59"},
			wantError: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.key.Validate()
			if (err != nil) != tt.wantError {
				t.Errorf("Validate() error = %v, wantError = %v", err, tt.wantError)
			}
		})
	}
}

func TestNewSlotKey_NormalizesToUTC(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*3600)
	at := time.Date(2026, 9, 15, 17, 30, 0, 0, loc)

	key, err := NewSlotKey("clinic-a", "res-1", at)
	if err != nil {
		t.Fatalf("NewSlotKey() error: %v", err)
	}

	if key.Date != "2026-09-15" {
		t.Errorf("Date = %s, want 2026-09-15", key.Date)
	}
	if key.Time != "14:30" {
		t.Errorf("Time = %s, want 14:30 (UTC)", key.Time)
	}
}

func TestNewSlotKey_RejectsMalformedComponents(t *testing.T) {
	at := time.Date(2026, 9, 15, 14, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		tenantID   string
		resourceID string
	}{
		{name: "tenant with separator", tenantID: "clinic/a", resourceID: "res-1"},
		{name: "empty tenant", tenantID: "", resourceID: "res-1"},
		{name: "resource with separator", resourceID: "res/1", tenantID: "clinic-a"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewSlotKey(tt.tenantID, tt.resourceID, at); err == nil {
				t.Error("NewSlotKey() expected error for malformed component")
			}
		})
	}
}

func TestSlotKey_String(t *testing.T) {
	key := SlotKey{TenantID: "clinic-a", ResourceID: "res-1", Date: "2026-09-15", Time: "14:00"}
	want := "clinic-a/res-1/2026-09-15_14:00"
	if got := key.String(); got != want {
		t.Errorf("String() = %s, want %s", got, want)
	}
}
