package auth

import "testing"

func TestAllowlist(t *testing.T) {
	t.Parallel()

	list := NewAllowlist([]int64{100, 200})

	if !list.Allowed(100) {
		t.Error("expected 100 to be allowed")
	}
	if !list.Allowed(200) {
		t.Error("expected 200 to be allowed")
	}
	if list.Allowed(300) {
		t.Error("expected 300 to be denied")
	}
	if list.Len() != 2 {
		t.Errorf("expected 2 entries, got %d", list.Len())
	}
}

func TestEmptyAllowlistDeniesEveryone(t *testing.T) {
	t.Parallel()

	list := NewAllowlist(nil)
	if list.Allowed(0) || list.Allowed(1) {
		t.Error("expected empty allow-list to deny all users")
	}
}
