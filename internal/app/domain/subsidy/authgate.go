package subsidy

import "fmt"

// RequireAdmin fails unless the caller is the configured admin identity.
// Pure check, no side effects; evaluated before any state mutation.
func RequireAdmin(cfg SystemConfig, caller string) error {
	if caller == "" || caller != cfg.AdminID {
		return fmt.Errorf("caller %q is not the admin: %w", caller, ErrNotAuthorized)
	}
	return nil
}

// RequireOwner fails unless the caller matches the record owner.
func RequireOwner(caller, recordOwner string) error {
	if caller == "" || caller != recordOwner {
		return fmt.Errorf("caller %q does not own the record: %w", caller, ErrNotAuthorized)
	}
	return nil
}
