package announcement

import "time"

// hasValidSchedule reports whether the announcement's schedule can be
// interpreted. A set but zero-valued date is treated as malformed.
func hasValidSchedule(a *Announcement) bool {
	return a.ScheduledDate == nil || !a.ScheduledDate.IsZero()
}

// IsPublished reports whether a is active and its schedule, if any, has passed.
func IsPublished(a *Announcement, now time.Time) bool {
	if a == nil || a.Status != StatusActive || !hasValidSchedule(a) {
		return false
	}
	return a.ScheduledDate == nil || !a.ScheduledDate.After(now)
}

// IsScheduled reports whether a is active but waiting for a future date.
func IsScheduled(a *Announcement, now time.Time) bool {
	if a == nil || a.Status != StatusActive || !hasValidSchedule(a) {
		return false
	}
	return a.ScheduledDate != nil && a.ScheduledDate.After(now)
}

// ResolveActive picks the announcement to feature on the main page: active,
// flagged for the main page and published at now. When several qualify the
// most recently created one wins; ties keep input order. Records with a
// malformed schedule are skipped. Returns nil when nothing qualifies.
func ResolveActive(records []*Announcement, now time.Time) *Announcement {
	var selected *Announcement
	for _, a := range records {
		if a == nil || !a.ShowOnMain || !IsPublished(a, now) {
			continue
		}
		if selected == nil || a.CreatedAt.After(selected.CreatedAt) {
			selected = a
		}
	}
	return selected
}
