// Package timezone keeps two notions of time apart.
//
// Instants (created_at, modified_at, token expiry) live in the application
// zone set by APP_TIMEZONE:
//
//	now := timezone.Now()
//	stamp := timezone.Format(booking.ModifiedAt, time.RFC3339)
//
// Stay dates (check-in, check-out) are calendar days with no clock part and
// are kept at midnight UTC so that comparisons never shift across zones:
//
//	checkIn, err := timezone.ParseDate("2026-03-01")
//	today := timezone.Today()
//	wire := timezone.FormatDate(checkIn) // "2026-03-01"
//
// An unset or unknown zone name falls back to UTC.
package timezone
