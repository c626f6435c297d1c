package utils

import "time"

func NowUTC() time.Time {
	return time.Now().UTC()
}

// ISODate renders the date part only, used by export filenames and rows.
func ISODate(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}
