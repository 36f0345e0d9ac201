package helper

import "time"

// ToUTCISO renders a timestamp as ISO 8601 in UTC with a trailing Z,
// which is what every serialized payload carries.
func ToUTCISO(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000000Z")
}

func ToUTCISOPtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := ToUTCISO(*t)
	return &s
}
