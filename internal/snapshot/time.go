package snapshot

import (
	"time"

	"cloud.google.com/go/civil"
)

var (
	utc   = time.UTC
	epoch = civil.Date{Year: 1970, Month: time.January, Day: 1}
)

func timestampFromMicros(micros int64) time.Time {
	return time.UnixMicro(micros).UTC()
}

func dateTimeFromMicros(micros int64) civil.DateTime {
	return civil.DateTimeOf(timestampFromMicros(micros))
}

func dateFromDays(days int32) civil.Date {
	return epoch.AddDays(int(days))
}
