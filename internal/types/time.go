package types

import "time"

// Milliseconds since the unix epoch
type UnixMilli int64

func NewUnixMilli(t time.Time) UnixMilli {
	return UnixMilli(t.UTC().UnixMilli())
}

func (u UnixMilli) Time() time.Time {
	return time.UnixMilli(int64(u)).UTC()
}
