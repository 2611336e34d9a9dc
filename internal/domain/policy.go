package domain

// RetentionPolicy bounds how long and how many artifacts survive a sweep.
// A zero threshold disables that bound; the zero policy keeps everything
// forever.
type RetentionPolicy struct {
	MaxAgeDays int
	MaxCount   int
}

func (p RetentionPolicy) Enabled() bool {
	return p.MaxAgeDays > 0 || p.MaxCount > 0
}

// AgeOnly reports whether only the age bound is active. Remote sweeps can
// then be delegated to the client's server-side older-than removal instead
// of listing everything first.
func (p RetentionPolicy) AgeOnly() bool {
	return p.MaxAgeDays > 0 && p.MaxCount == 0
}
