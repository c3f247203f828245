package model

// TimingPolicy selects how missing due dates/times are backfilled.
type TimingPolicy string

const (
	PolicyManual          TimingPolicy = "manual"
	PolicyEndOfToday      TimingPolicy = "end_of_today"
	PolicyTomorrowMorning TimingPolicy = "tomorrow_morning"
	PolicyNextBusinessDay TimingPolicy = "next_business_day"
	PolicySmart           TimingPolicy = "smart"
)

// Settings is the per-user settings record.
type Settings struct {
	DefaultTiming        TimingPolicy `json:"defaultTiming"`
	NotificationsEnabled bool         `json:"notificationsEnabled"`
}

func DefaultSettings() Settings {
	return Settings{
		DefaultTiming:        PolicyTomorrowMorning,
		NotificationsEnabled: true,
	}
}
