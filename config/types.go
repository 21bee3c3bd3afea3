package config

// APIConfig points at the remote trip service
type APIConfig struct {
	BaseURL   string `yaml:"baseURL" validate:"required,url"`
	TimeoutMS int    `yaml:"timeoutMS" validate:"gt=0"`
}

// StorageConfig selects where client state is kept
type StorageConfig struct {
	Driver         string `yaml:"driver" validate:"oneof=memory sqlite"`
	TTLDays        int    `yaml:"ttlDays" validate:"gt=0"`
	CleanupMinutes int    `yaml:"cleanupMinutes" validate:"gte=0"`
}

// CalendarConfig controls the local iCalendar export
type CalendarConfig struct {
	DefaultTimezone string `yaml:"defaultTimezone" validate:"omitempty,timezone"`
	SkipSkipped     bool   `yaml:"skipSkipped"`
}

// AppConfig is the root configuration structure
type AppConfig struct {
	API      APIConfig      `yaml:"api"`
	Storage  StorageConfig  `yaml:"storage"`
	Calendar CalendarConfig `yaml:"calendar"`
}
