package types

// JobDefinition describes one scheduled job as declared in a *.job.yaml file.
type JobDefinition struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
	Enabled     bool   `yaml:"enabled"`

	Schedule struct {
		FrequencyEvery  string `yaml:"frequency_every"` // minute, hour, day, week, month
		FrequencyAmount int    `yaml:"frequency_amount"`
		StartNow        bool   `yaml:"start_now"`
		StartAt         string `yaml:"start_at"` // UTC DateTime, RFC3339
		StopAt          string `yaml:"stop_at"`  // UTC DateTime, RFC3339
	} `yaml:"schedule"`

	Command struct {
		Run     string   `yaml:"run"`
		Args    []string `yaml:"args,omitempty"`
		Dir     string   `yaml:"dir,omitempty"`
		Timeout int      `yaml:"timeout,omitempty"` // seconds, 0 = no limit
	} `yaml:"command"`
}
