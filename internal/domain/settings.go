package domain

// Settings holds user-adjustable preferences persisted independently of the
// conversation store.
type Settings struct {
	Voice                   string `json:"voice"`
	BackgroundConversations bool   `json:"backgroundConversations"`
	Autocomplete            bool   `json:"autocomplete"`
	TrendingSearches        bool   `json:"trendingSearches"`
	FollowUpSuggestions     bool   `json:"followUpSuggestions"`
}

// SettingsPatch carries a partial settings update; nil fields are untouched.
type SettingsPatch struct {
	Voice                   *string `json:"voice,omitempty"`
	BackgroundConversations *bool   `json:"backgroundConversations,omitempty"`
	Autocomplete            *bool   `json:"autocomplete,omitempty"`
	TrendingSearches        *bool   `json:"trendingSearches,omitempty"`
	FollowUpSuggestions     *bool   `json:"followUpSuggestions,omitempty"`
}

func DefaultSettings() Settings {
	return Settings{
		Voice:                   "Ember",
		BackgroundConversations: true,
		Autocomplete:            true,
		TrendingSearches:        false,
		FollowUpSuggestions:     true,
	}
}
