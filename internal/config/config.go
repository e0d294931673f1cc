package config

const defaultBaseApiUrl = "https://api.pascs.gov.vn/api/v1"

// Config holds everything the chat client needs to talk to the PASCS backend.
type Config struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	UserID       string
	DatabasePath string
}

func NewConfig(clientID, clientSecret, userID string) *Config {
	return &Config{
		BaseURL:      defaultBaseApiUrl,
		ClientID:     clientID,
		ClientSecret: clientSecret,
		UserID:       userID,
		DatabasePath: "chatui.db",
	}
}
