package config

import "os"

// FCMConfig holds push-notification configuration
type FCMConfig struct {
	ServerKey string `json:"-"` // Never serialize
	Endpoint  string `json:"endpoint"`
	TimeoutMS int    `json:"timeoutMs"`
}

// DefaultFCMConfig returns the default FCM configuration
func DefaultFCMConfig() *FCMConfig {
	return &FCMConfig{
		ServerKey: os.Getenv("FCM_SERVER_KEY"),
		Endpoint:  getEnv("FCM_ENDPOINT", "https://fcm.googleapis.com/fcm/send"),
		TimeoutMS: 10000, // 10 second default timeout
	}
}

// IsEnabled returns true if push delivery is configured
func (c *FCMConfig) IsEnabled() bool {
	return c.ServerKey != ""
}
