package config

// ClientConfig configures the front end when it talks to a running API.
type ClientConfig struct {
	APIURL string `json:"api_url"`
}

func (c *ClientConfig) SetDefaults() {
	if c.APIURL == "" {
		c.APIURL = "http://localhost:8000"
	}
}
