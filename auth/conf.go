package auth

import "golang.org/x/oauth2/clientcredentials"

// Conf holds the OAuth2 client-credentials settings used when calling a
// protected model server.
type Conf struct {
	ClientID     string   `json:"client_id"`
	ClientSecret string   `json:"client_secret"`
	AuthURL      string   `json:"auth_url"`
	Scopes       []string `json:"scopes"`
}

// Enabled reports whether enough settings are present to request tokens.
func (c Conf) Enabled() bool {
	return c.ClientID != "" && c.AuthURL != ""
}

func (c Conf) toOauth2Config() clientcredentials.Config {
	return clientcredentials.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		TokenURL:     c.AuthURL,
		Scopes:       c.Scopes,
	}
}
