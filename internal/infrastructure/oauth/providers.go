package oauth

import (
	"sort"

	"github.com/confhub/confhub/internal/config"
)

// Provider is one entry of the compiled-in provider table merged with
// externally supplied credentials. The merged set is immutable after startup.
type Provider struct {
	Name         string
	DisplayName  string
	Icon         string
	AuthURL      string
	TokenURL     string
	UserInfoURL  string // empty when the profile comes from the id_token (Apple)
	Scopes       []string
	ExtraParams  map[string]string
	UsePKCE      bool
	ClientID     string
	ClientSecret string
}

// Enabled reports whether both credentials are present.
func (p Provider) Enabled() bool {
	return p.ClientID != "" && p.ClientSecret != ""
}

var defaultProviders = []Provider{
	{
		Name:        "github",
		DisplayName: "GitHub",
		Icon:        "github",
		AuthURL:     "https://github.com/login/oauth/authorize",
		TokenURL:    "https://github.com/login/oauth/access_token",
		UserInfoURL: "https://api.github.com/user",
		Scopes:      []string{"read:user", "user:email"},
	},
	{
		Name:        "google",
		DisplayName: "Google",
		Icon:        "google",
		AuthURL:     "https://accounts.google.com/o/oauth2/v2/auth",
		TokenURL:    "https://oauth2.googleapis.com/token",
		UserInfoURL: "https://www.googleapis.com/oauth2/v2/userinfo",
		Scopes:      []string{"openid", "email", "profile"},
	},
	{
		Name:        "microsoft",
		DisplayName: "Microsoft",
		Icon:        "microsoft",
		AuthURL:     "https://login.microsoftonline.com/common/oauth2/v2.0/authorize",
		TokenURL:    "https://login.microsoftonline.com/common/oauth2/v2.0/token",
		UserInfoURL: "https://graph.microsoft.com/v1.0/me",
		Scopes:      []string{"openid", "email", "profile", "User.Read"},
	},
	{
		Name:        "twitter",
		DisplayName: "Twitter",
		Icon:        "twitter",
		AuthURL:     "https://twitter.com/i/oauth2/authorize",
		TokenURL:    "https://api.twitter.com/2/oauth2/token",
		UserInfoURL: "https://api.twitter.com/2/users/me?user.fields=profile_image_url",
		Scopes:      []string{"users.read", "tweet.read"},
		UsePKCE:     true,
	},
	{
		Name:        "facebook",
		DisplayName: "Facebook",
		Icon:        "facebook",
		AuthURL:     "https://www.facebook.com/v18.0/dialog/oauth",
		TokenURL:    "https://graph.facebook.com/v18.0/oauth/access_token",
		UserInfoURL: "https://graph.facebook.com/me?fields=id,name,email,picture",
		Scopes:      []string{"email", "public_profile"},
	},
	{
		Name:        "apple",
		DisplayName: "Apple",
		Icon:        "apple",
		AuthURL:     "https://appleid.apple.com/auth/authorize",
		TokenURL:    "https://appleid.apple.com/auth/token",
		Scopes:      []string{"name", "email"},
		ExtraParams: map[string]string{"response_mode": "form_post"},
	},
}

// Providers is the merged provider set, read-only after construction.
type Providers struct {
	byName map[string]Provider
}

// MergeCredentials combines the default table with configured credentials.
func MergeCredentials(creds map[string]config.ProviderCredentials) Providers {
	byName := make(map[string]Provider, len(defaultProviders))
	for _, p := range defaultProviders {
		if c, ok := creds[p.Name]; ok {
			p.ClientID = c.ClientID
			p.ClientSecret = c.ClientSecret
		}
		byName[p.Name] = p
	}
	return Providers{byName: byName}
}

// Get returns the provider by name; found is false for unknown names.
func (ps Providers) Get(name string) (Provider, bool) {
	p, ok := ps.byName[name]
	return p, ok
}

// Enabled returns the enabled providers sorted by name.
func (ps Providers) Enabled() []Provider {
	var out []Provider
	for _, p := range ps.byName {
		if p.Enabled() {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
