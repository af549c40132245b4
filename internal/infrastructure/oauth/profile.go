package oauth

import (
	"fmt"
	"strconv"

	"github.com/confhub/confhub/internal/application/ports"
	domerrors "github.com/confhub/confhub/internal/domain/errors"
)

// profileParser extracts a normalized profile from the decoded userinfo
// document.
type profileParser func(doc map[string]interface{}) (*ports.Profile, error)

// profileParsers maps provider name to its field extraction. Apple is absent:
// its profile comes from id_token claims (see parseAppleIDToken).
var profileParsers = map[string]profileParser{
	"github":    parseGitHubProfile,
	"google":    parseGoogleProfile,
	"microsoft": parseMicrosoftProfile,
	"twitter":   parseTwitterProfile,
	"facebook":  parseFacebookProfile,
}

func parseProfile(provider string, doc map[string]interface{}) (*ports.Profile, error) {
	parser, ok := profileParsers[provider]
	if !ok {
		return nil, domerrors.ErrUnknownProvider
	}
	return parser(doc)
}

func parseGitHubProfile(doc map[string]interface{}) (*ports.Profile, error) {
	// GitHub ids are numeric.
	num, ok := doc["id"].(float64)
	if !ok {
		return nil, fmt.Errorf("github profile: missing id")
	}
	p := &ports.Profile{
		ProviderID: strconv.FormatInt(int64(num), 10),
		Email:      str(doc["email"]),
		Name:       str(doc["name"]),
		AvatarURL:  str(doc["avatar_url"]),
	}
	if p.Name == "" {
		p.Name = str(doc["login"])
	}
	return p, nil
}

func parseGoogleProfile(doc map[string]interface{}) (*ports.Profile, error) {
	id := str(doc["id"])
	if id == "" {
		return nil, fmt.Errorf("google profile: missing id")
	}
	return &ports.Profile{
		ProviderID: id,
		Email:      str(doc["email"]),
		Name:       str(doc["name"]),
		AvatarURL:  str(doc["picture"]),
	}, nil
}

func parseMicrosoftProfile(doc map[string]interface{}) (*ports.Profile, error) {
	id := str(doc["id"])
	if id == "" {
		return nil, fmt.Errorf("microsoft profile: missing id")
	}
	email := str(doc["mail"])
	if email == "" {
		email = str(doc["userPrincipalName"])
	}
	return &ports.Profile{
		ProviderID: id,
		Email:      email,
		Name:       str(doc["displayName"]),
	}, nil
}

func parseTwitterProfile(doc map[string]interface{}) (*ports.Profile, error) {
	data, ok := doc["data"].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("twitter profile: missing data")
	}
	id := str(data["id"])
	if id == "" {
		return nil, fmt.Errorf("twitter profile: missing id")
	}
	p := &ports.Profile{
		ProviderID: id,
		Name:       str(data["name"]),
		AvatarURL:  str(data["profile_image_url"]),
	}
	if p.Name == "" {
		p.Name = str(data["username"])
	}
	return p, nil
}

func parseFacebookProfile(doc map[string]interface{}) (*ports.Profile, error) {
	id := str(doc["id"])
	if id == "" {
		return nil, fmt.Errorf("facebook profile: missing id")
	}
	p := &ports.Profile{
		ProviderID: id,
		Email:      str(doc["email"]),
		Name:       str(doc["name"]),
	}
	if pic, ok := doc["picture"].(map[string]interface{}); ok {
		if data, ok := pic["data"].(map[string]interface{}); ok {
			p.AvatarURL = str(data["url"])
		}
	}
	return p, nil
}

func str(v interface{}) string {
	s, _ := v.(string)
	return s
}
