package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
)

// GitHubUser is the portion of the GitHub /user API response we care about.
type GitHubUser struct {
	ID        int64  `json:"id"`         // GitHub's numeric user ID — stable
	Login     string `json:"login"`      // GitHub username
	Email     string `json:"email"`      // Primary email (empty if hidden)
	AvatarURL string `json:"avatar_url"` // Profile picture URL
}

// GitHubProvider wraps golang.org/x/oauth2 for the GitHub Authorization
// Code flow, used as an alternative admin sign-in: the callback handler
// checks the returned login against the configured admin allowlist before
// issuing a session token.
//
// The code-for-token exchange happens server-to-server with the
// ClientSecret; the access token never touches the browser.
type GitHubProvider struct {
	config *oauth2.Config

	// allowed is the set of GitHub logins permitted to administer the store.
	allowed map[string]bool
}

// NewGitHubProvider creates a GitHubProvider. callbackURL must match the
// OAuth App's configured "Authorization callback URL" exactly, e.g.
// "http://localhost:8080/auth/github/callback". allowedLogins is the admin
// allowlist — an empty list means nobody gets in via OAuth.
func NewGitHubProvider(clientID, clientSecret, callbackURL string, allowedLogins []string) *GitHubProvider {
	allowed := make(map[string]bool, len(allowedLogins))
	for _, login := range allowedLogins {
		allowed[login] = true
	}
	return &GitHubProvider{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  callbackURL,
			Scopes:       []string{"read:user"},
			Endpoint:     github.Endpoint,
		},
		allowed: allowed,
	}
}

// AuthURL returns the GitHub authorization URL to redirect the admin to.
// The state is a random string echoed back on the callback; the handler
// stores it in a cookie and compares, which blocks CSRF on the flow.
func (p *GitHubProvider) AuthURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Allowed reports whether a GitHub login is on the admin allowlist.
func (p *GitHubProvider) Allowed(login string) bool {
	return p.allowed[login]
}

// Exchange trades the authorization code for the GitHub user profile:
// code → OAuth access token (server-to-server) → GET /user with the token.
func (p *GitHubProvider) Exchange(ctx context.Context, code string) (*GitHubUser, error) {
	oauthToken, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("auth: exchanging OAuth code: %w", err)
	}

	// config.Client returns an *http.Client that adds the Bearer header
	client := p.config.Client(ctx, oauthToken)

	resp, err := client.Get("https://api.github.com/user")
	if err != nil {
		return nil, fmt.Errorf("auth: calling GitHub /user API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("auth: GitHub /user API returned status %d", resp.StatusCode)
	}

	var ghUser GitHubUser
	if err := json.NewDecoder(resp.Body).Decode(&ghUser); err != nil {
		return nil, fmt.Errorf("auth: decoding GitHub /user response: %w", err)
	}

	if ghUser.ID == 0 {
		return nil, fmt.Errorf("auth: GitHub returned an invalid user (ID = 0)")
	}

	return &ghUser, nil
}
