package auth

const (
	ScopeOpenID        = "openid"
	ScopeProfile       = "profile"
	ScopeEmail         = "email"
	ScopeCampaignRead  = "campaign:read"
	ScopeCampaignWrite = "campaign:write"
)

// AllScopes defines the full set of scopes requested by the Swagger UI.
var AllScopes = []string{
	ScopeOpenID,
	ScopeProfile,
	ScopeEmail,
	ScopeCampaignRead,
	ScopeCampaignWrite,
}

// loginScopes are requested by the browser login flow.
var loginScopes = []string{ScopeOpenID, ScopeProfile, ScopeEmail}
