package app

import (
	commonhttp "hubspot-connector/internal/common/http"
	"hubspot-connector/internal/common/logging"
	"hubspot-connector/internal/connector"
	"hubspot-connector/internal/hubspot"
)

// initializeService builds the HubSpot API client and the credential
// lifecycle service on top of the store.
func (a *App) initializeService() {
	provider := hubspot.NewClient(hubspot.Config{
		ClientID:     a.Config.HubSpotClientID,
		ClientSecret: a.Config.HubSpotClientSecret,
		RedirectURI:  a.Config.HubSpotRedirectURI,
		TokenURL:     a.Config.HubSpotTokenURL,
		ContactsURL:  a.Config.HubSpotContactsURL,
		PageLimit:    a.Config.ContactsPageLimit,
	}, commonhttp.WithTimeout(a.Config.HTTPTimeout))

	a.Service = connector.NewService(a.Store, provider, connector.Config{
		AuthBaseURL:    a.Config.HubSpotAuthURL,
		ClientID:       a.Config.HubSpotClientID,
		RedirectURI:    a.Config.HubSpotRedirectURI,
		Scopes:         a.Config.HubSpotScopes,
		StateTTL:       a.Config.StateTTL,
		CredentialsTTL: a.Config.CredentialsTTL,
		RenewalBuffer:  a.Config.RenewalBuffer,
	}, a.Recorder, logging.GetGlobalLogger().WithFields(logging.Field{"component", "connector"}))
}
