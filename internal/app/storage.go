package app

import (
	"hubspot-connector/internal/connector"
	"hubspot-connector/internal/crypto"
)

// initializeStore builds the Redis-backed credential store, encrypting
// payloads at rest when an encryption key is configured.
func (a *App) initializeStore() error {
	var encryptor *crypto.CredentialEncryptor
	if a.Config.EncryptionKey != "" {
		var err error
		encryptor, err = crypto.NewCredentialEncryptor(a.Config.EncryptionKey)
		if err != nil {
			return err
		}
		a.Logger.Info("Credential encryption enabled")
	}

	a.Store = connector.NewRedisStore(a.RedisClient, encryptor)
	return nil
}
