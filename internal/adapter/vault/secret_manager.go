package vault

import (
	"fmt"

	"github.com/hashicorp/vault/api"
)

type SecretManager struct {
	client *api.Client
}

func NewSecretManager(address, token string) (*SecretManager, error) {
	config := api.DefaultConfig()
	config.Address = address

	client, err := api.NewClient(config)
	if err != nil {
		return nil, err
	}

	client.SetToken(token)

	return &SecretManager{client: client}, nil
}

// GetObjectStoreCredentials reads the access key pair for the object store
// from secret/data/object-store.
func (sm *SecretManager) GetObjectStoreCredentials() (accessKeyID, secretAccessKey string, err error) {
	secret, err := sm.client.Logical().Read("secret/data/object-store")
	if err != nil {
		return "", "", err
	}
	if secret == nil {
		return "", "", fmt.Errorf("vault: object-store secret not found")
	}

	data, ok := secret.Data["data"].(map[string]interface{})
	if !ok {
		return "", "", fmt.Errorf("vault: unexpected secret layout for object-store")
	}

	accessKeyID, ok = data["access_key_id"].(string)
	if !ok {
		return "", "", fmt.Errorf("vault: access_key_id missing or not a string")
	}
	secretAccessKey, ok = data["secret_access_key"].(string)
	if !ok {
		return "", "", fmt.Errorf("vault: secret_access_key missing or not a string")
	}
	return accessKeyID, secretAccessKey, nil
}

// GetRedisURL reads the cache connection URL from secret/data/redis.
func (sm *SecretManager) GetRedisURL() (string, error) {
	secret, err := sm.client.Logical().Read("secret/data/redis")
	if err != nil {
		return "", err
	}
	if secret == nil {
		return "", fmt.Errorf("vault: redis secret not found")
	}

	data, ok := secret.Data["data"].(map[string]interface{})
	if !ok {
		return "", fmt.Errorf("vault: unexpected secret layout for redis")
	}
	url, ok := data["url"].(string)
	if !ok {
		return "", fmt.Errorf("vault: url missing or not a string")
	}
	return url, nil
}
