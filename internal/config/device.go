package config

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/paisatrail/paisatrail/internal/service"
)

const installIDKey = "install_id"

// Device supplies device identity and credentials from configuration and
// the settings store. It implements service.DeviceContext.
type Device struct {
	id    string
	token string
}

// NewDevice builds a Device. When deviceID is empty, a persisted install id
// is used instead, generated on first run.
func NewDevice(ctx context.Context, store service.Storage, deviceID, authToken string) (*Device, error) {
	if deviceID == "" && store != nil {
		installID, err := ensureInstallID(ctx, store)
		if err != nil {
			return nil, err
		}
		deviceID = installID
	}
	return &Device{id: deviceID, token: authToken}, nil
}

// DeviceID returns the device identifier, or "" if none could be derived.
func (d *Device) DeviceID() string { return d.id }

// AuthToken returns the backend auth token, or "" if unauthenticated.
func (d *Device) AuthToken() string { return d.token }

// ensureInstallID loads the persisted install id, generating and storing a
// new one on first run so the id is stable across restarts.
func ensureInstallID(ctx context.Context, store service.Storage) (string, error) {
	id, err := store.GetSetting(ctx, installIDKey)
	if err != nil {
		return "", fmt.Errorf("failed to load install id: %w", err)
	}
	if id != "" {
		return id, nil
	}

	id = uuid.NewString()
	if err := store.SetSetting(ctx, installIDKey, id); err != nil {
		return "", fmt.Errorf("failed to persist install id: %w", err)
	}
	return id, nil
}
