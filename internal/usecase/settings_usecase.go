package usecase

import (
	"context"

	"github.com/blockwatch/blockwatch/internal/domain"
	"github.com/blockwatch/blockwatch/internal/ports"
)

// SettingsUseCase reads and updates the settings singleton.
type SettingsUseCase struct {
	settings ports.SettingsRepository
}

// NewSettingsUseCase creates the settings logic.
func NewSettingsUseCase(settings ports.SettingsRepository) *SettingsUseCase {
	return &SettingsUseCase{settings: settings}
}

// Get returns the current settings.
func (uc *SettingsUseCase) Get(ctx context.Context) (domain.Settings, error) {
	return uc.settings.Get(ctx)
}

// Update merges the patch into the stored settings; fields absent from the
// patch keep their stored values.
func (uc *SettingsUseCase) Update(ctx context.Context, patch domain.SettingsPatch) (domain.Settings, error) {
	return uc.settings.Update(ctx, patch)
}
