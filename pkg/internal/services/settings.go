package services

import (
	"fmt"
	"strings"

	"git.solsynth.dev/hypernet/ponder/pkg/internal/events"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

type PlatformSettings struct {
	Config
	Paused bool `json:"paused"`
}

func (v *Engine) Settings() Config {
	v.settingsLock.RLock()
	defer v.settingsLock.RUnlock()
	return v.config
}

func (v *Engine) PlatformSettings() PlatformSettings {
	v.settingsLock.RLock()
	defer v.settingsLock.RUnlock()
	return PlatformSettings{Config: v.config, Paused: v.paused}
}

func (v *Engine) IsPaused() bool {
	v.settingsLock.RLock()
	defer v.settingsLock.RUnlock()
	return v.paused
}

func (v *Engine) SetFeeRecipient(recipient string) error {
	recipient = strings.TrimSpace(recipient)
	if len(recipient) == 0 {
		return fmt.Errorf("%w: fee recipient is required", ErrInvalidInput)
	}

	v.settingsLock.Lock()
	v.config.FeeRecipient = recipient
	v.settingsLock.Unlock()

	log.Info().Str("recipient", recipient).Msg("Fee recipient updated.")
	return nil
}

func (v *Engine) SetMinStakeAmount(amount decimal.Decimal) error {
	if err := validateAmount(amount); err != nil {
		return err
	}

	v.settingsLock.Lock()
	v.config.MinStakeAmount = amount
	v.settingsLock.Unlock()

	log.Info().Str("amount", amount.String()).Msg("Minimum stake updated.")
	return nil
}

// Pause stops new polls and stakes. Closing and distribution keep working so
// funds already staked can always settle.
func (v *Engine) Pause() error {
	v.settingsLock.Lock()
	if v.paused {
		v.settingsLock.Unlock()
		return ErrPaused
	}
	v.paused = true
	v.settingsLock.Unlock()

	log.Warn().Msg("Platform paused.")
	v.publish(events.TopicPlatformPaused, 0, nil)
	return nil
}

func (v *Engine) Unpause() error {
	v.settingsLock.Lock()
	if !v.paused {
		v.settingsLock.Unlock()
		return ErrNotPaused
	}
	v.paused = false
	v.settingsLock.Unlock()

	log.Info().Msg("Platform unpaused.")
	v.publish(events.TopicPlatformUnpaused, 0, nil)
	return nil
}
