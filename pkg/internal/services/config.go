package services

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// ReadConfig builds the engine config from the engine.* settings, keys that
// are not set keep their defaults.
func ReadConfig() (Config, error) {
	cfg := DefaultConfig()

	if viper.IsSet("engine.fee_percent") {
		cfg.FeePercent = viper.GetInt64("engine.fee_percent")
	}
	if viper.IsSet("engine.min_stake") {
		amount, err := decimal.NewFromString(viper.GetString("engine.min_stake"))
		if err != nil {
			return cfg, fmt.Errorf("engine.min_stake: %v", err)
		} else if err := validateAmount(amount); err != nil {
			return cfg, fmt.Errorf("engine.min_stake: %v", err)
		}
		cfg.MinStakeAmount = amount
	}
	if viper.IsSet("engine.min_duration") {
		cfg.MinPollDuration = viper.GetDuration("engine.min_duration")
	}
	if viper.IsSet("engine.max_duration") {
		cfg.MaxPollDuration = viper.GetDuration("engine.max_duration")
	}
	if viper.IsSet("engine.fee_recipient") {
		cfg.FeeRecipient = viper.GetString("engine.fee_recipient")
	}
	if viper.IsSet("engine.transfer_timeout") {
		cfg.TransferTimeout = viper.GetDuration("engine.transfer_timeout")
	}
	if viper.IsSet("engine.max_question_length") {
		cfg.MaxQuestionLength = viper.GetInt("engine.max_question_length")
	}
	if viper.IsSet("engine.max_option_length") {
		cfg.MaxOptionLength = viper.GetInt("engine.max_option_length")
	}

	if cfg.FeePercent < 0 || cfg.FeePercent > 100 {
		return cfg, fmt.Errorf("engine.fee_percent must be between 0 and 100")
	}
	if cfg.MinPollDuration <= 0 || cfg.MaxPollDuration < cfg.MinPollDuration {
		return cfg, fmt.Errorf("engine poll durations are invalid")
	}
	if len(cfg.FeeRecipient) == 0 {
		return cfg, fmt.Errorf("engine.fee_recipient is required")
	}
	if cfg.TransferTimeout <= 0 {
		return cfg, fmt.Errorf("engine.transfer_timeout must be positive")
	}

	return cfg, nil
}
