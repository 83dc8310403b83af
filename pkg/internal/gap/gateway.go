package gap

import (
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

var (
	W  Wallet
	P  Pinner
	Nc *nats.Conn
)

// InitializeToGateway builds the external collaborators from settings.
func InitializeToGateway() error {
	if endpoint := viper.GetString("wallet.endpoint"); len(endpoint) > 0 {
		W = NewHTTPWallet(endpoint, viper.GetString("wallet.token"))
		log.Info().Str("endpoint", endpoint).Msg("Using remote wallet for settlement.")
	} else {
		W = NewMemoryWallet()
		log.Warn().Msg("No wallet endpoint configured, settling with the in-memory wallet.")
	}

	P = NewPinataPinner(
		viper.GetString("pinata.endpoint"),
		viper.GetString("pinata.api_key"),
		viper.GetString("pinata.secret_key"),
	)

	if url := viper.GetString("events.nats_url"); len(url) > 0 {
		conn, err := nats.Connect(url, nats.Name("ponder"))
		if err != nil {
			return fmt.Errorf("unable to connect nats: %v", err)
		}
		Nc = conn
		log.Info().Str("url", url).Msg("Connected to nats.")
	}

	return nil
}
