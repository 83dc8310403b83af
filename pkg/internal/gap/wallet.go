package gap

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"

	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

var ErrInsufficientBalance = errors.New("insufficient balance")

// Wallet moves value between the platform custody and user accounts.
type Wallet interface {
	// Pay sends amount from the platform custody to payee.
	Pay(ctx context.Context, payee string, amount decimal.Decimal, remark string) error
	// Charge pulls amount from payer back into the platform custody.
	Charge(ctx context.Context, payer string, amount decimal.Decimal, remark string) error
}

type transactionRequest struct {
	Amount         decimal.Decimal `json:"amount"`
	Remark         string          `json:"remark"`
	PayerAccountID *string         `json:"payer_account_id,omitempty"`
	PayeeAccountID *string         `json:"payee_account_id,omitempty"`
}

// HTTPWallet talks to the settlement service over its transaction endpoint.
type HTTPWallet struct {
	Endpoint string
	Token    string
	Client   *http.Client
}

func NewHTTPWallet(endpoint, token string) *HTTPWallet {
	return &HTTPWallet{Endpoint: endpoint, Token: token, Client: http.DefaultClient}
}

func (v *HTTPWallet) Pay(ctx context.Context, payee string, amount decimal.Decimal, remark string) error {
	return v.makeTransaction(ctx, transactionRequest{
		Amount:         amount,
		Remark:         remark,
		PayeeAccountID: &payee,
	})
}

func (v *HTTPWallet) Charge(ctx context.Context, payer string, amount decimal.Decimal, remark string) error {
	return v.makeTransaction(ctx, transactionRequest{
		Amount:         amount,
		Remark:         remark,
		PayerAccountID: &payer,
	})
}

func (v *HTTPWallet) makeTransaction(ctx context.Context, data transactionRequest) error {
	raw, err := jsoniter.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to encode transaction: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.Endpoint+"/transactions", bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("failed to build transaction request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if len(v.Token) > 0 {
		req.Header.Set("Authorization", "Bearer "+v.Token)
	}

	resp, err := v.Client.Do(req)
	if err != nil {
		return fmt.Errorf("unable to connect wallet: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("unexpected status code: %d, response: %s", resp.StatusCode, body)
	}

	log.Debug().Str("remark", data.Remark).Str("amount", data.Amount.String()).Msg("Wallet transaction made.")
	return nil
}

// MemoryWallet keeps balances in process. The platform custody is unlimited,
// user accounts cannot go negative.
type MemoryWallet struct {
	mu       sync.Mutex
	balances map[string]decimal.Decimal
}

func NewMemoryWallet() *MemoryWallet {
	return &MemoryWallet{balances: make(map[string]decimal.Decimal)}
}

func (v *MemoryWallet) Pay(ctx context.Context, payee string, amount decimal.Decimal, remark string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.balances[payee] = v.balances[payee].Add(amount)
	return nil
}

func (v *MemoryWallet) Charge(ctx context.Context, payer string, amount decimal.Decimal, remark string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.balances[payer].LessThan(amount) {
		return fmt.Errorf("%w: %s holds %s", ErrInsufficientBalance, payer, v.balances[payer])
	}
	v.balances[payer] = v.balances[payer].Sub(amount)
	return nil
}

func (v *MemoryWallet) Balance(account string) decimal.Decimal {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.balances[account]
}
