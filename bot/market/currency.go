// Package market looks up prices on third party sites: currency exchange
// rates and the WoW token.
package market

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"
)

type Conversion struct {
	From   string
	To     string
	Amount float64
	Result float64
}

func (c Conversion) String() string {
	return fmt.Sprintf("%g %s is equal to %.2f %s.", c.Amount, c.From, c.Result, c.To)
}

// Exchange converts currencies with rates expressed against a common base
type Exchange struct {
	url  string
	http *http.Client
}

func NewExchange(url string, timeout time.Duration) *Exchange {
	return &Exchange{url: url, http: &http.Client{Timeout: timeout}}
}

type ratesResponse struct {
	Result string             `json:"result"`
	Base   string             `json:"base_code"`
	Rates  map[string]float64 `json:"rates"`
}

func (e *Exchange) rates(ctx context.Context) (map[string]float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := e.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, ErrUpstream)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d: %w", resp.StatusCode, ErrUpstream)
	}

	var r ratesResponse
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return nil, fmt.Errorf("decoding rates: %w", err)
	}
	return r.Rates, nil
}

// Convert turns amount of from into to, rounded to the cent
func (e *Exchange) Convert(ctx context.Context, from, to string, amount float64) (Conversion, error) {
	if amount <= 0 {
		return Conversion{}, ErrBadAmount
	}
	if len(from) != 3 || len(to) != 3 {
		return Conversion{}, ErrBadCurrency
	}
	from, to = strings.ToUpper(from), strings.ToUpper(to)

	rates, err := e.rates(ctx)
	if err != nil {
		return Conversion{}, err
	}
	fromRate, okFrom := rates[from]
	toRate, okTo := rates[to]
	if !okFrom || !okTo || fromRate == 0 {
		return Conversion{}, ErrUnknownRate
	}

	return Conversion{
		From:   from,
		To:     to,
		Amount: amount,
		Result: math.Round(amount*toRate/fromRate*100) / 100,
	}, nil
}
