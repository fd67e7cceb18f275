// Package rates fetches the ECB daily foreign-exchange reference rates.
package rates

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/beevik/etree"
	"github.com/sirupsen/logrus"

	"github.com/fintrack/assistant-service/internal/config"
)

// Rates holds the EUR reference rates for one publication day
type Rates struct {
	Date  string             `json:"date"`
	Base  string             `json:"base"`
	Rates map[string]float64 `json:"rates"`
}

// Client handles integration with the ECB reference-rate feed
type Client struct {
	url    string
	client *http.Client
	log    *logrus.Logger
}

// NewClient initializes a new rates client
func NewClient(cfg *config.Config, log *logrus.Logger) *Client {
	return &Client{
		url: cfg.ECBRatesURL,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		log: log,
	}
}

// fetch downloads the raw XML feed
func (c *Client) fetch() ([]byte, error) {
	resp, err := c.client.Get(c.url)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	c.log.Debugf("ECB XML response: %d bytes", len(body))
	return body, nil
}

// parse extracts the daily rates from the feed XML
func (c *Client) parse(rawBody []byte) (*Rates, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(rawBody); err != nil {
		return nil, fmt.Errorf("failed to parse XML: %w", err)
	}

	dayCube := doc.FindElement("//Cube/Cube")
	if dayCube == nil {
		return nil, fmt.Errorf("no rate data found in XML")
	}

	rates := &Rates{
		Date:  dayCube.SelectAttrValue("time", ""),
		Base:  "EUR",
		Rates: map[string]float64{},
	}

	for _, cube := range dayCube.FindElements("./Cube") {
		currency := cube.SelectAttrValue("currency", "")
		rateText := cube.SelectAttrValue("rate", "")
		if currency == "" || rateText == "" {
			continue
		}
		rate, err := strconv.ParseFloat(rateText, 64)
		if err != nil {
			return nil, fmt.Errorf("failed to parse rate for %s: %w", currency, err)
		}
		rates.Rates[currency] = rate
	}

	if len(rates.Rates) == 0 {
		return nil, fmt.Errorf("no currency rates found in XML")
	}
	return rates, nil
}

// GetRates retrieves the current daily reference rates
func (c *Client) GetRates() (*Rates, error) {
	body, err := c.fetch()
	if err != nil {
		return nil, err
	}

	rates, err := c.parse(body)
	if err != nil {
		return nil, err
	}

	c.log.Infof("Retrieved %d reference rates for %s", len(rates.Rates), rates.Date)
	return rates, nil
}
