package rates

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/fintrack/assistant-service/internal/config"
)

const sampleFeed = `<?xml version="1.0" encoding="UTF-8"?>
<gesmes:Envelope xmlns:gesmes="http://www.gesmes.org/xml/2002-08-01" xmlns="http://www.ecb.int/vocabulary/2002-08-01/eurofxref">
	<gesmes:subject>Reference rates</gesmes:subject>
	<gesmes:Sender>
		<gesmes:name>European Central Bank</gesmes:name>
	</gesmes:Sender>
	<Cube>
		<Cube time="2025-03-14">
			<Cube currency="USD" rate="1.0891"/>
			<Cube currency="JPY" rate="161.23"/>
			<Cube currency="GBP" rate="0.8412"/>
		</Cube>
	</Cube>
</gesmes:Envelope>`

func testClient(t *testing.T, url string) *Client {
	t.Helper()
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return NewClient(&config.Config{ECBRatesURL: url}, log)
}

func TestParseFeed(t *testing.T) {
	c := testClient(t, "")

	rates, err := c.parse([]byte(sampleFeed))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if rates.Date != "2025-03-14" {
		t.Errorf("date = %q", rates.Date)
	}
	if rates.Base != "EUR" {
		t.Errorf("base = %q", rates.Base)
	}
	if len(rates.Rates) != 3 {
		t.Fatalf("expected 3 rates, got %d", len(rates.Rates))
	}
	if rates.Rates["USD"] != 1.0891 {
		t.Errorf("USD = %v", rates.Rates["USD"])
	}
}

func TestParseFeedErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not xml", "{}"},
		{"no cube", `<?xml version="1.0"?><Envelope></Envelope>`},
		{"bad rate", `<Envelope><Cube><Cube time="2025-03-14"><Cube currency="USD" rate="abc"/></Cube></Cube></Envelope>`},
		{"empty day", `<Envelope><Cube><Cube time="2025-03-14"></Cube></Cube></Envelope>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := testClient(t, "")
			if _, err := c.parse([]byte(tt.body)); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestGetRates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(sampleFeed))
	}))
	defer srv.Close()

	c := testClient(t, srv.URL)
	rates, err := c.GetRates()
	if err != nil {
		t.Fatalf("GetRates: %v", err)
	}
	if rates.Rates["GBP"] != 0.8412 {
		t.Errorf("GBP = %v", rates.Rates["GBP"])
	}
}

func TestGetRatesUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := testClient(t, srv.URL)
	if _, err := c.GetRates(); err == nil {
		t.Error("expected an error on upstream failure")
	}
}
