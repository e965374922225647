package reconcile

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Candidate is the structured reading of a forwarded confirmation message.
// Confidence is in [0,1]; the caller decides whether it is actionable.
type Candidate struct {
	Reference  string           `json:"reference"`
	Amount     *decimal.Decimal `json:"amount,omitempty"`
	Date       *time.Time       `json:"date,omitempty"`
	Sender     string           `json:"sender,omitempty"`
	Confidence float64          `json:"confidence"`
}

type Extractor interface {
	Extract(ctx context.Context, text string) (Candidate, error)
}

// HTTPExtractor calls the platform's text-understanding service. The wallet
// core treats it as an opaque collaborator: text in, candidate out.
type HTTPExtractor struct {
	baseURL string
	client  *http.Client
}

func NewHTTPExtractor(baseURL string) *HTTPExtractor {
	return &HTTPExtractor{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

func (e *HTTPExtractor) Extract(ctx context.Context, text string) (Candidate, error) {
	body, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return Candidate{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/extract", bytes.NewReader(body))
	if err != nil {
		return Candidate{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return Candidate{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Candidate{}, fmt.Errorf("extractor returned %d", resp.StatusCode)
	}

	var c Candidate
	if err := json.NewDecoder(resp.Body).Decode(&c); err != nil {
		return Candidate{}, err
	}
	return c, nil
}

// RegexExtractor is the fallback when the text-understanding service is down.
// It knows the shape of mobile-money confirmation SMS and scores confidence by
// how many fields it managed to pull out.
type RegexExtractor struct{}

var (
	refPattern    = regexp.MustCompile(`(?i)(?:transaction\s*id|txn\s*id|ref(?:erence)?(?:\s*(?:no|number|id))?)\s*[:#]?\s*([A-Za-z0-9][A-Za-z0-9-]{5,})`)
	amountPattern = regexp.MustCompile(`(?i)GHS?\s*([0-9][0-9,]*(?:\.[0-9]{1,2})?)`)
	senderPattern = regexp.MustCompile(`(?i)from\s+([A-Z][A-Za-z .'-]{2,40}?)(?:\s+(?:on|Current|Available|Ref|Trans)|[.,]|$)`)
	datePattern   = regexp.MustCompile(`(\d{4}-\d{2}-\d{2}|\d{1,2}/\d{1,2}/\d{2,4})`)
)

func (RegexExtractor) Extract(ctx context.Context, text string) (Candidate, error) {
	var c Candidate

	if m := refPattern.FindStringSubmatch(text); m != nil {
		c.Reference = m[1]
		c.Confidence += 0.4
	}
	if m := amountPattern.FindStringSubmatch(text); m != nil {
		if amt, err := decimal.NewFromString(strings.ReplaceAll(m[1], ",", "")); err == nil {
			c.Amount = &amt
			c.Confidence += 0.3
		}
	}
	if m := senderPattern.FindStringSubmatch(text); m != nil {
		c.Sender = strings.TrimSpace(m[1])
		c.Confidence += 0.15
	}
	if m := datePattern.FindStringSubmatch(text); m != nil {
		if d, err := parseDate(m[1]); err == nil {
			c.Date = &d
			c.Confidence += 0.15
		}
	}
	return c, nil
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02", "02/01/2006", "2/1/2006", "02/01/06"} {
		if d, err := time.Parse(layout, s); err == nil {
			return d, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}
