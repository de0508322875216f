package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	"github.com/AgriSubsidy-Network/verification_layer/internal/app/domain/farm"
	"github.com/AgriSubsidy-Network/verification_layer/internal/app/domain/oracledata"
	"github.com/AgriSubsidy-Network/verification_layer/internal/app/domain/policy"
	"github.com/AgriSubsidy-Network/verification_layer/internal/app/domain/subsidy"
	"github.com/AgriSubsidy-Network/verification_layer/pkg/logger"
)

// httpClient performs bearer-authed JSON calls against a collaborator
// endpoint. Responses are extracted with gjson so collaborators may carry
// extra fields without breaking the adapters.
type httpClient struct {
	client   *http.Client
	endpoint *url.URL
	apiKey   string
	log      *logger.Logger
}

func newHTTPClient(client *http.Client, endpoint, apiKey, component string, log *logger.Logger) (*httpClient, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("%s endpoint required", component)
	}
	parsed, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse %s endpoint: %w", component, err)
	}
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	if log == nil {
		log = logger.NewDefault(component)
	}
	return &httpClient{
		client:   client,
		endpoint: parsed,
		apiKey:   strings.TrimSpace(apiKey),
		log:      log,
	}, nil
}

func (c *httpClient) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	return c.do(ctx, http.MethodGet, path, query, nil)
}

func (c *httpClient) post(ctx context.Context, path string, body any) ([]byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode request body: %w", err)
	}
	return c.do(ctx, http.MethodPost, path, nil, payload)
}

func (c *httpClient) do(ctx context.Context, method, path string, query url.Values, body []byte) ([]byte, error) {
	requestURL := *c.endpoint
	requestURL.Path = strings.TrimRight(requestURL.Path, "/") + path
	if query != nil {
		requestURL.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, requestURL.String(), reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("X-Request-ID", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, errNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}
	return raw, nil
}

var errNotFound = fmt.Errorf("not found")

// HTTPFarmData reads farm records from the farm registration service.
type HTTPFarmData struct {
	c *httpClient
}

var _ FarmData = (*HTTPFarmData)(nil)

func NewHTTPFarmData(client *http.Client, endpoint, apiKey string, log *logger.Logger) (*HTTPFarmData, error) {
	c, err := newHTTPClient(client, endpoint, apiKey, "farmdata-provider", log)
	if err != nil {
		return nil, err
	}
	return &HTTPFarmData{c: c}, nil
}

func (p *HTTPFarmData) GetFarmData(ctx context.Context, farmerID string) (farm.Record, error) {
	raw, err := p.c.get(ctx, "/farms/"+url.PathEscape(farmerID), nil)
	if err != nil {
		return farm.Record{}, fmt.Errorf("farm data for %s: %v: %w", farmerID, err, subsidy.ErrInvalidData)
	}

	doc := gjson.ParseBytes(raw)
	rec := farm.Record{
		FarmerID:     farmerID,
		Owner:        doc.Get("owner").String(),
		LandSize:     doc.Get("land_size").Int(),
		CropType:     doc.Get("crop_type").String(),
		GPSReference: doc.Get("gps_reference").String(),
	}
	for _, y := range doc.Get("yield_history").Array() {
		rec.YieldHistory = append(rec.YieldHistory, y.Int())
	}
	if rec.Owner == "" {
		return farm.Record{}, fmt.Errorf("farm data for %s missing owner: %w", farmerID, subsidy.ErrInvalidData)
	}
	return rec, nil
}

// HTTPCriteria reads the current policy from the criteria store.
type HTTPCriteria struct {
	c *httpClient
}

var _ Criteria = (*HTTPCriteria)(nil)

func NewHTTPCriteria(client *http.Client, endpoint, apiKey string, log *logger.Logger) (*HTTPCriteria, error) {
	c, err := newHTTPClient(client, endpoint, apiKey, "criteria-provider", log)
	if err != nil {
		return nil, err
	}
	return &HTTPCriteria{c: c}, nil
}

func (p *HTTPCriteria) CurrentCriteria(ctx context.Context) (policy.Criteria, error) {
	raw, err := p.c.get(ctx, "/criteria/current", nil)
	if err != nil {
		return policy.Criteria{}, fmt.Errorf("current criteria: %v: %w", err, subsidy.ErrInvalidData)
	}

	doc := gjson.ParseBytes(raw)
	criteria := policy.Criteria{
		MinLandSize:         doc.Get("min_land_size").Int(),
		MinYield:            doc.Get("min_yield").Int(),
		SustainabilityScore: doc.Get("sustainability_score").Int(),
	}
	for _, crop := range doc.Get("required_crops").Array() {
		criteria.RequiredCrops = append(criteria.RequiredCrops, crop.String())
	}
	return criteria, nil
}

// HTTPOracle reads external signals from the oracle feed.
type HTTPOracle struct {
	c *httpClient
}

var _ Oracle = (*HTTPOracle)(nil)

func NewHTTPOracle(client *http.Client, endpoint, apiKey string, log *logger.Logger) (*HTTPOracle, error) {
	c, err := newHTTPClient(client, endpoint, apiKey, "oracle-provider", log)
	if err != nil {
		return nil, err
	}
	return &HTTPOracle{c: c}, nil
}

func (p *HTTPOracle) ExternalData(ctx context.Context, farmerID string) (oracledata.ExternalData, error) {
	q := url.Values{}
	q.Set("farmer_id", farmerID)
	raw, err := p.c.get(ctx, "/data", q)
	if err != nil {
		return oracledata.ExternalData{}, fmt.Errorf("oracle data for %s: %v: %w", farmerID, err, subsidy.ErrOracleFailure)
	}

	doc := gjson.ParseBytes(raw)
	return oracledata.ExternalData{
		WeatherImpact: doc.Get("weather_impact").Int(),
		MarketPrice:   doc.Get("market_price").Int(),
		VerifiedYield: doc.Get("verified_yield").Int(),
	}, nil
}

// HTTPApplicationStatus reads and updates the application status store.
type HTTPApplicationStatus struct {
	c *httpClient
}

var _ ApplicationStatus = (*HTTPApplicationStatus)(nil)

func NewHTTPApplicationStatus(client *http.Client, endpoint, apiKey string, log *logger.Logger) (*HTTPApplicationStatus, error) {
	c, err := newHTTPClient(client, endpoint, apiKey, "applications-provider", log)
	if err != nil {
		return nil, err
	}
	return &HTTPApplicationStatus{c: c}, nil
}

func (p *HTTPApplicationStatus) GetApplication(ctx context.Context, applicationID string) (subsidy.Application, error) {
	raw, err := p.c.get(ctx, "/applications/"+url.PathEscape(applicationID), nil)
	if err != nil {
		return subsidy.Application{}, fmt.Errorf("application %s: %v: %w", applicationID, err, subsidy.ErrInvalidApplication)
	}

	doc := gjson.ParseBytes(raw)
	return subsidy.Application{
		ApplicationID: applicationID,
		FarmerID:      doc.Get("farmer_id").String(),
		Status:        subsidy.Status(doc.Get("status").String()),
	}, nil
}

func (p *HTTPApplicationStatus) UpdateStatus(ctx context.Context, applicationID string, status subsidy.Status) error {
	_, err := p.c.post(ctx, "/applications/"+url.PathEscape(applicationID)+"/status", map[string]string{
		"status": string(status),
	})
	if err != nil {
		return fmt.Errorf("update application %s: %v: %w", applicationID, err, subsidy.ErrInvalidApplication)
	}
	return nil
}

// HTTPCustodian executes fee transfers through the custody service.
type HTTPCustodian struct {
	c *httpClient
}

var _ Custodian = (*HTTPCustodian)(nil)

func NewHTTPCustodian(client *http.Client, endpoint, apiKey string, log *logger.Logger) (*HTTPCustodian, error) {
	c, err := newHTTPClient(client, endpoint, apiKey, "custody-provider", log)
	if err != nil {
		return nil, err
	}
	return &HTTPCustodian{c: c}, nil
}

func (p *HTTPCustodian) Transfer(ctx context.Context, from, to string, amount int64) error {
	raw, err := p.c.post(ctx, "/transfers", map[string]any{
		"from":   from,
		"to":     to,
		"amount": amount,
	})
	if err != nil {
		return fmt.Errorf("transfer %d from %s: %w", amount, from, err)
	}
	if ok := gjson.GetBytes(raw, "success"); ok.Exists() && !ok.Bool() {
		return fmt.Errorf("transfer %d from %s rejected: %s", amount, from, gjson.GetBytes(raw, "error").String())
	}
	return nil
}

// HTTPClock reads the platform height counter.
type HTTPClock struct {
	c *httpClient
}

var _ Clock = (*HTTPClock)(nil)

func NewHTTPClock(client *http.Client, endpoint, apiKey string, log *logger.Logger) (*HTTPClock, error) {
	c, err := newHTTPClient(client, endpoint, apiKey, "clock-provider", log)
	if err != nil {
		return nil, err
	}
	return &HTTPClock{c: c}, nil
}

func (p *HTTPClock) Height(ctx context.Context) (uint64, error) {
	raw, err := p.c.get(ctx, "/height", nil)
	if err != nil {
		return 0, fmt.Errorf("read height: %w", err)
	}
	return gjson.GetBytes(raw, "height").Uint(), nil
}
