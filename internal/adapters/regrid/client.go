// Package regrid fetches parcel boundaries from the Regrid parcel API.
package regrid

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/paulmach/orb/geojson"

	geojsonadapter "github.com/samirrijal/plotfit/internal/adapters/geojson"
	"github.com/samirrijal/plotfit/internal/core/domain"
)

// DefaultBaseURL is the public Regrid endpoint.
const DefaultBaseURL = "https://app.regrid.com"

const maxBody = 32 << 20

// Client implements ports.PolygonProvider.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewClient creates a client. A zero timeout means 30 seconds.
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: timeout},
	}
}

type pointResponse struct {
	Parcels *geojson.FeatureCollection `json:"parcels"`
}

// FetchPolygons returns the parcels at (lat, lon). Regrid answers with the
// parcels as a FeatureCollection under "parcels".
func (c *Client) FetchPolygons(ctx context.Context, lat, lon float64) ([]domain.Polygon, error) {
	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	q.Set("token", c.token)
	endpoint := c.baseURL + "/api/v2/parcels/point?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("regrid request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("regrid: HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	var pr pointResponse
	if err := json.Unmarshal(body, &pr); err != nil {
		return nil, fmt.Errorf("decode regrid response: %v: %w", err, domain.ErrProviderFailure)
	}
	if pr.Parcels == nil {
		return nil, fmt.Errorf("regrid response has no parcels: %w", domain.ErrProviderFailure)
	}
	return geojsonadapter.FromFeatures(pr.Parcels.Features)
}
