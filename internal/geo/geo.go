// Package geo resolves coordinates to a human-readable address for
// registration forms. Lookups are strictly best-effort: a primary
// OpenStreetMap-compatible endpoint is tried first, a simpler backup endpoint
// second, and everything is bounded by a hard 12 second budget. Callers treat
// an empty result as "fill the address manually".
package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// DefaultTimeout caps the whole reverse lookup, both endpoints included.
const DefaultTimeout = 12 * time.Second

// ErrNoResult indicates both endpoints answered but neither produced a
// usable place name.
var ErrNoResult = errors.New("no reverse geocoding result")

// Client performs reverse geocoding lookups.
type Client struct {
	primaryURL string
	backupURL  string
	http       *http.Client
	log        zerolog.Logger
}

// NewClient builds a geocoding client. Empty URLs disable the corresponding
// endpoint; a zero timeout means DefaultTimeout.
func NewClient(primaryURL, backupURL string, timeout time.Duration, log zerolog.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		primaryURL: strings.TrimRight(strings.TrimSpace(primaryURL), "/"),
		backupURL:  strings.TrimRight(strings.TrimSpace(backupURL), "/"),
		http:       &http.Client{Timeout: timeout},
		log:        log,
	}
}

// primaryResponse is the OpenStreetMap (nominatim) jsonv2 reverse shape,
// reduced to the fields the address is assembled from.
type primaryResponse struct {
	DisplayName string `json:"display_name"`
	Address     struct {
		HouseNumber   string `json:"house_number"`
		Road          string `json:"road"`
		Suburb        string `json:"suburb"`
		Neighbourhood string `json:"neighbourhood"`
		CityDistrict  string `json:"city_district"`
		Quarter       string `json:"quarter"`
		City          string `json:"city"`
		Town          string `json:"town"`
		Village       string `json:"village"`
		County        string `json:"county"`
		State         string `json:"state"`
		StateDistrict string `json:"state_district"`
		Postcode      string `json:"postcode"`
		Country       string `json:"country"`
	} `json:"address"`
}

// backupResponse is the simpler backup endpoint's shape.
type backupResponse struct {
	Locality             string `json:"locality"`
	City                 string `json:"city"`
	PrincipalSubdivision string `json:"principalSubdivision"`
	CountryName          string `json:"countryName"`
}

// ReverseGeocode resolves coordinates to a place name. It returns "" with an
// error when neither endpoint produced one; callers degrade to manual entry.
func (c *Client) ReverseGeocode(ctx context.Context, lat, lon float64) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.http.Timeout)
	defer cancel()

	if c.primaryURL != "" {
		place, err := c.reversePrimary(ctx, lat, lon)
		if err == nil && place != "" {
			return place, nil
		}
		if err != nil {
			c.log.Debug().Err(err).Msg("primary reverse geocode failed; trying backup")
		}
	}

	if c.backupURL != "" {
		place, err := c.reverseBackup(ctx, lat, lon)
		if err != nil {
			return "", err
		}
		if place != "" {
			return place, nil
		}
	}
	return "", ErrNoResult
}

func (c *Client) reversePrimary(ctx context.Context, lat, lon float64) (string, error) {
	url := fmt.Sprintf("%s/reverse?format=jsonv2&lat=%f&lon=%f&addressdetails=1&zoom=18", c.primaryURL, lat, lon)

	var res primaryResponse
	if err := c.getJSON(ctx, url, &res); err != nil {
		return "", err
	}

	a := res.Address
	street := strings.TrimSpace(strings.Join(nonEmpty(a.HouseNumber, a.Road), " "))
	locality := firstNonEmpty(a.Suburb, a.Neighbourhood, a.CityDistrict, a.Quarter)
	city := firstNonEmpty(a.City, a.Town, a.Village, a.County)
	state := firstNonEmpty(a.State, a.StateDistrict)

	place := joinUniqueParts(street, locality, city, state, a.Postcode, a.Country)
	if place == "" {
		place = strings.TrimSpace(res.DisplayName)
	}
	return place, nil
}

func (c *Client) reverseBackup(ctx context.Context, lat, lon float64) (string, error) {
	url := fmt.Sprintf("%s/data/reverse-geocode-client?latitude=%f&longitude=%f&localityLanguage=en", c.backupURL, lat, lon)

	var res backupResponse
	if err := c.getJSON(ctx, url, &res); err != nil {
		return "", err
	}
	return joinUniqueParts(res.Locality, res.City, res.PrincipalSubdivision, res.CountryName), nil
}

func (c *Client) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("reverse geocode: status %d", res.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return err
	}
	return json.Unmarshal(body, out)
}

// joinUniqueParts joins trimmed, non-empty, first-seen-unique address parts
// with commas.
func joinUniqueParts(parts ...string) string {
	seen := make(map[string]struct{}, len(parts))
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		cleaned := strings.TrimSpace(part)
		if cleaned == "" {
			continue
		}
		if _, dup := seen[cleaned]; dup {
			continue
		}
		seen[cleaned] = struct{}{}
		out = append(out, cleaned)
	}
	return strings.Join(out, ", ")
}

func nonEmpty(vals ...string) []string {
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return out
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
