package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"studio"
	"studio/internal/api/models"
	"studio/internal/frame"
	"studio/pkg"
)

const (
	acledTokenCacheKey = "acled:token"
	acledTokenTTL      = 50 * time.Minute
	acledReadCacheTTL  = 30 * time.Minute
)

// AcledFilter narrows an event read. Multi-value filters are pipe-joined on
// the wire, the way the ACLED API expects them.
type AcledFilter struct {
	Countries     []string
	Regions       []string
	SubEventTypes []string
	YearFrom      int
	YearTo        int
	Limit         int
}

type AcledService struct {
	client         *http.Client
	baseURL        string
	datasetService *DatasetService
	logger         zerolog.Logger
}

func NewAcledService(datasetService *DatasetService) *AcledService {
	return &AcledService{
		client:         &http.Client{Timeout: 60 * time.Second},
		baseURL:        strings.TrimRight(studio.GetConfig().AcledConfig.BaseURL, "/"),
		datasetService: datasetService,
		logger:         studio.Logger,
	}
}

// FetchEvents pulls conflict events matching the filter. Responses are
// cached in Redis keyed by the filter so repeated dashboard reads do not
// hammer the API.
func (slf *AcledService) FetchEvents(ctx context.Context, filter AcledFilter) (*frame.Frame, error) {
	cacheKey := acledCacheKey(filter)
	var cached frame.Frame
	if err := pkg.RedisGet(cacheKey, &cached); err == nil {
		return &cached, nil
	} else if !pkg.IsRedisNil(err) {
		slf.logger.Warn().Err(err).Msg("Redis error reading ACLED cache")
	}

	token, err := slf.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	f, err := slf.read(ctx, token, filter)
	if err != nil {
		return nil, err
	}
	_ = pkg.RedisSet(cacheKey, f, acledReadCacheTTL)
	return f, nil
}

// SaveAsDataset fetches events and lands them as a dataset.
func (slf *AcledService) SaveAsDataset(ctx context.Context, userID uint, name, description string, filter AcledFilter) (*models.Dataset, error) {
	f, err := slf.FetchEvents(ctx, filter)
	if err != nil {
		return nil, err
	}
	dataset := models.Dataset{
		Name:        name,
		Description: description,
		CreatorID:   userID,
		Source:      models.DatasetSourceAcled,
	}
	return slf.datasetService.IngestFrame(ctx, dataset, f)
}

// accessToken resolves an OAuth password-grant token, cached short of its
// one-hour lifetime.
func (slf *AcledService) accessToken(ctx context.Context) (string, error) {
	var token string
	if err := pkg.RedisGet(acledTokenCacheKey, &token); err == nil && token != "" {
		return token, nil
	}

	config := studio.GetConfig().AcledConfig
	if config.Email == "" || config.Key == "" {
		return "", fmt.Errorf("acled credentials are not configured")
	}

	form := url.Values{
		"username":   {config.Email},
		"password":   {config.Key},
		"grant_type": {"password"},
		"client_id":  {"acled"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, slf.baseURL+"/oauth/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := slf.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("acled token request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("acled token request failed: %d %s", resp.StatusCode, string(body))
	}

	var payload struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("acled token decode failed: %w", err)
	}
	if payload.AccessToken == "" {
		return "", fmt.Errorf("acled token response had no access_token")
	}
	_ = pkg.RedisSet(acledTokenCacheKey, payload.AccessToken, acledTokenTTL)
	return payload.AccessToken, nil
}

func (slf *AcledService) read(ctx context.Context, token string, filter AcledFilter) (*frame.Frame, error) {
	params := url.Values{"_format": {"json"}}
	if len(filter.Countries) > 0 {
		params.Set("country", strings.Join(filter.Countries, "|"))
	}
	if len(filter.Regions) > 0 {
		params.Set("region", strings.Join(filter.Regions, "|"))
	}
	if len(filter.SubEventTypes) > 0 {
		params.Set("sub_event_type", strings.Join(filter.SubEventTypes, "|"))
	}
	if filter.YearFrom > 0 {
		params.Set("year", strconv.Itoa(filter.YearFrom))
		if filter.YearTo > filter.YearFrom {
			params.Set("year_where", ">=")
			params.Set("year_end", strconv.Itoa(filter.YearTo))
		}
	}
	if filter.Limit > 0 {
		params.Set("limit", strconv.Itoa(filter.Limit))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, slf.baseURL+"/api/acled/read?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := slf.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("acled read failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("acled read failed: %d %s", resp.StatusCode, string(body))
	}

	// The API answers either {"data": [...]} or a bare array.
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	var records []map[string]any
	var envelope struct {
		Data []map[string]any `json:"data"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Data != nil {
		records = envelope.Data
	} else {
		if err := json.Unmarshal(raw, &records); err != nil {
			return nil, fmt.Errorf("unexpected acled response format")
		}
	}

	return recordsToFrame(records), nil
}

// recordsToFrame flattens a list of JSON objects into a frame. Columns are
// sorted by name since JSON objects carry no order.
func recordsToFrame(records []map[string]any) *frame.Frame {
	var columns []string
	seen := map[string]bool{}
	for _, record := range records {
		for key := range record {
			if !seen[key] {
				seen[key] = true
				columns = append(columns, key)
			}
		}
	}
	sort.Strings(columns)

	f := frame.New(columns)
	for _, record := range records {
		row := make([]any, len(columns))
		for i, col := range columns {
			row[i] = normalizeJSONValue(record[col])
		}
		f.Rows = append(f.Rows, row)
	}
	return f
}

// normalizeJSONValue coerces decoded JSON cells: whole floats become int64,
// numeric strings become numbers.
func normalizeJSONValue(v any) any {
	switch val := v.(type) {
	case float64:
		if val == float64(int64(val)) {
			return int64(val)
		}
		return val
	case string:
		trimmed := strings.TrimSpace(val)
		if trimmed == "" {
			return val
		}
		if n, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
			return n
		}
		if x, err := strconv.ParseFloat(trimmed, 64); err == nil {
			return x
		}
		return val
	default:
		return v
	}
}

func acledCacheKey(filter AcledFilter) string {
	return fmt.Sprintf("acled:read:%s|%s|%s|%d-%d|%d",
		strings.Join(filter.Countries, ","),
		strings.Join(filter.Regions, ","),
		strings.Join(filter.SubEventTypes, ","),
		filter.YearFrom, filter.YearTo, filter.Limit)
}
