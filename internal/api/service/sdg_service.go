package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
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
	sdgPageSize        = 1000
	sdgDefaultMaxPages = 100
	sdgListCacheTTL    = 24 * time.Hour
)

type SdgGoal struct {
	Code        string `json:"code"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

type SdgIndicator struct {
	Goal        string `json:"goal"`
	Code        string `json:"code"`
	Description string `json:"description"`
}

type SdgGeoArea struct {
	GeoAreaCode string `json:"geoAreaCode"`
	GeoAreaName string `json:"geoAreaName"`
}

// SdgQuery selects indicator data. Years is inclusive; a zero MaxPages
// falls back to the default of 100 pages of 1000 rows.
type SdgQuery struct {
	Indicators []string
	AreaCodes  []string
	YearFrom   int
	YearTo     int
	MaxPages   int
}

type SdgService struct {
	client         *http.Client
	baseURL        string
	referencePath  string
	datasetService *DatasetService
	logger         zerolog.Logger
}

func NewSdgService(datasetService *DatasetService) *SdgService {
	config := studio.GetConfig().SdgConfig
	return &SdgService{
		client:         &http.Client{Timeout: 60 * time.Second},
		baseURL:        strings.TrimRight(config.BaseURL, "/"),
		referencePath:  config.ReferencePath,
		datasetService: datasetService,
		logger:         studio.Logger,
	}
}

func (slf *SdgService) Goals(ctx context.Context) ([]SdgGoal, error) {
	var goals []SdgGoal
	err := slf.cachedList(ctx, "sdg:goals", "/v1/sdg/Goal/List?includechildren=false", &goals)
	return goals, err
}

func (slf *SdgService) Indicators(ctx context.Context) ([]SdgIndicator, error) {
	var indicators []SdgIndicator
	err := slf.cachedList(ctx, "sdg:indicators", "/v1/sdg/Indicator/List", &indicators)
	return indicators, err
}

func (slf *SdgService) GeoAreas(ctx context.Context) ([]SdgGeoArea, error) {
	var areas []SdgGeoArea
	err := slf.cachedList(ctx, "sdg:geoareas", "/v1/sdg/GeoArea/List", &areas)
	return areas, err
}

func (slf *SdgService) cachedList(ctx context.Context, cacheKey, path string, out any) error {
	if err := pkg.RedisGet(cacheKey, out); err == nil {
		return nil
	} else if !pkg.IsRedisNil(err) {
		slf.logger.Warn().Err(err).Msg("Redis error reading SDG cache")
	}

	if err := slf.getJSON(ctx, slf.baseURL+path, out); err != nil {
		return err
	}
	_ = pkg.RedisSet(cacheKey, out, sdgListCacheTTL)
	return nil
}

// FetchIndicatorData pages through /v1/sdg/Indicator/Data until a short page
// or the page cap, then merges the iso3 country reference columns.
func (slf *SdgService) FetchIndicatorData(ctx context.Context, query SdgQuery) (*frame.Frame, error) {
	if len(query.Indicators) == 0 {
		return nil, fmt.Errorf("at least one indicator is required")
	}
	maxPages := query.MaxPages
	if maxPages <= 0 {
		maxPages = sdgDefaultMaxPages
	}

	params := url.Values{}
	for _, ind := range query.Indicators {
		params.Add("indicator", ind)
	}
	for _, area := range query.AreaCodes {
		params.Add("areaCode", area)
	}
	if query.YearFrom > 0 && query.YearTo >= query.YearFrom {
		for year := query.YearFrom; year <= query.YearTo; year++ {
			params.Add("timePeriod", strconv.Itoa(year))
		}
	}
	params.Set("pageSize", strconv.Itoa(sdgPageSize))

	type entry struct {
		Indicator         []string `json:"indicator"`
		Value             string   `json:"value"`
		TimePeriodStart   float64  `json:"timePeriodStart"`
		GeoAreaCode       string   `json:"geoAreaCode"`
		GeoAreaName       string   `json:"geoAreaName"`
		Series            string   `json:"series"`
		SeriesDescription string   `json:"seriesDescription"`
	}

	f := frame.New([]string{"Indicator", "Series", "Year", "Country", "Value", "m49", "SeriesDescription"})
	for page := 1; page <= maxPages; page++ {
		params.Set("page", strconv.Itoa(page))
		var payload struct {
			Data []entry `json:"data"`
		}
		if err := slf.getJSON(ctx, slf.baseURL+"/v1/sdg/Indicator/Data?"+params.Encode(), &payload); err != nil {
			return nil, fmt.Errorf("sdg data page %d: %w", page, err)
		}
		if len(payload.Data) == 0 {
			break
		}
		for _, e := range payload.Data {
			indicator := ""
			if len(e.Indicator) > 0 {
				indicator = e.Indicator[0]
			}
			f.Rows = append(f.Rows, []any{
				indicator,
				e.Series,
				int64(e.TimePeriodStart),
				e.GeoAreaName,
				coerceNumeric(e.Value),
				e.GeoAreaCode,
				e.SeriesDescription,
			})
		}
		if len(payload.Data) < sdgPageSize {
			break
		}
	}

	return slf.mergeCountryReference(f)
}

// SaveAsDataset fetches indicator data and lands it as a dataset.
func (slf *SdgService) SaveAsDataset(ctx context.Context, userID uint, name, description string, query SdgQuery) (*models.Dataset, error) {
	f, err := slf.FetchIndicatorData(ctx, query)
	if err != nil {
		return nil, err
	}
	dataset := models.Dataset{
		Name:        name,
		Description: description,
		CreatorID:   userID,
		Source:      models.DatasetSourceSdg,
	}
	return slf.datasetService.IngestFrame(ctx, dataset, f)
}

// mergeCountryReference left-joins the iso3 reference on the m49 code,
// adding region names and iso codes. A missing reference file degrades to
// the unmerged frame.
func (slf *SdgService) mergeCountryReference(f *frame.Frame) (*frame.Frame, error) {
	ref, err := slf.loadCountryReference()
	if err != nil {
		slf.logger.Warn().Err(err).Str("path", slf.referencePath).Msg("Country reference unavailable, skipping merge")
		return f, nil
	}

	refCols := []string{"Region Name", "Sub-region Name", "iso2", "iso3"}
	refIdx := make([]int, len(refCols))
	for i, col := range refCols {
		refIdx[i] = ref.ColumnIndex(col)
	}
	m49Idx := ref.ColumnIndex("m49")
	srcM49 := f.ColumnIndex("m49")
	if m49Idx < 0 || srcM49 < 0 {
		return f, nil
	}

	byM49 := make(map[string][]any, len(ref.Rows))
	for _, row := range ref.Rows {
		byM49[cellString(row[m49Idx])] = row
	}

	out := frame.New(append(append([]string{}, f.Columns...), refCols...))
	for _, row := range f.Rows {
		merged := append([]any{}, row...)
		refRow := byM49[cellString(row[srcM49])]
		for _, idx := range refIdx {
			if refRow != nil && idx >= 0 {
				merged = append(merged, refRow[idx])
			} else {
				merged = append(merged, nil)
			}
		}
		out.Rows = append(out.Rows, merged)
	}
	return out, nil
}

func (slf *SdgService) loadCountryReference() (*frame.Frame, error) {
	file, err := os.Open(slf.referencePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return frame.ReadCSV(file)
}

func (slf *SdgService) getJSON(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	resp, err := slf.client.Do(req)
	if err != nil {
		return fmt.Errorf("sdg request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("sdg request failed: %d %s", resp.StatusCode, string(body))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// coerceNumeric parses the API's stringly-typed values; non-numeric values
// become nil, matching pandas to_numeric with coercion.
func coerceNumeric(s string) any {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return nil
	}
	if x, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return x
	}
	return nil
}

func cellString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64)
	default:
		return fmt.Sprintf("%v", val)
	}
}
