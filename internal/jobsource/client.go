// Package jobsource fetches raw job records from the FindSGJobs search API.
// The API is rate limited to 60 requests per minute per IP and its response
// envelope varies between versions, so fetching probes several shapes.
package jobsource

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jonathan/job-matcher/internal/llm"
)

// DefaultBaseURL is the production search endpoint.
const DefaultBaseURL = "https://www.findsgjobs.com/api/jobs/search"

// defaultQuotaPerMinute mirrors the API's published per-IP limit.
const defaultQuotaPerMinute = 60

// ErrRateLimited signals the API rejected a request with HTTP 429.
var ErrRateLimited = errors.New("jobsource: rate limit exceeded")

// Client is a rate-limited FindSGJobs API client.
type Client struct {
	baseURL string
	http    *http.Client
	limiter *llm.WindowLimiter
	log     *zap.Logger
}

// NewClient creates a Client. quotaPerMinute <= 0 uses the API's published
// limit; a nil logger disables logging.
func NewClient(baseURL string, quotaPerMinute int, log *zap.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if quotaPerMinute <= 0 {
		quotaPerMinute = defaultQuotaPerMinute
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
		limiter: llm.NewWindowLimiter(quotaPerMinute, time.Minute),
		log:     log,
	}
}

// SearchParams are the filters forwarded to the search API. Zero values are
// omitted from the query. List filters are joined with commas as the API
// requires.
type SearchParams struct {
	Keywords           string
	EmploymentTypes    []int
	JobCategories      []int
	MinEducationLevels []int
	MinYearsExperience []int
	NearestMRTIDs      []int
	Position           string // "pmet" or "non_pmet"
	CurrencyID         int
	MinSalary          int
	MaxSalary          int
	SalaryIntervalID   int
	SortField          string // "activation_date" or "relevance"
	SortDirection      string // "asc" or "desc"
}

func (p SearchParams) query(page int) url.Values {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))

	if p.Keywords != "" {
		q.Set("keywords", p.Keywords)
	}
	setIntList(q, "EmploymentType", p.EmploymentTypes)
	setIntList(q, "JobCategory", p.JobCategories)
	setIntList(q, "MinimumEducationLevel", p.MinEducationLevels)
	setIntList(q, "MinimumYearsofExperience", p.MinYearsExperience)
	setIntList(q, "id_Job_NearestMRTStation", p.NearestMRTIDs)
	if p.Position != "" {
		q.Set("Position", p.Position)
	}
	if p.CurrencyID > 0 {
		q.Set("id_Job_Currency", strconv.Itoa(p.CurrencyID))
	}
	if p.MinSalary > 0 {
		q.Set("id_Job_Salary", strconv.Itoa(p.MinSalary))
	}
	if p.MaxSalary > 0 {
		q.Set("id_Job_MaxSalary", strconv.Itoa(p.MaxSalary))
	}
	if p.SalaryIntervalID > 0 {
		q.Set("id_Job_Interval", strconv.Itoa(p.SalaryIntervalID))
	}
	sortField := p.SortField
	if sortField == "" {
		sortField = "activation_date"
	}
	q.Set("sort_field", sortField)
	sortDirection := p.SortDirection
	if sortDirection == "" {
		sortDirection = "desc"
	}
	q.Set("sort_direction", sortDirection)
	return q
}

func setIntList(q url.Values, key string, values []int) {
	if len(values) == 0 {
		return
	}
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	q.Set(key, strings.Join(parts, ","))
}

// Search fetches one page and returns the decoded JSON envelope.
func (c *Client) Search(ctx context.Context, page int, params SearchParams) (any, error) {
	c.limiter.Acquire("findsgjobs")

	reqURL := c.baseURL + "?" + params.query(page).Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build search request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("%w (page %d)", ErrRateLimited, page)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 500))
		return nil, fmt.Errorf("search returned status %d: %s", resp.StatusCode, string(body))
	}

	var data any
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("invalid JSON response from API: %w", err)
	}
	return data, nil
}

// FetchAll fetches up to maxPages pages of job records, stopping early on an
// empty page, an unrecognizable envelope, or a rate-limit rejection. Records
// gathered before the stop are always returned.
func (c *Client) FetchAll(ctx context.Context, maxPages int, params SearchParams) ([]map[string]any, error) {
	if maxPages <= 0 {
		maxPages = 1
	}

	var all []map[string]any
	for page := 1; page <= maxPages; page++ {
		data, err := c.Search(ctx, page, params)
		if err != nil {
			if errors.Is(err, ErrRateLimited) {
				c.log.Warn("rate limit exceeded, stopping fetch", zap.Int("page", page))
				return all, nil
			}
			if page == 1 {
				return nil, err
			}
			c.log.Warn("page fetch failed, stopping", zap.Int("page", page), zap.Error(err))
			return all, nil
		}

		records := ExtractRecords(data)
		if len(records) == 0 {
			c.log.Debug("page returned no job records, stopping pagination", zap.Int("page", page))
			break
		}
		all = append(all, records...)
		c.log.Info("fetched job records",
			zap.Int("page", page),
			zap.Int("count", len(records)),
			zap.Int("total", len(all)))
	}
	return all, nil
}
