// Package normalize converts raw job records from the postings API into
// validated Posting values. The API nests job and company data, renames
// fields between versions, and embeds HTML in descriptions, so extraction
// probes several known shapes before giving up on a record.
package normalize

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"

	"github.com/jonathan/job-matcher/internal/types"
)

// Normalizer converts raw API records into validated postings.
type Normalizer struct {
	log      *zap.Logger
	validate *validator.Validate
}

// New creates a Normalizer. A nil logger disables logging.
func New(log *zap.Logger) *Normalizer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Normalizer{
		log:      log,
		validate: validator.New(),
	}
}

// All normalizes every record, dropping the ones that fail validation.
// A dropped record is logged and never fails the batch.
func (n *Normalizer) All(records []map[string]any) []types.Posting {
	postings := make([]types.Posting, 0, len(records))
	for i, record := range records {
		posting, err := n.One(record)
		if err != nil {
			n.log.Warn("dropping unusable job record",
				zap.Int("index", i),
				zap.Error(err))
			continue
		}
		postings = append(postings, posting)
	}
	return postings
}

// One normalizes a single raw record.
func (n *Normalizer) One(record map[string]any) (types.Posting, error) {
	jobData := subMap(record, "job")
	if len(jobData) == 0 {
		jobData = record
	}
	companyData := subMap(record, "company")

	posting := types.Posting{
		ID:          extractID(record, jobData, companyData),
		Title:       probe(jobData, "Title", "title", "job_title", "JobTitle", "name", "Name"),
		Company:     extractCompany(record, companyData),
		Location:    extractLocation(jobData, companyData),
		SalaryText:  extractSalary(jobData),
		Category:    extractCategory(jobData),
		Description: extractDescription(jobData),
		URL:         extractURL(record, jobData, companyData),
		ImageURL:    extractImageURL(companyData),
	}

	if posting.Location == "" {
		posting.Location = "Location Not Specified"
	}

	if err := n.validate.Struct(posting); err != nil {
		return types.Posting{}, fmt.Errorf("record failed validation: %w", err)
	}
	return posting, nil
}

// extractCompany reads the company name from the nested company object, or
// from a plain "company" string when the record carries no object.
func extractCompany(record, companyData map[string]any) string {
	if name := probe(companyData, "CompanyName", "company_name", "Company", "company", "name", "Name"); name != "" {
		return name
	}
	return extractText(record["company"])
}

// subMap returns record[key] as a map when it is one.
func subMap(record map[string]any, key string) map[string]any {
	if v, ok := record[key].(map[string]any); ok {
		return v
	}
	return nil
}

// extractText pulls readable text out of the value shapes the API uses:
// plain strings (possibly HTML), caption objects, and lists of either.
func extractText(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return cleanText(v)
	case map[string]any:
		for _, key := range []string{"caption", "text", "content", "name", "title", "value", "description", "label", "address"} {
			if inner, ok := v[key]; ok {
				if s := extractText(inner); s != "" {
					return s
				}
			}
		}
		return ""
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			if s := extractText(item); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case bool:
		return ""
	default:
		return ""
	}
}

// cleanText strips HTML markup and collapses whitespace.
func cleanText(s string) string {
	if strings.ContainsAny(s, "<&") {
		if doc, err := goquery.NewDocumentFromReader(strings.NewReader(s)); err == nil {
			s = doc.Text()
		}
	}
	return strings.Join(strings.Fields(s), " ")
}

// probe tries each key in order and returns the first extractable text.
func probe(data map[string]any, keys ...string) string {
	for _, key := range keys {
		if v, ok := data[key]; ok {
			if s := extractText(v); s != "" {
				return s
			}
		}
	}
	return ""
}

func extractID(record, jobData, companyData map[string]any) string {
	for _, data := range []map[string]any{jobData, record} {
		for _, key := range []string{"id", "job_id", "Id", "JobId"} {
			if v, ok := data[key]; ok {
				if s := extractText(v); s != "" {
					return s
				}
			}
		}
	}
	if s := extractText(jobData["company_sid"]); s != "" {
		return s
	}

	// Last resort: derive a stable placeholder from title and company.
	title := probe(jobData, "Title", "title")
	company := probe(companyData, "CompanyName", "company_name")
	if title == "" && company == "" {
		return ""
	}
	if len(title) > 20 {
		title = title[:20]
	}
	if len(company) > 20 {
		company = company[:20]
	}
	return strings.ReplaceAll(strings.TrimSpace(title+"_"+company), " ", "_")
}

func extractLocation(jobData, companyData map[string]any) string {
	if place, ok := companyData["GooglePlace"].(map[string]any); ok {
		if s := extractText(place["address"]); s != "" {
			return s
		}
		if s := extractText(place["name"]); s != "" {
			return s
		}
	}
	return probe(jobData, "location", "Location", "address", "Address", "city", "City")
}

// salaryFields carries the numeric salary columns; the API serves them as
// numbers or numeric strings depending on the endpoint version.
type salaryFields struct {
	Min int `mapstructure:"id_Job_Salary"`
	Max int `mapstructure:"id_Job_MaxSalary"`
}

func extractSalary(jobData map[string]any) string {
	var fields salaryFields
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &fields,
		WeaklyTypedInput: true,
	})
	if err != nil || decoder.Decode(jobData) != nil {
		return ""
	}
	if fields.Min <= 0 && fields.Max <= 0 {
		return ""
	}

	currency := extractText(jobData["id_Job_Currency"])
	if currency == "" {
		currency = "SGD"
	}
	interval := extractText(jobData["id_Job_Interval"])
	if interval == "" {
		interval = "month"
	}

	switch {
	case fields.Min > 0 && fields.Max > 0:
		return fmt.Sprintf("%s %s-%s per %s", currency, groupDigits(fields.Min), groupDigits(fields.Max), interval)
	case fields.Min > 0:
		return fmt.Sprintf("%s %s+ per %s", currency, groupDigits(fields.Min), interval)
	default:
		return fmt.Sprintf("%s up to %s per %s", currency, groupDigits(fields.Max), interval)
	}
}

// groupDigits formats n with thousands separators.
func groupDigits(n int) string {
	s := strconv.Itoa(n)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

func extractCategory(jobData map[string]any) string {
	categories, ok := jobData["JobCategory"].([]any)
	if !ok {
		return ""
	}
	parts := make([]string, 0, len(categories))
	for _, cat := range categories {
		if m, ok := cat.(map[string]any); ok {
			if s := extractText(m["caption"]); s != "" {
				parts = append(parts, s)
			}
		}
	}
	return strings.Join(parts, ", ")
}

func extractDescription(jobData map[string]any) string {
	return probe(jobData,
		"JobDescription", "job_description", "Description", "description",
		"summary", "Summary", "details", "Details", "content", "Content")
}

func extractURL(record, jobData, companyData map[string]any) string {
	candidates := []any{
		jobData["url"], jobData["job_url"], jobData["Url"], jobData["URL"],
		jobData["link"], jobData["Link"],
		jobData["application_url"], jobData["ApplicationUrl"],
		record["url"], record["job_url"],
	}
	for _, candidate := range candidates {
		if s := extractText(candidate); strings.HasPrefix(s, "http") {
			return s
		}
	}

	// No direct link: build a keyword search URL that finds the posting.
	title := probe(jobData, "Title", "title")
	company := probe(companyData, "CompanyName", "company_name")
	var queryParts []string
	if title != "" {
		queryParts = append(queryParts, strings.ReplaceAll(title, " ", "+"))
	}
	if company != "" {
		queryParts = append(queryParts, strings.ReplaceAll(company, " ", "+"))
	}
	if len(queryParts) > 0 {
		return "https://www.findsgjobs.com/jobs?keywords=" + strings.Join(queryParts, "+")
	}

	if s := extractText(companyData["Website"]); strings.HasPrefix(s, "http") {
		return s
	}
	return ""
}

func extractImageURL(companyData map[string]any) string {
	for _, key := range []string{"Logo", "id__FeaturedImage"} {
		image, ok := companyData[key].(map[string]any)
		if !ok {
			continue
		}
		for _, field := range []string{"src", "file_url", "uri", "url"} {
			raw, ok := image[field].(string)
			if !ok || raw == "" {
				continue
			}
			switch {
			case strings.HasPrefix(raw, "http"):
				return raw
			case strings.HasPrefix(raw, "files/"):
				return "https://www.findsgjobs.com/" + raw
			default:
				return "https://www.findsgjobs.com/files/" + raw
			}
		}
	}
	return ""
}
