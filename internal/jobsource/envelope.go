package jobsource

import (
	"sort"
	"strconv"
)

// listKeys are the envelope keys known to hold the job list.
var listKeys = []string{"data", "jobs", "results", "items", "jobList", "JobList", "job_list"}

// jobMarkers imply a map is a single job object rather than an envelope.
var jobMarkers = []string{"id", "title", "job_title", "Title", "company", "Company"}

// ExtractRecords discovers the job list inside whatever envelope the API
// served: a bare list, a keyed list, a nested keyed list, a numeric-keyed
// map used as a list, or a single job object.
func ExtractRecords(data any) []map[string]any {
	switch v := data.(type) {
	case []any:
		return recordList(v)
	case map[string]any:
		// Known list keys, directly or one level down.
		for _, key := range listKeys {
			inner, ok := v[key]
			if !ok {
				continue
			}
			if list, ok := inner.([]any); ok {
				if records := recordList(list); len(records) > 0 {
					return records
				}
			}
			if nested, ok := inner.(map[string]any); ok {
				for _, nestedValue := range nested {
					if list, ok := nestedValue.([]any); ok {
						if records := recordList(list); len(records) > 0 {
							return records
						}
					}
				}
			}
		}

		// A map with all-numeric keys is a list in disguise.
		if records := numericKeyedList(v); len(records) > 0 {
			return records
		}

		// Any list-of-objects value.
		for _, value := range v {
			if list, ok := value.([]any); ok {
				if records := recordList(list); len(records) > 0 {
					return records
				}
			}
		}

		// The envelope itself might be a single job object.
		for _, marker := range jobMarkers {
			if _, ok := v[marker]; ok {
				return []map[string]any{v}
			}
		}
	}
	return nil
}

func recordList(list []any) []map[string]any {
	records := make([]map[string]any, 0, len(list))
	for _, item := range list {
		if m, ok := item.(map[string]any); ok {
			records = append(records, m)
		}
	}
	return records
}

func numericKeyedList(v map[string]any) []map[string]any {
	type entry struct {
		index  int
		record map[string]any
	}
	entries := make([]entry, 0, len(v))
	for key, value := range v {
		index, err := strconv.Atoi(key)
		if err != nil {
			return nil
		}
		record, ok := value.(map[string]any)
		if !ok {
			return nil
		}
		entries = append(entries, entry{index: index, record: record})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].index < entries[j].index })

	records := make([]map[string]any, len(entries))
	for i, e := range entries {
		records[i] = e.record
	}
	return records
}
