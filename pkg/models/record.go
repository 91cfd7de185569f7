package models

import (
	"time"
)

// Record represents a generic data row fetched for a block
type Record map[string]interface{}

// Helper methods for Record
func (r Record) GetString(key string) string {
	if val, ok := r[key]; ok {
		if str, ok := val.(string); ok {
			return str
		}
	}
	return ""
}

func (r Record) GetBool(key string) bool {
	if val, ok := r[key]; ok {
		if b, ok := val.(bool); ok {
			return b
		}
	}
	return false
}

func (r Record) GetTime(key string) time.Time {
	if val, ok := r[key]; ok {
		if t, ok := val.(time.Time); ok {
			return t
		}
		if tStr, ok := val.(string); ok {
			parsed, _ := time.Parse(time.RFC3339, tStr)
			return parsed
		}
	}
	return time.Time{}
}

func (r Record) Get(key string) interface{} {
	return r[key]
}

// Has reports whether the key is present with a non-nil value
func (r Record) Has(key string) bool {
	val, ok := r[key]
	return ok && val != nil
}

// Clone returns a shallow copy so callers can mutate safely
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// ResultSet is what a data fetch adapter returns for one entity query
type ResultSet struct {
	Data  []Record `json:"data"`
	Total int      `json:"total"`
}

// FetchQuery carries pagination, ordering and adapter-level filters to a
// fetch adapter. Filter values arrive already resolved and typed. The
// in-memory pipeline still applies the blueprint's own filter/order/limit
// after the fetch; these options only bound what the adapter pulls.
type FetchQuery struct {
	Page     int          `json:"page,omitempty"`
	PageSize int          `json:"pageSize,omitempty"`
	Sort     string       `json:"sort,omitempty"`
	Order    string       `json:"order,omitempty"`
	Filters  []FilterSpec `json:"filters,omitempty"`
	Include  []string     `json:"include,omitempty"`
}
