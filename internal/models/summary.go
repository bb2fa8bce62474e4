package models

import "time"

// Summary describes the outcome of a crawl
type Summary struct {
	StartingURL  string        `json:"starting_url"`
	DepthReached int           `json:"depth_reached"`
	GeneratedAt  time.Time     `json:"generated_at"`
	TotalURLs    int           `json:"total_urls"`
	Statuses     []StatusCount `json:"statuses"`
	TopHosts     []HostCount   `json:"top_hosts"`
	Words        WordStats     `json:"words"`
}

// StatusCount holds the URLs recorded under one status
type StatusCount struct {
	Status string   `json:"status"`
	Count  int      `json:"count"`
	URLs   []string `json:"urls,omitempty"`
}

// HostCount is the number of known URLs on one host
type HostCount struct {
	Host  string `json:"host"`
	Count int    `json:"count"`
}

// WordStats summarizes the dictionary
type WordStats struct {
	Unique        int            `json:"unique"`
	AverageLength float64        `json:"average_length"`
	Longest       string         `json:"longest,omitempty"`
	Lengths       []LengthBucket `json:"lengths"`
}

// LengthBucket counts words of a given length in runes
type LengthBucket struct {
	Length int `json:"length"`
	Count  int `json:"count"`
}

// Count returns the number of URLs recorded under status, or 0.
func (s *Summary) Count(status string) int {
	for _, sc := range s.Statuses {
		if sc.Status == status {
			return sc.Count
		}
	}
	return 0
}
