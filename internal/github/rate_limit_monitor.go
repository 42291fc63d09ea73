package github

import (
	"sync"
	"time"

	"github.com/qiniu/x/log"
)

// DefaultRateLimitThreshold is the remaining-request count below which we warn.
const DefaultRateLimitThreshold = 100

// RateLimitMonitor records and logs GitHub API rate limit usage
type RateLimitMonitor struct {
	enabled    bool
	threshold  int
	mutex      sync.RWMutex
	restLimit  *RateLimitStatus
	graphLimit *RateLimitStatus

	restCalls  int64
	graphCalls int64
}

// RateLimitStatus represents the current rate limit status
type RateLimitStatus struct {
	Limit     int       `json:"limit"`
	Remaining int       `json:"remaining"`
	ResetAt   time.Time `json:"reset_at"`
	LastCheck time.Time `json:"last_check"`
}

// RateLimitStatistics contains the calls made during this run
type RateLimitStatistics struct {
	RESTCalls    int64            `json:"rest_calls"`
	GraphQLCalls int64            `json:"graphql_calls"`
	RESTLimit    *RateLimitStatus `json:"rest_limit"`
	GraphQLLimit *RateLimitStatus `json:"graphql_limit"`
}

// NewRateLimitMonitor creates a monitor. A disabled monitor still counts calls
// but stays silent.
func NewRateLimitMonitor(enabled bool, threshold int) *RateLimitMonitor {
	if threshold <= 0 {
		threshold = DefaultRateLimitThreshold
	}
	return &RateLimitMonitor{
		enabled:   enabled,
		threshold: threshold,
	}
}

// RecordRESTAPICall records a REST API call and its rate limit info
func (m *RateLimitMonitor) RecordRESTAPICall(limit, remaining int, resetAt time.Time) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.restCalls++
	m.restLimit = &RateLimitStatus{
		Limit:     limit,
		Remaining: remaining,
		ResetAt:   resetAt,
		LastCheck: time.Now(),
	}

	m.checkAndWarnRateLimit("REST", m.restLimit)
}

// RecordGraphQLAPICall records a GraphQL API call and its rate limit info
func (m *RateLimitMonitor) RecordGraphQLAPICall(limit, remaining, cost int, resetAt time.Time) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.graphCalls++
	m.graphLimit = &RateLimitStatus{
		Limit:     limit,
		Remaining: remaining,
		ResetAt:   resetAt,
		LastCheck: time.Now(),
	}

	m.checkAndWarnRateLimit("GraphQL", m.graphLimit)
	if m.enabled {
		log.Debugf("GraphQL API call - Cost: %d, Remaining: %d/%d", cost, remaining, limit)
	}
}

// checkAndWarnRateLimit logs a warning when the remaining budget is low
func (m *RateLimitMonitor) checkAndWarnRateLimit(apiType string, status *RateLimitStatus) {
	if !m.enabled || status.Limit <= 0 {
		return
	}

	if status.Remaining <= m.threshold {
		percentage := float64(status.Remaining) / float64(status.Limit) * 100
		log.Warnf("%s API rate limit warning: %d/%d remaining (%.1f%%), resets at %s",
			apiType, status.Remaining, status.Limit, percentage, status.ResetAt.Format("15:04:05"))
	}
}

// GetStatistics returns current rate limit statistics
func (m *RateLimitMonitor) GetStatistics() *RateLimitStatistics {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	return &RateLimitStatistics{
		RESTCalls:    m.restCalls,
		GraphQLCalls: m.graphCalls,
		RESTLimit:    copyRateLimitStatus(m.restLimit),
		GraphQLLimit: copyRateLimitStatus(m.graphLimit),
	}
}

func copyRateLimitStatus(status *RateLimitStatus) *RateLimitStatus {
	if status == nil {
		return nil
	}
	cp := *status
	return &cp
}

// LogStatistics logs the calls made during this run
func (m *RateLimitMonitor) LogStatistics() {
	if !m.enabled {
		return
	}

	stats := m.GetStatistics()
	log.Infof("GitHub API calls: REST=%d GraphQL=%d", stats.RESTCalls, stats.GraphQLCalls)

	if stats.RESTLimit != nil && stats.RESTLimit.Limit > 0 {
		log.Infof("REST API rate limit: %d/%d remaining", stats.RESTLimit.Remaining, stats.RESTLimit.Limit)
	}
	if stats.GraphQLLimit != nil && stats.GraphQLLimit.Limit > 0 {
		log.Infof("GraphQL API rate limit: %d/%d remaining", stats.GraphQLLimit.Remaining, stats.GraphQLLimit.Limit)
	}
}

// IsRateLimitCritical reports whether any API has less than 10% of its budget left
func (m *RateLimitMonitor) IsRateLimitCritical() bool {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	for _, status := range []*RateLimitStatus{m.restLimit, m.graphLimit} {
		if status != nil && status.Limit > 0 && float64(status.Remaining)/float64(status.Limit) < 0.1 {
			return true
		}
	}
	return false
}
