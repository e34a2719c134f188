package types

import "time"

// StatisticsResponse is returned by the statistics endpoints
type StatisticsResponse struct {
	From      time.Time     `json:"from"`
	To        time.Time     `json:"to"`
	Nutrition NutritionData `json:"nutrition"`
}

// MonthlyStatisticsResponse lists one entry per day, oldest first
type MonthlyStatisticsResponse struct {
	Days []CountedStatistics `json:"days"`
}

// GoalResponse is the current daily nutrition goal
type GoalResponse struct {
	Goal NutritionData `json:"goal"`
}

// RecommendationsResponse lists stored recommendations, newest first
type RecommendationsResponse struct {
	Recommendations []Recommendation `json:"recommendations"`
}

// LimitStatus is what is left of a per-user hourly budget. Remaining is -1
// when the budget is unlimited.
type LimitStatus struct {
	Remaining int        `json:"remaining"`
	ResetAt   *time.Time `json:"reset_at,omitempty"`
}

// LimitsResponse maps a budget name to its status
type LimitsResponse struct {
	Limits map[string]LimitStatus `json:"limits"`
}

// UsersResponse lists registered users for admins
type UsersResponse struct {
	Users []User `json:"users"`
	Total int    `json:"total"`
}

// ErrorResponse is the body of every failed API call
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}
