package models

import "time"

// SubscriptionInfo is the usage snapshot returned by the quota endpoint.
type SubscriptionInfo struct {
	Timestamp                       time.Time `json:"timestamp"`
	OnTrial                         bool      `json:"on_trial"`
	TrialEnds                       time.Time `json:"trial_ends"`
	Subscribed                      bool      `json:"subscribed"`
	CurrentSubscriptionStart        time.Time `json:"current_subscription_start"`
	CurrentSubscriptionEnd          time.Time `json:"current_subscription_end"`
	SubscriptionWordsQuota          int64     `json:"subscription_words_quota"`
	SubscriptionWordsUsed           int64     `json:"subscription_words_used"`
	SubscriptionWordsUsedPercentage float64   `json:"subscription_words_used_percentage"`
}

// PingResponse is the body of the ping endpoint.
type PingResponse struct {
	Ping      string    `json:"ping"`
	Timestamp time.Time `json:"timestamp"`
}
