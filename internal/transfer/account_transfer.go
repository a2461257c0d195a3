package transfer

import "github.com/golang-jwt/jwt/v5"

type CustomClaims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

type GoogleUserInfo struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

type AccountSettingsUpdate struct {
	Voice            string   `json:"voice"`
	TopicsOfInterest string   `json:"topics_of_interest"`
	SamplePosts      []string `json:"sample_posts"`
}

type SuggestionAction struct {
	SuggestionID int64 `json:"suggestion_id"`
}

type TopicSubscription struct {
	TopicID int64 `json:"topic_id"`
}

type SubscriptionEvent struct {
	UserID              int64  `json:"user_id"`
	SubscriptionID      string `json:"subscription_id"`
	Status              string `json:"status"`
	SubscriptionEndDate string `json:"subscription_end_date"`
}
