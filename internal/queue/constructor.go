package queue

import (
	"github.com/mehulsen/postmirror/internal/service"
)

type Queue struct {
	sync service.SyncService
	sg   service.SuggestionService
}

func NewQueue(sync service.SyncService, sg service.SuggestionService) *Queue {
	return &Queue{
		sync: sync,
		sg:   sg,
	}
}

const (
	TaskTypeSyncAccount         = "sync:account"
	TaskTypeGenerateSuggestions = "suggest:generate"
)

type SyncAccountPayload struct {
	AccountID int64 `json:"account_id"`
}

type GenerateSuggestionsPayload struct {
	AccountID int64 `json:"account_id"`
	Count     int   `json:"count"`
}
