package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"telegram-job-alerts/internal/domain/ports/repository"
)

// Ensure the adapter implements the port interface.
var _ repository.FilterStateRepository = (*FilterStateRepo)(nil)

// FilterStateRepo keeps the /filter conversation stage in Redis so a reply
// can be routed to the right parser even after a process restart.
type FilterStateRepo struct {
	client RedisClient
	ttl    time.Duration
}

func NewFilterStateRepo(client RedisClient, ttl time.Duration) repository.FilterStateRepository {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &FilterStateRepo{
		client: client,
		ttl:    ttl,
	}
}

func (s *FilterStateRepo) stateKey(tgID int64) string {
	return fmt.Sprintf("filter_state:%d", tgID)
}

func (s *FilterStateRepo) SetState(ctx context.Context, tgID int64, state *repository.FilterState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.stateKey(tgID), data, s.ttl)
}

func (s *FilterStateRepo) GetState(ctx context.Context, tgID int64) (*repository.FilterState, error) {
	data, err := s.client.Get(ctx, s.stateKey(tgID))
	if err != nil {
		return nil, err
	}

	var state repository.FilterState
	if err := json.Unmarshal([]byte(data), &state); err != nil {
		return nil, err
	}
	return &state, nil
}

func (s *FilterStateRepo) ClearState(ctx context.Context, tgID int64) error {
	return s.client.Del(ctx, s.stateKey(tgID))
}
