package service

import (
	"context"
	"encoding/json"
	"time"

	"estatehub/internal/model"
	"estatehub/internal/permission"
	"estatehub/internal/repository"

	"github.com/google/uuid"
)

const (
	DefaultActivityLimit = 20
	MaxActivityLimit     = 100
)

type ActivityResponse struct {
	ID         string          `json:"id"`
	AdminID    string          `json:"adminId"`
	AdminName  string          `json:"adminName"`
	Action     string          `json:"action"`
	Module     string          `json:"module"`
	EntityID   string          `json:"entityId"`
	EntityName string          `json:"entityName"`
	Details    json.RawMessage `json:"details,omitempty"`
	IPAddress  string          `json:"ipAddress"`
	CreatedAt  string          `json:"createdAt"`
}

type ActivityFeed struct {
	Activities []ActivityResponse `json:"activities"`
	Total      int64              `json:"total"`
}

type ActivityService interface {
	Recent(ctx context.Context, limit int) (*ActivityFeed, error)
}

type activityService struct {
	repo repository.ActivityRepository
}

// NewActivityService creates a new ActivityService instance
func NewActivityService(repo repository.ActivityRepository) ActivityService {
	return &activityService{repo: repo}
}

func (s *activityService) Recent(ctx context.Context, limit int) (*ActivityFeed, error) {
	if limit <= 0 {
		limit = DefaultActivityLimit
	}
	if limit > MaxActivityLimit {
		limit = MaxActivityLimit
	}

	logs, total, err := s.repo.Recent(ctx, limit)
	if err != nil {
		return nil, err
	}

	res := make([]ActivityResponse, 0, len(logs))
	for _, l := range logs {
		name := "System"
		if l.Admin != nil {
			name = l.Admin.Name
		}
		res = append(res, ActivityResponse{
			ID:         l.ID.String(),
			AdminID:    l.AdminID.String(),
			AdminName:  name,
			Action:     l.Action,
			Module:     l.Module,
			EntityID:   l.EntityID,
			EntityName: l.EntityName,
			Details:    json.RawMessage(l.Details),
			IPAddress:  l.IPAddress,
			CreatedAt:  l.CreatedAt.Format(time.RFC3339),
		})
	}
	return &ActivityFeed{Activities: res, Total: total}, nil
}

// recordActivity writes an audit row using whatever transaction ctx carries.
func recordActivity(ctx context.Context, repo repository.ActivityRepository, actor Actor, action string, module permission.Module, entityID uuid.UUID, entityName string, details map[string]interface{}) error {
	raw, err := json.Marshal(details)
	if err != nil {
		return err
	}
	return repo.Log(ctx, &model.AdminActivity{
		AdminID:    actor.ID,
		Action:     action,
		Module:     module.String(),
		EntityID:   entityID.String(),
		EntityName: entityName,
		Details:    raw,
		IPAddress:  actor.IP,
	})
}
