package service

import (
	"context"
	"log"

	"github.com/rebelscc/pavilion/internal/store"
	"github.com/rebelscc/pavilion/internal/store/repository"
)

// TeamService is the read-only accessor for the club's team record
type TeamService struct {
	team *repository.TeamRepository
}

// NewTeamService creates a new team service
func NewTeamService(repos *repository.Store) *TeamService {
	return &TeamService{team: repos.Team}
}

// GetTeamInfo returns the team record, or nil if no sync has completed yet
func (s *TeamService) GetTeamInfo(ctx context.Context) *store.TeamInfo {
	team, err := s.team.Get(ctx)
	if err != nil {
		log.Printf("[service] fetching team info: %v", err)
		return nil
	}
	return team
}
