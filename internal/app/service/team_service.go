package service

import (
	"errors"
	"strings"

	"github.com/ikkim/ugcfy-backend/internal/app/model"
	"github.com/ikkim/ugcfy-backend/internal/app/repository"
	"github.com/ikkim/ugcfy-backend/internal/permissions"
	"github.com/ikkim/ugcfy-backend/pkg/logger"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	ErrTeamMemberNotFound = errors.New("team member not found")
	ErrTeamMemberExists   = errors.New("a team member with this email already exists")
	ErrInvalidEmail       = errors.New("invalid email")
	ErrNoPermissions      = errors.New("at least one valid permission is required")
	ErrUnknownPreset      = errors.New("unknown permission preset")
	ErrMemberInactive     = errors.New("team member is inactive")
	ErrPermissionDenied   = errors.New("permission denied")
)

type InviteInput struct {
	Email         string
	Name          string
	Permissions   []string
	Preset        string
	ShopifyUserID string // staff account the member is matched to
}

// TeamOverview is the payload of the team page
type TeamOverview struct {
	Members     []model.TeamMember  `json:"members"`
	Permissions []permissions.Group `json:"permissions"`
	Presets     map[string][]string `json:"presets"`
}

type TeamService interface {
	Overview(shop string) (*TeamOverview, error)
	Invite(shop string, input InviteInput) (*model.TeamMember, error)
	UpdatePermissions(shop string, id uint, keys []string, preset string) (*model.TeamMember, error)
	ToggleActive(shop string, id uint) (*model.TeamMember, error)
	Remove(shop string, id uint) error
	// Authorize resolves the staff user to a member. Staff with no member row are the shop owner.
	Authorize(shop, shopifyUserID, permission string) error
}

type teamService struct {
	teamRepo repository.TeamRepository
}

func NewTeamService(teamRepo repository.TeamRepository) TeamService {
	return &teamService{teamRepo: teamRepo}
}

func (s *teamService) Overview(shop string) (*TeamOverview, error) {
	members, err := s.teamRepo.FindByShop(shop)
	if err != nil {
		logger.Error("Failed to list team members", err, map[string]interface{}{
			"shop": shop,
		})
		return nil, err
	}

	return &TeamOverview{
		Members:     members,
		Permissions: permissions.ByCategory(),
		Presets:     permissions.Presets(),
	}, nil
}

// resolvePermissions prefers an explicit list; a preset is used when the list is empty
func resolvePermissions(keys []string, preset string) ([]string, error) {
	if len(keys) == 0 && preset != "" {
		p, ok := permissions.Preset(strings.ToUpper(strings.TrimSpace(preset)))
		if !ok {
			return nil, ErrUnknownPreset
		}
		keys = p
	}

	normalized := permissions.Normalize(keys)
	if len(normalized) == 0 {
		return nil, ErrNoPermissions
	}
	return normalized, nil
}

func (s *teamService) Invite(shop string, input InviteInput) (*model.TeamMember, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if !strings.Contains(email, "@") {
		return nil, ErrInvalidEmail
	}

	perms, err := resolvePermissions(input.Permissions, input.Preset)
	if err != nil {
		return nil, err
	}

	if _, err := s.teamRepo.FindByEmail(shop, email); err == nil {
		return nil, ErrTeamMemberExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	member := &model.TeamMember{
		ShopDomain:    shop,
		Email:         email,
		Name:          strings.TrimSpace(input.Name),
		Permissions:   datatypes.JSONSlice[string](perms),
		IsActive:      false,
		ShopifyUserID: strings.TrimSpace(input.ShopifyUserID),
	}
	if err := s.teamRepo.Create(member); err != nil {
		logger.Error("Failed to invite team member", err, map[string]interface{}{
			"shop":  shop,
			"email": email,
		})
		return nil, err
	}

	logger.Info("Team member invited", map[string]interface{}{
		"shop":        shop,
		"member_id":   member.ID,
		"permissions": len(perms),
	})
	return member, nil
}

func (s *teamService) find(shop string, id uint) (*model.TeamMember, error) {
	member, err := s.teamRepo.FindByID(shop, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTeamMemberNotFound
		}
		return nil, err
	}
	return member, nil
}

func (s *teamService) UpdatePermissions(shop string, id uint, keys []string, preset string) (*model.TeamMember, error) {
	member, err := s.find(shop, id)
	if err != nil {
		return nil, err
	}

	perms, err := resolvePermissions(keys, preset)
	if err != nil {
		return nil, err
	}

	member.Permissions = datatypes.JSONSlice[string](perms)
	if err := s.teamRepo.Update(member); err != nil {
		return nil, err
	}

	logger.Info("Team member permissions updated", map[string]interface{}{
		"shop":        shop,
		"member_id":   id,
		"permissions": perms,
	})
	return member, nil
}

func (s *teamService) ToggleActive(shop string, id uint) (*model.TeamMember, error) {
	member, err := s.find(shop, id)
	if err != nil {
		return nil, err
	}

	member.IsActive = !member.IsActive
	if err := s.teamRepo.Update(member); err != nil {
		return nil, err
	}

	logger.Info("Team member active flag toggled", map[string]interface{}{
		"shop":      shop,
		"member_id": id,
		"is_active": member.IsActive,
	})
	return member, nil
}

func (s *teamService) Remove(shop string, id uint) error {
	count, err := s.teamRepo.Delete(shop, id)
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrTeamMemberNotFound
	}

	logger.Info("Team member removed", map[string]interface{}{
		"shop":      shop,
		"member_id": id,
	})
	return nil
}

func (s *teamService) Authorize(shop, shopifyUserID, permission string) error {
	if shopifyUserID == "" {
		return nil
	}

	member, err := s.teamRepo.FindByShopifyUserID(shop, shopifyUserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}

	if !member.IsActive {
		return ErrMemberInactive
	}
	if !member.HasPermission(permission) {
		logger.Warn("Permission denied", map[string]interface{}{
			"shop":       shop,
			"member_id":  member.ID,
			"permission": permission,
		})
		return ErrPermissionDenied
	}
	return nil
}
