package services

import (
	"strings"

	"gorm.io/gorm"

	"github.com/archisdhar8/religiousAI/internal/data/aggregates"
	"github.com/archisdhar8/religiousAI/internal/data/repos"
	types "github.com/archisdhar8/religiousAI/internal/domain"
	"github.com/archisdhar8/religiousAI/internal/modules/traditions"
	"github.com/archisdhar8/religiousAI/internal/platform/apierr"
	"github.com/archisdhar8/religiousAI/internal/platform/dbctx"
	"github.com/archisdhar8/religiousAI/internal/platform/logger"
)

type UserService interface {
	GetMe(dbc dbctx.Context) (*types.User, error)
	// UpdatePreferences applies only the non-nil fields.
	UpdatePreferences(dbc dbctx.Context, defaultTradition *string, theme *string) (*types.User, error)
}

type userService struct {
	db       *gorm.DB
	log      *logger.Logger
	userRepo repos.UserRepo
}

var validThemePreferences = map[string]struct{}{
	"light":  {},
	"dark":   {},
	"system": {},
}

func NewUserService(db *gorm.DB, baseLog *logger.Logger, userRepo repos.UserRepo) UserService {
	return &userService{
		db:       db,
		log:      baseLog.With("service", "UserService"),
		userRepo: userRepo,
	}
}

func (s *userService) GetMe(dbc dbctx.Context) (*types.User, error) {
	userID, err := requestUser(dbc)
	if err != nil {
		return nil, err
	}
	u, err := s.userRepo.GetByID(dbc, userID)
	if err != nil {
		return nil, aggregates.MapError("get user", err)
	}
	if u == nil {
		return nil, apierr.NotFound("user not found")
	}
	return u, nil
}

func (s *userService) UpdatePreferences(dbc dbctx.Context, defaultTradition *string, theme *string) (*types.User, error) {
	userID, err := requestUser(dbc)
	if err != nil {
		return nil, err
	}
	updates := map[string]interface{}{}
	if defaultTradition != nil {
		key, ok := traditions.Normalize(*defaultTradition)
		if !ok {
			return nil, apierr.InvalidArgument("unknown tradition")
		}
		updates["default_tradition"] = key
	}
	if theme != nil {
		t := strings.ToLower(strings.TrimSpace(*theme))
		if _, ok := validThemePreferences[t]; !ok {
			return nil, apierr.InvalidArgument("theme must be light, dark or system")
		}
		updates["theme"] = t
	}
	if len(updates) > 0 {
		if err := s.userRepo.UpdateFields(dbc, userID, updates); err != nil {
			return nil, aggregates.MapError("update preferences", err)
		}
	}
	return s.GetMe(dbc)
}
