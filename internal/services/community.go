package services

import (
	"context"
	"reflect"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/archisdhar8/religiousAI/internal/data/aggregates"
	"github.com/archisdhar8/religiousAI/internal/data/repos"
	types "github.com/archisdhar8/religiousAI/internal/domain"
	memorydomain "github.com/archisdhar8/religiousAI/internal/domain/memory"
	"github.com/archisdhar8/religiousAI/internal/modules/insights"
	"github.com/archisdhar8/religiousAI/internal/modules/matching"
	"github.com/archisdhar8/religiousAI/internal/modules/traditions"
	"github.com/archisdhar8/religiousAI/internal/platform/apierr"
	"github.com/archisdhar8/religiousAI/internal/platform/dbctx"
	"github.com/archisdhar8/religiousAI/internal/platform/logger"
	"github.com/archisdhar8/religiousAI/internal/platform/textutil"
)

const (
	MaxDisplayNameChars = 60
	MaxBioChars         = 500
	MatchBioChars       = 100
	DefaultMatchLimit   = 10
	MaxMatchLimit       = 50
	defaultConnStyle    = "peer"
)

type ProfileInput struct {
	DisplayName         string
	Bio                 string
	PreferredTraditions []string
	OptIn               bool
}

type ProfileView struct {
	Profile         *types.CommunityProfile `json:"profile"`
	Connections     int64                   `json:"connections"`
	PendingIncoming int64                   `json:"pending_incoming"`
}

type Match struct {
	UserID              uuid.UUID `json:"user_id"`
	DisplayName         string    `json:"display_name"`
	Bio                 string    `json:"bio"`
	Score               int       `json:"score"`
	Matched             []string  `json:"matched"`
	PreferredTraditions []string  `json:"preferred_traditions"`
	LastActiveAt        time.Time `json:"last_active_at"`
}

type CommunityService interface {
	GetProfile(dbc dbctx.Context) (*ProfileView, error)
	UpsertProfile(dbc dbctx.Context, in ProfileInput) (*types.CommunityProfile, error)
	// Matches ranks opted-in strangers by shared traits. The read takes no locks.
	Matches(dbc dbctx.Context, limit int) ([]Match, error)
	// SyncTraits refreshes the trait snapshot of every opted-in profile from memory.
	SyncTraits(ctx context.Context) (int, error)
}

type communityService struct {
	db          *gorm.DB
	log         *logger.Logger
	profiles    repos.CommunityProfileRepo
	memories    repos.UserMemoryRepo
	requests    repos.ConnectionRequestRepo
	connections repos.ConnectionRepo
	minScore    int
	now         func() time.Time
}

func NewCommunityService(
	db *gorm.DB,
	baseLog *logger.Logger,
	profileRepo repos.CommunityProfileRepo,
	memoryRepo repos.UserMemoryRepo,
	requestRepo repos.ConnectionRequestRepo,
	connectionRepo repos.ConnectionRepo,
	minScore int,
) CommunityService {
	return &communityService{
		db:          db,
		log:         baseLog.With("service", "CommunityService"),
		profiles:    profileRepo,
		memories:    memoryRepo,
		requests:    requestRepo,
		connections: connectionRepo,
		minScore:    minScore,
		now:         utcNow,
	}
}

func (s *communityService) GetProfile(dbc dbctx.Context) (*ProfileView, error) {
	userID, err := requestUser(dbc)
	if err != nil {
		return nil, err
	}
	p, err := s.profiles.GetByUserID(dbc, userID)
	if err != nil {
		return nil, aggregates.MapError("get profile", err)
	}
	conns, err := s.connections.CountByUser(dbc, userID)
	if err != nil {
		return nil, aggregates.MapError("count connections", err)
	}
	pending, err := s.requests.CountPendingIncoming(dbc, userID)
	if err != nil {
		return nil, aggregates.MapError("count requests", err)
	}
	return &ProfileView{Profile: p, Connections: conns, PendingIncoming: pending}, nil
}

func (s *communityService) UpsertProfile(dbc dbctx.Context, in ProfileInput) (*types.CommunityProfile, error) {
	userID, err := requestUser(dbc)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.DisplayName)
	if name == "" {
		return nil, apierr.InvalidArgument("display name is required")
	}
	if utf8.RuneCountInString(name) > MaxDisplayNameChars {
		return nil, apierr.InvalidArgument("display name is too long")
	}
	bio := strings.TrimSpace(in.Bio)
	if utf8.RuneCountInString(bio) > MaxBioChars {
		return nil, apierr.InvalidArgument("bio is too long")
	}
	var prefs []string
	for _, raw := range in.PreferredTraditions {
		key, ok := traditions.Normalize(raw)
		if !ok {
			return nil, apierr.InvalidArgument("unknown tradition " + strings.TrimSpace(raw))
		}
		if key != "" {
			prefs = append(prefs, key)
		}
	}
	prefs = memorydomain.UnionStrings(nil, prefs)

	mem, err := s.memories.GetByUserID(dbc, userID)
	if err != nil {
		return nil, aggregates.MapError("get memory", err)
	}
	existing, err := s.profiles.GetByUserID(dbc, userID)
	if err != nil {
		return nil, aggregates.MapError("get profile", err)
	}

	p := existing
	if p == nil {
		p = &types.CommunityProfile{UserID: userID}
	}
	p.DisplayName = name
	p.Bio = bio
	p.PreferredTraditions = datatypes.JSONSlice[string](prefs)
	p.OptIn = in.OptIn
	p.Traits = datatypes.NewJSONType(SnapshotTraits(mem, prefs))
	p.LastActiveAt = s.now()
	if err := s.profiles.Upsert(dbc, p); err != nil {
		return nil, aggregates.MapError("upsert profile", err)
	}
	s.log.Debug("Profile saved", "user_id", userID, "opt_in", p.OptIn)
	return p, nil
}

// SnapshotTraits copies memory traits into a profile snapshot and fills the derived categories.
func SnapshotTraits(mem *types.UserMemory, preferred []string) types.TraitSet {
	ts := mem.TraitSet().Clone()
	exchanges := 0
	if mem != nil {
		exchanges = mem.ExchangeCount
	}
	ts[memorydomain.TraitSpiritualJourney] = []string{insights.JourneyStage(exchanges)}
	if len(ts[memorydomain.TraitConnectionStyle]) == 0 {
		ts[memorydomain.TraitConnectionStyle] = []string{defaultConnStyle}
	}
	if len(preferred) > 0 {
		ts.AddCategory(memorydomain.TraitPreferredTraditions, preferred...)
	}
	return ts
}

func (s *communityService) Matches(dbc dbctx.Context, limit int) ([]Match, error) {
	userID, err := requestUser(dbc)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultMatchLimit
	}
	if limit > MaxMatchLimit {
		limit = MaxMatchLimit
	}
	self, err := s.profiles.GetByUserID(dbc, userID)
	if err != nil {
		return nil, aggregates.MapError("get profile", err)
	}
	if self == nil || !self.OptIn {
		return nil, apierr.PreconditionFailed("must opt in before matching")
	}

	exclude := []uuid.UUID{userID}
	peers, err := s.connections.PeerIDs(dbc, userID)
	if err != nil {
		return nil, aggregates.MapError("list connections", err)
	}
	linked, err := s.requests.LinkedUserIDs(dbc, userID)
	if err != nil {
		return nil, aggregates.MapError("list requests", err)
	}
	exclude = append(append(exclude, peers...), linked...)

	candidates, err := s.profiles.ListOptedIn(dbc, exclude, 0)
	if err != nil {
		return nil, aggregates.MapError("list candidates", err)
	}
	byUser := make(map[uuid.UUID]*types.CommunityProfile, len(candidates))
	sides := make([]matching.Side, 0, len(candidates))
	for _, c := range candidates {
		byUser[c.UserID] = c
		sides = append(sides, profileSide(c))
	}

	ranked := matching.Rank(profileSide(self), sides, s.minScore, limit)
	out := make([]Match, 0, len(ranked))
	for _, r := range ranked {
		c := byUser[r.UserID]
		out = append(out, Match{
			UserID:              c.UserID,
			DisplayName:         c.DisplayName,
			Bio:                 textutil.Clip(c.Bio, MatchBioChars),
			Score:               r.Value,
			Matched:             nonNil(r.Matched),
			PreferredTraditions: nonNil(c.PreferredTraditions),
			LastActiveAt:        c.LastActiveAt,
		})
	}
	return out, nil
}

func profileSide(p *types.CommunityProfile) matching.Side {
	return matching.Side{
		UserID:       p.UserID,
		Traditions:   p.PreferredTraditions,
		Traits:       p.TraitSet(),
		LastActiveAt: p.LastActiveAt,
	}
}

func (s *communityService) SyncTraits(ctx context.Context) (int, error) {
	dbc := dbctx.Context{Ctx: ctx}
	profiles, err := s.profiles.ListOptedIn(dbc, nil, 0)
	if err != nil {
		return 0, aggregates.MapError("list profiles", err)
	}
	if len(profiles) == 0 {
		return 0, nil
	}
	ids := make([]uuid.UUID, 0, len(profiles))
	for _, p := range profiles {
		ids = append(ids, p.UserID)
	}
	mems, err := s.memories.GetByUserIDs(dbc, ids)
	if err != nil {
		return 0, aggregates.MapError("load memories", err)
	}
	memByUser := make(map[uuid.UUID]*types.UserMemory, len(mems))
	for _, m := range mems {
		memByUser[m.UserID] = m
	}

	updated := 0
	for _, p := range profiles {
		if err := ctx.Err(); err != nil {
			return updated, err
		}
		next := SnapshotTraits(memByUser[p.UserID], p.PreferredTraditions)
		if reflect.DeepEqual(next, p.TraitSet()) {
			continue
		}
		if err := s.profiles.UpdateTraits(dbc, p.UserID, next); err != nil {
			s.log.Warn("update profile traits failed", "user_id", p.UserID, "error", err)
			continue
		}
		updated++
	}
	return updated, nil
}
