package services

import (
	"bytes"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/archisdhar8/religiousAI/internal/data/aggregates"
	"github.com/archisdhar8/religiousAI/internal/data/repos"
	types "github.com/archisdhar8/religiousAI/internal/domain"
	"github.com/archisdhar8/religiousAI/internal/platform/apierr"
	"github.com/archisdhar8/religiousAI/internal/platform/dbctx"
	"github.com/archisdhar8/religiousAI/internal/platform/logger"
	"github.com/archisdhar8/religiousAI/internal/platform/textutil"
)

const (
	DeclinePolicyBlock    = "block"
	DeclinePolicyCooldown = "cooldown"

	DefaultDeclineCooldown = 7 * 24 * time.Hour
	MaxRequestMessageChars = 200
)

type ConnectionOptions struct {
	DeclinePolicy   string
	DeclineCooldown time.Duration
}

type PeerSummary struct {
	UserID              uuid.UUID `json:"user_id"`
	DisplayName         string    `json:"display_name"`
	Bio                 string    `json:"bio"`
	PreferredTraditions []string  `json:"preferred_traditions"`
	LastActiveAt        time.Time `json:"last_active_at"`
	ConnectedAt         time.Time `json:"connected_at"`
}

type RequestView struct {
	*types.ConnectionRequest
	PeerDisplayName string `json:"peer_display_name"`
}

type RequestLists struct {
	Incoming []RequestView `json:"incoming"`
	Outgoing []RequestView `json:"outgoing"`
}

type ConnectionService interface {
	SendRequest(dbc dbctx.Context, toUserID uuid.UUID, message string) (*types.ConnectionRequest, error)
	// Respond accepts or declines a pending request addressed to the caller.
	Respond(dbc dbctx.Context, requestID uuid.UUID, accept bool) (*types.ConnectionRequest, error)
	ListConnections(dbc dbctx.Context) ([]PeerSummary, error)
	ListRequests(dbc dbctx.Context) (*RequestLists, error)
	RemoveConnection(dbc dbctx.Context, peerID uuid.UUID) error
}

type connectionService struct {
	db          *gorm.DB
	log         *logger.Logger
	tx          aggregates.TxRunner
	users       repos.UserRepo
	profiles    repos.CommunityProfileRepo
	requests    repos.ConnectionRequestRepo
	connections repos.ConnectionRepo
	notify      Notifier
	opts        ConnectionOptions
	now         func() time.Time
}

func NewConnectionService(
	db *gorm.DB,
	baseLog *logger.Logger,
	tx aggregates.TxRunner,
	userRepo repos.UserRepo,
	profileRepo repos.CommunityProfileRepo,
	requestRepo repos.ConnectionRequestRepo,
	connectionRepo repos.ConnectionRepo,
	notify Notifier,
	opts ConnectionOptions,
) ConnectionService {
	opts.DeclinePolicy = strings.ToLower(strings.TrimSpace(opts.DeclinePolicy))
	if opts.DeclinePolicy != DeclinePolicyBlock {
		opts.DeclinePolicy = DeclinePolicyCooldown
	}
	if opts.DeclineCooldown <= 0 {
		opts.DeclineCooldown = DefaultDeclineCooldown
	}
	return &connectionService{
		db:          db,
		log:         baseLog.With("service", "ConnectionService"),
		tx:          tx,
		users:       userRepo,
		profiles:    profileRepo,
		requests:    requestRepo,
		connections: connectionRepo,
		notify:      notify,
		opts:        opts,
		now:         utcNow,
	}
}

func (s *connectionService) SendRequest(dbc dbctx.Context, toUserID uuid.UUID, message string) (*types.ConnectionRequest, error) {
	fromUserID, err := requestUser(dbc)
	if err != nil {
		return nil, err
	}
	if fromUserID == toUserID {
		return nil, apierr.InvalidArgument("cannot connect with yourself")
	}
	message = textutil.Clip(strings.TrimSpace(message), MaxRequestMessageChars)

	var req *types.ConnectionRequest
	err = s.tx.InTx(dbc, func(txc dbctx.Context) error {
		if err := s.lockPair(txc, fromUserID, toUserID); err != nil {
			return err
		}
		sender, err := s.profiles.GetByUserID(txc, fromUserID)
		if err != nil {
			return err
		}
		if sender == nil {
			return apierr.PreconditionFailed("create a community profile first")
		}
		target, err := s.profiles.GetByUserID(txc, toUserID)
		if err != nil {
			return err
		}
		if target == nil {
			return apierr.NotFound("user not found")
		}
		if !target.OptIn {
			return apierr.PreconditionFailed("user is not accepting connections")
		}
		connected, err := s.connections.Exists(txc, fromUserID, toUserID)
		if err != nil {
			return err
		}
		if connected {
			return apierr.Conflict("already connected")
		}
		if err := s.checkForward(txc, fromUserID, toUserID); err != nil {
			return err
		}
		reverse, err := s.requests.LatestFromTo(txc, toUserID, fromUserID)
		if err != nil {
			return err
		}
		if reverse != nil && reverse.Status == types.RequestPending {
			return apierr.Conflict("this user already sent you a request")
		}

		now := s.now()
		req = &types.ConnectionRequest{
			ID:         uuid.New(),
			FromUserID: fromUserID,
			ToUserID:   toUserID,
			Status:     types.RequestPending,
			Message:    message,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		return s.requests.Create(txc, req)
	})
	if err != nil {
		return nil, aggregates.MapError("send request", err)
	}
	s.log.Info("Connection request sent", "from_user_id", fromUserID, "to_user_id", toUserID, "request_id", req.ID)
	s.notify.ConnectionRequestCreated(req)
	return req, nil
}

// checkForward rejects a request when the newest one in the same direction still blocks it.
// An accepted request only blocks while the connection exists, which the caller checks first.
func (s *connectionService) checkForward(txc dbctx.Context, from, to uuid.UUID) error {
	prev, err := s.requests.LatestFromTo(txc, from, to)
	if err != nil || prev == nil {
		return err
	}
	switch prev.Status {
	case types.RequestPending:
		return apierr.Conflict("request already pending")
	case types.RequestDeclined:
		if s.opts.DeclinePolicy == DeclinePolicyBlock {
			return apierr.Conflict("request was declined")
		}
		at := prev.UpdatedAt
		if prev.RespondedAt != nil {
			at = *prev.RespondedAt
		}
		if s.now().Before(at.Add(s.opts.DeclineCooldown)) {
			return apierr.Conflict("request was declined recently")
		}
	}
	return nil
}

// lockPair takes both user row locks in id order so concurrent requests between two users serialize.
func (s *connectionService) lockPair(txc dbctx.Context, a, b uuid.UUID) error {
	first, second := a, b
	if bytes.Compare(a[:], b[:]) > 0 {
		first, second = b, a
	}
	if _, err := s.users.LockByID(txc, first); err != nil {
		return err
	}
	_, err := s.users.LockByID(txc, second)
	return err
}

func (s *connectionService) Respond(dbc dbctx.Context, requestID uuid.UUID, accept bool) (*types.ConnectionRequest, error) {
	userID, err := requestUser(dbc)
	if err != nil {
		return nil, err
	}
	var req *types.ConnectionRequest
	err = s.tx.InTx(dbc, func(txc dbctx.Context) error {
		var err error
		req, err = s.requests.LockByID(txc, requestID)
		if err != nil {
			return err
		}
		if req == nil {
			return apierr.NotFound("request not found")
		}
		if req.ToUserID != userID {
			return apierr.Forbidden("only the recipient can respond")
		}
		if req.Status != types.RequestPending {
			return apierr.InvalidState("request already " + req.Status)
		}

		status := types.RequestDeclined
		if accept {
			status = types.RequestAccepted
		}
		now := s.now()
		ok, err := s.requests.Transition(txc, req.ID, status, now)
		if err != nil {
			return err
		}
		if !ok {
			return apierr.InvalidState("request is no longer pending")
		}
		req.Status = status
		req.RespondedAt = &now
		req.UpdatedAt = now
		if !accept {
			return nil
		}
		return s.connections.CreatePair(txc, req.FromUserID, req.ToUserID, req.ID, now)
	})
	if err != nil {
		return nil, aggregates.MapError("respond to request", err)
	}
	s.log.Info("Connection request answered", "request_id", req.ID, "status", req.Status)
	s.notify.ConnectionRequestResponded(req)
	return req, nil
}

func (s *connectionService) ListConnections(dbc dbctx.Context) ([]PeerSummary, error) {
	userID, err := requestUser(dbc)
	if err != nil {
		return nil, err
	}
	conns, err := s.connections.ListByUser(dbc, userID)
	if err != nil {
		return nil, aggregates.MapError("list connections", err)
	}
	ids := make([]uuid.UUID, 0, len(conns))
	for _, c := range conns {
		ids = append(ids, c.PeerUserID)
	}
	profiles, names, err := s.peers(dbc, ids)
	if err != nil {
		return nil, err
	}
	out := make([]PeerSummary, 0, len(conns))
	for _, c := range conns {
		ps := PeerSummary{
			UserID:              c.PeerUserID,
			DisplayName:         names[c.PeerUserID],
			PreferredTraditions: []string{},
			ConnectedAt:         c.CreatedAt,
		}
		if p := profiles[c.PeerUserID]; p != nil {
			ps.Bio = p.Bio
			ps.PreferredTraditions = nonNil(p.PreferredTraditions)
			ps.LastActiveAt = p.LastActiveAt
		}
		out = append(out, ps)
	}
	return out, nil
}

func (s *connectionService) ListRequests(dbc dbctx.Context) (*RequestLists, error) {
	userID, err := requestUser(dbc)
	if err != nil {
		return nil, err
	}
	incoming, err := s.requests.ListPendingIncoming(dbc, userID)
	if err != nil {
		return nil, aggregates.MapError("list incoming", err)
	}
	outgoing, err := s.requests.ListPendingOutgoing(dbc, userID)
	if err != nil {
		return nil, aggregates.MapError("list outgoing", err)
	}
	ids := make([]uuid.UUID, 0, len(incoming)+len(outgoing))
	for _, r := range incoming {
		ids = append(ids, r.FromUserID)
	}
	for _, r := range outgoing {
		ids = append(ids, r.ToUserID)
	}
	_, names, err := s.peers(dbc, ids)
	if err != nil {
		return nil, err
	}
	out := &RequestLists{
		Incoming: make([]RequestView, 0, len(incoming)),
		Outgoing: make([]RequestView, 0, len(outgoing)),
	}
	for _, r := range incoming {
		out.Incoming = append(out.Incoming, RequestView{ConnectionRequest: r, PeerDisplayName: names[r.FromUserID]})
	}
	for _, r := range outgoing {
		out.Outgoing = append(out.Outgoing, RequestView{ConnectionRequest: r, PeerDisplayName: names[r.ToUserID]})
	}
	return out, nil
}

// peers loads profiles and display names, falling back to the account name for users without a profile.
func (s *connectionService) peers(dbc dbctx.Context, ids []uuid.UUID) (map[uuid.UUID]*types.CommunityProfile, map[uuid.UUID]string, error) {
	profiles := map[uuid.UUID]*types.CommunityProfile{}
	names := map[uuid.UUID]string{}
	if len(ids) == 0 {
		return profiles, names, nil
	}
	rows, err := s.profiles.GetByUserIDs(dbc, ids)
	if err != nil {
		return nil, nil, aggregates.MapError("load profiles", err)
	}
	for _, p := range rows {
		profiles[p.UserID] = p
		names[p.UserID] = p.DisplayName
	}
	var missing []uuid.UUID
	for _, id := range ids {
		if _, ok := names[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		users, err := s.users.GetByIDs(dbc, missing)
		if err != nil {
			return nil, nil, aggregates.MapError("load users", err)
		}
		for _, u := range users {
			names[u.ID] = u.DisplayName
		}
	}
	return profiles, names, nil
}

func (s *connectionService) RemoveConnection(dbc dbctx.Context, peerID uuid.UUID) error {
	userID, err := requestUser(dbc)
	if err != nil {
		return err
	}
	err = s.tx.InTx(dbc, func(txc dbctx.Context) error {
		n, err := s.connections.DeletePair(txc, userID, peerID)
		if err != nil {
			return err
		}
		if n == 0 {
			return apierr.NotFound("connection not found")
		}
		return nil
	})
	if err != nil {
		return aggregates.MapError("remove connection", err)
	}
	s.log.Info("Connection removed", "user_id", userID, "peer_user_id", peerID)
	s.notify.ConnectionRemoved(userID, peerID)
	return nil
}
