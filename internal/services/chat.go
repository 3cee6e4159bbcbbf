package services

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/archisdhar8/religiousAI/internal/data/aggregates"
	"github.com/archisdhar8/religiousAI/internal/data/repos"
	types "github.com/archisdhar8/religiousAI/internal/domain"
	"github.com/archisdhar8/religiousAI/internal/domain/chat"
	"github.com/archisdhar8/religiousAI/internal/modules/traditions"
	"github.com/archisdhar8/religiousAI/internal/platform/apierr"
	"github.com/archisdhar8/religiousAI/internal/platform/dbctx"
	"github.com/archisdhar8/religiousAI/internal/platform/logger"
	"github.com/archisdhar8/religiousAI/internal/platform/textutil"
)

const (
	MaxThreadsPerUser = 50
	MaxTitleChars     = 100
	AutoTitleChars    = 40
	PreviewChars      = 50
	newChatPrefix     = "New Chat "
)

// AppendInput is one message to add to a thread. Timestamps are always assigned by the server.
type AppendInput struct {
	Role     string
	Content  string
	Sources  []types.Source
	IsCrisis bool
}

type ChatService interface {
	ListThreads(dbc dbctx.Context) ([]*types.ChatThread, error)
	CreateThread(dbc dbctx.Context, tradition, title, mode string) (*types.ChatThread, error)
	GetThread(dbc dbctx.Context, threadID uuid.UUID) (*types.ChatThread, []*types.ChatMessage, error)
	RenameThread(dbc dbctx.Context, threadID uuid.UUID, title string) (*types.ChatThread, error)
	DeleteThread(dbc dbctx.Context, threadID uuid.UUID) error
	SetCurrentThread(dbc dbctx.Context, threadID uuid.UUID) (*types.ChatThread, error)
	GetOrCreateCurrentThread(dbc dbctx.Context, tradition string) (*types.ChatThread, error)
	// AppendMessage assigns the next seq under the thread row lock.
	AppendMessage(dbc dbctx.Context, threadID uuid.UUID, in AppendInput) (*types.ChatMessage, *types.ChatThread, error)
}

type chatService struct {
	db       *gorm.DB
	log      *logger.Logger
	tx       aggregates.TxRunner
	users    repos.UserRepo
	threads  repos.ChatThreadRepo
	messages repos.ChatMessageRepo
	notify   Notifier
	now      func() time.Time
}

func NewChatService(
	db *gorm.DB,
	baseLog *logger.Logger,
	tx aggregates.TxRunner,
	userRepo repos.UserRepo,
	threadRepo repos.ChatThreadRepo,
	messageRepo repos.ChatMessageRepo,
	notify Notifier,
) ChatService {
	return &chatService{
		db:       db,
		log:      baseLog.With("service", "ChatService"),
		tx:       tx,
		users:    userRepo,
		threads:  threadRepo,
		messages: messageRepo,
		notify:   notify,
		now:      utcNow,
	}
}

func (s *chatService) ListThreads(dbc dbctx.Context) ([]*types.ChatThread, error) {
	userID, err := requestUser(dbc)
	if err != nil {
		return nil, err
	}
	out, err := s.threads.ListByUser(dbc, userID)
	if err != nil {
		return nil, aggregates.MapError("list threads", err)
	}
	return out, nil
}

func (s *chatService) CreateThread(dbc dbctx.Context, tradition, title, mode string) (*types.ChatThread, error) {
	userID, err := requestUser(dbc)
	if err != nil {
		return nil, err
	}
	tradKey, ok := traditions.Normalize(tradition)
	if !ok {
		return nil, apierr.InvalidArgument("unknown tradition")
	}
	mode = strings.ToLower(strings.TrimSpace(mode))
	if mode == "" {
		mode = chat.ModeStandard
	}
	if !chat.ValidMode(mode) {
		return nil, apierr.InvalidArgument("unknown mode")
	}
	title = textutil.Clip(strings.TrimSpace(title), MaxTitleChars)

	var created *types.ChatThread
	err = s.tx.InTx(dbc, func(txc dbctx.Context) error {
		if _, err := s.users.LockByID(txc, userID); err != nil {
			return err
		}
		if err := s.evictOverflow(txc, userID); err != nil {
			return err
		}

		autoTitled := false
		if title == "" {
			titles, err := s.threads.TitlesWithPrefix(txc, userID, newChatPrefix)
			if err != nil {
				return err
			}
			title = nextNewChatTitle(titles)
			autoTitled = true
		}

		if err := s.threads.ClearCurrent(txc, userID); err != nil {
			return err
		}
		now := s.now()
		created = &types.ChatThread{
			ID:         uuid.New(),
			UserID:     userID,
			Title:      title,
			AutoTitled: autoTitled,
			Tradition:  tradKey,
			Mode:       mode,
			IsCurrent:  true,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		return s.threads.Create(txc, created)
	})
	if err != nil {
		return nil, aggregates.MapError("create thread", err)
	}
	s.log.Debug("Created thread", "user_id", userID, "thread_id", created.ID)
	return created, nil
}

// evictOverflow makes room for one more thread by deleting the stalest ones.
func (s *chatService) evictOverflow(txc dbctx.Context, userID uuid.UUID) error {
	n, err := s.threads.CountByUser(txc, userID)
	if err != nil {
		return err
	}
	excess := int(n) - (MaxThreadsPerUser - 1)
	if excess <= 0 {
		return nil
	}
	stale, err := s.threads.LeastRecentlyUpdated(txc, userID, excess)
	if err != nil {
		return err
	}
	ids := make([]uuid.UUID, 0, len(stale))
	for _, th := range stale {
		ids = append(ids, th.ID)
	}
	if _, err := s.messages.DeleteByThreads(txc, ids); err != nil {
		return err
	}
	for _, id := range ids {
		if _, err := s.threads.Delete(txc, id); err != nil {
			return err
		}
	}
	s.log.Info("Evicted stale threads", "user_id", userID, "count", len(ids))
	return nil
}

func nextNewChatTitle(titles []string) string {
	highest := 0
	for _, t := range titles {
		n, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(t, newChatPrefix)))
		if err == nil && n > highest {
			highest = n
		}
	}
	return fmt.Sprintf("%s%d", newChatPrefix, highest+1)
}

// ownedThread collapses "absent" and "not yours" into NotFound.
func (s *chatService) ownedThread(dbc dbctx.Context, userID, threadID uuid.UUID, lock bool) (*types.ChatThread, error) {
	var th *types.ChatThread
	var err error
	if lock {
		th, err = s.threads.LockByID(dbc, threadID)
	} else {
		th, err = s.threads.GetByID(dbc, threadID)
	}
	if err != nil {
		return nil, err
	}
	if th == nil || th.UserID != userID {
		return nil, apierr.NotFound("thread not found")
	}
	return th, nil
}

func (s *chatService) GetThread(dbc dbctx.Context, threadID uuid.UUID) (*types.ChatThread, []*types.ChatMessage, error) {
	userID, err := requestUser(dbc)
	if err != nil {
		return nil, nil, err
	}
	th, err := s.ownedThread(dbc, userID, threadID, false)
	if err != nil {
		return nil, nil, aggregates.MapError("get thread", err)
	}
	msgs, err := s.messages.ListByThread(dbc, th.ID)
	if err != nil {
		return nil, nil, aggregates.MapError("list messages", err)
	}
	return th, msgs, nil
}

func (s *chatService) RenameThread(dbc dbctx.Context, threadID uuid.UUID, title string) (*types.ChatThread, error) {
	userID, err := requestUser(dbc)
	if err != nil {
		return nil, err
	}
	th, err := s.ownedThread(dbc, userID, threadID, false)
	if err != nil {
		return nil, aggregates.MapError("rename thread", err)
	}
	title = textutil.Clip(strings.TrimSpace(title), MaxTitleChars)
	if title == "" {
		return nil, apierr.InvalidArgument("title is required")
	}
	if err := s.threads.UpdateFields(dbc, th.ID, map[string]interface{}{
		"title":       title,
		"auto_titled": false,
	}); err != nil {
		return nil, aggregates.MapError("rename thread", err)
	}
	th.Title = title
	th.AutoTitled = false
	s.notify.ThreadUpdated(userID, th)
	return th, nil
}

func (s *chatService) DeleteThread(dbc dbctx.Context, threadID uuid.UUID) error {
	userID, err := requestUser(dbc)
	if err != nil {
		return err
	}
	err = s.tx.InTx(dbc, func(txc dbctx.Context) error {
		th, err := s.ownedThread(txc, userID, threadID, true)
		if err != nil {
			return err
		}
		if _, err := s.messages.DeleteByThread(txc, th.ID); err != nil {
			return err
		}
		if _, err := s.threads.Delete(txc, th.ID); err != nil {
			return err
		}
		if !th.IsCurrent {
			return nil
		}
		next, err := s.threads.MostRecentlyUpdated(txc, userID)
		if err != nil || next == nil {
			return err
		}
		return s.threads.MarkCurrent(txc, next.ID)
	})
	if err != nil {
		return aggregates.MapError("delete thread", err)
	}
	return nil
}

func (s *chatService) SetCurrentThread(dbc dbctx.Context, threadID uuid.UUID) (*types.ChatThread, error) {
	userID, err := requestUser(dbc)
	if err != nil {
		return nil, err
	}
	var th *types.ChatThread
	err = s.tx.InTx(dbc, func(txc dbctx.Context) error {
		var err error
		th, err = s.ownedThread(txc, userID, threadID, true)
		if err != nil {
			return err
		}
		if th.IsCurrent {
			return nil
		}
		if err := s.threads.ClearCurrent(txc, userID); err != nil {
			return err
		}
		th.IsCurrent = true
		return s.threads.MarkCurrent(txc, th.ID)
	})
	if err != nil {
		return nil, aggregates.MapError("set current thread", err)
	}
	return th, nil
}

func (s *chatService) GetOrCreateCurrentThread(dbc dbctx.Context, tradition string) (*types.ChatThread, error) {
	userID, err := requestUser(dbc)
	if err != nil {
		return nil, err
	}
	th, err := s.threads.GetCurrent(dbc, userID)
	if err != nil {
		return nil, aggregates.MapError("get current thread", err)
	}
	if th != nil {
		return th, nil
	}
	return s.CreateThread(dbc, tradition, "", "")
}

func (s *chatService) AppendMessage(dbc dbctx.Context, threadID uuid.UUID, in AppendInput) (*types.ChatMessage, *types.ChatThread, error) {
	userID, err := requestUser(dbc)
	if err != nil {
		return nil, nil, err
	}
	if !chat.ValidRole(in.Role) {
		return nil, nil, apierr.InvalidArgument("role must be user or assistant")
	}
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return nil, nil, apierr.InvalidArgument("content is required")
	}

	var msg *types.ChatMessage
	var th *types.ChatThread
	err = s.tx.InTx(dbc, func(txc dbctx.Context) error {
		var err error
		th, err = s.ownedThread(txc, userID, threadID, true)
		if err != nil {
			return err
		}
		last, err := s.messages.LastByThread(txc, th.ID)
		if err != nil {
			return err
		}
		createdAt := s.now()
		if last != nil && last.CreatedAt.After(createdAt) {
			createdAt = last.CreatedAt
		}

		sources := datatypes.JSONSlice[types.Source]{}
		if len(in.Sources) > 0 {
			sources = datatypes.JSONSlice[types.Source](in.Sources)
		}
		msg = &types.ChatMessage{
			ID:        uuid.New(),
			ThreadID:  th.ID,
			UserID:    userID,
			Seq:       th.LastSeq + 1,
			Role:      in.Role,
			Content:   content,
			Sources:   sources,
			IsCrisis:  in.IsCrisis,
			CreatedAt: createdAt,
		}
		if _, err := s.messages.Create(txc, []*types.ChatMessage{msg}); err != nil {
			return err
		}

		updates := map[string]interface{}{
			"last_seq":      msg.Seq,
			"message_count": th.MessageCount + 1,
			"preview":       textutil.Truncate(content, PreviewChars),
			"updated_at":    createdAt,
		}
		if in.Role == types.RoleUser && th.AutoTitled {
			updates["title"] = textutil.Truncate(content, AutoTitleChars)
			updates["auto_titled"] = false
		}
		if err := s.threads.UpdateFields(txc, th.ID, updates); err != nil {
			return err
		}
		th.LastSeq = msg.Seq
		th.MessageCount++
		th.Preview = updates["preview"].(string)
		th.UpdatedAt = createdAt
		if t, ok := updates["title"].(string); ok {
			th.Title = t
			th.AutoTitled = false
		}
		return nil
	})
	if err != nil {
		return nil, nil, aggregates.MapError("append message", err)
	}
	s.notify.ThreadUpdated(userID, th)
	return msg, th, nil
}
