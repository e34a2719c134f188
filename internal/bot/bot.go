// Package bot routes Telegram messages to the nutrition use cases.
package bot

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/kentavrex/topfit/internal/conversation"
	"github.com/kentavrex/topfit/internal/service"
	"github.com/kentavrex/topfit/internal/types"
)

// Incoming is a message from a user, independent of the transport
type Incoming struct {
	User   types.User
	ChatID int64
	Text   string
	// PhotoFileID is the largest photo size of a photo message
	PhotoFileID string
	VoiceFileID string
	VoiceMime   string
}

// Keyboard is a reply keyboard, one slice per row
type Keyboard [][]string

// Messenger sends replies and fetches user files
type Messenger interface {
	SendText(ctx context.Context, chatID int64, text string, kb Keyboard) error
	SendMarkdown(ctx context.Context, chatID int64, text string, kb Keyboard) error
	SendDocument(ctx context.Context, chatID int64, name string, data []byte, caption string) error
	// DownloadFile returns the file contents and its mime type
	DownloadFile(ctx context.Context, fileID string) ([]byte, string, error)
}

// Limiter guards expensive AI calls per user
type Limiter interface {
	Allow(ctx context.Context, userID int64) error
}

// Services are the use cases the bot talks to. Auth and Reports may be nil.
type Services struct {
	Users           service.IUsersService
	Recognition     service.IDishRecognitionService
	Statistics      service.IStatisticsService
	Recommendations service.IRecommendationService
	Reports         service.IReportService
	Auth            service.IAuthService
}

// Options tune the bot. Zero limiters mean no limits.
type Options struct {
	AdminID             int64
	RecognitionLimit    Limiter
	RecommendationLimit Limiter
}

// Bot handles messages one user at a time
type Bot struct {
	msg   Messenger
	store conversation.Store
	svc   Services
	opts  Options
	log   *zap.Logger

	mu    sync.Mutex
	locks map[int64]*userLock
}

// userLock is released from Bot.locks once no message holds or waits on it
type userLock struct {
	sync.Mutex
	refs int
}

func New(msg Messenger, store conversation.Store, svc Services, opts Options, log *zap.Logger) *Bot {
	return &Bot{
		msg:   msg,
		store: store,
		svc:   svc,
		opts:  opts,
		log:   log.Named("bot"),
		locks: make(map[int64]*userLock),
	}
}

// lockUser serializes messages of one user so the dialogue state is never
// updated concurrently. The returned func releases the lock.
func (b *Bot) lockUser(userID int64) func() {
	b.mu.Lock()
	l, ok := b.locks[userID]
	if !ok {
		l = &userLock{}
		b.locks[userID] = l
	}
	l.refs++
	b.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		b.mu.Lock()
		if l.refs--; l.refs == 0 {
			delete(b.locks, userID)
		}
		b.mu.Unlock()
	}
}

// Handle processes one incoming message. Unexpected errors are reported
// to the user and returned.
func (b *Bot) Handle(ctx context.Context, in Incoming) error {
	unlock := b.lockUser(in.User.TelegramID)
	defer unlock()

	err := b.handle(ctx, in)
	if err != nil && ctx.Err() == nil {
		if sendErr := b.msg.SendText(ctx, in.ChatID, textInternalError, nil); sendErr != nil {
			b.log.Warn("failed to report error to user", zap.Error(sendErr))
		}
	}
	return err
}

func (b *Bot) handle(ctx context.Context, in Incoming) error {
	userID := in.User.TelegramID
	if err := b.register(ctx, in); err != nil {
		return err
	}

	if cmd, ok := parseCommand(in.Text); ok {
		return b.command(ctx, in, cmd)
	}

	session, err := b.store.Load(ctx, userID)
	if err != nil {
		return err
	}

	switch {
	case session.State == conversation.StateWaitingDish:
		return b.dish(ctx, in)
	case session.State.InQuestionnaire():
		return b.answer(ctx, in, session)
	}

	if in.PhotoFileID != "" || in.VoiceFileID != "" {
		return b.msg.SendText(ctx, in.ChatID, textPressAddDish, UserKeyboard)
	}
	return b.msg.SendText(ctx, in.ChatID, textUnknownCommand, UserKeyboard)
}

// register saves users on their first message, greets them and tells the
// admin about them
func (b *Bot) register(ctx context.Context, in Incoming) error {
	created, err := b.svc.Users.EnsureUser(ctx, in.User)
	if err != nil {
		return err
	}
	if !created {
		return nil
	}

	b.log.Info("new user", zap.Int64("user_id", in.User.TelegramID), zap.String("username", in.User.Username))
	if err := b.msg.SendText(ctx, in.ChatID, textIntro, nil); err != nil {
		return err
	}

	if b.opts.AdminID != 0 && b.opts.AdminID != in.User.TelegramID {
		if err := b.msg.SendText(ctx, b.opts.AdminID, newUserNotice(in.User), nil); err != nil {
			b.log.Warn("failed to notify admin", zap.Error(err))
		}
	}
	return nil
}

type command int

const (
	cmdStart command = iota + 1
	cmdMainMenu
	cmdAddDish
	cmdStatistics
	cmdMonthlyStatistics
	cmdRecommendation
	cmdGoal
	cmdSetGoal
	cmdWebAccess
)

var commands = map[string]command{
	"/start":              cmdStart,
	"главное меню":        cmdMainMenu,
	"добавить блюдо":      cmdAddDish,
	"статистика":          cmdStatistics,
	"статистика за месяц": cmdMonthlyStatistics,
	"ai рекомендация":     cmdRecommendation,
	"цель":                cmdGoal,
	"текущая цель":        cmdGoal,
	"задать цель":         cmdSetGoal,
	"обновить цель":       cmdSetGoal,
	"веб-доступ":          cmdWebAccess,
}

func parseCommand(text string) (command, bool) {
	cmd, ok := commands[strings.ToLower(strings.TrimSpace(text))]
	return cmd, ok
}

func (b *Bot) command(ctx context.Context, in Incoming, cmd command) error {
	userID := in.User.TelegramID

	// menu commands abandon any unfinished dialogue
	if cmd != cmdAddDish && cmd != cmdSetGoal {
		if err := b.store.Clear(ctx, userID); err != nil {
			return err
		}
	}

	switch cmd {
	case cmdStart:
		return b.msg.SendText(ctx, in.ChatID, greeting(in.User), UserKeyboard)
	case cmdMainMenu:
		return b.msg.SendText(ctx, in.ChatID, textMainMenu, UserKeyboard)
	case cmdAddDish:
		if err := b.store.Save(ctx, userID, &conversation.Session{State: conversation.StateWaitingDish}); err != nil {
			return err
		}
		return b.msg.SendText(ctx, in.ChatID, textSendDish, nil)
	case cmdStatistics:
		return b.dailyStatistics(ctx, in)
	case cmdMonthlyStatistics:
		return b.monthlyStatistics(ctx, in)
	case cmdRecommendation:
		return b.recommendation(ctx, in)
	case cmdGoal:
		return b.goal(ctx, in)
	case cmdSetGoal:
		return b.startQuestionnaire(ctx, in)
	case cmdWebAccess:
		return b.webAccess(ctx, in)
	}
	return nil
}
