package telegram

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"telegram-job-alerts/internal/application"
	"telegram-job-alerts/internal/config"
	"telegram-job-alerts/internal/domain/model"
	"telegram-job-alerts/internal/domain/ports/adapter"
	"telegram-job-alerts/internal/domain/ports/repository"
	"telegram-job-alerts/internal/infra/metrics"
	"telegram-job-alerts/internal/infra/redis"
)

// Per-user ceiling on /jobs to keep one chat from hammering the store.
const (
	jobsCommandLimit  = 10
	jobsCommandWindow = time.Minute
)

// RealBot implements adapter.NotificationGateway and runs the polling loop
// with a worker pool. All outbound sends go through one pacing limiter so
// alert fan-out and command replies share the same global budget.
type RealBot struct {
	bot         *tgbotapi.BotAPI
	cfg         *config.BotConfig
	facade      *application.BotFacade
	states      repository.FilterStateRepository
	limiter     *redis.RateLimiter
	sendPacer   *rate.Limiter
	adminIDsMap map[int64]struct{}
	log         *zerolog.Logger

	updateWorkers int
	cancelPolling context.CancelFunc
}

var _ adapter.NotificationGateway = (*RealBot)(nil)

func NewRealBot(
	cfg *config.BotConfig,
	facade *application.BotFacade,
	states repository.FilterStateRepository,
	limiter *redis.RateLimiter,
	logger *zerolog.Logger,
) (*RealBot, error) {
	if cfg == nil {
		return nil, errors.New("bot config is nil")
	}
	if facade == nil {
		return nil, errors.New("bot facade is nil")
	}

	bot, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, err
	}

	adminMap := make(map[int64]struct{}, len(cfg.AdminIDs))
	for _, id := range cfg.AdminIDs {
		adminMap[id] = struct{}{}
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = 5
	}

	compLog := logger.With().Str("component", "TelegramBot").Logger()
	return &RealBot{
		bot:           bot,
		cfg:           cfg,
		facade:        facade,
		states:        states,
		limiter:       limiter,
		sendPacer:     rate.NewLimiter(rate.Limit(cfg.SendRate), 1),
		adminIDsMap:   adminMap,
		log:           &compLog,
		updateWorkers: workers,
	}, nil
}

// StartPolling begins polling Telegram for updates concurrently.
// It runs until ctx is canceled.
func (r *RealBot) StartPolling(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := r.bot.GetUpdatesChan(u)

	ctx, cancel := context.WithCancel(ctx)
	r.cancelPolling = cancel

	var wg sync.WaitGroup
	updateChan := make(chan tgbotapi.Update, 100)

	for i := 0; i < r.updateWorkers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for {
				select {
				case update, ok := <-updateChan:
					if !ok {
						return
					}
					if err := r.handleUpdate(ctx, update); err != nil {
						r.log.Error().Err(err).Int("worker", workerID).Msg("error handling update")
					}
				case <-ctx.Done():
					return
				}
			}
		}(i + 1)
	}

	// Dispatcher goroutine: feed updates into updateChan
	go func() {
		defer close(updateChan)
		for {
			select {
			case update := <-updates:
				select {
				case updateChan <- update:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	<-ctx.Done()
	r.bot.StopReceivingUpdates()
	wg.Wait()
	return nil
}

// StopPolling stops the polling loop gracefully.
func (r *RealBot) StopPolling() {
	if r.cancelPolling != nil {
		r.cancelPolling()
	}
}

// SendBatch delivers an alert batch as one message.
func (r *RealBot) SendBatch(ctx context.Context, tgID int64, listings []*model.Listing) error {
	text := application.FormatBatch("🔔 New jobs matching your filters:", listings)
	return r.SendText(ctx, tgID, text)
}

// SendText sends a plain message, paced by the global send limiter.
func (r *RealBot) SendText(ctx context.Context, tgID int64, text string) error {
	if err := r.sendPacer.Wait(ctx); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(tgID, text)
	_, err := r.bot.Send(msg)
	return err
}

func (r *RealBot) handleUpdate(ctx context.Context, update tgbotapi.Update) error {
	if update.CallbackQuery != nil {
		return r.handleCallback(ctx, update.CallbackQuery)
	}
	if update.Message == nil {
		return nil
	}
	tgUser := update.Message.From
	if tgUser == nil {
		return nil
	}

	text := strings.TrimSpace(update.Message.Text)
	if len(text) > 0 && text[0] == '/' {
		return r.handleCommand(ctx, tgUser.ID, tgUser.UserName, text)
	}
	return r.handleReply(ctx, tgUser.ID, text)
}

func (r *RealBot) handleCommand(ctx context.Context, tgID int64, username, text string) error {
	cmd := text
	if i := strings.IndexByte(cmd, ' '); i > 0 {
		cmd = cmd[:i]
	}
	if i := strings.IndexByte(cmd, '@'); i > 0 {
		cmd = cmd[:i]
	}
	metrics.IncTelegramCommand(cmd)

	// A command aborts any in-flight /filter conversation.
	if r.states != nil && cmd != "/filter" {
		_ = r.states.ClearState(ctx, tgID)
	}

	var (
		reply string
		err   error
	)
	switch cmd {
	case "/start":
		reply, err = r.facade.HandleStart(ctx, tgID, username)
	case "/jobs":
		if r.limiter != nil {
			ok, lerr := r.limiter.Allow(ctx, redis.UserCommandKey(tgID, "jobs"), jobsCommandLimit, jobsCommandWindow)
			if lerr != nil {
				r.log.Warn().Err(lerr).Int64("tg_id", tgID).Msg("rate limiter unavailable, allowing")
			} else if !ok {
				metrics.IncRateLimitTriggered()
				return r.SendText(ctx, tgID, "⏳ Slow down a little — try /jobs again in a minute.")
			}
		}
		reply, err = r.facade.HandleJobs(ctx, tgID, username)
	case "/filter":
		return r.startFilterConversation(ctx, tgID)
	case "/filters":
		reply, err = r.facade.HandleFilters(ctx, tgID, username)
	case "/clear":
		reply, err = r.facade.HandleClearFilters(ctx, tgID)
	case "/upgrade":
		return r.sendUpgradePrompt(ctx, tgID)
	case "/help":
		reply, err = r.facade.HandleHelp(ctx)
	case "/stats":
		if !r.isAdmin(tgID) {
			return r.SendText(ctx, tgID, "You are not authorized to use this command.")
		}
		reply, err = r.facade.HandleStats(ctx)
	default:
		return r.SendText(ctx, tgID, "Unknown command. Send /help for the list of commands.")
	}
	if err != nil {
		r.log.Error().Err(err).Int64("tg_id", tgID).Str("command", cmd).Msg("command failed")
		return r.SendText(ctx, tgID, "Something went wrong. Please try again later.")
	}
	return r.SendText(ctx, tgID, reply)
}

const upgradeConfirmData = "upgrade_confirm"

func (r *RealBot) sendUpgradePrompt(ctx context.Context, tgID int64) error {
	if err := r.sendPacer.Wait(ctx); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(tgID,
		"⭐ Premium sends every matching job automatically, with no daily limit.\nConfirm to upgrade:")
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⭐ Upgrade to Premium", upgradeConfirmData),
		),
	)
	_, err := r.bot.Send(msg)
	return err
}

func (r *RealBot) handleCallback(ctx context.Context, query *tgbotapi.CallbackQuery) error {
	if query.From == nil {
		return nil
	}
	defer func() { _, _ = r.bot.Request(tgbotapi.NewCallback(query.ID, "")) }()

	switch query.Data {
	case upgradeConfirmData:
		reply, err := r.facade.HandleUpgrade(ctx, query.From.ID, query.From.UserName)
		if err != nil {
			r.log.Error().Err(err).Int64("tg_id", query.From.ID).Msg("upgrade failed")
			return r.SendText(ctx, query.From.ID, "Something went wrong. Please try again later.")
		}
		return r.SendText(ctx, query.From.ID, reply)
	default:
		r.log.Debug().Str("data", query.Data).Msg("unknown callback ignored")
		return nil
	}
}

func (r *RealBot) startFilterConversation(ctx context.Context, tgID int64) error {
	if r.states == nil {
		return r.SendText(ctx, tgID, "Filters are not available right now.")
	}
	if err := r.states.SetState(ctx, tgID, &repository.FilterState{Stage: repository.FilterStageAwaitSkills}); err != nil {
		return err
	}
	return r.SendText(ctx, tgID, "🏷 Send the skills you want (comma separated, e.g. go, python), or 'skip':")
}

const (
	replyUnknown    = "Sorry, I didn't understand that. Send /help for commands."
	replySaveFailed = "Couldn't save that, please try again."
)

// handleReply routes a plain message through the /filter conversation if one
// is in flight; otherwise nudges toward /help.
func (r *RealBot) handleReply(ctx context.Context, tgID int64, text string) error {
	if r.states == nil {
		return r.SendText(ctx, tgID, replyUnknown)
	}
	state, err := r.states.GetState(ctx, tgID)
	if err != nil || state == nil {
		return r.SendText(ctx, tgID, replyUnknown)
	}
	for _, msg := range r.advanceFilter(ctx, tgID, state.Stage, text) {
		if err := r.SendText(ctx, tgID, msg); err != nil {
			return err
		}
	}
	return nil
}

// advanceFilter runs one stage of the /filter conversation and returns the
// messages to send back. Save failures are logged; the chat only ever sees a
// generic retry prompt, never raw error text. On failure the stage is left
// unchanged so the user can resend the same answer.
func (r *RealBot) advanceFilter(ctx context.Context, tgID int64, stage, text string) []string {
	switch stage {
	case repository.FilterStageAwaitSkills:
		var msgs []string
		if !isSkip(text) {
			reply, err := r.facade.HandleSetSkills(ctx, tgID, splitCSV(text))
			if err != nil {
				r.log.Error().Err(err).Int64("tg_id", tgID).Msg("save skills failed")
				return []string{replySaveFailed}
			}
			if reply != "" {
				msgs = append(msgs, reply)
			}
		}
		if err := r.states.SetState(ctx, tgID, &repository.FilterState{Stage: repository.FilterStageAwaitBudget}); err != nil {
			r.log.Error().Err(err).Int64("tg_id", tgID).Msg("set filter state failed")
			return []string{replySaveFailed}
		}
		return append(msgs, "💰 Send a budget range in USD (e.g. 500-2000, 500 for a minimum), or 'skip':")

	case repository.FilterStageAwaitBudget:
		var msgs []string
		if !isSkip(text) {
			min, max, perr := parseBudget(text)
			if perr != nil {
				return []string{"I couldn't read that. Send something like 500-2000, or 'skip'."}
			}
			reply, err := r.facade.HandleSetBudget(ctx, tgID, min, max)
			if err != nil {
				r.log.Error().Err(err).Int64("tg_id", tgID).Msg("save budget failed")
				return []string{replySaveFailed}
			}
			if reply != "" {
				msgs = append(msgs, reply)
			}
		}
		if err := r.states.SetState(ctx, tgID, &repository.FilterState{Stage: repository.FilterStageAwaitPlatform}); err != nil {
			r.log.Error().Err(err).Int64("tg_id", tgID).Msg("set filter state failed")
			return []string{replySaveFailed}
		}
		return append(msgs, "🌐 Send a platform name (e.g. RemoteOK), or 'skip':")

	case repository.FilterStageAwaitPlatform:
		var msgs []string
		if !isSkip(text) {
			reply, err := r.facade.HandleSetPlatform(ctx, tgID, text)
			if err != nil {
				r.log.Error().Err(err).Int64("tg_id", tgID).Msg("save platform failed")
				return []string{replySaveFailed}
			}
			if reply != "" {
				msgs = append(msgs, reply)
			}
		}
		_ = r.states.ClearState(ctx, tgID)
		return append(msgs, "✅ Filters saved. See them with /filters.")

	default:
		_ = r.states.ClearState(ctx, tgID)
		return []string{replyUnknown}
	}
}

func (r *RealBot) isAdmin(tgID int64) bool {
	_, ok := r.adminIDsMap[tgID]
	return ok
}

func isSkip(text string) bool {
	t := strings.ToLower(strings.TrimSpace(text))
	return t == "skip" || t == "-" || t == ""
}

func splitCSV(text string) []string {
	parts := strings.Split(text, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// parseBudget accepts "500-2000", "500" (minimum only) or "-2000" (maximum only).
func parseBudget(text string) (*int, *int, error) {
	t := strings.ReplaceAll(strings.TrimSpace(text), "$", "")
	var minPart, maxPart string
	if i := strings.IndexByte(t, '-'); i >= 0 {
		minPart, maxPart = strings.TrimSpace(t[:i]), strings.TrimSpace(t[i+1:])
	} else {
		minPart = t
	}

	var min, max *int
	if minPart != "" {
		v, err := strconv.Atoi(minPart)
		if err != nil {
			return nil, nil, err
		}
		min = &v
	}
	if maxPart != "" {
		v, err := strconv.Atoi(maxPart)
		if err != nil {
			return nil, nil, err
		}
		max = &v
	}
	if min == nil && max == nil {
		return nil, nil, errors.New("empty budget")
	}
	return min, max, nil
}
