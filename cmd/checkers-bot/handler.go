package main

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/park285/cheese-checkers-bot/internal/adapter/draughtspresenter"
	appcfg "github.com/park285/cheese-checkers-bot/internal/config"
	"github.com/park285/cheese-checkers-bot/internal/checkersbuilder"
	"github.com/park285/cheese-checkers-bot/internal/draughts"
	"github.com/park285/cheese-checkers-bot/internal/irisfast"
	"github.com/park285/cheese-checkers-bot/internal/lobby"
	"github.com/park285/cheese-checkers-bot/internal/pvpdraughts"
	"github.com/park285/cheese-checkers-bot/internal/savegame"
	"github.com/park285/cheese-checkers-bot/pkg/draughtsdto"
)

const (
	commandWord = "checkers"
	recentGames = 3
)

type bot struct {
	cfg       *appcfg.AppConfig
	deps      *checkersbuilder.Deps
	presenter *draughtspresenter.Presenter
	formatter *draughtspresenter.Formatter
	logger    *zap.Logger
}

// request is one parsed chat command.
type request struct {
	room   string
	userID string
	name   string
	args   []string
}

func (b *bot) handle(ctx context.Context, msg *irisfast.Message) {
	raw := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(msg.Msg), b.cfg.BotPrefix))
	fields := strings.Fields(raw)
	if len(fields) == 0 || !strings.EqualFold(fields[0], commandWord) {
		return
	}
	req := request{room: msg.Room, userID: msg.UserID(), name: msg.SenderName(), args: fields[1:]}
	if req.userID == "" {
		b.logger.Warn("command_without_user", zap.String("room", req.room))
		return
	}
	b.logger.Info("command", zap.String("room", req.room), zap.String("user_id", req.userID), zap.Strings("args", req.args))

	if len(req.args) == 0 {
		b.reply(ctx, req.room, b.formatter.Help())
		return
	}
	sub := strings.ToLower(req.args[0])
	switch {
	case sub == "help":
		b.reply(ctx, req.room, b.formatter.Help())
	case strings.HasPrefix(sub, "@"):
		b.challenge(ctx, req)
	case sub == "status":
		b.status(ctx, req)
	case sub == "resign":
		b.resign(ctx, req)
	case sub == "save":
		b.save(ctx, req)
	case sub == "load":
		b.load(ctx, req)
	case sub == "lobby":
		b.lobbyCommand(ctx, req)
	case sub == "rank":
		b.rank(ctx, req)
	case sub == "fastest":
		b.fastest(ctx, req)
	case sub == "me":
		b.me(ctx, req)
	default:
		b.click(ctx, req)
	}
}

func (b *bot) challenge(ctx context.Context, req request) {
	target := sanitizeUserArg(req.args[0])
	if target == "" {
		b.reply(ctx, req.room, b.formatter.Text("error.need_opponent", nil))
		return
	}
	color := "random"
	if len(req.args) > 1 {
		color = strings.ToLower(req.args[1])
	}
	g, err := b.deps.Games.CreateGame(ctx, pvpdraughts.CreateRequest{
		OriginRoom:     req.room,
		ResolveRoom:    req.room,
		ChallengerID:   req.userID,
		ChallengerName: req.name,
		TargetID:       target,
		TargetName:     target,
		Color:          color,
	})
	if err != nil {
		b.replyError(ctx, req, err)
		return
	}
	b.login(ctx, g)
	state, err := b.render(ctx, g)
	if err != nil {
		b.replyError(ctx, req, err)
		return
	}
	b.broadcast(ctx, b.formatter.Started(state), state)
}

func (b *bot) click(ctx context.Context, req request) {
	sq, err := draughts.ParseSquare(req.args[0])
	if err != nil {
		b.reply(ctx, req.room, b.formatter.Text("error.bad_square", map[string]any{"Input": req.args[0]}))
		return
	}
	g, signals, err := b.deps.Games.PlayInput(ctx, req.userID, req.room, sq)
	if err != nil {
		b.replyError(ctx, req, err)
		return
	}
	if len(signals) == 0 {
		return
	}
	state, err := b.render(ctx, g)
	if err != nil {
		b.replyError(ctx, req, err)
		return
	}
	text := b.formatter.Play(draughtspresenter.ToDTOOutcome(state, actorName(g, req.userID), sq, signals))
	if signals[0].IsRejection() {
		b.reply(ctx, req.room, text)
		return
	}
	b.broadcast(ctx, text, state)
}

func (b *bot) save(ctx context.Context, req request) {
	if b.cfg.SaveDir == "" {
		b.reply(ctx, req.room, b.formatter.Text("error.save_disabled", nil))
		return
	}
	g, err := b.deps.Games.GetActiveGameByUserInRoom(ctx, req.userID, req.room)
	if err == nil && g == nil {
		err = pvpdraughts.ErrNoActiveGame
	}
	if err != nil {
		b.replyError(ctx, req, err)
		return
	}
	ctrl, err := draughts.Restore(g.Board)
	if err != nil {
		b.replyError(ctx, req, err)
		return
	}
	path := filepath.Join(b.cfg.SaveDir, g.ID+".json")
	if err := savegame.Save(path, ctrl, &savegame.Seats{WhiteID: g.WhiteID, BlackID: g.BlackID}); err != nil {
		b.replyError(ctx, req, err)
		return
	}
	b.logger.Info("game_saved", zap.String("game_id", g.ID), zap.String("path", path))
	b.reply(ctx, req.room, b.formatter.Text("game.saved", map[string]any{"ID": g.ID}))
}

// load resumes a saved game in the caller's room. Only a seated player may
// load it.
func (b *bot) load(ctx context.Context, req request) {
	if b.cfg.SaveDir == "" {
		b.reply(ctx, req.room, b.formatter.Text("error.save_disabled", nil))
		return
	}
	if len(req.args) < 2 || !validSaveID(req.args[1]) {
		b.reply(ctx, req.room, b.formatter.Text("error.bad_save_id", nil))
		return
	}
	id := req.args[1]
	ctrl, seats, err := savegame.Load(filepath.Join(b.cfg.SaveDir, id+".json"))
	if err != nil {
		b.replyError(ctx, req, err)
		return
	}
	if !seats.Has(req.userID) {
		b.replyError(ctx, req, pvpdraughts.ErrNotInGame)
		return
	}
	g, err := b.deps.Games.ResumeGame(ctx, pvpdraughts.ResumeRequest{
		Room:        req.room,
		UserID:      req.userID,
		WhiteID:     seats.WhiteID,
		BlackID:     seats.BlackID,
		ResumedFrom: id,
		Board:       ctrl.Snapshot(),
	})
	if err != nil {
		b.replyError(ctx, req, err)
		return
	}
	b.login(ctx, g)
	state, err := b.render(ctx, g)
	if err != nil {
		b.replyError(ctx, req, err)
		return
	}
	b.broadcast(ctx, b.formatter.Resumed(state), state)
}

func validSaveID(id string) bool {
	return id != "" && !strings.HasPrefix(id, ".") && filepath.Base(id) == id && !strings.ContainsAny(id, `/\`)
}

func (b *bot) status(ctx context.Context, req request) {
	g, err := b.deps.Games.GetActiveGameByUserInRoom(ctx, req.userID, req.room)
	if err == nil && g == nil {
		// a game followed by another room, e.g. one started from a lobby
		g, err = b.deps.Games.GetActiveGameByUser(ctx, req.userID)
	}
	if err == nil && g == nil {
		err = pvpdraughts.ErrNoActiveGame
	}
	if err != nil {
		b.replyError(ctx, req, err)
		return
	}
	state, err := b.render(ctx, g)
	if err != nil {
		b.replyError(ctx, req, err)
		return
	}
	if err := b.presenter.Board(ctx, req.room, b.formatter.Status(state), state); err != nil {
		b.logger.Warn("reply_error", zap.String("room", req.room), zap.Error(err))
	}
}

func (b *bot) resign(ctx context.Context, req request) {
	g, signals, err := b.deps.Games.Resign(ctx, req.userID, req.room)
	if err != nil {
		b.replyError(ctx, req, err)
		return
	}
	state, err := b.render(ctx, g)
	if err != nil {
		b.replyError(ctx, req, err)
		return
	}
	text := b.formatter.Play(draughtspresenter.ToDTOOutcome(state, actorName(g, req.userID), draughts.Square{}, signals))
	b.broadcast(ctx, text, state)
}

func (b *bot) lobbyCommand(ctx context.Context, req request) {
	action := ""
	if len(req.args) > 1 {
		action = strings.ToLower(req.args[1])
	}
	switch action {
	case "make":
		color := ""
		if len(req.args) > 2 {
			color = req.args[2]
		}
		made, err := b.deps.Lobby.Make(ctx, req.room, req.userID, req.name, color)
		if err != nil {
			b.replyError(ctx, req, err)
			return
		}
		b.reply(ctx, req.room, b.formatter.LobbyMade(made.Code))
	case "join":
		if len(req.args) < 3 {
			b.reply(ctx, req.room, b.formatter.Help())
			return
		}
		joined, err := b.deps.Lobby.Join(ctx, req.room, req.args[2], req.userID, req.name)
		if err != nil {
			b.replyError(ctx, req, err)
			return
		}
		g, err := b.deps.Games.LoadGame(ctx, joined.GameID)
		if err == nil && g == nil {
			err = pvpdraughts.ErrGameNotFound
		}
		if err != nil {
			b.replyError(ctx, req, err)
			return
		}
		b.login(ctx, g)
		state, err := b.render(ctx, g)
		if err != nil {
			b.replyError(ctx, req, err)
			return
		}
		b.broadcast(ctx, b.formatter.LobbyStarted(joined.Meta.Code, state), state)
	case "list":
		list, err := b.deps.Lobby.ListLobby(ctx)
		if err != nil {
			b.replyError(ctx, req, err)
			return
		}
		b.reply(ctx, req.room, b.formatter.LobbyList(draughtspresenter.ToDTOLobbies(list)))
	case "cancel":
		meta, err := b.deps.Lobby.Cancel(ctx, req.userID)
		if err != nil {
			b.replyError(ctx, req, err)
			return
		}
		if meta == nil {
			b.reply(ctx, req.room, b.formatter.Text("lobby.none", nil))
			return
		}
		b.reply(ctx, req.room, b.formatter.LobbyCancelled(meta.Code))
	default:
		b.reply(ctx, req.room, b.formatter.Help())
	}
}

func (b *bot) rank(ctx context.Context, req request) {
	players, err := b.deps.Records.TopPlayers(ctx, b.cfg.RankingLimit)
	if err != nil {
		b.replyError(ctx, req, err)
		return
	}
	b.reply(ctx, req.room, b.formatter.Ranking(draughtspresenter.ToDTOPlayers(players)))
}

func (b *bot) fastest(ctx context.Context, req request) {
	games, err := b.deps.Records.FastestGames(ctx, b.cfg.RankingLimit)
	if err != nil {
		b.replyError(ctx, req, err)
		return
	}
	b.reply(ctx, req.room, b.formatter.Fastest(draughtspresenter.ToDTOGames(games)))
}

func (b *bot) me(ctx context.Context, req request) {
	p, err := b.deps.Records.LoginPlayer(ctx, req.name)
	if err != nil {
		b.replyError(ctx, req, err)
		return
	}
	recent, err := b.deps.Records.RecentGames(ctx, p.Name, recentGames)
	if err != nil {
		b.replyError(ctx, req, err)
		return
	}
	b.reply(ctx, req.room, b.formatter.Me(draughtspresenter.ToDTOPlayer(p), draughtspresenter.ToDTOGames(recent)))
}

// login registers both players so their results count towards the rankings.
func (b *bot) login(ctx context.Context, g *pvpdraughts.Game) {
	for _, name := range []string{g.WhiteName, g.BlackName} {
		if _, err := b.deps.Records.LoginPlayer(ctx, name); err != nil {
			b.logger.Warn("records_login_error", zap.String("game_id", g.ID), zap.String("player", name), zap.Error(err))
		}
	}
}

// render draws the board from the point of view of the side to move.
func (b *bot) render(ctx context.Context, g *pvpdraughts.Game) (*draughtsdto.GameState, error) {
	return b.deps.Games.ToDTO(ctx, g, g.PlayerID(g.Board.SideToMove))
}

func (b *bot) broadcast(ctx context.Context, text string, state *draughtsdto.GameState) {
	if err := b.presenter.Broadcast(ctx, text, state); err != nil {
		b.logger.Warn("broadcast_error", zap.String("game_id", state.GameID), zap.Error(err))
	}
}

func (b *bot) reply(ctx context.Context, room, text string) {
	if err := b.presenter.Text(ctx, room, text); err != nil {
		b.logger.Warn("reply_error", zap.String("room", room), zap.Error(err))
	}
}

func (b *bot) replyError(ctx context.Context, req request, err error) {
	derr := domainError(err, req.userID)
	switch {
	case derr.Code == "error.internal":
		b.logger.Error("command_error", zap.String("room", req.room), zap.String("user_id", req.userID), zap.Error(err))
	case derr.Retryable:
		b.logger.Info("command_retryable", zap.String("room", req.room), zap.String("user_id", req.userID), zap.Error(err))
	}
	b.reply(ctx, req.room, b.formatter.Error(derr))
}

// domainError maps a service error to a catalog key.
func domainError(err error, actorID string) draughtsdto.DomainError {
	var busy *pvpdraughts.BusyError
	if errors.As(err, &busy) && busy.UserID != actorID {
		return draughtsdto.DomainError{Code: "error.opponent_busy", Data: map[string]any{"Name": busy.UserID}}
	}
	return draughtsdto.DomainError{Code: errorKey(err), Retryable: errors.Is(err, pvpdraughts.ErrConcurrentUpdate)}
}

func errorKey(err error) string {
	switch {
	case errors.Is(err, pvpdraughts.ErrNoActiveGame), errors.Is(err, pvpdraughts.ErrGameNotActive),
		errors.Is(err, pvpdraughts.ErrGameNotFound):
		return "error.no_game"
	case errors.Is(err, pvpdraughts.ErrNotYourTurn):
		return "error.not_your_turn"
	case errors.Is(err, pvpdraughts.ErrNotInGame):
		return "error.not_in_game"
	case errors.Is(err, pvpdraughts.ErrBusyInRoom), errors.Is(err, lobby.ErrPlayerBusyInRoom):
		return "error.busy"
	case errors.Is(err, pvpdraughts.ErrConcurrentUpdate):
		return "error.concurrent"
	case errors.Is(err, pvpdraughts.ErrSelfPlay):
		return "error.self_play"
	case errors.Is(err, pvpdraughts.ErrTooManyGames):
		return "error.too_many_games"
	case errors.Is(err, pvpdraughts.ErrInvalidParticipants), errors.Is(err, lobby.ErrInvalidArgs):
		return "error.need_opponent"
	case errors.Is(err, lobby.ErrLobbyGone):
		return "error.lobby_gone"
	case errors.Is(err, lobby.ErrLobbyStarted):
		return "error.lobby_full"
	case errors.Is(err, lobby.ErrCreatorHasLobby):
		return "error.lobby_exists"
	case errors.Is(err, lobby.ErrSelfJoin):
		return "error.self_join"
	case errors.Is(err, fs.ErrNotExist):
		return "error.save_missing"
	case errors.Is(err, draughts.ErrInvalidSnapshot), errors.Is(err, savegame.ErrUnsupportedVersion):
		return "error.save_invalid"
	}
	return "error.internal"
}

func actorName(g *pvpdraughts.Game, userID string) string {
	c, ok := g.ColorOf(userID)
	if !ok {
		return userID
	}
	return g.Board.Players.Name(c)
}

// sanitizeUserArg strips the mention marker and surrounding punctuation.
func sanitizeUserArg(s string) string {
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "@"))
	return strings.Trim(s, "<>,.")
}
