// Package bot turns Discord messages into economy operations and renders
// the results as chat replies.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"creditbot/internal/game"

	"github.com/bwmarrin/discordgo"
)

// Session is the part of *discordgo.Session the dispatcher uses.
type Session interface {
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	User(userID string, options ...discordgo.RequestOption) (*discordgo.User, error)
	GuildRoles(guildID string, options ...discordgo.RequestOption) ([]*discordgo.Role, error)
}

type Config struct {
	Prefix              string
	SpinChannelID       string
	GambleChannelID     string
	MarketBannedRole    string
	GamblePromptTimeout time.Duration
}

type handler func(ctx context.Context, m *discordgo.Message, args []string) string

type command struct {
	usage string
	help  string
	run   handler
}

type Dispatcher struct {
	cfg      Config
	game     *game.Service
	session  Session
	dice     game.Dice
	log      *slog.Logger
	prompts  *prompts
	commands map[string]command
	aliases  map[string]string
}

func New(cfg Config, gameSvc *game.Service, session Session, dice game.Dice, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Prefix == "" {
		cfg.Prefix = "!"
	}
	if cfg.GamblePromptTimeout <= 0 {
		cfg.GamblePromptTimeout = 30 * time.Second
	}
	if dice == nil {
		dice = game.NewClockDice()
	}
	d := &Dispatcher{
		cfg:     cfg,
		game:    gameSvc,
		session: session,
		dice:    dice,
		log:     logger,
		prompts: newPrompts(),
		aliases: map[string]string{"lb": "leaderboard", "market": "marketlist", "inv": "inventory", "bal": "credits"},
	}
	d.commands = map[string]command{
		"spin":         {usage: "spin", help: "Spin for credits.", run: d.cmdSpin},
		"sacrifice":    {usage: "sacrifice <amount>", help: "Burn credits to boost the next 10 spins.", run: d.cmdSacrifice},
		"credits":      {usage: "credits", help: "Show your balance.", run: d.cmdCredits},
		"additem":      {usage: "additem <name> <price>", help: "List an item on the market.", run: d.cmdAddItem},
		"marketlist":   {usage: "marketlist", help: "Show market listings.", run: d.cmdMarketList},
		"buy":          {usage: "buy <item number>", help: "Buy a listing.", run: d.cmdBuy},
		"removeitem":   {usage: "removeitem <item number>", help: "Withdraw one of your listings.", run: d.cmdRemoveItem},
		"bonus":        {usage: "bonus <multiplier>", help: "Owner: boost the next spin.", run: d.cmdBonus},
		"gamble":       {usage: "gamble [amount]", help: "Double or nothing.", run: d.cmdGamble},
		"forcegamble":  {usage: "forcegamble <@user> <amount>", help: "Owner: gamble someone else's credits.", run: d.cmdForceGamble},
		"resetcredits": {usage: "resetcredits <@user>", help: "Owner: zero a balance.", run: d.cmdResetCredits},
		"resetboost":   {usage: "resetboost", help: "Owner: clear the boost.", run: d.cmdResetBoost},
		"addcredits":   {usage: "addcredits <@user> <amount>", help: "Owner: grant credits.", run: d.cmdAddCredits},
		"remcredits":   {usage: "remcredits <@user> <amount>", help: "Owner: take credits.", run: d.cmdRemoveCredits},
		"pay":          {usage: "pay <@user> <amount>", help: "Send credits to someone.", run: d.cmdPay},
		"work":         {usage: "work", help: "Earn 50-200 credits.", run: d.cmdWork},
		"inventory":    {usage: "inventory", help: "Show what you own.", run: d.cmdInventory},
		"leaderboard":  {usage: "leaderboard", help: "Top 10 balances.", run: d.cmdLeaderboard},
		"hello":        {usage: "hello", help: "Say hello.", run: d.cmdHello},
		"roll":         {usage: "roll [NdM]", help: "Roll dice, e.g. 2d20.", run: d.cmdRoll},
		"choose":       {usage: "choose a, b, c", help: "Pick one option.", run: d.cmdChoose},
		"help":         {usage: "help [command]", help: "Show commands.", run: d.cmdHelp},
	}
	return d
}

// OnMessageCreate is registered with discordgo.Session.AddHandler.
func (d *Dispatcher) OnMessageCreate(_ *discordgo.Session, m *discordgo.MessageCreate) {
	d.Dispatch(context.Background(), m.Message)
}

// Dispatch handles one inbound message. It blocks while a command waits on
// an interactive prompt.
func (d *Dispatcher) Dispatch(ctx context.Context, m *discordgo.Message) {
	if m == nil || m.Author == nil || m.Author.Bot {
		return
	}
	if d.prompts.deliver(m) {
		return
	}
	name, args, ok := parseCommand(d.cfg.Prefix, m.Content)
	if !ok {
		return
	}
	if target, ok := d.aliases[name]; ok {
		name = target
	}
	cmd, ok := d.commands[name]
	if !ok {
		return
	}
	d.log.Debug("command", "name", name, "user", m.Author.ID, "channel", m.ChannelID)
	if reply := cmd.run(ctx, m, args); reply != "" {
		d.send(m.ChannelID, reply)
	}
}

func (d *Dispatcher) send(channelID, content string) {
	if _, err := d.session.ChannelMessageSend(channelID, content); err != nil {
		d.log.Error("send message", "channel", channelID, "err", err)
	}
}

// venue returns a refusal when the command is pinned to another channel.
func (d *Dispatcher) venue(m *discordgo.Message, name, channelID string) string {
	if channelID == "" || m.ChannelID == channelID {
		return ""
	}
	return fmt.Sprintf("🚫 You can only use `%s%s` in <#%s>.", d.cfg.Prefix, name, channelID)
}

func (d *Dispatcher) usage(name string) string {
	return fmt.Sprintf("❌ Usage: `%s%s`", d.cfg.Prefix, d.commands[name].usage)
}

// displayName resolves a user id to a username, or "" when Discord does not
// know it.
func (d *Dispatcher) displayName(userID string) string {
	u, err := d.session.User(userID)
	if err != nil || u == nil {
		return ""
	}
	return u.Username
}

func (d *Dispatcher) hasRoleNamed(m *discordgo.Message, roleName string) bool {
	if roleName == "" || m.Member == nil || m.GuildID == "" || len(m.Member.Roles) == 0 {
		return false
	}
	roles, err := d.session.GuildRoles(m.GuildID)
	if err != nil {
		d.log.Warn("guild roles lookup failed", "guild", m.GuildID, "err", err)
		return false
	}
	held := map[string]bool{}
	for _, id := range m.Member.Roles {
		held[id] = true
	}
	for _, r := range roles {
		if r != nil && held[r.ID] && strings.EqualFold(r.Name, roleName) {
			return true
		}
	}
	return false
}

// errorReply renders engine failures. Persistence failures are logged since
// the user can do nothing about them.
func (d *Dispatcher) errorReply(err error) string {
	switch {
	case errors.Is(err, game.ErrInvalidArgument):
		return "❌ " + strings.TrimPrefix(err.Error(), game.ErrInvalidArgument.Error()+": ")
	case errors.Is(err, game.ErrInsufficientFunds):
		return "❌ You don't have enough credits."
	case errors.Is(err, game.ErrNotFound):
		return "❌ Invalid item number."
	case errors.Is(err, game.ErrPermissionDenied):
		return "⛔ You are not allowed to do that."
	default:
		d.log.Error("command failed", "err", err)
		return "⚠️ Something went wrong saving that. Nothing was changed, try again."
	}
}

func (d *Dispatcher) cmdHelp(_ context.Context, _ *discordgo.Message, args []string) string {
	if len(args) > 0 {
		name := strings.ToLower(strings.TrimPrefix(args[0], d.cfg.Prefix))
		if target, ok := d.aliases[name]; ok {
			name = target
		}
		cmd, ok := d.commands[name]
		if !ok {
			return fmt.Sprintf("Command '%s' not found.", args[0])
		}
		return fmt.Sprintf("**%s%s**\n%s", d.cfg.Prefix, cmd.usage, cmd.help)
	}
	names := make([]string, 0, len(d.commands))
	for name := range d.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	var b strings.Builder
	fmt.Fprintf(&b, "**Commands** (use `%shelp <command>` for details)\n", d.cfg.Prefix)
	for _, name := range names {
		fmt.Fprintf(&b, "`%s%s` %s\n", d.cfg.Prefix, d.commands[name].usage, d.commands[name].help)
	}
	return b.String()
}
