package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"creditbot/internal/game"

	"github.com/bwmarrin/discordgo"
)

var workScenarios = []string{
	"You worked at the coffee shop and earned **%s** credits!",
	"You helped someone fix their computer and earned **%s** credits!",
	"You walked dogs in the neighborhood and earned **%s** credits!",
	"You wrote some code for a client and earned **%s** credits!",
	"You sold some of your old stuff online and earned **%s** credits!",
}

func (d *Dispatcher) cmdSpin(ctx context.Context, m *discordgo.Message, _ []string) string {
	if refusal := d.venue(m, "spin", d.cfg.SpinChannelID); refusal != "" {
		return refusal
	}
	res, err := d.game.Spin(ctx, m.Author.ID)
	if err != nil {
		return d.errorReply(err)
	}
	return fmt.Sprintf("🎰 %s spun and got **%s** credits! 💰", m.Author.Username, res.Reward.Comma())
}

func (d *Dispatcher) cmdSacrifice(ctx context.Context, m *discordgo.Message, args []string) string {
	if len(args) != 1 {
		return d.usage("sacrifice")
	}
	amount, err := game.ParseCredits(args[0])
	if err != nil {
		return d.errorReply(err)
	}
	boost, err := d.game.Sacrifice(ctx, m.Author.ID, amount)
	if err != nil {
		return d.errorReply(err)
	}
	return fmt.Sprintf("🔥 %s sacrificed %s credits!\n➡️ Boost active! Multiplier: x%d for %d spins.",
		m.Author.Username, amount.Comma(), boost.Multiplier, boost.SpinsLeft)
}

func (d *Dispatcher) cmdCredits(ctx context.Context, m *discordgo.Message, _ []string) string {
	balance, err := d.game.CheckCredits(ctx, m.Author.ID)
	if err != nil {
		return d.errorReply(err)
	}
	return fmt.Sprintf("💳 %s, you have **%s** credits.", m.Author.Username, balance.Comma())
}

func (d *Dispatcher) cmdAddItem(ctx context.Context, m *discordgo.Message, args []string) string {
	if len(args) < 2 {
		return d.usage("additem")
	}
	price, err := game.ParseCredits(args[len(args)-1])
	if err != nil {
		return d.errorReply(err)
	}
	res, err := d.game.AddItem(ctx, game.AddItemInput{
		Seller:       m.Author.ID,
		Name:         strings.Join(args[:len(args)-1], " "),
		Price:        price,
		MarketBanned: d.hasRoleNamed(m, d.cfg.MarketBannedRole),
	})
	if err != nil {
		if isPermission(err) {
			return "🚫 You are not allowed to add items to the market."
		}
		return d.errorReply(err)
	}
	return fmt.Sprintf("🛒 Added '%s' to the market for %s credits.", res.Listing.Name, res.Listing.Price.Comma())
}

func (d *Dispatcher) cmdMarketList(ctx context.Context, _ *discordgo.Message, _ []string) string {
	entries, err := d.game.ListMarket(ctx)
	if err != nil {
		return d.errorReply(err)
	}
	if len(entries) == 0 {
		return "🛍️ The market is empty!"
	}
	names := map[string]string{}
	var b strings.Builder
	b.WriteString("**🛍️ Market Listings:**\n")
	for _, e := range entries {
		seller, ok := names[e.Listing.Seller]
		if !ok {
			seller = d.displayName(e.Listing.Seller)
			if seller == "" {
				seller = "unknown user"
			}
			names[e.Listing.Seller] = seller
		}
		fmt.Fprintf(&b, "%d. %s - %s credits (by %s)\n", e.Index, e.Listing.Name, e.Listing.Price.Comma(), seller)
	}
	return b.String()
}

func (d *Dispatcher) cmdBuy(ctx context.Context, m *discordgo.Message, args []string) string {
	index, ok := parseIndex(args)
	if !ok {
		return d.usage("buy")
	}
	listing, err := d.game.Buy(ctx, m.Author.ID, index)
	if err != nil {
		return d.errorReply(err)
	}
	return fmt.Sprintf("✅ You bought **%s**!", listing.Name)
}

func (d *Dispatcher) cmdRemoveItem(ctx context.Context, m *discordgo.Message, args []string) string {
	index, ok := parseIndex(args)
	if !ok {
		return d.usage("removeitem")
	}
	listing, err := d.game.RemoveItem(ctx, m.Author.ID, index)
	if err != nil {
		if isPermission(err) {
			return "⛔ You can only remove your own items (unless you're the server owner)."
		}
		return d.errorReply(err)
	}
	return fmt.Sprintf("🗑️ Removed **%s** from the market.", listing.Name)
}

func (d *Dispatcher) cmdBonus(ctx context.Context, m *discordgo.Message, args []string) string {
	if len(args) != 1 {
		return d.usage("bonus")
	}
	multiplier, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return d.usage("bonus")
	}
	boost, err := d.game.Bonus(ctx, m.Author.ID, multiplier)
	if err != nil {
		if isPermission(err) {
			return "⛔ Only the server owner can use this bonus."
		}
		return d.errorReply(err)
	}
	return fmt.Sprintf("🎁 Bonus activated! Multiplier x%d for the **next spin only**!", boost.Multiplier)
}

// cmdGamble asks for an amount unless one was given inline, then flips a coin.
func (d *Dispatcher) cmdGamble(ctx context.Context, m *discordgo.Message, args []string) string {
	if refusal := d.venue(m, "gamble", d.cfg.GambleChannelID); refusal != "" {
		return refusal
	}
	raw := ""
	if len(args) > 0 {
		raw = args[0]
	} else {
		answer, cancel := d.prompts.open(m.ChannelID, m.Author.ID)
		defer cancel()
		d.send(m.ChannelID, fmt.Sprintf("%s, how much would you like to gamble? Type the amount below:", m.Author.Mention()))

		timer := time.NewTimer(d.cfg.GamblePromptTimeout)
		defer timer.Stop()
		select {
		case raw = <-answer:
		case <-timer.C:
			return "⏰ You didn't reply in time with a valid number!"
		case <-ctx.Done():
			return ""
		}
	}
	amount, err := game.ParseCredits(raw)
	if err != nil {
		return d.errorReply(err)
	}
	res, err := d.game.Gamble(ctx, m.Author.ID, amount)
	if err != nil {
		if isInvalidAmount(err) {
			balance, _ := d.game.CheckCredits(ctx, m.Author.ID)
			return fmt.Sprintf("❌ Invalid amount. You have %s credits.", balance.Comma())
		}
		return d.errorReply(err)
	}
	if res.Won {
		return fmt.Sprintf("🎉 %s gambled and **doubled** %s credits! You now have %s.", m.Author.Mention(), amount.Comma(), res.Balance.Comma())
	}
	return fmt.Sprintf("💀 %s lost it all... %s credits gone. You now have %s.", m.Author.Mention(), amount.Comma(), res.Balance.Comma())
}

func (d *Dispatcher) cmdForceGamble(ctx context.Context, m *discordgo.Message, args []string) string {
	target, amount, ok := parseTargetAmount(args)
	if !ok {
		return d.usage("forcegamble")
	}
	res, err := d.game.ForceGamble(ctx, m.Author.ID, target, amount)
	if err != nil {
		if isPermission(err) {
			return "⛔ Only the server owner can force others to gamble."
		}
		return d.errorReply(err)
	}
	if res.Won {
		return fmt.Sprintf("🎲 %s forced <@%s> to gamble and they **WON**! They now have %s credits.", m.Author.Mention(), target, res.Balance.Comma())
	}
	return fmt.Sprintf("💀 %s forced <@%s> to gamble and they **LOST** %s credits. Balance: %s.", m.Author.Mention(), target, amount.Comma(), res.Balance.Comma())
}

func (d *Dispatcher) cmdResetCredits(ctx context.Context, m *discordgo.Message, args []string) string {
	if len(args) != 1 {
		return d.usage("resetcredits")
	}
	target, ok := parseUserRef(args[0])
	if !ok {
		return d.usage("resetcredits")
	}
	if err := d.game.ResetCredits(ctx, m.Author.ID, target); err != nil {
		if isPermission(err) {
			return "⛔ Only the server owner can use this command."
		}
		return d.errorReply(err)
	}
	return fmt.Sprintf("🧼 Reset <@%s>'s credits to **0**.", target)
}

func (d *Dispatcher) cmdResetBoost(ctx context.Context, m *discordgo.Message, _ []string) string {
	if err := d.game.ResetBoost(ctx, m.Author.ID); err != nil {
		if isPermission(err) {
			return "⛔ Only the server owner can reset the boost."
		}
		return d.errorReply(err)
	}
	return "🧯 Boost has been manually reset."
}

func (d *Dispatcher) cmdAddCredits(ctx context.Context, m *discordgo.Message, args []string) string {
	target, amount, ok := parseTargetAmount(args)
	if !ok {
		return d.usage("addcredits")
	}
	if _, err := d.game.AddCredits(ctx, m.Author.ID, target, amount); err != nil {
		if isPermission(err) {
			return "⛔ Only the server owner can give credits."
		}
		return d.errorReply(err)
	}
	return fmt.Sprintf("💸 Gave <@%s> **%s** credits.", target, amount.Comma())
}

func (d *Dispatcher) cmdRemoveCredits(ctx context.Context, m *discordgo.Message, args []string) string {
	target, amount, ok := parseTargetAmount(args)
	if !ok {
		return d.usage("remcredits")
	}
	balance, err := d.game.RemoveCredits(ctx, m.Author.ID, target, amount)
	if err != nil {
		if isPermission(err) {
			return "⛔ Only the server owner can remove credits."
		}
		return d.errorReply(err)
	}
	return fmt.Sprintf("➖ Removed **%s** credits from <@%s>. New balance: %s", amount.Comma(), target, balance.Comma())
}

func (d *Dispatcher) cmdPay(ctx context.Context, m *discordgo.Message, args []string) string {
	target, amount, ok := parseTargetAmount(args)
	if !ok {
		return d.usage("pay")
	}
	if _, err := d.game.Pay(ctx, m.Author.ID, target, amount); err != nil {
		if isInsufficient(err) {
			return "❌ You don't have enough credits to send."
		}
		return d.errorReply(err)
	}
	return fmt.Sprintf("💸 %s sent **%s** credits to <@%s>!", m.Author.Username, amount.Comma(), target)
}

func (d *Dispatcher) cmdWork(ctx context.Context, m *discordgo.Message, _ []string) string {
	if refusal := d.venue(m, "work", d.cfg.SpinChannelID); refusal != "" {
		return refusal
	}
	res, err := d.game.Work(ctx, m.Author.ID)
	if err != nil {
		return d.errorReply(err)
	}
	scenario := workScenarios[d.dice.Between(0, int64(len(workScenarios)-1))]
	return fmt.Sprintf("💼 %s, "+scenario, m.Author.Username, res.Earned.Comma())
}

func (d *Dispatcher) cmdInventory(ctx context.Context, m *discordgo.Message, _ []string) string {
	items, err := d.game.Inventory(ctx, m.Author.ID)
	if err != nil {
		return d.errorReply(err)
	}
	if len(items) == 0 {
		return fmt.Sprintf("🎒 %s, your inventory is empty!", m.Author.Username)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "🎒 **%s's Inventory:**\n", m.Author.Username)
	for _, item := range items {
		if item.Count > 1 {
			fmt.Fprintf(&b, "• %s (x%d)\n", item.Name, item.Count)
		} else {
			fmt.Fprintf(&b, "• %s\n", item.Name)
		}
	}
	return b.String()
}

func (d *Dispatcher) cmdLeaderboard(ctx context.Context, _ *discordgo.Message, _ []string) string {
	rows, err := d.game.Leaderboard(ctx)
	if err != nil {
		return d.errorReply(err)
	}
	if len(rows) == 0 {
		return "📊 No users on the leaderboard yet!"
	}
	var b strings.Builder
	b.WriteString("📊 **Credits Leaderboard:**\n")
	for _, row := range rows {
		name := d.displayName(row.UserID)
		if name == "" {
			name = "Unknown User"
		}
		fmt.Fprintf(&b, "%d. %s: **%s** credits\n", row.Rank, name, row.Credits.Comma())
	}
	return b.String()
}

func (d *Dispatcher) cmdHello(_ context.Context, m *discordgo.Message, _ []string) string {
	return fmt.Sprintf("Hello %s! How can I help you today?", m.Author.Mention())
}

func (d *Dispatcher) cmdRoll(_ context.Context, _ *discordgo.Message, args []string) string {
	notation := "1d6"
	if len(args) > 0 {
		notation = strings.ToLower(args[0])
	}
	count, sides, ok := parseDice(notation)
	if !ok {
		return "Invalid dice format. Use NdN format (e.g., 1d6, 2d20)."
	}
	if count <= 0 || sides <= 0 {
		return "Number of dice and sides must be positive numbers."
	}
	if count > 100 {
		return "You can't roll more than 100 dice at once."
	}
	results := make([]string, count)
	var total int64
	for i := range results {
		r := d.dice.Between(1, sides)
		total += r
		results[i] = strconv.FormatInt(r, 10)
	}
	if count == 1 {
		return fmt.Sprintf("🎲 You rolled a **%s**", results[0])
	}
	return fmt.Sprintf("🎲 You rolled: %s\nTotal: **%d**", strings.Join(results, ", "), total)
}

func (d *Dispatcher) cmdChoose(_ context.Context, _ *discordgo.Message, args []string) string {
	var options []string
	for _, opt := range strings.Split(strings.Join(args, " "), ",") {
		if opt = strings.TrimSpace(opt); opt != "" {
			options = append(options, opt)
		}
	}
	if len(options) == 0 {
		return "You need to provide options for me to choose from, separated by commas."
	}
	if len(options) == 1 {
		return "You only gave me one option! I choose: **" + options[0] + "**"
	}
	return "🤔 I choose: **" + options[d.dice.Between(0, int64(len(options)-1))] + "**"
}
