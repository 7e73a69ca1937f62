package main

import (
	"fmt"
	"strings"

	"creditbot/internal/game"

	"github.com/fatih/color"
)

var (
	accent  = color.New(color.FgCyan, color.Bold)
	success = color.New(color.FgGreen, color.Bold)
	warn    = color.New(color.FgYellow, color.Bold)
	neutral = color.New(color.FgHiWhite)
)

func printSuccess(msg string) {
	success.Println(msg)
}

func printWarn(msg string) {
	warn.Println(msg)
}

func printInfo(msg string) {
	neutral.Println(msg)
}

func renderBalance(userID string, balance game.Credits) {
	fmt.Printf("%s %s\n", accent.Sprint(userID), colorizeCredits(balance))
}

func renderBoost(b game.Boost) {
	if !b.Active() {
		printInfo("No boost active.")
		return
	}
	warn.Printf("x%d for %d more spin(s)\n", b.Multiplier, b.SpinsLeft)
}

func renderLeaderboard(rows []game.LeaderboardRow) {
	accent.Println("\n== LEADERBOARD ==")
	if len(rows) == 0 {
		printInfo("No accounts yet.")
		return
	}
	fmt.Printf("%-6s %-22s %30s\n", "RANK", "USER", "CREDITS")
	for _, row := range rows {
		fmt.Printf("%-6d %-22s %30s\n", row.Rank, truncate(row.UserID, 22), row.Credits.Comma())
	}
	fmt.Println()
}

func renderMarket(entries []game.MarketEntry) {
	accent.Println("\n== MARKET ==")
	if len(entries) == 0 {
		printInfo("The market is empty.")
		return
	}
	fmt.Printf("%-4s %-36s %-28s %-22s %16s\n", "#", "ID", "ITEM", "SELLER", "PRICE")
	for _, e := range entries {
		fmt.Printf("%-4d %-36s %-28s %-22s %16s\n",
			e.Index,
			e.Listing.ID,
			truncate(e.Listing.Name, 28),
			truncate(e.Listing.Seller, 22),
			e.Listing.Price.Comma(),
		)
	}
	fmt.Println()
}

func renderInventory(userID string, items []game.InventoryItem) {
	accent.Printf("\n== INVENTORY %s ==\n", userID)
	if len(items) == 0 {
		printWarn("Inventory is empty.")
		return
	}
	for _, item := range items {
		fmt.Printf("%-40s x%d\n", truncate(item.Name, 40), item.Count)
	}
	fmt.Println()
}

func colorizeCredits(c game.Credits) string {
	if c.Sign() == 0 {
		return neutral.Sprint(c.Comma())
	}
	return success.Sprint(c.Comma())
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if n <= 0 || len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}
