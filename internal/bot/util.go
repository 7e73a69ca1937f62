package bot

import (
	"errors"
	"strconv"
	"strings"

	"creditbot/internal/game"
)

func parseIndex(args []string) (int, bool) {
	if len(args) != 1 {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimPrefix(args[0], "#"))
	if err != nil {
		return 0, false
	}
	return n, true
}

func parseTargetAmount(args []string) (string, game.Credits, bool) {
	if len(args) != 2 {
		return "", game.Credits{}, false
	}
	target, ok := parseUserRef(args[0])
	if !ok {
		return "", game.Credits{}, false
	}
	amount, err := game.ParseCredits(args[1])
	if err != nil {
		return "", game.Credits{}, false
	}
	return target, amount, true
}

// parseDice reads NdM notation.
func parseDice(notation string) (int64, int64, bool) {
	left, right, ok := strings.Cut(notation, "d")
	if !ok {
		return 0, 0, false
	}
	count, err := strconv.ParseInt(left, 10, 64)
	if err != nil {
		return 0, 0, false
	}
	sides, err := strconv.ParseInt(right, 10, 64)
	if err != nil {
		return 0, 0, false
	}
	return count, sides, true
}

func isPermission(err error) bool   { return errors.Is(err, game.ErrPermissionDenied) }
func isInsufficient(err error) bool { return errors.Is(err, game.ErrInsufficientFunds) }

func isInvalidAmount(err error) bool {
	return errors.Is(err, game.ErrInvalidArgument) || errors.Is(err, game.ErrInsufficientFunds)
}
