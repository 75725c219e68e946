package x11

import (
	"strconv"
	"strings"

	"github.com/BurntSushi/xgb/xproto"
)

// X keycodes live in [8, 255].
const (
	minKeycode = 8
	maxKeycode = 255
)

func parseKeycode(spec string) (xproto.Keycode, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(spec))
	if err != nil || n < minKeycode || n > maxKeycode {
		return 0, false
	}
	return xproto.Keycode(n), true
}
