package x11

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// ErrNoDisplay is returned when no X display can be determined.
var ErrNoDisplay = errors.New("no X display available")

var (
	getenvFn                  = os.Getenv
	userHomeDirFn             = os.UserHomeDir
	statFn                    = os.Stat
	readDirFn                 = os.ReadDir
	detectDisplayFromSocketFn = detectDisplayFromSockets
)

const x11SocketDir = "/tmp/.X11-unix"

// DisplayTarget is the display and authority file a session connects with.
type DisplayTarget struct {
	Display    string
	XAuthority string
}

// ResolveDisplay picks the display to open. DISPLAY wins over the
// configured value; with neither set the newest local X socket is used.
// XAUTHORITY follows the same order and falls back to ~/.Xauthority.
func ResolveDisplay(cfgDisplay, cfgXAuthority string) (DisplayTarget, error) {
	display := strings.TrimSpace(getenvFn("DISPLAY"))
	if display == "" {
		display = strings.TrimSpace(cfgDisplay)
	}
	if display == "" {
		display = detectDisplayFromSocketFn(x11SocketDir)
	}
	if display == "" {
		return DisplayTarget{}, fmt.Errorf("%w: set display in config (e.g. display: \":0\") or export DISPLAY", ErrNoDisplay)
	}

	xauthority := strings.TrimSpace(getenvFn("XAUTHORITY"))
	if xauthority == "" {
		xauthority = strings.TrimSpace(cfgXAuthority)
	}
	if xauthority == "" {
		if home, err := userHomeDirFn(); err == nil && home != "" {
			candidate := filepath.Join(home, ".Xauthority")
			if _, err := statFn(candidate); err == nil {
				xauthority = candidate
			}
		}
	}

	return DisplayTarget{Display: display, XAuthority: xauthority}, nil
}

func detectDisplayFromSockets(dir string) string {
	entries, err := readDirFn(dir)
	if err != nil {
		return ""
	}

	var displays []int
	for _, entry := range entries {
		name := entry.Name()
		if len(name) < 2 || name[0] != 'X' {
			continue
		}
		n, err := strconv.Atoi(name[1:])
		if err != nil {
			continue
		}
		displays = append(displays, n)
	}

	if len(displays) == 0 {
		return ""
	}
	sort.Ints(displays)
	return fmt.Sprintf(":%d", displays[len(displays)-1])
}
