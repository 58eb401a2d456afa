package term

import (
	"os"
	"testing"

	"github.com/backmassage/mp4ify/internal/config"
)

func TestConfigure(t *testing.T) {
	t.Cleanup(func() { Configure(config.ColorNever) })

	Configure(config.ColorAlways)
	if !Enabled() || Red == "" {
		t.Error("ColorAlways should enable colors")
	}

	Configure(config.ColorNever)
	if Enabled() || Red != "" {
		t.Error("ColorNever should disable colors")
	}
}

func TestConfigure_AutoHonorsNoColor(t *testing.T) {
	t.Cleanup(func() { Configure(config.ColorNever) })
	t.Setenv("NO_COLOR", "1")

	Configure(config.ColorAuto)
	if Enabled() {
		t.Error("NO_COLOR should disable auto colors")
	}
}

func TestIsTerminal_RegularFile(t *testing.T) {
	if IsTerminal(nil) {
		t.Error("nil file is not a terminal")
	}
	f, err := os.CreateTemp(t.TempDir(), "tty")
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if IsTerminal(f) {
		t.Error("regular file reported as terminal")
	}
}
