package config

import (
	"time"

	"github.com/moffa90/go-t5flash/bootloader"
)

// Normalize fills every unset value with the programmer default.
// It is allowed to mutate configuration.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}
	def := bootloader.DefaultConfig()

	setInt(&cfg.InitialBaudRate, def.InitialBaudRate)
	setInt(&cfg.BaudRate, def.BaudRate)

	t := &cfg.Timeouts
	setInt(&t.ControlMs, ms(def.ControlTimeout))
	setInt(&t.EraseMs, ms(def.EraseTimeout))
	setInt(&t.ChipEraseMs, ms(def.ChipEraseTimeout))
	setInt(&t.WriteMs, ms(def.WriteTimeout))
	setInt(&t.ReadMs, ms(def.ReadTimeout))
	setInt(&t.VerifyMs, ms(def.VerifyTimeout))
	setInt(&t.SpeedSwitchDelayMs, ms(def.SpeedSwitchDelay))

	setInt(&cfg.Retries.LinkCheck, def.LinkCheckRetries)
	setInt(&cfg.Retries.LinkCheckDelayMs, ms(def.LinkCheckDelay))
	if cfg.Retries.Write == nil {
		n := def.WriteRetries
		cfg.Retries.Write = &n
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
}

func setInt(v *int, def int) {
	if *v == 0 {
		*v = def
	}
}

func ms(d time.Duration) int {
	return int(d / time.Millisecond)
}
