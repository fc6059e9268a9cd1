package config

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"mahjongg/internal/domain"
)

// GameConfig carries the table rule variants and bot pacing for the server.
type GameConfig struct {
	// VoteRule selects the second-Charleston threshold rule:
	// "locked_majority" (default) or "stop_on_three_no" (legacy).
	VoteRule string `json:"vote_rule"`
	// CourtesyDisabled turns off the post-Charleston courtesy trade.
	CourtesyDisabled bool `json:"courtesy_disabled"`
	// BlindPassAll allows blind passing on every Charleston round instead
	// of only the third and sixth.
	BlindPassAll bool `json:"blind_pass_all"`
	// SkipCharleston deals hands and starts play with no Charleston at all.
	SkipCharleston bool `json:"skip_charleston"`
	// BotMinDelaySeconds is the least a bot waits before acting.
	BotMinDelaySeconds int `json:"bot_min_delay_seconds"`
	// BotMaxDelaySeconds is the most a bot waits before acting.
	BotMaxDelaySeconds int `json:"bot_max_delay_seconds"`
	// BotAutoFillDelaySeconds configures how many seconds to wait before
	// filling a solo human lobby with bots.
	BotAutoFillDelaySeconds int `json:"bot_auto_fill_delay_seconds"`
}

var (
	cfg      *GameConfig
	loadOnce sync.Once
	loadErr  error
)

// LoadGameConfig loads the game configuration from the given path.
func LoadGameConfig(path string) error {
	loadOnce.Do(func() {
		data, err := os.ReadFile(path)
		if err != nil {
			loadErr = fmt.Errorf("failed to read game config: %w", err)
			return
		}

		var c GameConfig
		if err := json.Unmarshal(data, &c); err != nil {
			loadErr = fmt.Errorf("failed to unmarshal game config: %w", err)
			return
		}
		cfg = &c
	})
	return loadErr
}

// GetGameConfig returns the loaded configuration, or defaults when no file
// was loaded.
func GetGameConfig() GameConfig {
	if cfg == nil {
		return GameConfig{}
	}
	return *cfg
}

// ApplyEnv overlays environment-style overrides onto a config. The keys
// mirror the original server's toggles.
func (c *GameConfig) ApplyEnv(env map[string]string) {
	if v, ok := env["mahjongg_blind_pass_all"]; ok {
		c.BlindPassAll = v == "1" || v == "true"
	}
	if v, ok := env["mahjongg_skip_charleston"]; ok {
		c.SkipCharleston = v == "1" || v == "true"
	}
	if v, ok := env["mahjongg_vote_rule"]; ok && v != "" {
		c.VoteRule = v
	}
	if v, ok := env["mahjongg_courtesy_disabled"]; ok {
		c.CourtesyDisabled = v == "1" || v == "true"
	}
}

// Rules converts the config into the domain rule set.
func (c GameConfig) Rules() domain.Rules {
	rules := domain.DefaultRules()
	if c.VoteRule == string(domain.VoteRuleStopOnThreeNo) {
		rules.VoteRule = domain.VoteRuleStopOnThreeNo
	}
	rules.CourtesyEnabled = !c.CourtesyDisabled
	rules.BlindPassAll = c.BlindPassAll
	return rules
}
