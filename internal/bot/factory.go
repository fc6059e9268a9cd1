package bot

import "fmt"

// BotLevel identifies a bot strategy tier.
type BotLevel int

const (
	BotLevelSteady BotLevel = iota
	BotLevelKeeper
)

// NewBrain creates a strategy for the given level.
func NewBrain(level BotLevel) (Brain, error) {
	switch level {
	case BotLevelSteady:
		return &SteadyBot{}, nil
	case BotLevelKeeper:
		return &KeeperBot{}, nil
	default:
		return nil, fmt.Errorf("unknown bot level: %d", level)
	}
}

// levelForDifficulty maps an identity's difficulty label onto a strategy.
func levelForDifficulty(difficulty string) BotLevel {
	if difficulty == "easy" {
		return BotLevelSteady
	}
	return BotLevelKeeper
}

// NewAgent builds the agent for a provisioned bot user ID, choosing the
// strategy from the identity's difficulty.
func NewAgent(botID string) (*Agent, error) {
	identity, ok := GetBotConfig(botID)
	if !ok {
		identity = BotIdentity{UserID: botID, DisplayName: botID, Difficulty: "easy"}
	}
	brain, err := NewBrain(levelForDifficulty(identity.Difficulty))
	if err != nil {
		return nil, err
	}
	return &Agent{ID: botID, Name: identity.DisplayName, Strategy: brain}, nil
}
