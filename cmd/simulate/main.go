// Command simulate runs a full Charleston with four bot players and prints
// every transition. It exists to exercise the round resolver end to end
// without a running Nakama instance.
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"time"

	"mahjongg/internal/app"
	"mahjongg/internal/bot"
	"mahjongg/internal/domain"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

func main() {
	var (
		seed       = flag.Int64("seed", 0, "deterministic shuffle seed, 0 uses the clock")
		voteRule   = flag.String("vote-rule", string(domain.VoteRuleLockedMajority), "vote rule: locked_majority or stop_on_three_no")
		noCourtesy = flag.Bool("no-courtesy", false, "disable the courtesy phase")
		blindAll   = flag.Bool("blind-all", false, "allow blind passes in every passing phase")
		level      = flag.String("level", "keeper", "bot strategy: steady or keeper")
		pretty     = flag.Bool("pretty", true, "human-readable console output")
	)
	flag.Parse()

	var logger zerolog.Logger
	if *pretty {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).With().Timestamp().Logger()
	} else {
		logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}

	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}
	runID := uuid.NewString()
	logger.Info().Str("run_id", runID).Int64("seed", *seed).Msg("starting simulation")

	rules := domain.Rules{
		VoteRule:        domain.VoteRule(*voteRule),
		CourtesyEnabled: !*noCourtesy,
		BlindPassAll:    *blindAll,
	}
	service := app.NewService(rand.New(rand.NewSource(*seed)), app.Options{Rules: rules})

	botLevel := bot.BotLevelKeeper
	if *level == "steady" {
		botLevel = bot.BotLevelSteady
	}
	agents := make([]*bot.Agent, domain.NumSeats)
	var seats [domain.NumSeats]string
	for i := range agents {
		brain, err := bot.NewBrain(botLevel)
		if err != nil {
			logger.Fatal().Err(err).Msg("bad bot level")
		}
		seats[i] = fmt.Sprintf("bot-%d", i)
		agents[i] = &bot.Agent{ID: seats[i], Name: seats[i], Strategy: brain}
	}

	game, _, err := service.StartGame(seats)
	if err != nil {
		logger.Fatal().Err(err).Msg("start failed")
	}
	logger.Info().Str("phase", string(game.Phase)).Msg("tiles dealt")

	for game.Phase == domain.PhaseCharleston {
		session := game.Charleston
		for seat := domain.Seat(0); seat < domain.NumSeats; seat++ {
			if session.Seats[seat].Ready {
				continue
			}
			game, err = act(service, agents[seat], game, seat, &logger)
			if err != nil {
				logger.Fatal().Err(err).Int("seat", int(seat)).Msg("bot action rejected")
			}
		}

		next, events, resolved, err := service.Advance(game)
		if err != nil {
			logger.Fatal().Err(err).Msg("round refused")
		}
		if !resolved {
			logger.Fatal().Str("phase", string(game.Charleston.Phase)).Msg("round stuck with no pending seats")
		}
		game = next
		for _, ev := range events {
			logEvent(&logger, ev)
		}
	}

	logger.Info().Str("run_id", runID).Msg("charleston complete")
	for seat := domain.Seat(0); seat < domain.NumSeats; seat++ {
		p := game.PlayerAtSeat(seat)
		logger.Info().Int("seat", int(seat)).Int("tiles", len(p.Hand)).Msg("final hand size")
	}
}

// act performs one seat's pending action for the current phase.
func act(service *app.Service, agent *bot.Agent, game *domain.Game, seat domain.Seat, logger *zerolog.Logger) (*domain.Game, error) {
	session := game.Charleston
	switch {
	case session.Phase.IsPassPhase():
		tiles, blind, ok := agent.SelectPass(game, seat, service.Rules())
		if !ok {
			return game, fmt.Errorf("seat %d produced no selection", seat)
		}
		next, _, err := service.Select(game, seat, tiles, blind)
		if err != nil {
			return game, err
		}
		game = next
	case session.Phase == domain.PhaseVote:
		choice, ok := agent.Vote(game, seat)
		if !ok {
			choice = domain.VoteYes
		}
		next, _, err := service.CastVote(game, seat, choice)
		if err != nil {
			return game, err
		}
		game = next
	case session.Phase == domain.PhaseCourtesy:
		if offer, ok := agent.Courtesy(game, seat); ok && offer != nil {
			next, _, err := service.ProposeCourtesy(game, seat, offer.Tiles, offer.Target)
			if err != nil {
				logger.Warn().Err(err).Int("seat", int(seat)).Msg("courtesy offer rejected, readying without one")
			} else {
				game = next
			}
		}
	}

	next, _, err := service.MarkReady(game, seat)
	if err != nil {
		return game, err
	}
	return next, nil
}

func logEvent(logger *zerolog.Logger, ev app.Event) {
	switch p := ev.Payload.(type) {
	case app.PassResolvedPayload:
		logger.Info().
			Str("next_phase", string(p.Phase)).
			Int("pass_number", p.PassNumber).
			Bool("converged", p.Converged).
			Msg("pass resolved")
	case app.VoteResolvedPayload:
		logger.Info().
			Int("yes", p.Tally.Yes).
			Int("no", p.Tally.No).
			Bool("continued", p.Continued).
			Msg("vote resolved")
	case app.CourtesyResolvedPayload:
		logger.Info().Int("trades", p.Trades).Msg("courtesy resolved")
	case app.CharlestonCompletePayload:
		logger.Info().Str("phase", string(p.Phase)).Msg("table ready to play")
	}
}
