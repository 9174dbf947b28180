package main

import (
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/Dosada05/pingpong-league/brackets"
	"github.com/Dosada05/pingpong-league/models"
	"github.com/Dosada05/pingpong-league/services"
)

// plan describes a dry-run tournament.
type plan struct {
	Title             string             `yaml:"title"`
	Format            models.MatchFormat `yaml:"format"`
	RankingMode       models.RankingMode `yaml:"ranking_mode"`
	GroupSize         int                `yaml:"group_size"`
	AdvancingPerGroup int                `yaml:"advancing_per_group"`
	Seed              uint64             `yaml:"seed"`
	Competitors       []string           `yaml:"competitors"`
}

func parsePlan(r io.Reader) (*plan, error) {
	p := &plan{
		Title:             "Dry run",
		Format:            models.MatchFormatPreliminaryTournament,
		RankingMode:       models.RankingByPoints,
		GroupSize:         4,
		AdvancingPerGroup: 2,
	}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(p); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse plan: %w", err)
	}

	if !p.Format.Valid() {
		return nil, fmt.Errorf("unknown format %q", p.Format)
	}
	if !p.RankingMode.Valid() {
		return nil, fmt.Errorf("unknown ranking_mode %q", p.RankingMode)
	}
	if p.GroupSize < 2 {
		return nil, fmt.Errorf("group_size must be at least 2, got %d", p.GroupSize)
	}
	if p.Format.HasBracket() && p.AdvancingPerGroup < 1 {
		return nil, fmt.Errorf("advancing_per_group must be at least 1, got %d", p.AdvancingPerGroup)
	}
	seen := make(map[string]struct{}, len(p.Competitors))
	for i, name := range p.Competitors {
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, fmt.Errorf("competitor %d has no name", i+1)
		}
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("competitor %q listed twice", name)
		}
		seen[name] = struct{}{}
		p.Competitors[i] = name
	}
	if len(p.Competitors) < 2 {
		return nil, fmt.Errorf("at least 2 competitors are required, got %d", len(p.Competitors))
	}
	return p, nil
}

// simulation is an in-memory run of one room.
type simulation struct {
	room     *models.Room
	groups   []*models.Group
	matches  []*models.Match
	roster   brackets.Roster
	champion *int
	result   *models.FinalResult
	nextID   int
}

func (s *simulation) add(pairings []*brackets.Pairing, groupID *int) []*models.Match {
	created := make([]*models.Match, 0, len(pairings))
	for _, p := range pairings {
		m := p.ToMatch(s.room.ID, groupID)
		s.nextID++
		m.ID = s.nextID
		s.matches = append(s.matches, m)
		created = append(created, m)
	}
	return created
}

func runSimulation(p *plan) (*simulation, error) {
	rng := brackets.NewRand(p.Seed)

	sim := &simulation{
		room: &models.Room{
			ID:                1,
			Title:             p.Title,
			GameType:          models.GameTypeSingle,
			MatchFormat:       p.Format,
			RankingMode:       p.RankingMode,
			BracketLayout:     models.BracketLayoutStandard,
			PlayersPerGroup:   p.GroupSize,
			AdvancingPerGroup: p.AdvancingPerGroup,
			TeamSize:          1,
			Status:            models.RoomStatusInProgress,
		},
		roster: make(brackets.Roster, len(p.Competitors)),
	}
	ids := make([]int, 0, len(p.Competitors))
	for i, name := range p.Competitors {
		sim.roster[i+1] = name
		ids = append(ids, i+1)
	}

	schedules, err := brackets.NewRoundRobinScheduler(p.GroupSize).Schedule(brackets.Shuffle(ids, rng))
	if err != nil {
		return nil, err
	}
	for i, gs := range schedules {
		group := &models.Group{ID: i + 1, RoomID: sim.room.ID, Name: gs.Name}
		sim.groups = append(sim.groups, group)
		play(sim.add(gs.Pairings, models.IntPtr(group.ID)), rng)
	}

	if p.Format.HasBracket() {
		if err := sim.playBracket(rng); err != nil {
			return nil, err
		}
	}

	result, err := services.ComputeFinalResult(sim.room, sim.matches, sim.roster)
	switch {
	case errors.Is(err, services.ErrBracketTooShort):
		// a two-player final has no semifinal to rank
	case err != nil:
		return nil, err
	default:
		sim.result = result
	}
	sim.room.Status = models.RoomStatusCompleted
	return sim, nil
}

func (s *simulation) playBracket(rng *rand.Rand) error {
	seeds := brackets.QualifyFinalists(s.groups, s.matches, s.roster, s.room.RankingMode, s.room.AdvancingPerGroup)
	ids := make([]int, 0, len(seeds))
	for _, seed := range seeds {
		ids = append(ids, seed.CompetitorID)
	}

	gen := brackets.NewSingleEliminationGenerator()
	bracket, err := gen.Build(ids)
	if err != nil {
		return err
	}
	round := s.add(bracket.Pairings, nil)
	for {
		play(round, rng)
		outcome, err := gen.AdvanceRound(s.matches)
		if err != nil {
			return err
		}
		if outcome.Champion != nil {
			s.champion = outcome.Champion
			return nil
		}
		round = s.add(outcome.Pairings, nil)
	}
}

// play completes every pending match with a simulated score.
func play(matches []*models.Match, rng *rand.Rand) {
	for _, m := range matches {
		if m.IsCompleted() {
			continue
		}
		m.Complete(brackets.SimulatedScore(rng))
	}
}

func (s *simulation) report(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, g := range s.groups {
		fmt.Fprintf(tw, "Group %s\n", g.Name)
		fmt.Fprintln(tw, "#\tName\tP\tW\tL\tPts\tGames\t")
		for _, st := range brackets.CalculateStandings(brackets.MatchesOfGroup(s.matches, g.ID), s.roster, s.room.RankingMode) {
			fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%d\t%d\t%d:%d\t\n", st.Rank, st.Name, st.Played, st.Wins, st.Losses, st.Points, st.GamesWon, st.GamesLost)
		}
		fmt.Fprintln(tw)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if s.room.MatchFormat.HasBracket() {
		for _, r := range brackets.BuildBracketView(s.matches, s.roster, nil, s.room.BracketLayout).Rounds {
			fmt.Fprintln(w, r.Title)
			for _, m := range r.Matches {
				fmt.Fprintf(w, "  %s %d:%d %s\n", m.Slot1.Name, m.Score1, m.Score2, m.Slot2.Name)
			}
		}
		fmt.Fprintln(w)
	}

	switch {
	case s.result != nil:
		fmt.Fprintf(w, "Winner: %s\n", nameOrDash(s.result.Winner))
		fmt.Fprintf(w, "Runner-up: %s\n", nameOrDash(s.result.RunnerUp))
		if len(s.result.JointThird) > 0 {
			fmt.Fprintf(w, "Joint third: %s\n", strings.Join(s.result.JointThird, ", "))
		}
	case s.champion != nil:
		fmt.Fprintf(w, "Winner: %s\n", s.roster.Name(*s.champion))
	}
	return nil
}

func nameOrDash(name *string) string {
	if name == nil {
		return "-"
	}
	return *name
}

func newSimulateCommand() *cli.Command {
	return &cli.Command{
		Name:      "simulate",
		Usage:     "play a whole tournament in memory with random scores",
		ArgsUsage: "<plan.yaml>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "xlsx", Usage: "also write standings to this workbook"},
			&cli.Uint64Flag{Name: "seed", Usage: "override the plan's seed"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return cli.Exit("simulate expects exactly one plan file", 2)
			}
			f, err := os.Open(c.Args().First())
			if err != nil {
				return err
			}
			defer f.Close()

			p, err := parsePlan(f)
			if err != nil {
				return err
			}
			if c.IsSet("seed") {
				p.Seed = c.Uint64("seed")
			}

			sim, err := runSimulation(p)
			if err != nil {
				return err
			}
			if err := sim.report(c.App.Writer); err != nil {
				return err
			}

			if path := c.String("xlsx"); path != "" {
				result := sim.result
				if result == nil {
					result = &models.FinalResult{RoomID: sim.room.ID, MatchFormat: sim.room.MatchFormat}
					if sim.champion != nil {
						name := sim.roster.Name(*sim.champion)
						result.Winner = &name
					}
				}
				data, err := services.StandingsWorkbook(sim.room, sim.groups, sim.matches, sim.roster, result)
				if err != nil {
					return err
				}
				if err := os.WriteFile(path, data, 0o644); err != nil {
					return fmt.Errorf("failed to write %s: %w", path, err)
				}
				fmt.Fprintf(c.App.Writer, "standings written to %s\n", path)
			}
			return nil
		},
	}
}
