// Package insights computes game-level analytics from a game's match history:
// recurring player cores, head-to-head records, player-count distributions,
// exact lineups, team matchups and role effects.
package insights

import (
	"context"
	"io"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/pable/bg-insights/internal/model"
)

// DefaultMinCoreMatches is the co-occurrence threshold for every core size.
const DefaultMinCoreMatches = 2

// RowSource yields the flat rows for one game as seen by one user.
type RowSource interface {
	InsightRows(ctx context.Context, gameID, userID int64) ([]model.InsightRow, error)
	RoleRows(ctx context.Context, gameID, userID int64) ([]model.RoleRow, error)
}

// Options tunes detection thresholds.
type Options struct {
	MinCoreMatches int
}

// Service fetches rows and builds insights. It keeps no per-request state.
type Service struct {
	src  RowSource
	opts Options
	log  *logrus.Entry
}

// NewService returns a Service reading from src. A nil log discards output.
func NewService(src RowSource, opts Options, log *logrus.Entry) *Service {
	if opts.MinCoreMatches <= 0 {
		opts.MinCoreMatches = DefaultMinCoreMatches
	}
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = logrus.NewEntry(l)
	}
	return &Service{src: src, opts: opts, log: log}
}

// GameInsights fetches both row streams concurrently and builds the insights.
// Fetch errors are returned as-is.
func (s *Service) GameInsights(ctx context.Context, gameID, userID int64) (*model.GameInsights, error) {
	start := time.Now()

	var (
		rows     []model.InsightRow
		roleRows []model.RoleRow
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		rows, err = s.src.InsightRows(gctx, gameID, userID)
		return err
	})
	g.Go(func() error {
		var err error
		roleRows, err = s.src.RoleRows(gctx, gameID, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	h := GroupRows(rows, roleRows)
	out := Build(h, s.opts)

	s.log.WithFields(logrus.Fields{
		"game_id":  gameID,
		"user_id":  userID,
		"matches":  h.Len(),
		"pairs":    len(out.Cores.Pairs),
		"trios":    len(out.Cores.Trios),
		"quartets": len(out.Cores.Quartets),
		"elapsed":  time.Since(start).String(),
	}).Debug("computed game insights")
	return out, nil
}

// Build computes every section from a grouped history. It is a pure function
// of its input.
func Build(h *History, opts Options) *model.GameInsights {
	minMatches := opts.MinCoreMatches
	if minMatches <= 0 {
		minMatches = DefaultMinCoreMatches
	}

	cores := model.CoresBySize{
		Pairs:    detectAndCompute(h, 2, minMatches, false),
		Trios:    detectAndCompute(h, 3, minMatches, false),
		Quartets: detectAndCompute(h, 4, minMatches, false),
	}
	dist := model.Distribution{
		Game:      PlayerCountDistribution(h),
		PerPlayer: PerPlayerDistribution(h),
	}
	lineups := FrequentLineups(h)
	teams := BuildTeamInsights(h, minMatches)

	return &model.GameInsights{
		Summary:      BuildSummary(dist, cores, lineups, teams),
		Distribution: dist,
		Cores:        cores,
		Lineups:      lineups,
		Teams:        teams,
		Roles:        BuildRoleInsights(h),
	}
}
