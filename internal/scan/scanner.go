package scan

import (
	"context"
	"errors"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/rankgrid/internal/model"
	"github.com/sells-group/rankgrid/pkg/places"
)

// defaultConcurrency bounds the worker pool when the request doesn't.
const defaultConcurrency = 5

// Scanner drives the places client across every grid point and packages
// each point's ranking into a PointOutcome.
type Scanner struct {
	places places.Client
}

// NewScanner creates a Scanner backed by the given places client. The
// client is shared by all workers and must be safe for concurrent use.
func NewScanner(p places.Client) *Scanner {
	return &Scanner{places: p}
}

// Scan generates the grid for req and processes every point with a bounded
// worker pool. Outcomes are returned in grid (row-major) order regardless
// of worker completion order, so downstream consumers can zip them back to
// coordinates positionally. Per-point failures are recorded on the outcome
// and never abort the scan; only invalid input fails, before any network
// call. On cancellation, points not yet started are recorded as cancelled
// and the outcomes gathered so far remain usable.
func (s *Scanner) Scan(ctx context.Context, req model.ScanRequest) ([]model.PointOutcome, error) {
	if req.Keyword == "" {
		return nil, eris.New("scan: keyword is required")
	}
	if req.Target == "" {
		return nil, eris.New("scan: target business name is required")
	}

	points, err := Generate(req.Center, req.RadiusMiles, req.GridSize)
	if err != nil {
		return nil, err
	}
	if len(points) == 0 {
		return []model.PointOutcome{}, nil
	}

	concurrency := req.Concurrency
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}

	log := zap.L().With(
		zap.String("keyword", req.Keyword),
		zap.String("target", req.Target),
		zap.Int("points", len(points)),
	)
	log.Info("starting grid scan",
		zap.Int("grid_size", req.GridSize),
		zap.Float64("radius_miles", req.RadiusMiles),
		zap.Int("concurrency", concurrency),
	)

	// Each worker owns a disjoint slot, so no locking around outcomes.
	outcomes := make([]model.PointOutcome, len(points))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, pt := range points {
		i, pt := i, pt
		g.Go(func() error {
			outcomes[i] = s.scanPoint(gctx, pt, req.Keyword, req.Target)
			return nil // don't abort the scan on individual failure
		})
	}
	_ = g.Wait()

	var found, errored int
	for _, o := range outcomes {
		if o.Found() {
			found++
		}
		if o.Error != "" {
			errored++
		}
	}
	log.Info("grid scan complete", zap.Int("found", found), zap.Int("errored", errored))

	return outcomes, nil
}

func (s *Scanner) scanPoint(ctx context.Context, pt model.Coordinate, keyword, target string) model.PointOutcome {
	out := model.PointOutcome{Coordinate: pt}

	if ctx.Err() != nil {
		out.Error = model.ErrorCancelled
		return out
	}

	raw, err := s.places.NearbySearch(ctx, pt.Latitude, pt.Longitude, keyword)
	if err != nil {
		out.Error = classify(err)
		zap.L().Warn("grid point query failed",
			zap.Float64("lat", pt.Latitude),
			zap.Float64("lon", pt.Longitude),
			zap.String("kind", string(out.Error)),
			zap.Error(err),
		)
		return out
	}

	records := make([]model.PlaceResult, 0, len(raw))
	for _, p := range raw {
		records = append(records, model.PlaceResult{
			PlaceID:     p.PlaceID,
			Name:        p.Name,
			Rating:      float64(p.Rating),
			ReviewCount: int(p.UserRatingsTotal),
		})
	}

	rank, top, targetRec := RankAndLocate(records, target)
	out.TargetRank = rank
	out.TopCompetitors = top
	out.TargetRecord = targetRec
	return out
}

// classify maps a point-level error to its outcome kind.
func classify(err error) model.ErrorKind {
	switch {
	case errors.Is(err, places.ErrRateLimited):
		return model.ErrorRateLimited
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return model.ErrorCancelled
	default:
		return model.ErrorTransport
	}
}
