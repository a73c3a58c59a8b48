package dashboard

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/marsesrobotics/dashboard/internal/logging"
)

const defaultFetchTimeout = 10 * time.Second

// Service loads dashboard data, serving from the cache when it can
type Service struct {
	reader Reader
	cache  Cache
	logger *logging.Logger
	group  singleflight.Group

	fetchTimeout time.Duration
}

func NewService(reader Reader, cache Cache, logger *logging.Logger) *Service {
	if cache == nil {
		cache = NoopCache{}
	}
	return &Service{reader: reader, cache: cache, logger: logger, fetchTimeout: defaultFetchTimeout}
}

// Load returns all three collections. Cache failures are logged and bypassed;
// concurrent misses share one database round, which ignores the cancellation
// of whichever caller started it.
func (s *Service) Load(ctx context.Context) (*Data, error) {
	if data, ok, err := s.cache.Get(ctx); err != nil {
		s.logger.Warn("dashboard cache read failed", "error", err)
	} else if ok {
		return data, nil
	}

	ch := s.group.DoChan(cacheKey, func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.fetchTimeout)
		defer cancel()

		data, err := s.fetch(fetchCtx)
		if err != nil {
			return nil, err
		}
		if err := s.cache.Set(fetchCtx, data); err != nil {
			s.logger.Warn("dashboard cache write failed", "error", err)
		}
		return data, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Data), nil
	}
}

func (s *Service) fetch(ctx context.Context) (*Data, error) {
	data := &Data{
		Charts:     []Chart{},
		Statistics: []Statistic{},
		Regions:    []Region{},
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		charts, err := s.reader.Charts(gctx)
		if err != nil {
			return fmt.Errorf("charts: %w", err)
		}
		if charts != nil {
			data.Charts = charts
		}
		return nil
	})

	g.Go(func() error {
		stats, err := s.reader.Statistics(gctx)
		if err != nil {
			return fmt.Errorf("statistics: %w", err)
		}
		if stats != nil {
			data.Statistics = stats
		}
		return nil
	})

	g.Go(func() error {
		regions, err := s.reader.Regions(gctx)
		if err != nil {
			return fmt.Errorf("regions: %w", err)
		}
		if regions != nil {
			data.Regions = regions
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load dashboard data: %w", err)
	}
	return data, nil
}
