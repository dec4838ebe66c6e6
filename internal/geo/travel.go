package geo

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/hpungsan/internmap/internal/profile"
)

// TravelTimes looks up driving and walking minutes from origin to dest
// concurrently. Unresolved modes stay 0 and Bus is always 0.
func TravelTimes(ctx context.Context, router Router, origin, dest profile.Coordinates) profile.TravelTime {
	var tt profile.TravelTime
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		tt.Driving = router.Route(ctx, origin, dest, ModeDriving).Value
		return nil
	})
	g.Go(func() error {
		tt.Walking = router.Route(ctx, origin, dest, ModeWalking).Value
		return nil
	})
	_ = g.Wait()
	return tt
}
