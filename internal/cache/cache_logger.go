package cache

import (
	"context"
	"log/slog"
)

// SafeInvalidatePattern invalidates a pattern and only logs failures
func SafeInvalidatePattern(ctx context.Context, helper *CacheHelper, pattern string) {
	if err := helper.InvalidatePattern(ctx, pattern); err != nil {
		slog.ErrorContext(ctx, "Failed to invalidate cache pattern",
			"error", err,
			"pattern", pattern)
	}
}

// SafeDelete deletes keys and only logs failures
func SafeDelete(ctx context.Context, helper *CacheHelper, keys ...string) {
	if err := helper.Delete(ctx, keys...); err != nil {
		slog.ErrorContext(ctx, "Failed to delete cache keys",
			"error", err,
			"keys", keys)
	}
}

// BatchInvalidate keeps going after a failed pattern and returns the last error
func BatchInvalidate(ctx context.Context, helper *CacheHelper, patterns []string) error {
	var lastErr error
	for _, pattern := range patterns {
		if err := helper.InvalidatePattern(ctx, pattern); err != nil {
			lastErr = err
			slog.ErrorContext(ctx, "Failed to invalidate pattern in batch",
				"error", err,
				"pattern", pattern)
		}
	}
	return lastErr
}

// InvalidateAssignments drops the driver's assignment views and the admin aggregates
func InvalidateAssignments(ctx context.Context, cm *CacheManager, employeeID string) {
	SafeInvalidatePattern(ctx, cm.View, employeeID+":*")
	SafeInvalidatePattern(ctx, cm.Stats, "*")
}

// InvalidateMasterData drops a master data list together with the aggregates that group by it
func InvalidateMasterData(ctx context.Context, cm *CacheManager, kind string) {
	SafeDelete(ctx, cm.MasterData, kind)
	SafeInvalidatePattern(ctx, cm.Stats, "*")
}
