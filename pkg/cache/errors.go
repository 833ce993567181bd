package cache

import (
	"errors"
	"fmt"

	apierrors "github.com/matzehuels/atalogics/pkg/errors"
)

// ErrCorrupted is returned by [Layer.Get] when a stored payload is not a
// valid [code, body] pair. Callers treat it as a miss.
var ErrCorrupted = errors.New("cache entry corrupted")

func corrupted(key string, detail error) error {
	return apierrors.Wrap(apierrors.ErrCodeCacheCorruption,
		fmt.Errorf("%w: %v", ErrCorrupted, detail), "decode cached entry %q", key)
}
