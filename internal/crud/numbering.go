package crud

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/tuma-app/tuma/backend/internal/domain"
)

// NextNumber returns the next "<PREFIX>-<YEAR>-<NNN>" number given the numbers already
// used. The sequence restarts every year and grows past three digits when needed.
func NextNumber(prefix string, year int, used []string) string {
	head := fmt.Sprintf("%s-%d-", prefix, year)
	max := 0
	for _, n := range used {
		if !strings.HasPrefix(n, head) {
			continue
		}
		if seq, err := strconv.Atoi(strings.TrimPrefix(n, head)); err == nil && seq > max {
			max = seq
		}
	}
	return fmt.Sprintf("%s%03d", head, max+1)
}

const numberingAttempts = 3

// CreateNumbered retries create when it fails with a conflict, which is how a duplicate
// document number surfaces once two creates race for the same sequence value.
func CreateNumbered[T any](ctx context.Context, create func(ctx context.Context) (T, error)) (T, error) {
	var (
		out T
		err error
	)
	for i := 0; i < numberingAttempts; i++ {
		out, err = create(ctx)
		if !errors.Is(err, domain.ErrConflict) {
			return out, err
		}
	}
	return out, err
}
