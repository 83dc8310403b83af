package services

import (
	"context"
	"fmt"

	"git.solsynth.dev/hypernet/ponder/pkg/internal/gap"
	"github.com/rs/zerolog/log"
)

// PinOptionImages pins each option image and returns the content ids in the
// same order. An image that cannot be pinned leaves an empty entry, it never
// blocks the poll from being created.
func PinOptionImages(ctx context.Context, pinner gap.Pinner, images [][]byte) []string {
	out := make([]string, len(images))
	for idx, data := range images {
		if len(data) == 0 {
			continue
		}
		if pinner == nil {
			log.Warn().Int("option", idx).Msg("Content pinning is not configured, option image dropped.")
			continue
		}
		cid, err := pinner.Pin(ctx, fmt.Sprintf("option-%d", idx), data)
		if err != nil {
			log.Warn().Err(err).Int("option", idx).Msg("Unable to pin option image, continue without it.")
			continue
		}
		out[idx] = cid
	}
	return out
}
