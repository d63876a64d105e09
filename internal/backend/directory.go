package backend

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	appLog "campuscal/internal/log"
	"campuscal/internal/model"
	"campuscal/internal/session"
)

// maxLookups bounds concurrent teacher lookups.
const maxLookups = 8

// TeacherDirectory looks up every distinct institutional teacher id
// (e.g. "T1001") concurrently and returns the results keyed by id. A
// failed lookup leaves its id out of the map and is logged; only an
// unauthorized error aborts the batch.
func (c *Client) TeacherDirectory(ctx context.Context, s session.Session, ids []string) (map[string]model.Teacher, error) {
	out := make(map[string]model.Teacher)
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxLookups)

	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true

		g.Go(func() error {
			t, err := c.TeacherByCode(gctx, s, id)
			if err != nil {
				if isUnauthorized(err) {
					return err
				}
				appLog.Warn("teacher lookup failed", "teacher_id", id, "err", err.Error())
				return nil
			}
			mu.Lock()
			out[id] = t
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
