package object

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"

	log "github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc/pool"
)

// VerifyFailure records an object that could not be read back intact.
type VerifyFailure struct {
	Hash Hash
	Err  error
}

// Verify reads and decodes every loose object, using up to workers
// goroutines, and checks that each file's content hashes to its name.
// Failures are returned sorted by hash; the error is non-nil only when the
// store itself cannot be listed or ctx is cancelled.
func (s *Store) Verify(ctx context.Context, workers int) ([]VerifyFailure, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	hashes, err := s.All()
	if err != nil {
		return nil, err
	}

	var (
		mu       sync.Mutex
		failures []VerifyFailure
	)
	p := pool.New().WithMaxGoroutines(workers).WithContext(ctx)
	for _, h := range hashes {
		p.Go(func(ctx context.Context) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if verr := s.verifyOne(h); verr != nil {
				mu.Lock()
				failures = append(failures, VerifyFailure{Hash: h, Err: verr})
				mu.Unlock()
			}
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return nil, fmt.Errorf("verify: %w", err)
	}

	sort.Slice(failures, func(i, j int) bool { return failures[i].Hash < failures[j].Hash })
	log.WithFields(log.Fields{"objects": len(hashes), "failures": len(failures)}).Debug("verify complete")
	return failures, nil
}

func (s *Store) verifyOne(h Hash) error {
	objType, data, err := s.Read(h)
	if err != nil {
		return err
	}
	if got := HashObject(objType, data); got != h {
		return corrupt(h, "content hashes to %s", got)
	}
	if _, err := Decode(objType, data); err != nil {
		return err
	}
	return nil
}
