package repo

import (
	"fmt"

	"github.com/odvcencio/giit/pkg/object"
)

// WalkCommits visits start and every ancestor reachable through parent
// headers exactly once, depth-first with parents in stored order. Returning
// an error from fn stops the walk.
func (r *Repo) WalkCommits(start object.Hash, fn func(h object.Hash, c *object.Commit) error) error {
	seen := make(map[object.Hash]bool)
	stack := []object.Hash{start}
	for len(stack) > 0 {
		h := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[h] {
			continue
		}
		seen[h] = true

		c, err := r.Store.ReadCommit(h)
		if err != nil {
			return fmt.Errorf("walk commits: %w", err)
		}
		if err := fn(h, c); err != nil {
			return err
		}

		parents := c.Parents()
		for i := len(parents) - 1; i >= 0; i-- {
			if !seen[parents[i]] {
				stack = append(stack, parents[i])
			}
		}
	}
	return nil
}
