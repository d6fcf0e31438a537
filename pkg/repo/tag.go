package repo

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/odvcencio/giit/pkg/object"
)

// CreateTag resolves rev and points a lightweight tag ref under refs/tags/
// at the resulting id.
func (r *Repo) CreateTag(name, rev string, force bool) (object.Hash, error) {
	name = strings.TrimSpace(name)
	if err := validateTagName(name); err != nil {
		return "", fmt.Errorf("create tag: %w", err)
	}
	target, err := r.ResolveName(rev, "")
	if err != nil {
		return "", fmt.Errorf("create tag: %w", err)
	}

	refName := "refs/tags/" + name
	if err := r.checkTagFree(refName, name, force); err != nil {
		return "", fmt.Errorf("create tag: %w", err)
	}
	if err := r.UpdateRef(refName, target); err != nil {
		return "", fmt.Errorf("create tag: %w", err)
	}
	return target, nil
}

// CreateAnnotatedTag resolves rev, stores a tag object pointing at it, and
// points refs/tags/<name> at the tag object.
func (r *Repo) CreateAnnotatedTag(name, rev, tagger, message string, force bool) (object.Hash, error) {
	name = strings.TrimSpace(name)
	if err := validateTagName(name); err != nil {
		return "", fmt.Errorf("create annotated tag: %w", err)
	}
	tagger = strings.TrimSpace(tagger)
	if tagger == "" {
		tagger = "unknown"
	}
	if !strings.HasSuffix(message, "\n") {
		message += "\n"
	}

	target, err := r.ResolveName(rev, "")
	if err != nil {
		return "", fmt.Errorf("create annotated tag: %w", err)
	}
	targetType, _, err := r.Store.Read(target)
	if err != nil {
		return "", fmt.Errorf("create annotated tag: read target %s: %w", target, err)
	}

	refName := "refs/tags/" + name
	if err := r.checkTagFree(refName, name, force); err != nil {
		return "", fmt.Errorf("create annotated tag: %w", err)
	}

	now := time.Now()
	tag := &object.Tag{KVLM: *object.NewKVLM()}
	tag.Add("object", []byte(target))
	tag.Add("type", []byte(targetType))
	tag.Add("tag", []byte(name))
	tag.Add("tagger", []byte(tagger+" "+strconv.FormatInt(now.Unix(), 10)+" "+formatTimezoneOffset(now)))
	tag.Message = []byte(message)

	tagHash, err := r.Store.WriteObject(tag)
	if err != nil {
		return "", fmt.Errorf("create annotated tag: write tag object: %w", err)
	}
	if err := r.UpdateRef(refName, tagHash); err != nil {
		return "", fmt.Errorf("create annotated tag: %w", err)
	}
	return tagHash, nil
}

func (r *Repo) checkTagFree(refName, name string, force bool) error {
	if force {
		return nil
	}
	if _, exists, err := r.readRefFile(refName); err != nil {
		return err
	} else if exists {
		return fmt.Errorf("tag %q already exists", name)
	}
	return nil
}

// DeleteTag removes a tag ref from refs/tags/.
func (r *Repo) DeleteTag(name string) error {
	name = strings.TrimSpace(name)
	if err := validateTagName(name); err != nil {
		return fmt.Errorf("delete tag: %w", err)
	}
	if err := r.DeleteRef("refs/tags/" + name); err != nil {
		return fmt.Errorf("delete tag %q: %w", name, err)
	}
	return nil
}

// ListTags lists tag names (relative to refs/tags) in sorted order.
func (r *Repo) ListTags() ([]Ref, error) {
	nodes, err := r.ListRefs("refs/tags")
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	return FlattenRefs("", nodes), nil
}

func validateTagName(name string) error {
	if name == "" {
		return fmt.Errorf("tag name is required")
	}
	if strings.ContainsAny(name, " \t\n\r") {
		return fmt.Errorf("invalid tag name %q", name)
	}
	if err := validateRefName(name); err != nil {
		return fmt.Errorf("invalid tag name %q", name)
	}
	return nil
}

func formatTimezoneOffset(t time.Time) string {
	_, offset := t.Zone()
	sign := "+"
	if offset < 0 {
		sign = "-"
		offset = -offset
	}
	hours := offset / 3600
	minutes := (offset % 3600) / 60
	return fmt.Sprintf("%s%02d%02d", sign, hours, minutes)
}
