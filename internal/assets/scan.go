package assets

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"
)

// Scan looks for animation files under root/<category>/*.json and returns an entry
// per file. Missing category directories are skipped.
func Scan(ctx context.Context, root string) ([]Entry, error) {
	found := make([][]Entry, len(Categories))

	g, ctx := errgroup.WithContext(ctx)
	for i, cat := range Categories {
		i, cat := i, cat
		g.Go(func() error {
			entries, err := scanCategory(ctx, root, cat)
			if err != nil {
				return err
			}
			found[i] = entries
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []Entry
	for _, entries := range found {
		out = append(out, entries...)
	}
	return out, nil
}

// Refresh scans root and appends only files that are not registered yet
func (r *Registry) Refresh(ctx context.Context, root string) (int, error) {
	entries, err := Scan(ctx, root)
	if err != nil {
		return 0, err
	}
	return r.Append(entries...), nil
}

func scanCategory(ctx context.Context, root string, cat Category) ([]Entry, error) {
	dir := filepath.Join(root, string(cat))
	files, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", dir, err)
	}

	var names []string
	for _, f := range files {
		if f.IsDir() || !strings.EqualFold(filepath.Ext(f.Name()), ".json") {
			continue
		}
		names = append(names, f.Name())
	}
	sort.Strings(names)

	entries := make([]Entry, 0, len(names))
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		stem := strings.TrimSuffix(name, filepath.Ext(name))
		entries = append(entries, Entry{
			ID:       assetID(stem),
			File:     string(cat) + "/" + name,
			Name:     stem,
			Tags:     assetTags(stem),
			Category: cat,
		})
	}
	return entries, nil
}

// assetID lowercases the name and collapses every run of other characters into "_"
func assetID(name string) string {
	var b strings.Builder
	pendingSep := false
	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(r)
			continue
		}
		pendingSep = true
	}
	if b.Len() == 0 {
		return "asset"
	}
	return b.String()
}

func assetTags(name string) []string {
	words := strings.FieldsFunc(name, func(r rune) bool {
		return unicode.IsSpace(r) || r == '_' || r == '-'
	})

	tags := make([]string, 0, len(words))
	for _, w := range words {
		if utf8.RuneCountInString(w) > 1 {
			tags = append(tags, strings.ToLower(w))
		}
	}
	return tags
}
