// Package discovery finds left/right mono files in a directory and groups
// them into merge candidates.
//
// A candidate file is named <key>.<L|R><ext>: the channel letter is
// case-sensitive and sits immediately before the extension, the extension
// is matched case-insensitively against an allowlist. Files are grouped by
// (key, lowercased extension). Only groups with exactly one L and one R file
// become pairs; every other group is reported as a warning and skipped.
package discovery

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/Skryldev/stereomerge/domain/model"
	"github.com/Skryldev/stereomerge/domain/ports"
	pkgerrors "github.com/Skryldev/stereomerge/pkg/errors"
)

// Result is the outcome of a scan
type Result struct {
	Pairs    []model.MergePair
	Warnings []model.DiscoveryWarning
}

// NormalizeExtensions lowercases exts, adds a leading dot where missing and
// drops empties and duplicates.
func NormalizeExtensions(exts []string) []string {
	seen := make(map[string]bool, len(exts))
	out := make([]string, 0, len(exts))
	for _, e := range exts {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" || e == "." {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		if seen[e] {
			continue
		}
		seen[e] = true
		out = append(out, e)
	}
	return out
}

// ParseName splits a file name following the <key>.<L|R><ext> convention.
// ok is false when name does not follow it, the key is empty, or its
// extension is not in allowed (which must already be normalized).
func ParseName(name string, allowed []string) (key string, ch model.Channel, ext string, ok bool) {
	rawExt := filepath.Ext(name)
	ext = strings.ToLower(rawExt)
	if !slices.Contains(allowed, ext) {
		return "", 0, "", false
	}

	stem := name[:len(name)-len(rawExt)]
	if len(stem) < 3 || stem[len(stem)-2] != '.' {
		return "", 0, "", false
	}
	switch stem[len(stem)-1] {
	case 'L':
		ch = model.ChannelLeft
	case 'R':
		ch = model.ChannelRight
	default:
		return "", 0, "", false
	}
	return stem[:len(stem)-2], ch, ext, true
}

type groupKey struct {
	key string
	ext string
}

// arena owns every ChannelFile of one scan; groups refer to it by index.
type arena struct {
	files  []model.ChannelFile
	groups map[groupKey][]int
}

// Group builds pairs and warnings from the file names found in dir. It
// performs no I/O.
func Group(dir string, names []string, extensions []string) Result {
	allowed := NormalizeExtensions(extensions)
	a := arena{groups: make(map[groupKey][]int)}
	for _, name := range names {
		key, ch, ext, ok := ParseName(name, allowed)
		if !ok {
			continue
		}
		a.files = append(a.files, model.ChannelFile{
			Path:      filepath.Join(dir, name),
			Key:       key,
			Channel:   ch,
			Extension: ext,
		})
		gk := groupKey{key: key, ext: ext}
		a.groups[gk] = append(a.groups[gk], len(a.files)-1)
	}

	sources := make(map[string]bool, len(a.files))
	for _, f := range a.files {
		sources[filepath.Base(f.Path)] = true
	}

	keys := make([]groupKey, 0, len(a.groups))
	for gk := range a.groups {
		keys = append(keys, gk)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].key != keys[j].key {
			return keys[i].key < keys[j].key
		}
		return keys[i].ext < keys[j].ext
	})

	var res Result
	for _, gk := range keys {
		var left, right []model.ChannelFile
		for _, idx := range a.groups[gk] {
			f := a.files[idx]
			if f.Channel == model.ChannelLeft {
				left = append(left, f)
			} else {
				right = append(right, f)
			}
		}

		if w, bad := checkGroup(gk, left, right, sources); bad {
			res.Warnings = append(res.Warnings, w)
			continue
		}

		res.Pairs = append(res.Pairs, model.MergePair{
			Index:     len(res.Pairs),
			Key:       gk.key,
			Extension: gk.ext,
			LeftPath:  left[0].Path,
			RightPath: right[0].Path,
		})
	}
	return res
}

func checkGroup(gk groupKey, left, right []model.ChannelFile, sources map[string]bool) (model.DiscoveryWarning, bool) {
	w := model.DiscoveryWarning{Key: gk.key, Extension: gk.ext}
	for _, f := range append(append([]model.ChannelFile(nil), left...), right...) {
		w.Paths = append(w.Paths, f.Path)
	}

	switch {
	case len(left) == 0 || len(right) == 0:
		missing := model.ChannelLeft
		if len(left) > 0 {
			missing = model.ChannelRight
		}
		w.Kind = model.WarnMissingPair
		w.Message = fmt.Sprintf("missing %s channel", missing)
		w.Err = pkgerrors.NewMissingPairError(w.Paths[0], w.Message)
		return w, true
	case len(left) > 1 || len(right) > 1:
		dup := model.ChannelLeft
		if len(right) > 1 {
			dup = model.ChannelRight
		}
		w.Kind = model.WarnDuplicateChannel
		w.Message = fmt.Sprintf("more than one %s channel file", dup)
		return w, true
	}

	out := gk.key + gk.ext
	if sources[out] {
		w.Kind = model.WarnOutputConflict
		w.Message = fmt.Sprintf("output %s would overwrite a source file", out)
		return w, true
	}
	return w, false
}

// Scan lists dir (non-recursively) and groups its regular files. Symlinks
// count when they resolve to a regular file. Only a failure to list dir is
// returned as an error.
func Scan(ctx context.Context, store ports.StorageProvider, dir string, extensions []string) (Result, error) {
	entries, err := store.ReadDir(ctx, dir)
	if err != nil {
		return Result{}, fmt.Errorf("list %s: %w", dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		mode := e.Type()
		if mode&fs.ModeSymlink != 0 {
			info, err := store.Stat(ctx, filepath.Join(dir, e.Name()))
			if err != nil {
				// dangling link
				continue
			}
			mode = info.Mode()
		}
		if !mode.IsRegular() {
			continue
		}
		names = append(names, e.Name())
	}
	return Group(dir, names, extensions), nil
}
