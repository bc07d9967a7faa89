package loader

import (
	"strings"

	"github.com/karrick/godirwalk"
	"github.com/pkg/errors"
)

// PrefetchDir walks root and submits a Thumbnail-priority Request for
// every file whose extension matches one of exts (case-insensitive,
// without the leading dot), built by makeRequest. It is meant to
// warm the cache for an asset directory before the scene that needs
// it is actually loaded.
func (p *Pool) PrefetchDir(root string, exts []string, makeRequest func(path string) Request) error {
	want := make(map[string]bool, len(exts))
	for _, e := range exts {
		want[strings.ToLower(e)] = true
	}
	err := godirwalk.Walk(root, &godirwalk.Options{
		Unsorted: true,
		Callback: func(path string, de *godirwalk.Dirent) error {
			if de.IsDir() {
				return nil
			}
			ext := strings.TrimPrefix(strings.ToLower(extOf(path)), ".")
			if !want[ext] {
				return nil
			}
			req := makeRequest(path)
			req.Priority = Thumbnail
			p.Submit(req)
			return nil
		},
	})
	if err != nil {
		return errors.Wrapf(err, "loader: prefetch scan of %q failed", root)
	}
	return nil
}

func extOf(path string) string {
	i := strings.LastIndexByte(path, '.')
	if i < 0 {
		return ""
	}
	return path[i:]
}
