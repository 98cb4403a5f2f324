package storage

import (
	"path"
	"strings"

	"github.com/gosimple/slug"
	"github.com/ncobase/collab/nanoid"
)

// ObjectKey builds a collision-free key for an uploaded file:
// <tenant>/<project>/<id>-<slugged name><ext>.
func ObjectKey(tenantID, projectID, fileName string) string {
	name := path.Base(fileName)
	ext := path.Ext(name)
	base := slug.Make(strings.TrimSuffix(name, ext))
	if ext = slug.Make(ext); ext != "" {
		ext = "." + ext
	}
	if base == "" {
		base = "file"
	}
	if len(base) > 80 {
		base = base[:80]
	}
	return path.Join(slug.Make(tenantID), projectID, nanoid.String(10)+"-"+base+ext)
}
