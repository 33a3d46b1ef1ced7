// Package catalog serves plan schemas and course details to the planner. The
// default bundle is embedded in the binary; PLANNER_CATALOG_DIR points at an
// on-disk copy with the same layout instead.
package catalog

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/yungbote/degreeplan-backend/internal/degree/course"
	"github.com/yungbote/degreeplan-backend/internal/degree/schema"
	"github.com/yungbote/degreeplan-backend/internal/degree/units"
	pkgerrors "github.com/yungbote/degreeplan-backend/internal/pkg/errors"
	"github.com/yungbote/degreeplan-backend/internal/platform/logger"
)

const catalogDirEnv = "PLANNER_CATALOG_DIR"

//go:embed data
var embeddedFS embed.FS

// Source hands out plan schemas by identifier: a catalog id or "title@year".
type Source interface {
	Plan(ctx context.Context, identifier string) (*schema.Plan, error)
}

// Fetcher returns the raw schema document for an identifier.
type Fetcher interface {
	Fetch(ctx context.Context, identifier string) ([]byte, error)
}

type IndexEntry struct {
	ID    string `yaml:"id"`
	Title string `yaml:"title"`
	Year  string `yaml:"year"`
	File  string `yaml:"file"`
}

// Key is the "title@year" form of the entry.
func (e IndexEntry) Key() string {
	return titleYearKey(e.Title, e.Year)
}

type CourseInfo struct {
	Code  string
	Title string
	Units decimal.Decimal
}

type yamlIndex struct {
	Plans []IndexEntry `yaml:"plans"`
}

type yamlCourses struct {
	Courses []struct {
		Code  string    `yaml:"code"`
		Title string    `yaml:"title"`
		Units yaml.Node `yaml:"units"`
	} `yaml:"courses"`
}

// Bundle is a catalog read from a directory tree holding index.yaml,
// courses.yaml and the plan files the index names.
type Bundle struct {
	fsys    fs.FS
	log     *logger.Logger
	entries []IndexEntry
	byKey   map[string]IndexEntry
	courses map[string]CourseInfo
}

var (
	defaultOnce   sync.Once
	defaultBundle *Bundle
	defaultErr    error
)

// Default returns the process-wide bundle.
func Default(log *logger.Logger) (*Bundle, error) {
	defaultOnce.Do(func() {
		var fsys fs.FS
		if dir := strings.TrimSpace(os.Getenv(catalogDirEnv)); dir != "" {
			fsys = os.DirFS(dir)
		} else {
			sub, err := fs.Sub(embeddedFS, "data")
			if err != nil {
				defaultErr = err
				return
			}
			fsys = sub
		}
		defaultBundle, defaultErr = Open(fsys, log)
	})
	return defaultBundle, defaultErr
}

func Open(fsys fs.FS, log *logger.Logger) (*Bundle, error) {
	if log == nil {
		log = logger.Nop()
	}
	b := &Bundle{
		fsys:    fsys,
		log:     log.With("service", "CatalogBundle"),
		byKey:   map[string]IndexEntry{},
		courses: map[string]CourseInfo{},
	}

	raw, err := fs.ReadFile(fsys, "index.yaml")
	if err != nil {
		return nil, fmt.Errorf("read index: %w", err)
	}
	var idx yamlIndex
	if err := yaml.Unmarshal(raw, &idx); err != nil {
		return nil, fmt.Errorf("parse index: %w", err)
	}
	for _, e := range idx.Plans {
		if e.ID == "" || e.File == "" {
			return nil, errors.New("index entry needs id and file")
		}
		if _, dup := b.byKey[e.ID]; dup {
			return nil, fmt.Errorf("duplicate index id %q", e.ID)
		}
		b.entries = append(b.entries, e)
		b.byKey[e.ID] = e
		b.byKey[e.Key()] = e
	}

	raw, err = fs.ReadFile(fsys, "courses.yaml")
	if err != nil {
		return nil, fmt.Errorf("read courses: %w", err)
	}
	var cs yamlCourses
	if err := yaml.Unmarshal(raw, &cs); err != nil {
		return nil, fmt.Errorf("parse courses: %w", err)
	}
	for _, c := range cs.Courses {
		code := normalizeCode(c.Code)
		if code == "" {
			continue
		}
		b.courses[code] = CourseInfo{Code: code, Title: c.Title, Units: units.Parse(c.Units.Value)}
	}
	b.log.Debug("catalog loaded", "plans", len(b.entries), "courses", len(b.courses))
	return b, nil
}

// Entries lists the index in file order.
func (b *Bundle) Entries() []IndexEntry {
	out := make([]IndexEntry, len(b.entries))
	copy(out, b.entries)
	return out
}

func (b *Bundle) lookupEntry(identifier string) (IndexEntry, bool) {
	id := strings.TrimSpace(identifier)
	if e, ok := b.byKey[id]; ok {
		return e, true
	}
	if title, year, ok := strings.Cut(id, "@"); ok {
		e, ok := b.byKey[titleYearKey(title, year)]
		return e, ok
	}
	return IndexEntry{}, false
}

func (b *Bundle) Fetch(ctx context.Context, identifier string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e, ok := b.lookupEntry(identifier)
	if !ok {
		return nil, fmt.Errorf("plan %q: %w", identifier, pkgerrors.ErrNotFound)
	}
	return fs.ReadFile(b.fsys, path.Clean(e.File))
}

func (b *Bundle) Plan(ctx context.Context, identifier string) (*schema.Plan, error) {
	raw, err := b.Fetch(ctx, identifier)
	if err != nil {
		return nil, err
	}
	p, err := schema.Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("plan %q: %w", identifier, err)
	}
	if e, ok := b.lookupEntry(identifier); ok && p.ID == "" {
		p.ID = e.ID
	}
	return p, nil
}

// Lookup returns catalog details for a course code.
func (b *Bundle) Lookup(code string) (CourseInfo, error) {
	c, ok := b.courses[normalizeCode(code)]
	if !ok {
		return CourseInfo{}, fmt.Errorf("course %q: %w", code, pkgerrors.ErrNotFound)
	}
	return c, nil
}

// Hydrate turns raw codes into unassigned course records. Codes that are not
// in the catalog are reported together and left out of the result.
func (b *Bundle) Hydrate(codes ...string) (course.List, error) {
	out := make(course.List, 0, len(codes))
	var missing []string
	for _, code := range codes {
		info, err := b.Lookup(code)
		if err != nil {
			missing = append(missing, code)
			continue
		}
		out = append(out, course.Course{Code: info.Code, Title: info.Title, Units: info.Units})
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return out, fmt.Errorf("unknown course codes %s: %w", strings.Join(missing, ", "), pkgerrors.ErrNotFound)
	}
	return out, nil
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.Join(strings.Fields(code), ""))
}

func titleYearKey(title, year string) string {
	return strings.ToLower(strings.TrimSpace(title)) + "@" + strings.TrimSpace(year)
}
