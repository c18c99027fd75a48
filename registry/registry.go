package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"

	"mixsplit/titles"
)

// Registry tracks how many times each normalized (artist, title) pair has been
// reserved, both within the current run and in the pre-existing output
// directory. One instance per job; never shared across jobs.
type Registry struct {
	mutex  sync.Mutex
	counts map[string]int
	logger *log.Entry
}

func New() *Registry {
	return &Registry{
		counts: make(map[string]int),
		logger: log.WithFields(log.Fields{"module": "registry"}),
	}
}

// trailing " (N)" disambiguator on an existing filename
var suffixRegex = regexp.MustCompile(`\s\(\d+\)$`)

// Seed scans the output directory's existing filenames and initializes
// occurrence counts using the same normalization as the title parser. A
// missing or unreadable directory is treated as empty.
func (r *Registry) Seed(outputDir string) {
	entries, err := os.ReadDir(outputDir)
	if err != nil {
		r.logger.Debugf("output directory %s not readable, seeding empty: %v", outputDir, err)
		return
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		name = strings.TrimSuffix(name, filepath.Ext(name))
		name = suffixRegex.ReplaceAllString(name, "")

		key := titles.NormalizeKey(titles.Parse(name))
		r.counts[key]++
	}

	r.logger.Debugf("seeded %d keys from %s", len(r.counts), outputDir)
}

// Reserve commits a filename for the given title and returns it. The first
// occurrence of a key gets the plain "Artist - Title" form; every later
// occurrence gets a " (N)" suffix so repeats never collide. Safe for
// concurrent use.
func (r *Registry) Reserve(pt titles.ParsedTitle) string {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	key := titles.NormalizeKey(pt)
	r.counts[key]++
	n := r.counts[key]

	name := titles.SafeFilename(pt.DisplayName())
	if n > 1 {
		name = fmt.Sprintf("%s (%d)", name, n)
	}
	return name
}
