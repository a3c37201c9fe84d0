package batch

import (
	"fmt"
	"io"
	"io/fs"
	"log"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"i3d-treeplant/internal/config"
	"i3d-treeplant/internal/extract"
	"i3d-treeplant/internal/i3d"
	"i3d-treeplant/internal/preview"
	"i3d-treeplant/internal/resolver"
	"i3d-treeplant/internal/treeplant"
	"i3d-treeplant/internal/treetypes"
)

// Config holds all shared settings for a batch run.
type Config struct {
	OutputDir   string
	TreeTypes   string // optional treeTypes.xml loaded for every map
	GameData    string
	TreeParent  string
	PreviewSize int // 0 disables preview images
	Supersample int
	Workers     int
	Logger      *log.Logger
	Progress    io.Writer // periodic progress lines; nil for none
}

// Job is one map to convert.
type Job struct {
	Name   string // output subdirectory
	I3D    string
	MapXML string
}

// Result holds the outcome of converting one map.
type Result struct {
	Name    string
	I3D     string
	Trees   int
	Final   int
	Growing int
	Output  string
	Preview string
	Success bool
	Error   string
}

// Discover finds map scenes below root: every .i3d with a map.xml in one of
// the layouts config.FindMapXML knows. Tree and prop assets have none and
// are skipped, as is everything under a "trees" directory. Jobs are sorted
// by name.
func Discover(root string) ([]Job, error) {
	var jobs []Job
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			// Tree assets sit next to the map and would find its map.xml.
			if path != root && strings.EqualFold(d.Name(), "trees") {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.EqualFold(filepath.Ext(path), ".i3d") {
			return nil
		}
		mapXML := config.FindMapXML(path)
		if mapXML == "" {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			rel = filepath.Base(path)
		}
		name := strings.TrimSuffix(filepath.ToSlash(rel), filepath.Ext(rel))
		jobs = append(jobs, Job{
			Name:   strings.ReplaceAll(name, "/", "_"),
			I3D:    path,
			MapXML: mapXML,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("batch: discover %s: %w", root, err)
	}
	sort.Slice(jobs, func(i, j int) bool { return jobs[i].Name < jobs[j].Name })
	return jobs, nil
}

// Run converts all jobs using a worker pool. Results are in job order.
func Run(cfg Config, jobs []Job) []Result {
	total := len(jobs)
	results := make([]Result, total)
	var processed atomic.Int64

	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}

	start := time.Now()

	// Progress reporter
	done := make(chan struct{})
	if cfg.Progress != nil {
		go func() {
			ticker := time.NewTicker(2 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-done:
					return
				case <-ticker.C:
					p := processed.Load()
					if p > 0 {
						rate := float64(p) / time.Since(start).Seconds()
						fmt.Fprintf(cfg.Progress, "  [%d/%d] %.1f maps/sec\n", p, total, rate)
					}
				}
			}
		}()
	}

	// Worker pool
	jobChan := make(chan int, workers*2)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobChan {
				results[idx] = processJob(cfg, jobs[idx])
				processed.Add(1)
			}
		}()
	}

	for i := range jobs {
		jobChan <- i
	}
	close(jobChan)

	wg.Wait()
	close(done)

	return results
}

func processJob(cfg Config, job Job) Result {
	res := Result{Name: job.Name, I3D: job.I3D}
	fail := func(err error) Result {
		res.Error = err.Error()
		return res
	}

	// Each map gets its own catalog; map-local types differ between maps.
	cat := treetypes.New(cfg.Logger)
	if cfg.TreeTypes != "" {
		cat.Load(cfg.TreeTypes, filepath.Dir(cfg.TreeTypes))
	}
	if job.MapXML != "" {
		cat.LoadFromMap(job.MapXML, cfg.GameData)
	}

	doc, err := i3d.Open(job.I3D)
	if err != nil {
		return fail(err)
	}
	scene, ok := doc.Scene()
	if !ok {
		return fail(fmt.Errorf("no Scene element"))
	}

	reg := resolver.BuildFileRegistry(doc.Files(), cat)
	trees := extract.Find(scene, reg, extract.Options{TreeParent: cfg.TreeParent}).Instances
	res.Trees = len(trees)
	if len(trees) == 0 {
		return fail(fmt.Errorf("no trees found"))
	}

	out := treeplant.Emit(trees, cat)
	res.Final, res.Growing = out.Counts()
	res.Output = filepath.Join(cfg.OutputDir, job.Name, "treePlant.xml")
	if err := out.WriteFile(res.Output); err != nil {
		return fail(err)
	}

	if cfg.PreviewSize > 0 {
		img := preview.Render(trees, cat, preview.Options{
			Size:        cfg.PreviewSize,
			Supersample: cfg.Supersample,
			Legend:      true,
		})
		res.Preview = filepath.Join(cfg.OutputDir, job.Name, "preview.webp")
		if err := preview.Save(res.Preview, img); err != nil {
			return fail(err)
		}
	}

	res.Success = true
	return res
}

// Failed returns the unsuccessful results.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Success {
			out = append(out, r)
		}
	}
	return out
}
