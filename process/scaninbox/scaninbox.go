// Package scaninbox batch-processes a directory of card photos: each
// image runs through the scan pipeline and lands as a Card row for the
// target user. A watch mode picks up files as they appear.
package scaninbox

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"gorm.io/gorm"

	"cardtrack/models"
	"cardtrack/pkg/checklist"
	"cardtrack/pkg/match"
	"cardtrack/pkg/ocr"
	"cardtrack/pkg/scan"
)

// Options controls one processing run.
type Options struct {
	// UserID owns the created Card rows; when 0 the admin user is used.
	UserID uint
	// Workers sizes the pool; 0 means NumCPU.
	Workers int
	// MinConfidence skips inserting scans below this overall confidence.
	MinConfidence float64
	// DryRun prints pipeline output without touching the database.
	DryRun bool
	// Recognizer defaults to Tesseract when nil.
	Recognizer ocr.Recognizer
	// Verbose enables per-file logging.
	Verbose bool
}

// Processor scans inbox files against a checklist snapshot.
type Processor struct {
	db   *gorm.DB
	opts Options
	// one snapshot per run keeps a batch internally consistent
	entries []match.Entry
	userID  uint
}

var imageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// New prepares a processor: resolves the owning user and reads the
// checklist snapshot once for the whole run.
func New(gdb *gorm.DB, opts Options) (*Processor, error) {
	p := &Processor{db: gdb, opts: opts}
	if opts.Recognizer == nil {
		p.opts.Recognizer = &ocr.Tesseract{}
	}
	if !opts.DryRun {
		uid := opts.UserID
		if uid == 0 {
			var admin models.User
			if err := gdb.Where("username = ?", "admin").First(&admin).Error; err != nil {
				return nil, fmt.Errorf("no --user-id provided and admin user not found: %w", err)
			}
			uid = admin.ID
		}
		p.userID = uid
	}
	entries, err := checklist.Snapshot(gdb)
	if err != nil {
		return nil, err
	}
	p.entries = entries
	return p, nil
}

// Run processes every image currently in dir through the worker pool.
func (p *Processor) Run(dir string) error {
	files := listImageFiles(dir)
	log.Printf("Scanning %d files (workers=%d)", len(files), p.workers())
	fileCh := make(chan string, len(files))
	for _, f := range files {
		fileCh <- f
	}
	close(fileCh)
	p.runWorkerPool(dir, fileCh)
	return nil
}

// Watch blocks, processing files as they are created in dir. Events are
// debounced so half-written files settle before they are read.
func (p *Processor) Watch(dir string) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()
	if err := w.Add(dir); err != nil {
		return err
	}
	log.Printf("Watching %s (debounced) ...", dir)

	fileCh := make(chan string, 256)
	go func() {
		// simple debounce map of pending files
		pending := map[string]time.Time{}
		ticker := time.NewTicker(250 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					close(fileCh)
					return
				}
				if ev.Op&fsnotify.Create == fsnotify.Create {
					name := filepath.Base(ev.Name)
					if !isSupportedExt(name) {
						continue
					}
					pending[name] = time.Now()
				}
			case <-ticker.C:
				now := time.Now()
				for name, t := range pending {
					if now.Sub(t) > 300*time.Millisecond { // stable
						fileCh <- name
						delete(pending, name)
					}
				}
			case err, ok := <-w.Errors:
				if !ok {
					close(fileCh)
					return
				}
				log.Printf("watch error: %v", err)
			}
		}
	}()

	p.runWorkerPool(dir, fileCh)
	return nil
}

func (p *Processor) workers() int {
	if p.opts.Workers <= 0 {
		return runtime.NumCPU()
	}
	return p.opts.Workers
}

func (p *Processor) runWorkerPool(dir string, fileCh <-chan string) {
	var wg sync.WaitGroup
	for i := 0; i < p.workers(); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for name := range fileCh {
				if err := p.processFile(dir, name); err != nil {
					log.Printf("process %s: %v", name, err)
				}
			}
		}()
	}
	wg.Wait()
}

func (p *Processor) processFile(dir, name string) error {
	raw, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		return err
	}
	img, err := scan.Decode(raw)
	if err != nil {
		return err
	}
	res, err := scan.Scan(img, p.opts.Recognizer, p.entries, match.DefaultLimit)
	if err != nil {
		return err
	}

	top := ""
	if len(res.Candidates) > 0 {
		c := res.Candidates[0]
		top = fmt.Sprintf(" top=%s/%s score=%.1f", c.Player, c.CardNumber, c.Score)
	}
	year := 0
	if res.Fields.Year != nil {
		year = *res.Fields.Year
	}
	p.logV("scan %s conf=%.2f year=%d player=%q brand=%q%s",
		name, res.Confidence, year, res.Fields.Player, res.Fields.Brand, top)

	if p.opts.DryRun {
		return nil
	}
	if res.Confidence < p.opts.MinConfidence {
		log.Printf("scan skipped %s conf=%.2f (min=%.2f)", name, res.Confidence, p.opts.MinConfidence)
		return nil
	}

	// skip files already ingested for this user
	var cnt int64
	p.db.Model(&models.Upload{}).Where("user_id = ? AND file_name = ?", p.userID, name).Count(&cnt)
	if cnt > 0 {
		p.logV("already ingested %s", name)
		return nil
	}

	card := models.Card{
		UserID:     p.userID,
		Year:       res.Fields.Year,
		Confidence: &res.Confidence,
	}
	if res.Fields.Brand != "" {
		card.Brand = &res.Fields.Brand
	}
	if res.Fields.SetName != "" {
		card.SetName = &res.Fields.SetName
	}
	if res.Fields.Player != "" {
		card.Player = &res.Fields.Player
	}
	if res.Fields.CardNumber != "" {
		card.CardNumber = &res.Fields.CardNumber
	}
	if res.Fields.OCRText != "" {
		card.OCRText = &res.Fields.OCRText
	}
	if err := p.db.Create(&card).Error; err != nil {
		return fmt.Errorf("insert card: %w", err)
	}
	cid := card.ID
	up := models.Upload{
		FileName:    name,
		UserID:      p.userID,
		ContentType: extMime[strings.ToLower(filepath.Ext(name))],
		CardID:      &cid,
	}
	if err := p.db.Create(&up).Error; err != nil {
		return fmt.Errorf("insert upload: %w", err)
	}
	return nil
}

func (p *Processor) logV(format string, args ...any) {
	if p.opts.Verbose {
		log.Printf(format, args...)
	}
}

// MIME mapping to avoid sniffing files repeatedly
var extMime = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
}

func listImageFiles(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || !isSupportedExt(e.Name()) {
			continue
		}
		out = append(out, e.Name())
	}
	sort.Strings(out)
	return out
}

func isSupportedExt(name string) bool {
	return imageExts[strings.ToLower(filepath.Ext(name))]
}
