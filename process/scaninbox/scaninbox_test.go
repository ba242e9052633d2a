package scaninbox

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"cardtrack/models"
)

type stubRecognizer struct {
	text string
	conf float64
}

func (s *stubRecognizer) Recognize(img image.Image) (string, float64, error) {
	return s.text, s.conf, nil
}

func testDB(t *testing.T) *gorm.DB {
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := gdb.AutoMigrate(&models.User{}, &models.Card{}, &models.Upload{}, &models.ChecklistEntry{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return gdb
}

func seedUser(t *testing.T, gdb *gorm.DB) uint {
	u := models.User{Username: "collector", HashedPassword: []byte("x")}
	if err := gdb.Create(&u).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u.ID
}

func writePNG(t *testing.T, dir, name string) {
	img := imaging.New(64, 48, color.NRGBA{40, 40, 40, 255})
	if err := imaging.Save(img, filepath.Join(dir, name)); err != nil {
		t.Fatalf("save %s: %v", name, err)
	}
}

func TestRunIngestsImages(t *testing.T) {
	gdb := testDB(t)
	uid := seedUser(t, gdb)
	dir := t.TempDir()
	writePNG(t, dir, "a.png")
	writePNG(t, dir, "b.png")
	_ = os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("skip me"), 0o644)

	p, err := New(gdb, Options{
		UserID:     uid,
		Workers:    1,
		Recognizer: &stubRecognizer{text: "2021 TOPPS\nMIKE TROUT\n#27", conf: 0.9},
	})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := p.Run(dir); err != nil {
		t.Fatalf("run: %v", err)
	}

	var cards int64
	gdb.Model(&models.Card{}).Where("user_id = ?", uid).Count(&cards)
	if cards != 2 {
		t.Fatalf("cards: got %d", cards)
	}
	var up models.Upload
	if err := gdb.Where("file_name = ?", "a.png").First(&up).Error; err != nil {
		t.Fatalf("upload row: %v", err)
	}
	if up.CardID == nil || up.ContentType != "image/png" {
		t.Fatalf("upload row: %+v", up)
	}

	var card models.Card
	if err := gdb.Where("id = ?", *up.CardID).First(&card).Error; err != nil {
		t.Fatalf("card row: %v", err)
	}
	if card.Player == nil || *card.Player != "MIKE TROUT" {
		t.Fatalf("card player: %+v", card.Player)
	}
	if card.Year == nil || *card.Year != 2021 {
		t.Fatalf("card year: %+v", card.Year)
	}
}

func TestRunSkipsAlreadyIngested(t *testing.T) {
	gdb := testDB(t)
	uid := seedUser(t, gdb)
	dir := t.TempDir()
	writePNG(t, dir, "a.png")

	opts := Options{UserID: uid, Workers: 1, Recognizer: &stubRecognizer{text: "2021 #27", conf: 0.9}}
	for i := 0; i < 2; i++ {
		p, err := New(gdb, opts)
		if err != nil {
			t.Fatalf("new: %v", err)
		}
		if err := p.Run(dir); err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
	}
	var cards int64
	gdb.Model(&models.Card{}).Count(&cards)
	if cards != 1 {
		t.Fatalf("reprocessing should not duplicate, got %d cards", cards)
	}
}

func TestRunDryRunTouchesNothing(t *testing.T) {
	gdb := testDB(t)
	dir := t.TempDir()
	writePNG(t, dir, "a.png")

	p, err := New(gdb, Options{DryRun: true, Workers: 1, Recognizer: &stubRecognizer{text: "2021", conf: 0.9}})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := p.Run(dir); err != nil {
		t.Fatalf("run: %v", err)
	}
	var cards int64
	gdb.Model(&models.Card{}).Count(&cards)
	if cards != 0 {
		t.Fatalf("dry run inserted %d cards", cards)
	}
}

func TestRunMinConfidenceFilters(t *testing.T) {
	gdb := testDB(t)
	uid := seedUser(t, gdb)
	dir := t.TempDir()
	writePNG(t, dir, "a.png")

	p, err := New(gdb, Options{
		UserID:        uid,
		Workers:       1,
		MinConfidence: 0.9,
		Recognizer:    &stubRecognizer{text: "", conf: 0},
	})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := p.Run(dir); err != nil {
		t.Fatalf("run: %v", err)
	}
	var cards int64
	gdb.Model(&models.Card{}).Count(&cards)
	if cards != 0 {
		t.Fatalf("low-confidence scan inserted %d cards", cards)
	}
}

func TestListImageFiles(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, dir, "b.png")
	writePNG(t, dir, "a.png")
	_ = os.WriteFile(filepath.Join(dir, "readme.md"), []byte("x"), 0o644)
	_ = os.Mkdir(filepath.Join(dir, "sub"), 0o755)

	got := listImageFiles(dir)
	if len(got) != 2 || got[0] != "a.png" || got[1] != "b.png" {
		t.Fatalf("got %v", got)
	}
}

func TestIsSupportedExt(t *testing.T) {
	for name, want := range map[string]bool{
		"card.JPG": true, "card.jpeg": true, "card.webp": true,
		"card.txt": false, "card": false,
	} {
		if got := isSupportedExt(name); got != want {
			t.Fatalf("%s: got %v", name, got)
		}
	}
}
