// Package checklist loads and imports reference checklist rows. The
// matcher consumes rows as a snapshot read once per scan; nothing here
// caches between calls.
package checklist

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"cardtrack/models"
	"cardtrack/pkg/match"
)

// Snapshot reads every checklist row into matcher entries.
func Snapshot(gdb *gorm.DB) ([]match.Entry, error) {
	var rows []models.ChecklistEntry
	if err := gdb.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("checklist query: %w", err)
	}
	entries := make([]match.Entry, 0, len(rows))
	for _, r := range rows {
		entries = append(entries, ToEntry(r))
	}
	return entries, nil
}

// ToEntry converts a stored row into the matcher's value form. Null
// columns become zero values, which the matcher treats as absent.
func ToEntry(r models.ChecklistEntry) match.Entry {
	e := match.Entry{ID: r.ID}
	if r.Sport != nil {
		e.Sport = *r.Sport
	}
	if r.Year != nil {
		e.Year = *r.Year
	}
	if r.Brand != nil {
		e.Brand = *r.Brand
	}
	if r.SetName != nil {
		e.SetName = *r.SetName
	}
	if r.Player != nil {
		e.Player = *r.Player
	}
	if r.Team != nil {
		e.Team = *r.Team
	}
	if r.CardNumber != nil {
		e.CardNumber = *r.CardNumber
	}
	if r.Parallel != nil {
		e.Parallel = *r.Parallel
	}
	return e
}

// ImportCSV parses header-keyed CSV rows into ChecklistEntry records.
// Recognized columns: sport, year, brand, set_name, player, team,
// card_number, parallel (any order, extras ignored). Blank cells become
// nulls. Returns the number of rows inserted.
func ImportCSV(gdb *gorm.DB, r io.Reader) (int, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	header, err := reader.Read()
	if err != nil {
		return 0, fmt.Errorf("read csv header: %w", err)
	}
	col := map[string]int{}
	for i, h := range header {
		col[strings.ToLower(strings.TrimSpace(h))] = i
	}
	get := func(rec []string, name string) *string {
		i, ok := col[name]
		if !ok || i >= len(rec) {
			return nil
		}
		v := strings.TrimSpace(rec[i])
		if v == "" {
			return nil
		}
		return &v
	}
	count := 0
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return count, fmt.Errorf("read csv row: %w", err)
		}
		entry := models.ChecklistEntry{
			Sport:      get(rec, "sport"),
			Brand:      get(rec, "brand"),
			SetName:    get(rec, "set_name"),
			Player:     get(rec, "player"),
			Team:       get(rec, "team"),
			CardNumber: get(rec, "card_number"),
			Parallel:   get(rec, "parallel"),
		}
		if y := get(rec, "year"); y != nil {
			if n, err := strconv.Atoi(*y); err == nil {
				entry.Year = &n
			}
		}
		if err := gdb.Create(&entry).Error; err != nil {
			return count, fmt.Errorf("insert row: %w", err)
		}
		count++
	}
	return count, nil
}
