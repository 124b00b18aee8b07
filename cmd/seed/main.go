package main

import (
	"fmt"
	"log"
	"net/url"
	"os"
	"strings"

	"github.com/ikkim/ugcfy-backend/config"
	"github.com/ikkim/ugcfy-backend/internal/app/model"
	"github.com/ikkim/ugcfy-backend/internal/app/repository"
	"github.com/ikkim/ugcfy-backend/internal/db"
	"github.com/ikkim/ugcfy-backend/pkg/util"
	"github.com/xuri/excelize/v2"
)

// Expected header: url | caption | status | tags | product_id
const (
	colURL = iota
	colCaption
	colStatus
	colTags
	colProduct
)

// seedRow is one spreadsheet line ready for insert
type seedRow struct {
	media model.Media
	tags  []string
}

func main() {
	if len(os.Args) < 3 {
		log.Fatal("Usage: go run cmd/seed/main.go <shop.myshopify.com> <xlsx_file_path>")
	}

	shop := strings.ToLower(strings.TrimSpace(os.Args[1]))
	filePath := os.Args[2]
	if !util.IsValidShopDomain(shop) {
		log.Fatalf("Invalid shop domain: %s", shop)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	if err := db.Initialize(&cfg.Database); err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}
	if err := db.SeedShop(db.GetDB(), shop); err != nil {
		log.Fatal("Failed to seed default tags:", err)
	}

	mediaRepo := repository.NewMediaRepository(db.GetDB())
	tagRepo := repository.NewTagRepository(db.GetDB())

	fmt.Printf("Reading XLSX file: %s\n", filePath)
	rows, err := readMediaFromXLSX(filePath, shop)
	if err != nil {
		log.Fatal("Failed to read XLSX:", err)
	}

	urls := make([]string, 0, len(rows))
	for _, r := range rows {
		urls = append(urls, r.media.URL)
	}
	existing, err := mediaRepo.ExistingURLs(shop, urls)
	if err != nil {
		log.Fatal("Failed to check existing media:", err)
	}

	fresh := rows[:0]
	for _, r := range rows {
		if !existing[r.media.URL] {
			fresh = append(fresh, r)
		}
	}
	fmt.Printf("Media to import: %d (already present: %d)\n", len(fresh), len(rows)-len(fresh))
	if len(fresh) == 0 {
		return
	}

	fmt.Print("Do you want to proceed with the import? (yes/no): ")
	var confirm string
	fmt.Scanln(&confirm)
	if confirm != "yes" && confirm != "y" {
		fmt.Println("Import cancelled.")
		return
	}

	media := make([]model.Media, len(fresh))
	for i, r := range fresh {
		media[i] = r.media
	}

	batchSize := 500
	fmt.Printf("Starting bulk import with batch size: %d\n", batchSize)
	if err := mediaRepo.BulkCreate(media, batchSize); err != nil {
		log.Fatal("Failed to bulk create media:", err)
	}

	tagged := 0
	tagIDs := make(map[string]uint)
	for i, r := range fresh {
		for _, name := range r.tags {
			slug := util.Slugify(name)
			id, ok := tagIDs[slug]
			if !ok {
				tag := &model.Tag{ShopDomain: shop, Name: name, Slug: slug}
				if err := tagRepo.Upsert(tag); err != nil {
					log.Fatal("Failed to save tag:", err)
				}
				id = tag.ID
				tagIDs[slug] = id
			}
			if err := mediaRepo.AddTag(media[i].ID, id); err != nil {
				log.Fatal("Failed to tag media:", err)
			}
			tagged++
		}
	}

	fmt.Println("Import completed successfully!")
	fmt.Printf("Total media imported: %d, tag links: %d\n", len(media), tagged)
}

func readMediaFromXLSX(filePath, shop string) ([]seedRow, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open XLSX file: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, fmt.Errorf("no sheets found in XLSX file")
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("no data found in XLSX file")
	}

	var out []seedRow
	seen := make(map[string]bool)
	skipped := 0

	// first row is the header
	for _, row := range rows[1:] {
		r, ok := parseRow(row, shop)
		if !ok || seen[r.media.URL] {
			skipped++
			continue
		}
		seen[r.media.URL] = true
		out = append(out, r)
	}

	fmt.Printf("\nSummary:\n")
	fmt.Printf("  Total rows: %d\n", len(rows)-1)
	fmt.Printf("  Valid media: %d\n", len(out))
	fmt.Printf("  Skipped rows: %d\n", skipped)

	return out, nil
}

func parseRow(row []string, shop string) (seedRow, bool) {
	cell := func(i int) string {
		if i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}

	rawURL := cell(colURL)
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return seedRow{}, false
	}

	status := model.MediaStatusDraft
	if s := model.MediaStatus(strings.ToUpper(cell(colStatus))); s != "" {
		if !s.IsValid() {
			return seedRow{}, false
		}
		status = s
	}

	r := seedRow{
		media: model.Media{
			ShopDomain: shop,
			URL:        rawURL,
			Caption:    cell(colCaption),
			Status:     status,
			SourceType: model.SourceURL,
		},
	}
	if p := cell(colProduct); p != "" {
		r.media.ProductID = &p
	}
	for _, name := range strings.Split(cell(colTags), ",") {
		if name = strings.TrimSpace(name); name != "" && util.Slugify(name) != "" {
			r.tags = append(r.tags, name)
		}
	}
	return r, true
}
