package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/ikkim/eshop-admin-backend/config"
	"github.com/ikkim/eshop-admin-backend/internal/app/model"
	"github.com/ikkim/eshop-admin-backend/internal/app/repository"
	"github.com/ikkim/eshop-admin-backend/internal/db"
	"github.com/ikkim/eshop-admin-backend/pkg/util"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// Seeds the initial admin account and starter categories. With an XLSX path
// argument it additionally bulk-imports products:
//
//	go run cmd/seed/main.go [products.xlsx]
//
// Expected columns: name, description, brand, price, category, stock.
func main() {
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

	userRepo := repository.NewUserRepository(db.GetDB())
	categoryRepo := repository.NewCategoryRepository(db.GetDB())

	if err := seedAdmin(userRepo); err != nil {
		log.Fatal("Failed to seed admin account:", err)
	}
	if err := seedCategories(categoryRepo); err != nil {
		log.Fatal("Failed to seed categories:", err)
	}

	if len(os.Args) > 1 {
		if err := importProducts(os.Args[1], categoryRepo); err != nil {
			log.Fatal("Failed to import products:", err)
		}
	}

	fmt.Println("Seeding completed successfully!")
}

func seedAdmin(userRepo repository.UserRepository) error {
	email := getEnv("ADMIN_EMAIL", "admin@eshop.local")
	password := getEnv("ADMIN_PASSWORD", "changeme123")

	existing, err := userRepo.FindByEmail(email)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	if existing != nil {
		fmt.Printf("Admin account already exists: %s\n", email)
		return nil
	}

	hash, err := util.HashPassword(password)
	if err != nil {
		return err
	}

	admin := &model.User{
		Name:         "Administrator",
		Email:        email,
		PasswordHash: hash,
		IsAdmin:      true,
	}
	if err := userRepo.Create(admin); err != nil {
		return err
	}

	fmt.Printf("Admin account created: %s\n", email)
	return nil
}

func seedCategories(categoryRepo repository.CategoryRepository) error {
	existing, err := categoryRepo.FindAll()
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		fmt.Printf("Categories already present: %d\n", len(existing))
		return nil
	}

	starters := []model.Category{
		{Name: "Electronics", Icon: "devices", Color: "#2196F3"},
		{Name: "Clothing", Icon: "checkroom", Color: "#E91E63"},
		{Name: "Home & Garden", Icon: "home", Color: "#4CAF50"},
		{Name: "Beauty", Icon: "spa", Color: "#9C27B0"},
	}
	for i := range starters {
		if err := categoryRepo.Create(&starters[i]); err != nil {
			return err
		}
	}

	fmt.Printf("Starter categories created: %d\n", len(starters))
	return nil
}

func importProducts(filePath string, categoryRepo repository.CategoryRepository) error {
	fmt.Printf("Reading XLSX file: %s\n", filePath)

	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to open XLSX file: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return fmt.Errorf("no sheets found in XLSX file")
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return fmt.Errorf("failed to read rows: %w", err)
	}
	if len(rows) < 2 {
		return fmt.Errorf("no data rows found in XLSX file")
	}

	categories, err := categoryRepo.FindAll()
	if err != nil {
		return err
	}
	categoryByName := make(map[string]uint, len(categories))
	for _, category := range categories {
		categoryByName[category.Name] = category.ID
	}

	var products []model.Product
	skipped := 0
	for i, row := range rows[1:] {
		if len(row) < 6 {
			skipped++
			continue
		}

		price, err := strconv.ParseFloat(row[3], 64)
		if err != nil || price <= 0 {
			fmt.Printf("Skipping row %d: invalid price %q\n", i+2, row[3])
			skipped++
			continue
		}

		categoryID, ok := categoryByName[row[4]]
		if !ok {
			fmt.Printf("Skipping row %d: unknown category %q\n", i+2, row[4])
			skipped++
			continue
		}

		stock, err := strconv.Atoi(row[5])
		if err != nil || stock < 0 {
			stock = 0
		}

		products = append(products, model.Product{
			Name:         row[0],
			Description:  row[1],
			Brand:        row[2],
			Price:        price,
			CategoryID:   categoryID,
			CountInStock: stock,
		})
	}

	if len(products) == 0 {
		fmt.Println("Nothing to import.")
		return nil
	}

	fmt.Printf("Total products to import: %d (skipped %d)\n", len(products), skipped)
	fmt.Print("Do you want to proceed with the import? (yes/no): ")
	var confirm string
	fmt.Scanln(&confirm)
	if confirm != "yes" && confirm != "y" {
		fmt.Println("Import cancelled.")
		return nil
	}

	if err := db.GetDB().CreateInBatches(products, 500).Error; err != nil {
		return err
	}

	fmt.Printf("Total products imported: %d\n", len(products))
	return nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
