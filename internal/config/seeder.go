package config

import (
	"log"
	"os"

	"escolapay/internal/adapters/persistence/models"
	"escolapay/internal/pkg/password"

	"gorm.io/gorm"
)

// Seeder handles database seeding
type Seeder struct {
	db *gorm.DB
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB) *Seeder {
	return &Seeder{db: db}
}

// Run executes all seeders. Every seeder is idempotent: existing rows are
// left alone.
func (s *Seeder) Run() error {
	log.Println("🌱 Running database seeders...")

	if err := s.seedSettings(); err != nil {
		return err
	}
	if err := s.seedAdminUser(); err != nil {
		log.Printf("⚠️ Admin seeder skipped: %v", err)
	}

	log.Println("✅ Database seeding completed")
	return nil
}

// seedSettings inserts the setting keys the late-fee procedure and the
// price recalculation read. Missing keys would break both flows.
func (s *Seeder) seedSettings() error {
	defaults := map[string]string{
		models.SettingPaymentDueDay:           "10",
		models.SettingLateFeePercentage:       "5",
		models.SettingRecalculationPercentage: "10",
	}

	for key, value := range defaults {
		var count int64
		s.db.Model(&models.SystemSetting{}).Where("`key` = ?", key).Count(&count)
		if count > 0 {
			continue
		}
		if err := s.db.Create(&models.SystemSetting{Key: key, Value: value}).Error; err != nil {
			return err
		}
		log.Printf("🌱 Setting seeded: %s = %s", key, value)
	}

	return nil
}

// seedAdminUser seeds the default admin user with its credential record.
// Development convenience only; production admins come from ADMIN_* env.
func (s *Seeder) seedAdminUser() error {
	var count int64
	s.db.Model(&models.User{}).Where("role = ?", models.RoleAdmin).Count(&count)
	if count > 0 {
		return nil // Admin already exists
	}

	dni := getenvDefault("ADMIN_DNI", "00000000")
	pass := getenvDefault("ADMIN_PASSWORD", "admin123456")

	hashedPassword, err := password.Hash(pass)
	if err != nil {
		return err
	}

	admin := &models.User{
		DNI:       dni,
		FirstName: "Admin",
		LastName:  "EscolaPay",
		Email:     getenvDefault("ADMIN_EMAIL", "admin@escolapay.com.ar"),
		Role:      models.RoleAdmin,
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(admin).Error; err != nil {
			return err
		}
		if err := tx.Create(&models.Account{
			UserID:       admin.ID,
			PasswordHash: hashedPassword,
		}).Error; err != nil {
			return err
		}

		log.Printf("✅ Admin user created: DNI %s", admin.DNI)
		return nil
	})
}

func getenvDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
