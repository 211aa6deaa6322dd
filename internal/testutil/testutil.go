// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/khanghh/klms/internal/config"
	"github.com/khanghh/klms/internal/credential"
	"github.com/khanghh/klms/internal/database"
	"github.com/khanghh/klms/model"
	"gorm.io/gorm"
)

// OpenDB returns a migrated in-memory sqlite database private to t.
func OpenDB(t testing.TB) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.Open(config.DatabaseConfig{
		Driver:       "sqlite",
		Dsn:          fmt.Sprintf("file:%s?mode=memory&cache=shared", name),
		MaxOpenConns: 1,
	}, false)
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate database: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

// CreateEmployee inserts an active employee with the given code, role and password.
func CreateEmployee(t testing.TB, db *gorm.DB, empID string, role model.Role, password string) *model.Employee {
	t.Helper()
	hash, err := credential.Hash(password)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	employee := &model.Employee{
		EmpID:        empID,
		Email:        strings.ToLower(empID) + "@example.com",
		FullName:     "Employee " + empID,
		Department:   "Engineering",
		Role:         role,
		IsActive:     true,
		PasswordHash: hash,
	}
	if err := db.Create(employee).Error; err != nil {
		t.Fatalf("create employee: %v", err)
	}
	return employee
}

// Clock is a manually advanced time source.
type Clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func NewClock() *Clock {
	return &Clock{t: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
}
