package chat

import (
	"context"
	"strings"
	"testing"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/pressdeck/editorial-chat/internal/identity"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	// one shared in-memory database per test
	dsn := "file:" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared"
	db, err := gorm.Open(gormsqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&identity.User{}, &Conversation{}, &Message{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func seedUser(t *testing.T, db *gorm.DB, email, role string) uint64 {
	t.Helper()
	u := &identity.User{
		Email:        email,
		PasswordHash: "x",
		Role:         role,
		DisplayName:  strings.Split(email, "@")[0],
	}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u.ID
}

func countRows(t *testing.T, db *gorm.DB, model any) int64 {
	t.Helper()
	var n int64
	if err := db.Model(model).Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}

func mustResolve(t *testing.T, r *Resolver, title string, uid uint64) *Conversation {
	t.Helper()
	conv, err := r.Resolve(context.Background(), title, uid)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	return conv
}
