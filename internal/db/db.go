package db

import (
	"strings"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/pressdeck/editorial-chat/internal/chat"
	"github.com/pressdeck/editorial-chat/internal/identity"
	"github.com/pressdeck/editorial-chat/internal/notify"
)

// Connect opens the record store. A tcp() DSN selects mysql; anything else
// is opened as a local sqlite file.
func Connect(dsn string) *gorm.DB {
	var dialector gorm.Dialector
	if strings.Contains(dsn, "@tcp(") {
		dialector = mysql.Open(dsn)
	} else {
		dialector = sqlite.Open(dsn)
	}
	gdb, err := gorm.Open(dialector, &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatal().Err(err).Msg("open database")
	}
	return gdb
}

// Migrate creates or updates the schema, including the unique title index
// that turns the conversation create race into a recoverable conflict.
func Migrate(gdb *gorm.DB) error {
	return gdb.AutoMigrate(
		&identity.User{},
		&chat.Conversation{},
		&chat.Message{},
		&notify.Notification{},
	)
}
