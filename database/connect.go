package database

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/microsoft/go-mssqldb"
	"github.com/xo/dburl"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/driver/sqlserver"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"lastManStanding/models"
)

// Connect opens DATABASE_URL (mysql://, postgres://, sqlserver://, sqlite:) and
// wraps the pooled connection in the matching gorm dialect.
func Connect(databaseURL string, logLevel logger.LogLevel) (*gorm.DB, error) {
	u, err := dburl.Parse(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid DATABASE_URL: %w", err)
	}

	dsn := u.DSN
	if u.Driver == "mysql" && !strings.Contains(dsn, "parseTime") {
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		dsn += sep + "charset=utf8mb4&parseTime=True&loc=UTC"
	}

	sqlDB, err := sql.Open(u.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create database handle: %w", err)
	}

	dialector, err := dialectorFor(u.Driver, sqlDB)
	if err != nil {
		sqlDB.Close()
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:  logger.Default.LogMode(logLevel),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if u.Driver == "sqlite3" {
		// a single writer avoids SQLITE_BUSY inside transactions
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(100)
		sqlDB.SetConnMaxLifetime(time.Hour)
	}

	return db, nil
}

func dialectorFor(driver string, conn *sql.DB) (gorm.Dialector, error) {
	switch driver {
	case "mysql":
		return mysql.New(mysql.Config{Conn: conn}), nil
	case "postgres":
		return postgres.New(postgres.Config{Conn: conn}), nil
	case "sqlserver":
		return sqlserver.New(sqlserver.Config{Conn: conn}), nil
	case "sqlite3":
		return &sqlite.Dialector{Conn: conn}, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

// AllModels lists every persisted model in dependency order.
func AllModels() []any {
	return []any{
		&models.User{},
		&models.Team{},
		&models.Week{},
		&models.Pool{},
		&models.PoolWeekSettings{},
		&models.Entry{},
		&models.Pick{},
		&models.WeeklyResult{},
		&models.AuditLog{},
		&models.ErrorLog{},
		&models.Migration{},
	}
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("error migrating database: %w", err)
	}
	return nil
}
