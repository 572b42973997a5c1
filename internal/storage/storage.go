// Package storage provides the persistent backends of the policy store.
package storage

import (
	"fmt"
	"strconv"

	"github.com/keshon/connect-router/internal/datastore"
	"github.com/keshon/connect-router/internal/policy"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
)

// Drivers accepted by Open.
const (
	DriverDatastore = "datastore"
	DriverMySQL     = "mysql"
	DriverSQLite    = "sqlite"
	DriverRedis     = "redis"
	DriverMemory    = "memory"
)

// Options selects and configures a backend.
type Options struct {
	Driver     string
	Path       string // datastore JSON file
	MySQLDSN   string
	SQLitePath string
	RedisURL   string
	Logger     *zap.Logger
}

// Open returns the backend named by opts.Driver.
func Open(opts Options) (policy.Backend, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	switch opts.Driver {
	case DriverDatastore, "":
		cfg := datastore.DefaultConfig(opts.Path)
		cfg.Logger = log.Named("datastore")
		ds, err := datastore.NewWithConfig(cfg)
		if err != nil {
			return nil, err
		}
		return NewDatastore(ds), nil
	case DriverMySQL:
		if opts.MySQLDSN == "" {
			return nil, fmt.Errorf("MYSQL_DSN is not set")
		}
		return OpenGorm(mysql.Open(opts.MySQLDSN))
	case DriverSQLite:
		return OpenGorm(sqlite.Open(opts.SQLitePath))
	case DriverRedis:
		if opts.RedisURL == "" {
			return nil, fmt.Errorf("REDIS_URL is not set")
		}
		return OpenRedis(opts.RedisURL)
	case DriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", opts.Driver)
	}
}

func bucketKey(bucket uint64) string {
	return strconv.FormatUint(bucket, 10)
}
