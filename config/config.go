package config

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// StoreDriverMongo stores data in MongoDB
const StoreDriverMongo = "mongo"

// StoreDriverMemory stores data in memory, data is lost when the process exits
const StoreDriverMemory = "memory"

// Config holds application configuration
type Config struct {
	// HTTPAddr is the HTTP server's bind address
	HTTPAddr string `default:":5000" split_words:"true" required:"true"`

	// DbHost is the MongoDB server host
	DbHost string `default:"localhost" split_words:"true" required:"true"`

	// DbPort is the MongoDB server port
	DbPort int `default:"27017" split_words:"true" required:"true"`

	// DbUser is the MongoDB user
	DbUser string `default:"runboard-dev" split_words:"true" required:"true"`

	// DbPassword is the MongoDB password
	DbPassword string `default:"secretpassword" split_words:"true" required:"true"`

	// DbName is the database to connect to inside MongoDB
	DbName string `default:"runboard-api-dev" split_words:"true" required:"true"`

	// StoreDriver selects where data is kept, one of StoreDriverMongo or StoreDriverMemory
	StoreDriver string `default:"mongo" split_words:"true" required:"true"`

	// JWTSecret is the HMAC key bearer tokens are signed with
	JWTSecret string `envconfig:"JWT_SECRET" required:"true"`

	// TimeZone is the IANA name of the zone report date windows are built in, or Local
	TimeZone string `default:"Local" split_words:"true" required:"true"`

	// DashboardDays is the default dashboard window
	DashboardDays int `default:"7" split_words:"true"`

	// PageLimit is the default page size of listings
	PageLimit int `default:"10" split_words:"true"`

	// MaxPageLimit is the largest page size a caller may ask for
	MaxPageLimit int `default:"100" split_words:"true"`

	// CORSOrigin is the origin browsers may call the API from, * for any
	CORSOrigin string `envconfig:"CORS_ORIGIN" default:"*"`
}

// NewConfig loads configuration values from environment variables
func NewConfig() (*Config, error) {
	var config Config

	if err := envconfig.Process("app", &config); err != nil {
		return nil, fmt.Errorf("error loading values from environment variables: %s",
			err.Error())
	}

	if err := config.check(); err != nil {
		return nil, err
	}

	return &config, nil
}

// check ensures values which envconfig cannot validate are usable
func (c Config) check() error {
	if c.StoreDriver != StoreDriverMongo && c.StoreDriver != StoreDriverMemory {
		return fmt.Errorf("store driver must be \"%s\" or \"%s\", was \"%s\"",
			StoreDriverMongo, StoreDriverMemory, c.StoreDriver)
	}

	if _, err := c.Location(); err != nil {
		return err
	}

	if c.DashboardDays < 0 {
		return fmt.Errorf("dashboard days must not be negative")
	}

	if c.PageLimit < 1 || c.MaxPageLimit < c.PageLimit {
		return fmt.Errorf("page limit must be between 1 and max page limit (%d), was %d",
			c.MaxPageLimit, c.PageLimit)
	}

	return nil
}

// Location returns the time zone named by TimeZone
func (c Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("failed to load time zone \"%s\": %s", c.TimeZone, err.Error())
	}

	return loc, nil
}

// DbURI returns the MongoDB connection URI
func (c Config) DbURI() string {
	return fmt.Sprintf("mongodb://%s:%s@%s:%d", c.DbUser, c.DbPassword, c.DbHost, c.DbPort)
}

// String returns a log safe version of Config in string form. Redacts any sensative fields.
func (c Config) String() (string, error) {
	if c.DbPassword != "" {
		c.DbPassword = "REDACTED_NOT_EMPTY"
	}

	if c.JWTSecret != "" {
		c.JWTSecret = "REDACTED_NOT_EMPTY"
	}

	configBytes, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("failed to convert configuration into JSON: %s", err.Error())
	}

	return string(configBytes), nil
}
