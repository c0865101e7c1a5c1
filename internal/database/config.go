package database

import (
	"net"
	"net/url"
	"os"
)

type DBConfig struct {
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	DBName   string `yaml:"name"`
	SSLMode  string `yaml:"sslmode"`
	// SuperUser, when set, is used to create DBName if it does not exist yet.
	SuperUser     string `yaml:"super_user"`
	SuperPassword string `yaml:"super_password"`
}

// NewDBConfigFromEnv reads the DB_* variables.
func NewDBConfigFromEnv() DBConfig {
	return DBConfig{
		User:          os.Getenv("DB_USER"),
		Password:      os.Getenv("DB_PASSWORD"),
		Host:          os.Getenv("DB_HOST"),
		Port:          os.Getenv("DB_PORT"),
		DBName:        os.Getenv("DB_NAME"),
		SSLMode:       os.Getenv("DB_SSLMODE"),
		SuperUser:     os.Getenv("DB_SUPERUSER"),
		SuperPassword: os.Getenv("DB_SUPERPASSWORD"),
	}
}

// Merge fills empty fields of c from other.
func (c DBConfig) Merge(other DBConfig) DBConfig {
	pick := func(a, b string) string {
		if a != "" {
			return a
		}
		return b
	}
	return DBConfig{
		User:          pick(c.User, other.User),
		Password:      pick(c.Password, other.Password),
		Host:          pick(c.Host, other.Host),
		Port:          pick(c.Port, other.Port),
		DBName:        pick(c.DBName, other.DBName),
		SSLMode:       pick(c.SSLMode, other.SSLMode),
		SuperUser:     pick(c.SuperUser, other.SuperUser),
		SuperPassword: pick(c.SuperPassword, other.SuperPassword),
	}
}

func (c DBConfig) Complete() bool {
	return c.User != "" && c.Host != "" && c.Port != "" && c.DBName != ""
}

// TargetDSN builds a URL-encoded DSN for the application database.
func (c DBConfig) TargetDSN() string {
	return c.dsn(c.User, c.Password, c.DBName)
}

// AdminDSN builds a DSN for the superuser against the maintenance database.
// It is empty when no superuser is configured.
func (c DBConfig) AdminDSN() string {
	if c.SuperUser == "" {
		return ""
	}
	return c.dsn(c.SuperUser, c.SuperPassword, "postgres")
}

func (c DBConfig) dsn(user, password, dbName string) string {
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(user, password),
		Host:     net.JoinHostPort(c.Host, c.Port),
		Path:     "/" + dbName,
		RawQuery: url.Values{"sslmode": {sslMode}}.Encode(),
	}
	return u.String()
}
