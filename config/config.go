package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config enthält alle Konfigurationsparameter aus Umgebungsvariablen.
type Config struct {
	DBHost     string `envconfig:"DB_HOST" required:"true"`
	DBPort     int    `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" required:"true"`
	DBPassword string `envconfig:"DB_PASSWORD" required:"true"`
	DBName     string `envconfig:"DB_NAME" required:"true"`

	HTTPPort     string `envconfig:"HTTP_PORT" default:"4242"`
	APISecretKey string `envconfig:"API_SECRET_KEY"`

	PubMedBaseURL  string `envconfig:"PUBMED_BASE_URL" default:"https://eutils.ncbi.nlm.nih.gov/entrez/eutils"`
	PubMedAPIKey   string `envconfig:"PUBMED_API_KEY"`
	PubMedEmail    string `envconfig:"PUBMED_EMAIL"`
	PubMedTool     string `envconfig:"PUBMED_TOOL" default:"metacurate"`
	PubMedPageSize int    `envconfig:"PUBMED_PAGE_SIZE" default:"200"`
	// Obergrenze für IDs pro Suche, schützt vor versehentlichen Riesen-Importen
	PubMedMaxResults int `envconfig:"PUBMED_MAX_RESULTS" default:"5000"`

	EuropePMCBaseURL string `envconfig:"EUROPEPMC_BASE_URL" default:"https://www.ebi.ac.uk/europepmc/webservices/rest"`

	// Unpaywall-API für Open-Access-Links; ohne E-Mail deaktiviert
	UnpaywallBaseURL string `envconfig:"UNPAYWALL_BASE_URL" default:"https://api.unpaywall.org/v2"`
	UnpaywallEmail   string `envconfig:"UNPAYWALL_EMAIL"`

	NeurostoreBaseURL string `envconfig:"NEUROSTORE_BASE_URL" default:"https://neurostore.org/api"`
	NeurostoreToken   string `envconfig:"NEUROSTORE_TOKEN"`

	// Sitzungsspeicher für den Tabellenzustand; leer = In-Memory
	RedisAddr     string        `envconfig:"REDIS_ADDR"`
	RedisPassword string        `envconfig:"REDIS_PASSWORD"`
	RedisDB       int           `envconfig:"REDIS_DB" default:"0"`
	TableStateTTL time.Duration `envconfig:"TABLE_STATE_TTL" default:"720h"`

	// Export-Archiv; ohne Bucket deaktiviert
	S3Key      string `envconfig:"S3_KEY"`
	S3Secret   string `envconfig:"S3_SECRET"`
	S3URL      string `envconfig:"S3_URL"`
	S3Region   string `envconfig:"S3_REGION" default:"eu-central-1"`
	S3Bucket   string `envconfig:"S3_BUCKET"`
	S3Prefix   string `envconfig:"S3_PREFIX" default:"exports"`
	BackupPath string `envconfig:"BACKUP_PREFIX" default:"backups"`
	// Anzahl aufbewahrter Datenbank-Backups
	KeepBackups int `envconfig:"KEEP_BACKUPS" default:"4"`

	CronSchedule string `envconfig:"CRON_SCHEDULE" default:"0 3 * * *"`

	MetaAnalysisSpecPath string `envconfig:"META_ANALYSIS_SPEC_PATH"`
}

// DSN gibt den Data Source Name für die PostgreSQL-Verbindung zurück.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort)
}

// ArchiveEnabled meldet, ob S3 konfiguriert ist.
func (c *Config) ArchiveEnabled() bool {
	return c.S3Bucket != "" && c.S3URL != ""
}

// Load lädt die Konfiguration aus den Umgebungsvariablen.
func Load() (*Config, error) {
	_ = godotenv.Load()
	var c Config
	err := envconfig.Process("", &c)
	return &c, err
}
