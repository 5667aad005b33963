package main

import (
	"flag"
	"fmt"
	"log"
	"net/url"
	"strings"
)

// DBConfig wraps up all of the DB configuration
type DBConfig struct {
	Host string
	Port int
	User string
	Pass string
	Name string
}

// SMTPConfig wraps up all of the smpt configuration
type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Pass     string
	Sender   string
	FakeSMTP bool
}

// ArchivesSpaceConfig holds the ArchivesSpace credentials. APIURL is optional and
// overrides the value stored in the external_systems table.
type ArchivesSpaceConfig struct {
	APIURL string
	User   string
	Pass   string
}

// S3Config is the optional bucket that receives a copy of each MODS document
type S3Config struct {
	Bucket string
	Region string
	Prefix string
}

// FTPConfig is the optional ftp drop for MODS documents
type FTPConfig struct {
	Host string
	User string
	Pass string
	Dir  string
}

// FedoraConfig identifies the Fedora instance used for datastream diffs. BaseURL, when set,
// replaces the https://host:port/fedora default.
type FedoraConfig struct {
	Host    string
	Port    int
	User    string
	Pass    string
	BaseURL string
}

// AuthorityConfig maps a vocabulary source code to the URI prefix of its linked data ids
type AuthorityConfig struct {
	Code   string
	Prefix string
}

// parseAuthority parses a code=prefix authority flag value
func parseAuthority(val string) (AuthorityConfig, error) {
	code, prefix, found := strings.Cut(val, "=")
	code = strings.TrimSpace(code)
	prefix = strings.TrimSpace(prefix)
	if !found || code == "" || prefix == "" {
		return AuthorityConfig{}, fmt.Errorf("authority %q must have the form code=prefix", val)
	}
	u, err := url.Parse(prefix)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return AuthorityConfig{}, fmt.Errorf("authority %s prefix %q is not an absolute url", code, prefix)
	}
	return AuthorityConfig{Code: code, Prefix: prefix}, nil
}

// authorityFlag returns a flag.Func handler that appends each value to cfg.Authorities
func authorityFlag(cfg *ServiceConfig) func(string) error {
	return func(val string) error {
		auth, err := parseAuthority(val)
		if err != nil {
			return err
		}
		cfg.Authorities = append(cfg.Authorities, auth)
		return nil
	}
}

// ServiceConfig defines all of the MODS service configuration parameters
type ServiceConfig struct {
	Port          int
	SMTP          SMTPConfig
	DB            DBConfig
	ArchivesSpace ArchivesSpaceConfig
	OutputDir     string
	S3            S3Config
	FTP           FTPConfig
	Fedora        FedoraConfig
	JWTKey        string
	TreeDepth     int
	Authorities   []AuthorityConfig
	Debug         bool
}

// LoadConfiguration will load the service configuration from the commandline
// and return a pointer to it. Any failures are fatal.
func LoadConfiguration() *ServiceConfig {
	log.Printf("INFO: loading configuration...")
	var cfg ServiceConfig
	flag.IntVar(&cfg.Port, "port", 8080, "API service port (default 8080)")
	flag.StringVar(&cfg.OutputDir, "outdir", "", "MODS output directory")
	flag.StringVar(&cfg.JWTKey, "jwtkey", "", "JWT signature key")
	flag.IntVar(&cfg.TreeDepth, "treedepth", 20, "Maximum depth walked in a resource tree")
	flag.BoolVar(&cfg.Debug, "debug", false, "Dump assembled MODS data to the log")
	flag.Func("authority", "Extra authority source as code=prefix (repeatable)", authorityFlag(&cfg))

	// ArchivesSpace
	flag.StringVar(&cfg.ArchivesSpace.APIURL, "asapi", "", "ArchivesSpace API URL (defaults to the external system record)")
	flag.StringVar(&cfg.ArchivesSpace.User, "asuser", "", "ArchivesSpace user")
	flag.StringVar(&cfg.ArchivesSpace.Pass, "aspass", "", "ArchivesSpace password")

	// S3
	flag.StringVar(&cfg.S3.Bucket, "s3bucket", "", "S3 bucket for MODS documents (optional)")
	flag.StringVar(&cfg.S3.Region, "s3region", "us-east-1", "S3 region")
	flag.StringVar(&cfg.S3.Prefix, "s3prefix", "", "S3 key prefix")

	// FTP
	flag.StringVar(&cfg.FTP.Host, "ftphost", "", "FTP host:port for MODS documents (optional)")
	flag.StringVar(&cfg.FTP.User, "ftpuser", "", "FTP user")
	flag.StringVar(&cfg.FTP.Pass, "ftppass", "", "FTP password")
	flag.StringVar(&cfg.FTP.Dir, "ftpdir", "", "FTP target directory")

	// Fedora
	flag.StringVar(&cfg.Fedora.Host, "fedorahost", "", "Fedora host")
	flag.IntVar(&cfg.Fedora.Port, "fedoraport", 8443, "Fedora port")
	flag.StringVar(&cfg.Fedora.User, "fedorauser", "", "Fedora user")
	flag.StringVar(&cfg.Fedora.Pass, "fedorapass", "", "Fedora password")
	flag.StringVar(&cfg.Fedora.BaseURL, "fedoraurl", "", "Fedora base URL override")

	// SMTP
	flag.BoolVar(&cfg.SMTP.FakeSMTP, "stubsmtp", false, "Log email insted of sending (dev mode)")
	flag.StringVar(&cfg.SMTP.Host, "smtphost", "", "SMTP Host")
	flag.IntVar(&cfg.SMTP.Port, "smtpport", 0, "SMTP Port")
	flag.StringVar(&cfg.SMTP.User, "smtpuser", "", "SMTP User")
	flag.StringVar(&cfg.SMTP.Pass, "smtppass", "", "SMTP Password")
	flag.StringVar(&cfg.SMTP.Sender, "smtpsender", "archives-metadata@example.edu", "SMTP sender email")

	// DB connection params
	flag.StringVar(&cfg.DB.Host, "dbhost", "", "Database host")
	flag.IntVar(&cfg.DB.Port, "dbport", 3306, "Database port")
	flag.StringVar(&cfg.DB.Name, "dbname", "", "Database name")
	flag.StringVar(&cfg.DB.User, "dbuser", "", "Database user")
	flag.StringVar(&cfg.DB.Pass, "dbpass", "", "Database password")

	flag.Parse()

	if cfg.DB.Host == "" {
		log.Fatal("Parameter dbhost is required")
	}
	if cfg.DB.Name == "" {
		log.Fatal("Parameter dbname is required")
	}
	if cfg.DB.User == "" {
		log.Fatal("Parameter dbuser is required")
	}
	if cfg.DB.Pass == "" {
		log.Fatal("Parameter dbpass is required")
	}
	if cfg.ArchivesSpace.User == "" {
		log.Fatal("Parameter asuser is required")
	}
	if cfg.ArchivesSpace.Pass == "" {
		log.Fatal("Parameter aspass is required")
	}
	if cfg.OutputDir == "" {
		log.Fatal("Parameter outdir is required")
	}
	if cfg.JWTKey == "" {
		log.Fatal("Parameter jwtkey is required")
	}

	log.Printf("[CONFIG] port          = [%d]", cfg.Port)
	log.Printf("[CONFIG] dbhost        = [%s]", cfg.DB.Host)
	log.Printf("[CONFIG] dbport        = [%d]", cfg.DB.Port)
	log.Printf("[CONFIG] dbname        = [%s]", cfg.DB.Name)
	log.Printf("[CONFIG] dbuser        = [%s]", cfg.DB.User)
	log.Printf("[CONFIG] asapi         = [%s]", cfg.ArchivesSpace.APIURL)
	log.Printf("[CONFIG] asuser        = [%s]", cfg.ArchivesSpace.User)
	log.Printf("[CONFIG] outdir        = [%s]", cfg.OutputDir)
	log.Printf("[CONFIG] treedepth     = [%d]", cfg.TreeDepth)
	log.Printf("[CONFIG] s3bucket      = [%s]", cfg.S3.Bucket)
	log.Printf("[CONFIG] s3region      = [%s]", cfg.S3.Region)
	log.Printf("[CONFIG] s3prefix      = [%s]", cfg.S3.Prefix)
	log.Printf("[CONFIG] ftphost       = [%s]", cfg.FTP.Host)
	log.Printf("[CONFIG] ftpuser       = [%s]", cfg.FTP.User)
	log.Printf("[CONFIG] ftpdir        = [%s]", cfg.FTP.Dir)
	log.Printf("[CONFIG] fedorahost    = [%s]", cfg.Fedora.Host)
	log.Printf("[CONFIG] fedoraport    = [%d]", cfg.Fedora.Port)
	log.Printf("[CONFIG] fedorauser    = [%s]", cfg.Fedora.User)
	log.Printf("[CONFIG] fedoraurl     = [%s]", cfg.Fedora.BaseURL)
	for _, auth := range cfg.Authorities {
		log.Printf("[CONFIG] authority     = [%s=%s]", auth.Code, auth.Prefix)
	}
	log.Printf("[CONFIG] debug         = [%t]", cfg.Debug)

	if cfg.SMTP.FakeSMTP {
		log.Printf("[CONFIG] fakesmtp      = [true]")
	} else {
		log.Printf("[CONFIG] smtphost      = [%s]", cfg.SMTP.Host)
		log.Printf("[CONFIG] smtpport      = [%d]", cfg.SMTP.Port)
		log.Printf("[CONFIG] smtpuser      = [%s]", cfg.SMTP.User)
		log.Printf("[CONFIG] smtppass      = [%s]", cfg.SMTP.Pass)
		log.Printf("[CONFIG] smtpsender    = [%s]", cfg.SMTP.Sender)
	}

	return &cfg
}
