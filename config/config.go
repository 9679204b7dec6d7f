package config

import (
	"errors"
	"flag"
	"net"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr          string
	DBUrl         string
	TokenSecret   string
	TokenTTL      time.Duration
	TokenCleanup  string
	Debug         bool
	PublicURL     string
	StorageDir    string
	StaticDir     string
	MaxUploadSize int64
	MaxSubmitSize int64
	CorsOrigins   []string
	OSS           OSSConfig
}

// OSSConfig selects the Aliyun OSS bucket backend when Bucket is set.
type OSSConfig struct {
	Endpoint   string
	AccessKey  string
	SecretKey  string
	Bucket     string
	PublicBase string
}

func (c OSSConfig) Enabled() bool {
	return c.Bucket != ""
}

// ParseFlags reads the command line. Every flag defaults to an environment
// variable, and a .env file in the working directory is loaded first.
func ParseFlags() (cfg Config, err error) {
	_ = godotenv.Load()

	var host string
	flag.StringVar(&host, "host", env("QFORMS_HOST", "0.0.0.0"), "listen host name")
	var port uint
	flag.UintVar(&port, "port", envUint("QFORMS_PORT", 5000), "listen port number")
	flag.StringVar(&cfg.DBUrl, "db-url", env("QFORMS_DB_URL", "qforms.sqlite"), "path to SQLite3 DB file")
	flag.StringVar(&cfg.TokenSecret, "token-secret", env("QFORMS_TOKEN_SECRET", ""), "secret key for token encryption and decryption")
	var ttl uint
	flag.UintVar(&ttl, "token-ttl", envUint("QFORMS_TOKEN_TTL", 3600), "access token TTL in seconds")
	flag.StringVar(&cfg.TokenCleanup, "token-cleanup", env("QFORMS_TOKEN_CLEANUP", "@every 6h"), "cron schedule for purging expired refresh tokens")
	flag.BoolVar(&cfg.Debug, "debug", envBool("QFORMS_DEBUG"), "log at DEBUG level")
	flag.StringVar(&cfg.PublicURL, "public-url", env("QFORMS_PUBLIC_URL", ""), "externally visible base URL (default derived from host and port)")
	flag.StringVar(&cfg.StorageDir, "storage-dir", env("QFORMS_STORAGE_DIR", "uploads"), "directory for uploaded files when OSS is not configured")
	flag.StringVar(&cfg.StaticDir, "static-dir", env("QFORMS_STATIC_DIR", "public"), "directory with the built web client")
	var maxUpload uint
	flag.UintVar(&maxUpload, "max-upload-size", envUint("QFORMS_MAX_UPLOAD_SIZE", 10<<20), "maximum size in bytes of a media or logo upload")
	var maxSubmit uint
	flag.UintVar(&maxSubmit, "max-submit-size", envUint("QFORMS_MAX_SUBMIT_SIZE", 50<<20), "maximum size in bytes of a form submission body")
	var origins string
	flag.StringVar(&origins, "cors-origins", env("QFORMS_CORS_ORIGINS", "*"), "comma separated list of allowed CORS origins")

	flag.StringVar(&cfg.OSS.Endpoint, "oss-endpoint", env("ALI_OSS_ENDPOINT", ""), "Aliyun OSS endpoint")
	flag.StringVar(&cfg.OSS.AccessKey, "oss-access-key", env("ALI_OSS_ACCESS_KEY", ""), "Aliyun OSS access key")
	flag.StringVar(&cfg.OSS.SecretKey, "oss-secret-key", env("ALI_OSS_SECRET_KEY", ""), "Aliyun OSS secret key")
	flag.StringVar(&cfg.OSS.Bucket, "oss-bucket", env("ALI_OSS_BUCKET", ""), "Aliyun OSS bucket (enables OSS storage)")
	flag.StringVar(&cfg.OSS.PublicBase, "oss-public-base", env("ALI_OSS_PUBLIC_BASE", ""), "public base URL for OSS objects")
	flag.Parse()

	cfg.Addr = net.JoinHostPort(host, strconv.Itoa(int(port)))
	cfg.TokenTTL = time.Duration(ttl) * time.Second
	cfg.MaxUploadSize = int64(maxUpload)
	cfg.MaxSubmitSize = int64(maxSubmit)
	cfg.CorsOrigins = splitList(origins)
	if cfg.PublicURL == "" {
		cfg.PublicURL = cfg.Url()
	}
	cfg.PublicURL = strings.TrimRight(cfg.PublicURL, "/")

	if cfg.TokenSecret == "" {
		err = errors.New("missing parameter -token-secret")
		return
	}
	if cfg.OSS.Enabled() && (cfg.OSS.Endpoint == "" || cfg.OSS.AccessKey == "" || cfg.OSS.SecretKey == "") {
		err = errors.New("OSS storage needs -oss-endpoint, -oss-access-key and -oss-secret-key")
	}

	return
}

func (cfg Config) Url() (url string) {
	url = cfg.Addr
	url = regexp.MustCompile(`^0.0.0.0`).ReplaceAllString(url, "localhost")
	url = "http://" + url
	return
}

func env(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return strings.TrimSpace(v)
	}
	return def
}

func envUint(key string, def uint) uint {
	if v := env(key, ""); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			return uint(n)
		}
	}
	return def
}

func envBool(key string) bool {
	switch strings.ToLower(env(key, "")) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

func splitList(s string) (out []string) {
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return
}
