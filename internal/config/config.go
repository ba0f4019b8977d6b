// Package config parses the two INI files that describe a running
// gateway: a global server file and a per-application table.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-ini/ini"
)

// Global is the server-wide configuration (one INI file, [server]
// section).
type Global struct {
	Host                  string
	Port                  int
	LogPath               string
	Debug                 bool
	AllowedHosts          []string
	AsyncDefault          bool
	CassandraContactPoints []string
	SpoolDir              string
}

// LoadGlobal parses the global INI file.
func LoadGlobal(path string) (*Global, error) {
	cfg, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load global config %s: %w", path, err)
	}
	sec := cfg.Section("server")

	g := &Global{
		Host:         sec.Key("host").MustString("0.0.0.0"),
		Port:         sec.Key("port").MustInt(8400),
		LogPath:      sec.Key("log_path").String(),
		Debug:        sec.Key("debug").MustBool(false),
		AsyncDefault: sec.Key("async").MustBool(false),
		SpoolDir:     sec.Key("spool_dir").MustString("./spool"),
	}
	if v := sec.Key("allowed_hosts").String(); v != "" {
		g.AllowedHosts = splitCSV(v)
	}
	if v := sec.Key("cassandra_contact_points").String(); v != "" {
		g.CassandraContactPoints = splitCSV(v)
	}
	return g, nil
}

// AppEntry is one section of the application table, one per app.
type AppEntry struct {
	AppID    string
	Family   string // app_type
	Platform string // app_platform, pre-canonicalization
	VoIP     bool

	ApplePushURL     string
	AppleCertificate string
	AppleKey         string

	FirebasePushURL  string
	FirebaseAuthKey  string
	FirebaseAuthFile string

	LogRemoteURLs []string
	LogKey        string
	LogTimeoutS   int
}

// LoadApplications parses the application-table INI file, one AppEntry
// per section.
func LoadApplications(path string) ([]AppEntry, error) {
	cfg, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load application table %s: %w", path, err)
	}

	var entries []AppEntry
	for _, sec := range cfg.Sections() {
		if sec.Name() == ini.DefaultSection {
			continue
		}
		e := AppEntry{
			AppID:            sec.Key("app_id").MustString(sec.Name()),
			Family:           sec.Key("app_type").String(),
			Platform:         sec.Key("app_platform").String(),
			VoIP:             sec.Key("voip").MustBool(false),
			ApplePushURL:     sec.Key("apple_push_url").String(),
			AppleCertificate: sec.Key("apple_certificate").String(),
			AppleKey:         sec.Key("apple_key").String(),
			FirebasePushURL:  sec.Key("firebase_push_url").String(),
			FirebaseAuthKey:  sec.Key("firebase_authorization_key").String(),
			FirebaseAuthFile: sec.Key("firebase_authorization_file").String(),
			LogKey:           sec.Key("log_key").String(),
			LogTimeoutS:      sec.Key("log_time_out").MustInt(2),
		}
		if v := sec.Key("log_remote_urls").String(); v != "" {
			e.LogRemoteURLs = splitCSV(v)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// ResolvePath resolves a credential path relative to credentialsDir
// unless it is already absolute.
func ResolvePath(credentialsDir, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(credentialsDir, path)
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
