package host

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"kwork/pkg/address"
)

// Environment variables recognized by the agent-side harness. The session
// lifecycle manager sets these when it starts the agent process.
const (
	// EnvRole marks the session's role and enables the metadata
	// side-channel. Unset means no metadata is kept.
	EnvRole = "KW_ROLE"
	// EnvSession is the session's name within its worktree.
	EnvSession = "KW_SESSION"
	// EnvProject is the owning project name.
	EnvProject = "KW_PROJECT"
	// EnvTags is a comma/semicolon-separated initial tag list.
	EnvTags = "KW_TAGS"
	// EnvMetadataPath overrides the metadata file location.
	EnvMetadataPath = "KW_METADATA_PATH"
	// EnvStatusPath overrides the status log location.
	EnvStatusPath = "KW_STATUS_PATH"
	// EnvHome overrides the kwork state directory (default ~/.kwork).
	EnvHome = "KWORK_HOME"
	// EnvQueueDir overrides the queue root.
	EnvQueueDir = "KW_QUEUE_DIR"
	// EnvStatusDir overrides the status root.
	EnvStatusDir = "KW_STATUS_DIR"
	// EnvPollMS sets the queue poll interval in milliseconds.
	EnvPollMS = "KW_POLL_MS"
)

// Config is the resolved agent-side configuration for one session.
type Config struct {
	// Cwd is the session's working directory, the source of the fs key.
	// The lifecycle manager guarantees one live agent per fs key.
	Cwd string

	Role         string
	Session      string
	Project      string
	InitialTags  string
	MetadataPath string // explicit override; empty derives from fs key
	StatusPath   string // explicit override; empty derives from fs key

	QueueRoot    string
	StatusRoot   string
	MetadataRoot string
	PollInterval time.Duration
}

// FromEnv resolves the config from the process environment and working
// directory, mirroring the controller's path scheme so both sides agree on
// file locations without coordination.
func FromEnv() (Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return Config{}, fmt.Errorf("get working dir: %w", err)
	}
	home, err := kworkHome()
	if err != nil {
		return Config{}, err
	}
	return Config{
		Cwd:          cwd,
		Role:         os.Getenv(EnvRole),
		Session:      os.Getenv(EnvSession),
		Project:      os.Getenv(EnvProject),
		InitialTags:  os.Getenv(EnvTags),
		MetadataPath: os.Getenv(EnvMetadataPath),
		StatusPath:   os.Getenv(EnvStatusPath),
		QueueRoot:    envOr(EnvQueueDir, filepath.Join(home, "queues")),
		StatusRoot:   envOr(EnvStatusDir, filepath.Join(home, "status")),
		MetadataRoot: filepath.Join(home, "meta"),
		PollInterval: pollIntervalFromEnv(),
	}, nil
}

// pollIntervalFromEnv parses KW_POLL_MS. Zero or garbage falls back to the
// consumer default.
func pollIntervalFromEnv() time.Duration {
	ms, err := strconv.Atoi(os.Getenv(EnvPollMS))
	if err != nil || ms <= 0 {
		return 0
	}
	return time.Duration(ms) * time.Millisecond
}

// FsKey derives the session's filesystem key from its working directory.
func (c Config) FsKey() string {
	return address.FsKey(c.Cwd)
}

// metadataPath resolves the metadata file: explicit override first,
// otherwise <meta-root>/<fsKey>.json.
func (c Config) metadataPath() string {
	if c.MetadataPath != "" {
		return c.MetadataPath
	}
	return filepath.Join(c.MetadataRoot, c.FsKey()+".json")
}

func kworkHome() (string, error) {
	if v := os.Getenv(EnvHome); v != "" {
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".kwork"), nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
